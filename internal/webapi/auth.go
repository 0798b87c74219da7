package webapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/communitycompass/compass/internal/domain"
	"github.com/communitycompass/compass/internal/webserver"
)

func registerAuthRoutes() {
	webserver.PubPOST("/auth/provider/login", providerLogin)
	webserver.PubPOST("/auth/admin/login", adminLogin)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p *loginPayload) validate() []string {
	var errs []string
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		errs = append(errs, "email must be a valid email address")
	}
	if p.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

func providerLogin(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Unable to parse login parameters")
	}
	if errs := payload.validate(); len(errs) > 0 {
		return failValidation(c, errs)
	}

	var provider domain.Provider
	if err := GetDB(c).Where("email = ?", payload.Email).First(&provider).Error; err != nil {
		return fail(c, http.StatusUnauthorized, "Invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(provider.PasswordHash), []byte(payload.Password)) != nil {
		return fail(c, http.StatusUnauthorized, "Invalid email or password")
	}

	secret := webserver.GetApp(c).Config().Web.JwtSecret
	token, err := webserver.GenerateToken(secret, "provider", provider.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to issue token")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"provider": echo.Map{
			"id":                provider.ID,
			"email":             provider.Email,
			"organization_name": provider.OrganizationName,
			"first_name":        provider.FirstName,
			"last_name":         provider.LastName,
			"verified":          provider.Verified,
		},
		"token": token,
	})
}

func adminLogin(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Unable to parse login parameters")
	}
	if errs := payload.validate(); len(errs) > 0 {
		return failValidation(c, errs)
	}

	var admin domain.Admin
	if err := GetDB(c).Where("email = ?", payload.Email).First(&admin).Error; err != nil {
		return fail(c, http.StatusUnauthorized, "Invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(payload.Password)) != nil {
		return fail(c, http.StatusUnauthorized, "Invalid email or password")
	}

	secret := webserver.GetApp(c).Config().Web.JwtSecret
	token, err := webserver.GenerateToken(secret, "admin", admin.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to issue token")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"admin": echo.Map{
			"id":         admin.ID,
			"email":      admin.Email,
			"first_name": admin.FirstName,
			"last_name":  admin.LastName,
		},
		"token": token,
	})
}
