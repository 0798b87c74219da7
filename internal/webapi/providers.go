package webapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/communitycompass/compass/internal/domain"
	"github.com/communitycompass/compass/internal/query"
	"github.com/communitycompass/compass/internal/webserver"
)

func registerProviderRoutes() {
	webserver.ProviderGET("/providers/me", getProviderProfile)
	webserver.ProviderPUT("/providers/me", updateProviderProfile)
	webserver.ProviderGET("/providers/me/services", listProviderServices)
	webserver.ProviderGET("/providers/me/events", listProviderEvents)
}

func getProviderProfile(c echo.Context) error {
	var provider domain.Provider
	if err := GetDB(c).First(&provider, webserver.CurrentID(c)).Error; err != nil {
		return fail(c, http.StatusNotFound, "Provider not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"provider": provider})
}

type providerProfilePayload struct {
	OrganizationName string `json:"organization_name"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone"`
	Password         string `json:"password"`
}

// updateProviderProfile edits the authenticated provider's own account.
// Email and verification state only change through the admin surface.
func updateProviderProfile(c echo.Context) error {
	db := GetDB(c)
	var provider domain.Provider
	if err := db.First(&provider, webserver.CurrentID(c)).Error; err != nil {
		return fail(c, http.StatusNotFound, "Provider not found")
	}

	var payload providerProfilePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Unable to parse profile parameters")
	}
	if strings.TrimSpace(payload.OrganizationName) == "" {
		return failValidation(c, []string{"organization_name is required"})
	}

	provider.OrganizationName = payload.OrganizationName
	provider.FirstName = payload.FirstName
	provider.LastName = payload.LastName
	provider.Phone = payload.Phone
	if payload.Password != "" {
		if len(payload.Password) < 6 {
			return failValidation(c, []string{"password must be at least 6 characters"})
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "Failed to update profile")
		}
		provider.PasswordHash = string(hash)
	}
	provider.UpdatedAt = time.Now()

	if err := db.Save(&provider).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to update profile")
	}

	publishAudit(c, "update", "provider", provider.ID, provider.OrganizationName)
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Profile updated successfully",
		"provider": provider,
	})
}

// listProviderServices returns the caller's own services in every status,
// pending included.
func listProviderServices(c echo.Context) error {
	page, limit := parsePagination(c)

	tx := GetDB(c).Model(&domain.Service{}).Where("provider_id = ?", webserver.CurrentID(c))
	if v := c.QueryParam("status"); v != "" {
		if !domain.ValidServiceStatus(v) {
			return fail(c, http.StatusBadRequest, "Invalid service status")
		}
		tx = tx.Where("status = ?", v)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to fetch services")
	}
	var services []domain.Service
	if err := tx.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&services).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to fetch services")
	}
	meta := query.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}
	return paged(c, "services", services, meta)
}

func listProviderEvents(c echo.Context) error {
	page, limit := parsePagination(c)

	tx := GetDB(c).Model(&domain.Event{}).Where("provider_id = ?", webserver.CurrentID(c))
	if v := c.QueryParam("status"); v != "" {
		if !domain.ValidEventStatus(v) {
			return fail(c, http.StatusBadRequest, "Invalid event status")
		}
		tx = tx.Where("status = ?", v)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to fetch events")
	}
	var events []domain.Event
	if err := tx.Order("start_date ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&events).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to fetch events")
	}
	meta := query.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}
	return paged(c, "events", events, meta)
}
