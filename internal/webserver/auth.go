package webserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/communitycompass/compass/internal/app"
)

// tokenTTL is how long issued bearer tokens stay valid.
const tokenTTL = 7 * 24 * time.Hour

// TokenClaims are the JWT claims carried by provider and admin tokens.
// Subject holds the account id; Typ separates the two credential types so a
// provider token can never reach an admin route.
type TokenClaims struct {
	Typ string `json:"typ"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed bearer token for the account.
func GenerateToken(secret, typ string, id int64) (string, error) {
	claims := TokenClaims{
		Typ: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func jwtMiddleware(appCtx app.AppContext) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(appCtx.Config().Web.JwtSecret),
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(TokenClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		},
	})
}

// requireType rejects tokens of the wrong credential type with 401, keeping
// the auth taxonomy distinct from the 403 ownership failures.
func requireType(typ string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := tokenClaims(c)
			if !ok || claims.Typ != typ {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token type")
			}
			return next(c)
		}
	}
}

// CurrentID returns the authenticated account id, or 0 when the route has
// no token.
func CurrentID(c echo.Context) int64 {
	claims, ok := tokenClaims(c)
	if !ok {
		return 0
	}
	id, _ := strconv.ParseInt(claims.Subject, 10, 64)
	return id
}

// CurrentType returns the credential type of the authenticated account.
func CurrentType(c echo.Context) string {
	claims, ok := tokenClaims(c)
	if !ok {
		return ""
	}
	return claims.Typ
}

func tokenClaims(c echo.Context) (*TokenClaims, bool) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil, false
	}
	claims, ok := token.Claims.(*TokenClaims)
	return claims, ok
}
