package webapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/communitycompass/compass/internal/query"
	"github.com/communitycompass/compass/internal/webserver"
)

// RegisterRoutes attaches every API route to the web server groups.
func RegisterRoutes() {
	registerAuthRoutes()
	registerServiceRoutes()
	registerEventRoutes()
	registerProviderRoutes()
	registerAdminRoutes()
	registerDirectoryRoutes()

	webserver.PubGET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "message": "Community Compass API"})
	})
}

// GetDB returns the request-scoped database handle.
func GetDB(c echo.Context) *gorm.DB {
	return webserver.GetApp(c).DB()
}

func fail(c echo.Context, code int, message string) error {
	return c.JSON(code, echo.Map{"error": echo.Map{"message": message}})
}

// failValidation reports a 400 with the per-field messages collected by the
// handler's parameter checks.
func failValidation(c echo.Context, errs []string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"error": echo.Map{"message": "Validation failed", "errors": errs},
	})
}

// paged responds with the entity list under key plus pagination metadata.
func paged(c echo.Context, key string, items interface{}, meta query.Pagination) error {
	return c.JSON(http.StatusOK, echo.Map{key: items, "pagination": meta})
}

func parsePagination(c echo.Context) (page, limit int) {
	page = query.DefaultPage
	limit = query.DefaultLimit
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// firstQueryParam returns the first non-empty value among the named query
// parameters, letting a route accept a legacy alias.
func firstQueryParam(c echo.Context, names ...string) string {
	for _, name := range names {
		if v := c.QueryParam(name); v != "" {
			return v
		}
	}
	return ""
}

// applySearch adds a dialect-appropriate case-insensitive LIKE clause over
// the given columns. Both dialects must agree with the in-memory engine's
// MatchSearch semantics.
func applySearch(db *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" {
		return db
	}
	pattern := "%" + strings.ToLower(term) + "%"
	var (
		clauses []string
		args    []interface{}
	)
	if db.Name() == "postgres" {
		for _, col := range columns {
			clauses = append(clauses, col+" ILIKE ?")
			args = append(args, "%"+term+"%")
		}
	} else {
		for _, col := range columns {
			clauses = append(clauses, "LOWER("+col+") LIKE ?")
			args = append(args, pattern)
		}
	}
	return db.Where(strings.Join(clauses, " OR "), args...)
}
