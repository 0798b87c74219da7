package webapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/communitycompass/compass/internal/query"
	"github.com/communitycompass/compass/internal/webserver"
)

func registerDirectoryRoutes() {
	webserver.PubGET("/directory/services", listDirectoryServices)
	webserver.PubGET("/directory/categories", listDirectoryCategories)
}

// listDirectoryServices serves the live open-data directory. Matching feeds
// are fetched on demand, normalized and run through the shared filter
// pipeline; per-feed failures surface in the errors list without failing
// the request.
func listDirectoryServices(c echo.Context) error {
	appCtx := webserver.GetApp(c)

	origin, radius, err := parseOrigin(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	page, limit := parsePagination(c)

	category := c.QueryParam("category")
	if category == "" {
		category = "all"
	}
	subcategory := c.QueryParam("subcategory")

	result, err := appCtx.Fetcher().FetchByCategory(c.Request().Context(), category, subcategory)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to fetch directory data")
	}

	services, meta := query.Run(result.Services, query.Params{
		Search:      c.QueryParam("search"),
		Origin:      origin,
		RadiusMiles: radius,
		Page:        page,
		Limit:       limit,
	})

	errorsOut := result.Errors
	if errorsOut == nil {
		errorsOut = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"services":   services,
		"errors":     errorsOut,
		"pagination": meta,
	})
}

// listDirectoryCategories reports the category taxonomy covered by the
// registered feeds.
func listDirectoryCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"categories": webserver.GetApp(c).Registry().Categories(),
	})
}
