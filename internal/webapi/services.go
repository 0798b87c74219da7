package webapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/communitycompass/compass/internal/app"
	"github.com/communitycompass/compass/internal/domain"
	"github.com/communitycompass/compass/internal/query"
	"github.com/communitycompass/compass/internal/webserver"
	"github.com/communitycompass/compass/pkg/common"
	"github.com/communitycompass/compass/pkg/geo"
	"github.com/communitycompass/compass/pkg/metrics"
)

func registerServiceRoutes() {
	webserver.PubGET("/services", listServices)
	webserver.PubGET("/services/:id", getService)
	webserver.ProviderPOST("/services", createService)
	webserver.ProviderPUT("/services/:id", updateService)
	webserver.ProviderDELETE("/services/:id", deleteService)
}

// serviceSearchColumns are the columns the search term matches against,
// mirroring the in-memory engine's candidate fields.
var serviceSearchColumns = []string{"name", "description", "address"}

// listServices is the public directory of active services. When the caller
// supplies an origin the radius filter and distance sort happen in memory
// after the database filter, and only then is the page cut.
func listServices(c echo.Context) error {
	page, limit := parsePagination(c)

	status := c.QueryParam("status")
	if status == "" {
		status = domain.ServiceStatusActive
	}
	if !domain.ValidServiceStatus(status) {
		return fail(c, http.StatusBadRequest, "Invalid service status")
	}

	tx := GetDB(c).Model(&domain.Service{}).Where("status = ?", status)
	if v := c.QueryParam("category"); v != "" && v != "all" {
		tx = tx.Where("category = ?", v)
	}
	if v := c.QueryParam("subcategory"); v != "" && v != "all" {
		tx = tx.Where("subcategory = ?", v)
	}
	tx = applySearch(tx, c.QueryParam("search"), serviceSearchColumns...)

	origin, radius, err := parseOrigin(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	if origin != nil {
		var all []domain.Service
		if err := tx.Order("created_at DESC").Find(&all).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "Failed to fetch services")
		}
		within := query.GeoFilterSort(all, *origin, radius)
		pageItems, meta := query.Paginate(within, page, limit)
		return paged(c, "services", pageItems, meta)
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

// parseOrigin reads the optional latitude/longitude/radius query parameters
// (lat/lng are accepted as aliases). Both coordinates must be present and
// inside valid bounds.
func parseOrigin(c echo.Context) (*geo.Point, float64, error) {
	latParam := c.QueryParam("latitude")
	if latParam == "" {
		latParam = c.QueryParam("lat")
	}
	lngParam := c.QueryParam("longitude")
	if lngParam == "" {
		lngParam = c.QueryParam("lng")
	}
	if latParam == "" && lngParam == "" {
		return nil, 0, nil
	}
	lat, latErr := strconv.ParseFloat(latParam, 64)
	lng, lngErr := strconv.ParseFloat(lngParam, 64)
	if latErr != nil || lngErr != nil {
		return nil, 0, errors.New("latitude and longitude must both be valid numbers")
	}
	point := geo.Point{Latitude: lat, Longitude: lng}
	if !point.Valid() {
		return nil, 0, errors.New("latitude and longitude are out of range")
	}
	radius := query.DefaultRadiusMiles
	if v, err := strconv.ParseFloat(c.QueryParam("radius"), 64); err == nil && v > 0 {
		radius = v
	}
	return &point, radius, nil
}

// getService returns one service with its provider contact details and the
// next few upcoming events. Every successful lookup counts as a view.
func getService(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusNotFound, "Service not found")
	}

	db := GetDB(c)
	var service domain.Service
	if err := db.First(&service, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "Service not found")
	}

	// Counted in SQL so concurrent views never lose increments.
	db.Model(&domain.Service{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	service.ViewCount++
	metrics.CounterInc(metrics.ServiceViews)

	var provider domain.Provider
	_ = db.First(&provider, service.ProviderID).Error

	var events []domain.Event
	_ = db.Where("service_id = ? AND status IN ?", id, domain.DefaultEventStatuses).
		Order("start_date ASC").Limit(5).
		Find(&events).Error

	return c.JSON(http.StatusOK, echo.Map{
		"service": service,
		"provider": echo.Map{
			"organization_name": provider.OrganizationName,
			"email":             provider.Email,
			"phone":             provider.Phone,
			"verified":          provider.Verified,
		},
		"events": events,
	})
}

type servicePayload struct {
	Name                    string   `json:"name"`
	Description             string   `json:"description"`
	Category                string   `json:"category"`
	Subcategory             string   `json:"subcategory"`
	Address                 string   `json:"address"`
	City                    string   `json:"city"`
	State                   string   `json:"state"`
	Zip                     string   `json:"zip"`
	Phone                   string   `json:"phone"`
	Email                   string   `json:"email"`
	Website                 string   `json:"website"`
	HoursOfOperation        string   `json:"hours_of_operation"`
	EligibilityRequirements string   `json:"eligibility_requirements"`
	Latitude                *float64 `json:"latitude"`
	Longitude               *float64 `json:"longitude"`
}

func (p *servicePayload) validate() []string {
	var errs []string
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		errs = append(errs, "description is required")
	}
	if strings.TrimSpace(p.Category) == "" {
		errs = append(errs, "category is required")
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		errs = append(errs, "latitude and longitude must be supplied together")
	}
	if p.Latitude != nil && p.Longitude != nil {
		if !(geo.Point{Latitude: *p.Latitude, Longitude: *p.Longitude}).Valid() {
			errs = append(errs, "latitude and longitude are out of range")
		}
	}
	return errs
}

func (p *servicePayload) apply(s *domain.Service) {
	s.Name = p.Name
	s.Description = p.Description
	s.Category = p.Category
	s.Subcategory = p.Subcategory
	s.Address = p.Address
	s.City = p.City
	s.State = p.State
	s.Zip = p.Zip
	s.Phone = p.Phone
	s.Email = p.Email
	s.Website = p.Website
	s.HoursOfOperation = p.HoursOfOperation
	s.EligibilityRequirements = p.EligibilityRequirements
	s.Latitude = p.Latitude
	s.Longitude = p.Longitude
}

// createService registers a new service for the authenticated provider. New
// services always start pending regardless of what the payload claims.
func createService(c echo.Context) error {
	var payload servicePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Unable to parse service parameters")
	}
	if errs := payload.validate(); len(errs) > 0 {
		return failValidation(c, errs)
	}

	providerID := webserver.CurrentID(c)
	service := domain.Service{
		ID:         common.UUIDint64(),
		ProviderID: providerID,
		Status:     domain.ServiceStatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	payload.apply(&service)

	if err := GetDB(c).Create(&service).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to create service")
	}

	publishAudit(c, "create", "service", service.ID, service.Name)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Service created successfully and is pending approval",
		"service": service,
	})
}

// updateService edits an owned service. Status and ownership never change
// through this route; activation stays an admin operation.
func updateService(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusNotFound, "Service not found")
	}

	db := GetDB(c)
	var service domain.Service
	if err := db.First(&service, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "Service not found")
	}
	if service.ProviderID != webserver.CurrentID(c) {
		return fail(c, http.StatusForbidden, "You do not have permission to modify this service")
	}

	var payload servicePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Unable to parse service parameters")
	}
	if errs := payload.validate(); len(errs) > 0 {
		return failValidation(c, errs)
	}

	payload.apply(&service)
	service.UpdatedAt = time.Now()
	if err := db.Save(&service).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to update service")
	}

	publishAudit(c, "update", "service", service.ID, service.Name)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Service updated successfully",
		"service": service,
	})
}

func deleteService(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusNotFound, "Service not found")
	}

	db := GetDB(c)
	var service domain.Service
	if err := db.First(&service, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "Service not found")
	}
	if service.ProviderID != webserver.CurrentID(c) {
		return fail(c, http.StatusForbidden, "You do not have permission to delete this service")
	}

	if err := db.Delete(&service).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to delete service")
	}

	publishAudit(c, "delete", "service", service.ID, service.Name)
	return c.JSON(http.StatusOK, echo.Map{"message": "Service deleted successfully"})
}

// publishAudit fires an audit event onto the bus for asynchronous
// persistence.
func publishAudit(c echo.Context, action, entity string, entityID int64, detail string) {
	appCtx := webserver.GetApp(c)
	appCtx.Bus().Publish(app.TopicAudit, app.AuditEvent{
		ActorType: webserver.CurrentType(c),
		ActorID:   webserver.CurrentID(c),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Detail:    detail,
	})
}
