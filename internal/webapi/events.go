package webapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"

	"github.com/communitycompass/compass/internal/domain"
	"github.com/communitycompass/compass/internal/query"
	"github.com/communitycompass/compass/internal/webserver"
	"github.com/communitycompass/compass/pkg/common"
)

func registerEventRoutes() {
	webserver.PubGET("/events", listEvents)
	webserver.PubGET("/events/:id", getEvent)
	webserver.ProviderPOST("/events", createEvent)
	webserver.ProviderPUT("/events/:id", updateEvent)
	webserver.ProviderDELETE("/events/:id", deleteEvent)
}

// listEvents is the public event calendar. Without an explicit status filter
// only upcoming and ongoing events appear, soonest first.
func listEvents(c echo.Context) error {
	page, limit := parsePagination(c)

	tx := GetDB(c).Model(&domain.Event{})
	if v := c.QueryParam("status"); v != "" {
		if !domain.ValidEventStatus(v) {
			return fail(c, http.StatusBadRequest, "Invalid event status")
		}
		tx = tx.Where("status = ?", v)
	} else {
		tx = tx.Where("status IN ?", domain.DefaultEventStatuses)
	}
	if v := c.QueryParam("event_type"); v != "" && v != "all" {
		tx = tx.Where("event_type = ?", v)
	}
	if v := firstQueryParam(c, "serviceId", "service_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "serviceId must be a valid id")
		}
		tx = tx.Where("service_id = ?", id)
	}
	if v := c.QueryParam("startDate"); v != "" {
		from, err := dateparse.ParseAny(v)
		if err != nil {
			return fail(c, http.StatusBadRequest, "startDate is not a recognizable date")
		}
		tx = tx.Where("start_date >= ?", from)
	}
	if v := c.QueryParam("endDate"); v != "" {
		to, err := dateparse.ParseAny(v)
		if err != nil {
			return fail(c, http.StatusBadRequest, "endDate is not a recognizable date")
		}
		tx = tx.Where("start_date <= ?", to)
	}
	tx = applySearch(tx, c.QueryParam("search"), "title", "description")

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

func getEvent(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusNotFound, "Event not found")
	}

	db := GetDB(c)
	var event domain.Event
	if err := db.First(&event, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "Event not found")
	}

	var provider domain.Provider
	_ = db.First(&provider, event.ProviderID).Error

	resp := echo.Map{
		"event": event,
		"provider": echo.Map{
			"organization_name": provider.OrganizationName,
			"email":             provider.Email,
		},
	}
	if event.ServiceID != nil {
		var service domain.Service
		if err := db.First(&service, *event.ServiceID).Error; err == nil {
			resp["service"] = echo.Map{"id": service.ID, "name": service.Name}
		}
	}
	return c.JSON(http.StatusOK, resp)
}

type eventPayload struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	EventType            string `json:"event_type"`
	StartDate            string `json:"start_date"`
	EndDate              string `json:"end_date"`
	Status               string `json:"status"`
	LocationType         string `json:"location_type"`
	Address              string `json:"address"`
	VirtualLink          string `json:"virtual_link"`
	Capacity             *int   `json:"capacity"`
	RegistrationRequired bool   `json:"registration_required"`
	RegistrationURL      string `json:"registration_url"`
	ServiceID            *int64 `json:"service_id,string"`

	startAt time.Time
	endAt   *time.Time
}

// validate checks required fields and parses the date strings. The dates
// accept any common layout, not just RFC 3339.
func (p *eventPayload) validate() []string {
	var errs []string
	if strings.TrimSpace(p.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		errs = append(errs, "description is required")
	}
	if strings.TrimSpace(p.StartDate) == "" {
		errs = append(errs, "start_date is required")
	} else if t, err := dateparse.ParseAny(p.StartDate); err != nil {
		errs = append(errs, "start_date is not a recognizable date")
	} else {
		p.startAt = t
	}
	if strings.TrimSpace(p.EndDate) != "" {
		if t, err := dateparse.ParseAny(p.EndDate); err != nil {
			errs = append(errs, "end_date is not a recognizable date")
		} else {
			p.endAt = &t
		}
	}
	if p.endAt != nil && !p.startAt.IsZero() && p.endAt.Before(p.startAt) {
		errs = append(errs, "end_date must not be before start_date")
	}
	if p.Status != "" && !domain.ValidEventStatus(p.Status) {
		errs = append(errs, "status must be one of: "+strings.Join(domain.EventStatuses, ", "))
	}
	if p.LocationType != "" && !domain.ValidEventLocationType(p.LocationType) {
		errs = append(errs, "location_type must be one of: "+strings.Join(domain.EventLocationTypes, ", "))
	}
	return errs
}

func (p *eventPayload) apply(e *domain.Event) {
	e.Title = p.Title
	e.Description = p.Description
	e.EventType = p.EventType
	e.StartDate = p.startAt
	e.EndDate = p.endAt
	if p.Status != "" {
		e.Status = p.Status
	}
	if p.LocationType != "" {
		e.LocationType = p.LocationType
	}
	e.Address = p.Address
	e.VirtualLink = p.VirtualLink
	e.Capacity = p.Capacity
	e.RegistrationRequired = p.RegistrationRequired
	e.RegistrationURL = p.RegistrationURL
	e.ServiceID = p.ServiceID
}

// createEvent publishes a new event for the authenticated provider. An
// attached service must belong to the same provider.
func createEvent(c echo.Context) error {
	var payload eventPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Unable to parse event parameters")
	}
	if errs := payload.validate(); len(errs) > 0 {
		return failValidation(c, errs)
	}

	db := GetDB(c)
	providerID := webserver.CurrentID(c)
	if payload.ServiceID != nil {
		var service domain.Service
		if err := db.First(&service, *payload.ServiceID).Error; err != nil {
			return fail(c, http.StatusNotFound, "Service not found")
		}
		if service.ProviderID != providerID {
			return fail(c, http.StatusForbidden, "You do not have permission to attach events to this service")
		}
	}

	event := domain.Event{
		ID:           common.UUIDint64(),
		ProviderID:   providerID,
		Status:       domain.EventStatusUpcoming,
		LocationType: domain.EventLocationInPerson,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	payload.apply(&event)

	if err := db.Create(&event).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to create event")
	}

	publishAudit(c, "create", "event", event.ID, event.Title)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Event created successfully",
		"event":   event,
	})
}

func updateEvent(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusNotFound, "Event not found")
	}

	db := GetDB(c)
	var event domain.Event
	if err := db.First(&event, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "Event not found")
	}
	if event.ProviderID != webserver.CurrentID(c) {
		return fail(c, http.StatusForbidden, "You do not have permission to modify this event")
	}

	var payload eventPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Unable to parse event parameters")
	}
	if errs := payload.validate(); len(errs) > 0 {
		return failValidation(c, errs)
	}

	payload.apply(&event)
	event.UpdatedAt = time.Now()
	if err := db.Save(&event).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to update event")
	}

	publishAudit(c, "update", "event", event.ID, event.Title)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Event updated successfully",
		"event":   event,
	})
}

func deleteEvent(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusNotFound, "Event not found")
	}

	db := GetDB(c)
	var event domain.Event
	if err := db.First(&event, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "Event not found")
	}
	if event.ProviderID != webserver.CurrentID(c) {
		return fail(c, http.StatusForbidden, "You do not have permission to delete this event")
	}

	if err := db.Delete(&event).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to delete event")
	}

	publishAudit(c, "delete", "event", event.ID, event.Title)
	return c.JSON(http.StatusOK, echo.Map{"message": "Event deleted successfully"})
}
