package webapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/communitycompass/compass/internal/domain"
	"github.com/communitycompass/compass/internal/query"
	"github.com/communitycompass/compass/internal/webserver"
	"github.com/communitycompass/compass/pkg/common"
	"github.com/communitycompass/compass/pkg/metrics"
)

func registerAdminRoutes() {
	webserver.AdminGET("/me", getAdminProfile)
	webserver.AdminGET("/providers", adminListProviders)
	webserver.AdminPOST("/providers", adminCreateProvider)
	webserver.AdminGET("/providers/export", adminExportProviders)
	webserver.AdminGET("/providers/:id", adminGetProvider)
	webserver.AdminPUT("/providers/:id", adminUpdateProvider)
	webserver.AdminDELETE("/providers/:id", adminDeleteProvider)
	webserver.AdminGET("/services", adminListServices)
	webserver.AdminGET("/directory", adminListDirectoryEntries)
	webserver.AdminPUT("/services/:id/status", adminUpdateServiceStatus)
	webserver.AdminGET("/metrics", adminMetrics)
}

func getAdminProfile(c echo.Context) error {
	var admin domain.Admin
	if err := GetDB(c).First(&admin, webserver.CurrentID(c)).Error; err != nil {
		return fail(c, http.StatusNotFound, "Admin not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"admin": admin})
}

func adminListProviders(c echo.Context) error {
	page, limit := parsePagination(c)

	tx := GetDB(c).Model(&domain.Provider{})
	tx = applySearch(tx, c.QueryParam("search"), "organization_name", "email")
	if v := c.QueryParam("verified"); v != "" {
		tx = tx.Where("verified = ?", v == "true")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to fetch providers")
	}
	var providers []domain.Provider
	if err := tx.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&providers).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to fetch providers")
	}
	meta := query.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}
	return paged(c, "providers", providers, meta)
}

type adminProviderPayload struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	OrganizationName string `json:"organization_name"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone"`
	Verified         *bool  `json:"verified"`
}

func (p *adminProviderPayload) validate(requirePassword bool) []string {
	var errs []string
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		errs = append(errs, "email must be a valid email address")
	}
	if requirePassword && len(p.Password) < 6 {
		errs = append(errs, "password must be at least 6 characters")
	}
	if !requirePassword && p.Password != "" && len(p.Password) < 6 {
		errs = append(errs, "password must be at least 6 characters")
	}
	if strings.TrimSpace(p.OrganizationName) == "" {
		errs = append(errs, "organization_name is required")
	}
	return errs
}

// adminCreateProvider provisions a provider account on behalf of an
// organization. Admin-created accounts start verified and get a welcome
// mail when SMTP is configured.
func adminCreateProvider(c echo.Context) error {
	var payload adminProviderPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Unable to parse provider parameters")
	}
	if errs := payload.validate(true); len(errs) > 0 {
		return failValidation(c, errs)
	}

	db := GetDB(c)
	var existing domain.Provider
	if err := db.Where("email = ?", payload.Email).First(&existing).Error; err == nil {
		return fail(c, http.StatusConflict, "A provider with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to create provider")
	}

	adminID := webserver.CurrentID(c)
	provider := domain.Provider{
		ID:               common.UUIDint64(),
		Email:            payload.Email,
		PasswordHash:     string(hash),
		OrganizationName: payload.OrganizationName,
		FirstName:        payload.FirstName,
		LastName:         payload.LastName,
		Phone:            payload.Phone,
		Verified:         true,
		CreatedByAdminID: &adminID,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := db.Create(&provider).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to create provider")
	}

	_ = webserver.GetApp(c).Mailer().SendWelcome(provider.Email, provider.OrganizationName)
	publishAudit(c, "create", "provider", provider.ID, provider.OrganizationName)
	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Provider created successfully",
		"provider": provider,
	})
}

func adminGetProvider(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusNotFound, "Provider not found")
	}

	db := GetDB(c)
	var provider domain.Provider
	if err := db.First(&provider, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "Provider not found")
	}

	var serviceCount, eventCount int64
	db.Model(&domain.Service{}).Where("provider_id = ?", id).Count(&serviceCount)
	db.Model(&domain.Event{}).Where("provider_id = ?", id).Count(&eventCount)

	return c.JSON(http.StatusOK, echo.Map{
		"provider":      provider,
		"service_count": serviceCount,
		"event_count":   eventCount,
	})
}

func adminUpdateProvider(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusNotFound, "Provider not found")
	}

	db := GetDB(c)
	var provider domain.Provider
	if err := db.First(&provider, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "Provider not found")
	}

	var payload adminProviderPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Unable to parse provider parameters")
	}
	if errs := payload.validate(false); len(errs) > 0 {
		return failValidation(c, errs)
	}
	if payload.Email != provider.Email {
		var other domain.Provider
		if err := db.Where("email = ? AND id <> ?", payload.Email, id).First(&other).Error; err == nil {
			return fail(c, http.StatusConflict, "A provider with this email already exists")
		}
	}

	provider.Email = payload.Email
	provider.OrganizationName = payload.OrganizationName
	provider.FirstName = payload.FirstName
	provider.LastName = payload.LastName
	provider.Phone = payload.Phone
	if payload.Verified != nil {
		provider.Verified = *payload.Verified
	}
	if payload.Password != "" {
		hash, herr := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
		if herr != nil {
			return fail(c, http.StatusInternalServerError, "Failed to update provider")
		}
		provider.PasswordHash = string(hash)
	}
	provider.UpdatedAt = time.Now()

	if err := db.Save(&provider).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to update provider")
	}

	publishAudit(c, "update", "provider", provider.ID, provider.OrganizationName)
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Provider updated successfully",
		"provider": provider,
	})
}

// adminDeleteProvider removes a provider together with everything it owns.
func adminDeleteProvider(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusNotFound, "Provider not found")
	}

	db := GetDB(c)
	var provider domain.Provider
	if err := db.First(&provider, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "Provider not found")
	}

	if err := db.Where("provider_id = ?", id).Delete(&domain.Event{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to delete provider")
	}
	if err := db.Where("provider_id = ?", id).Delete(&domain.Service{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to delete provider")
	}
	if err := db.Delete(&provider).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to delete provider")
	}

	publishAudit(c, "delete", "provider", provider.ID, provider.OrganizationName)
	return c.JSON(http.StatusOK, echo.Map{"message": "Provider deleted successfully"})
}

// providerExportRow is the CSV shape of one provider account.
type providerExportRow struct {
	ID               int64  `csv:"id"`
	Email            string `csv:"email"`
	OrganizationName string `csv:"organization_name"`
	FirstName        string `csv:"first_name"`
	LastName         string `csv:"last_name"`
	Phone            string `csv:"phone"`
	Verified         bool   `csv:"verified"`
	CreatedAt        string `csv:"created_at"`
}

func adminExportProviders(c echo.Context) error {
	var providers []domain.Provider
	if err := GetDB(c).Order("created_at ASC").Find(&providers).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to export providers")
	}

	rows := make([]providerExportRow, 0, len(providers))
	for _, p := range providers {
		rows = append(rows, providerExportRow{
			ID:               p.ID,
			Email:            p.Email,
			OrganizationName: p.OrganizationName,
			FirstName:        p.FirstName,
			LastName:         p.LastName,
			Phone:            p.Phone,
			Verified:         p.Verified,
			CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		})
	}

	data, err := gocsv.MarshalString(&rows)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to export providers")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="providers.csv"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(data))
}

// adminListServices shows services in every status so pending submissions
// can be reviewed.
func adminListServices(c echo.Context) error {
	page, limit := parsePagination(c)

	tx := GetDB(c).Model(&domain.Service{})
	if v := c.QueryParam("status"); v != "" {
		if !domain.ValidServiceStatus(v) {
			return fail(c, http.StatusBadRequest, "Invalid service status")
		}
		tx = tx.Where("status = ?", v)
	}
	tx = applySearch(tx, c.QueryParam("search"), serviceSearchColumns...)

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

// adminListDirectoryEntries reports the open-data snapshot last written by
// the feed sync job.
func adminListDirectoryEntries(c echo.Context) error {
	page, limit := parsePagination(c)

	tx := GetDB(c).Model(&domain.DirectoryEntry{})
	if v := c.QueryParam("source"); v != "" {
		tx = tx.Where("source_key = ?", v)
	}
	tx = applySearch(tx, c.QueryParam("search"), "name", "description", "address")

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to fetch directory entries")
	}
	var entries []domain.DirectoryEntry
	if err := tx.Order("last_seen_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&entries).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to fetch directory entries")
	}
	meta := query.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}
	return paged(c, "entries", entries, meta)
}

// adminUpdateServiceStatus moves a service through the approval lifecycle.
func adminUpdateServiceStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusNotFound, "Service not found")
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Unable to parse status parameters")
	}
	if !domain.ValidServiceStatus(payload.Status) {
		return failValidation(c, []string{"status must be one of: " + strings.Join(domain.ServiceStatuses, ", ")})
	}

	db := GetDB(c)
	var service domain.Service
	if err := db.First(&service, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "Service not found")
	}

	service.Status = payload.Status
	service.UpdatedAt = time.Now()
	if err := db.Save(&service).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to update service status")
	}

	publishAudit(c, "update", "service", service.ID, "status:"+payload.Status)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Service status updated successfully",
		"service": service,
	})
}

// adminMetrics reports trailing 24 hour aggregates from the embedded
// time-series store.
func adminMetrics(c echo.Context) error {
	window := 24 * time.Hour
	names := []string{
		metrics.ApiRequests,
		metrics.ServiceViews,
		metrics.FeedSyncServices,
		metrics.FeedSyncErrors,
		metrics.SystemCpuPercent,
		metrics.SystemMemPercent,
	}
	summaries := make([]metrics.Summary, 0, len(names))
	for _, name := range names {
		summaries = append(summaries, metrics.Summarize(name, window))
	}
	return c.JSON(http.StatusOK, echo.Map{"window": "24h", "metrics": summaries})
}
