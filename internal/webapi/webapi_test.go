package webapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/communitycompass/compass/config"
	"github.com/communitycompass/compass/internal/app"
	"github.com/communitycompass/compass/internal/domain"
	"github.com/communitycompass/compass/internal/webserver"
	"github.com/communitycompass/compass/pkg/common"
)

type testEnv struct {
	app  *app.Application
	echo *echo.Echo
	cfg  *config.AppConfig
}

// newTestEnv boots the full application against a throwaway sqlite database
// and registers every route on a fresh web server.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	workdir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(workdir, "data"), 0o755))

	cfg := *config.DefaultAppConfig
	cfg.System.Workdir = workdir
	cfg.System.Debug = false
	cfg.Database = config.DBConfig{Type: "sqlite"}
	cfg.Logger = config.LogConfig{Mode: "development"}
	cfg.Smtp = config.SmtpConfig{}
	cfg.OpenData.SyncEnable = false

	application := app.NewApplication(&cfg)
	application.Init(&cfg)
	t.Cleanup(application.Release)

	ws := webserver.Init(application)
	RegisterRoutes()

	return &testEnv{app: application, echo: ws.Echo(), cfg: &cfg}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(payload))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (e *testEnv) createProvider(t *testing.T, email string) (domain.Provider, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	provider := domain.Provider{
		ID:               common.UUIDint64(),
		Email:            email,
		PasswordHash:     string(hash),
		OrganizationName: "Test Org",
		Verified:         true,
	}
	require.NoError(t, e.app.DB().Create(&provider).Error)

	token, err := webserver.GenerateToken(e.cfg.Web.JwtSecret, "provider", provider.ID)
	require.NoError(t, err)
	return provider, token
}

func (e *testEnv) createService(t *testing.T, providerID int64, name, status string, lat, lng float64) domain.Service {
	t.Helper()
	service := domain.Service{
		ID:          common.UUIDint64(),
		ProviderID:  providerID,
		Name:        name,
		Description: "test service",
		Category:    "healthcare",
		Status:      status,
		Latitude:    &lat,
		Longitude:   &lng,
	}
	require.NoError(t, e.app.DB().Create(&service).Error)
	return service
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestProviderLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createProvider(t, "org@example.org")

	rec := env.request(t, http.MethodPost, "/api/auth/provider/login", "",
		map[string]string{"email": "org@example.org", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	assert.NotEmpty(t, body["token"])

	rec = env.request(t, http.MethodPost, "/api/auth/provider/login", "",
		map[string]string{"email": "org@example.org", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	errBody := decodeBody(t, rec)["error"].(map[string]interface{})
	assert.Equal(t, "Invalid email or password", errBody["message"])
}

func TestAdminSeedLogin(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodPost, "/api/auth/admin/login", "",
		map[string]string{"email": env.cfg.Admin.Email, "password": env.cfg.Admin.Password})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["token"])
}

func TestCreateServiceForcesPending(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createProvider(t, "org@example.org")

	rec := env.request(t, http.MethodPost, "/api/services", token, map[string]interface{}{
		"name":        "Food Pantry",
		"description": "Weekly groceries",
		"category":    "food",
		"status":      "active",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Service created successfully and is pending approval", body["message"])
	service := body["service"].(map[string]interface{})
	assert.Equal(t, domain.ServiceStatusPending, service["status"])
}

func TestServiceOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createProvider(t, "owner@example.org")
	_, otherToken := env.createProvider(t, "other@example.org")
	service := env.createService(t, owner.ID, "Owned Clinic", domain.ServiceStatusActive, 41.88, -87.63)

	update := map[string]interface{}{
		"name":        "Renamed Clinic",
		"description": "test",
		"category":    "healthcare",
	}

	// A foreign service exists but is not yours: 403, not 404.
	rec := env.request(t, http.MethodPut, "/api/services/"+formatID(service.ID), otherToken, update)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodDelete, "/api/services/"+formatID(service.ID), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A missing service is 404 for everyone.
	rec = env.request(t, http.MethodPut, "/api/services/999999", otherToken, update)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetServiceIncrementsViewCount(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createProvider(t, "owner@example.org")
	service := env.createService(t, owner.ID, "Viewed Clinic", domain.ServiceStatusActive, 41.88, -87.63)

	env.request(t, http.MethodGet, "/api/services/"+formatID(service.ID), "", nil)
	rec := env.request(t, http.MethodGet, "/api/services/"+formatID(service.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stored domain.Service
	require.NoError(t, env.app.DB().First(&stored, service.ID).Error)
	assert.EqualValues(t, 2, stored.ViewCount)
}

func TestListServicesActiveOnlyWithGeo(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createProvider(t, "owner@example.org")
	env.createService(t, owner.ID, "Near Active", domain.ServiceStatusActive, 41.8827, -87.6233)
	env.createService(t, owner.ID, "Far Active", domain.ServiceStatusActive, 41.9742, -87.9073)
	env.createService(t, owner.ID, "Near Pending", domain.ServiceStatusPending, 41.8827, -87.6233)

	rec := env.request(t, http.MethodGet, "/api/services?latitude=41.8781&longitude=-87.6298&radius=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	services := body["services"].([]interface{})
	require.Len(t, services, 1)
	assert.Equal(t, "Near Active", services[0].(map[string]interface{})["name"])

	meta := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 1, meta["total"])
	assert.EqualValues(t, 1, meta["totalPages"])

	// The shorter lat/lng aliases hit the same radius filter.
	rec = env.request(t, http.MethodGet, "/api/services?lat=41.8781&lng=-87.6298&radius=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["services"].([]interface{}), 1)
}

func TestListServicesStatusFilter(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createProvider(t, "owner@example.org")
	env.createService(t, owner.ID, "Active Clinic", domain.ServiceStatusActive, 41.88, -87.63)
	env.createService(t, owner.ID, "Pending Clinic", domain.ServiceStatusPending, 41.88, -87.63)

	// No status parameter keeps the active default.
	rec := env.request(t, http.MethodGet, "/api/services", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	services := decodeBody(t, rec)["services"].([]interface{})
	require.Len(t, services, 1)
	assert.Equal(t, "Active Clinic", services[0].(map[string]interface{})["name"])

	rec = env.request(t, http.MethodGet, "/api/services?status=pending", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	services = decodeBody(t, rec)["services"].([]interface{})
	require.Len(t, services, 1)
	assert.Equal(t, "Pending Clinic", services[0].(map[string]interface{})["name"])

	rec = env.request(t, http.MethodGet, "/api/services?status=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListServicesPagination(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createProvider(t, "owner@example.org")
	for i := 0; i < 5; i++ {
		env.createService(t, owner.ID, "Clinic", domain.ServiceStatusActive, 41.88, -87.63)
	}

	rec := env.request(t, http.MethodGet, "/api/services?page=2&limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["services"].([]interface{}), 2)
	meta := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 5, meta["total"])
	assert.EqualValues(t, 3, meta["totalPages"])
}

func TestEventsDefaultStatusFilter(t *testing.T) {
	env := newTestEnv(t)
	owner, token := env.createProvider(t, "owner@example.org")

	rec := env.request(t, http.MethodPost, "/api/events", token, map[string]interface{}{
		"title":       "Job Fair",
		"description": "Hiring event",
		"start_date":  time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	done := domain.Event{
		ID:          common.UUIDint64(),
		ProviderID:  owner.ID,
		Title:       "Past Workshop",
		Description: "finished",
		StartDate:   time.Now().Add(-72 * time.Hour),
		Status:      domain.EventStatusCompleted,
	}
	require.NoError(t, env.app.DB().Create(&done).Error)

	rec = env.request(t, http.MethodGet, "/api/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decodeBody(t, rec)["events"].([]interface{})
	require.Len(t, events, 1)
	assert.Equal(t, "Job Fair", events[0].(map[string]interface{})["title"])

	rec = env.request(t, http.MethodGet, "/api/events?status=completed", "", nil)
	events = decodeBody(t, rec)["events"].([]interface{})
	require.Len(t, events, 1)
	assert.Equal(t, "Past Workshop", events[0].(map[string]interface{})["title"])
}

func TestEventsDateWindowFilter(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createProvider(t, "owner@example.org")

	makeEvent := func(title string, start time.Time) {
		event := domain.Event{
			ID:          common.UUIDint64(),
			ProviderID:  owner.ID,
			Title:       title,
			Description: "scheduled",
			StartDate:   start,
			Status:      domain.EventStatusUpcoming,
		}
		require.NoError(t, env.app.DB().Create(&event).Error)
	}
	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	makeEvent("Soon", base)
	makeEvent("Later", base.Add(10*24*time.Hour))

	from := base.Add(5 * 24 * time.Hour).Format(time.RFC3339)
	rec := env.request(t, http.MethodGet, "/api/events?startDate="+url.QueryEscape(from), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decodeBody(t, rec)["events"].([]interface{})
	require.Len(t, events, 1)
	assert.Equal(t, "Later", events[0].(map[string]interface{})["title"])

	to := base.Add(5 * 24 * time.Hour).Format(time.RFC3339)
	rec = env.request(t, http.MethodGet, "/api/events?endDate="+url.QueryEscape(to), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events = decodeBody(t, rec)["events"].([]interface{})
	require.Len(t, events, 1)
	assert.Equal(t, "Soon", events[0].(map[string]interface{})["title"])

	rec = env.request(t, http.MethodGet, "/api/events?startDate=garbage", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsServiceIdFilter(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createProvider(t, "owner@example.org")
	service := env.createService(t, owner.ID, "Host Clinic", domain.ServiceStatusActive, 41.88, -87.63)

	attached := domain.Event{
		ID:          common.UUIDint64(),
		ProviderID:  owner.ID,
		ServiceID:   &service.ID,
		Title:       "Clinic Open House",
		Description: "attached",
		StartDate:   time.Now().Add(24 * time.Hour),
		Status:      domain.EventStatusUpcoming,
	}
	require.NoError(t, env.app.DB().Create(&attached).Error)
	loose := domain.Event{
		ID:          common.UUIDint64(),
		ProviderID:  owner.ID,
		Title:       "Standalone Fair",
		Description: "unattached",
		StartDate:   time.Now().Add(24 * time.Hour),
		Status:      domain.EventStatusUpcoming,
	}
	require.NoError(t, env.app.DB().Create(&loose).Error)

	rec := env.request(t, http.MethodGet, "/api/events?serviceId="+formatID(service.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decodeBody(t, rec)["events"].([]interface{})
	require.Len(t, events, 1)
	assert.Equal(t, "Clinic Open House", events[0].(map[string]interface{})["title"])

	// The snake_case alias reaches the same filter.
	rec = env.request(t, http.MethodGet, "/api/events?service_id="+formatID(service.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["events"].([]interface{}), 1)

	rec = env.request(t, http.MethodGet, "/api/events?serviceId=not-a-number", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesRejectProviderToken(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createProvider(t, "org@example.org")

	rec := env.request(t, http.MethodGet, "/api/admin/providers", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/admin/providers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminCreateProvider(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	payload := map[string]interface{}{
		"email":             "new@example.org",
		"password":          "welcome1",
		"organization_name": "New Org",
	}
	rec := env.request(t, http.MethodPost, "/api/admin/providers", token, payload)
	require.Equal(t, http.StatusCreated, rec.Code)
	provider := decodeBody(t, rec)["provider"].(map[string]interface{})
	assert.Equal(t, true, provider["verified"])

	// Same email again is a conflict.
	rec = env.request(t, http.MethodPost, "/api/admin/providers", token, payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminServiceStatusUpdate(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createProvider(t, "owner@example.org")
	service := env.createService(t, owner.ID, "Pending Clinic", domain.ServiceStatusPending, 41.88, -87.63)
	token := env.adminToken(t)

	rec := env.request(t, http.MethodPut, "/api/admin/services/"+formatID(service.ID)+"/status", token,
		map[string]string{"status": "active"})
	require.Equal(t, http.StatusOK, rec.Code)

	var stored domain.Service
	require.NoError(t, env.app.DB().First(&stored, service.ID).Error)
	assert.Equal(t, domain.ServiceStatusActive, stored.Status)

	rec = env.request(t, http.MethodPut, "/api/admin/services/"+formatID(service.ID)+"/status", token,
		map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDirectoryCategories(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet, "/api/directory/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decodeBody(t, rec)["categories"].(map[string]interface{})
	assert.Contains(t, cats, "healthcare")
	assert.Contains(t, cats, "food")
}

func TestUnknownRouteEnvelope(t *testing.T) {
	env := newTestEnv(t)

	// Unknown paths stay 404 even under the guarded prefixes; only real
	// protected routes answer with token errors.
	for _, path := range []string{"/api/nope", "/api/admin/nope"} {
		rec := env.request(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusNotFound, rec.Code, path)
		errBody := decodeBody(t, rec)["error"].(map[string]interface{})
		assert.Equal(t, "Route not found", errBody["message"])
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	var admin domain.Admin
	require.NoError(t, e.app.DB().Where("email = ?", e.cfg.Admin.Email).First(&admin).Error)
	token, err := webserver.GenerateToken(e.cfg.Web.JwtSecret, "admin", admin.ID)
	require.NoError(t, err)
	return token
}
