package webserver

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/communitycompass/compass/internal/app"
	"github.com/communitycompass/compass/pkg/metrics"
)

const appContextKey = "appctx"

var server *WebServer

// WebServer wraps the echo instance and the route groups handlers register
// against. Public routes live under /api, admin routes under /api/admin.
// The bearer-token guards attach per route rather than per group so an
// unknown path stays a plain 404 instead of a token error.
type WebServer struct {
	root       *echo.Echo
	appCtx     app.AppContext
	public     *echo.Group
	admin      *echo.Group
	providerMW []echo.MiddlewareFunc
	adminMW    []echo.MiddlewareFunc
}

// Init builds the singleton web server around the application context.
func Init(appCtx app.AppContext) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{appCtx.Config().Web.CorsOrigin},
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	// Make the application context reachable from every handler and count
	// requests into the metrics store.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appContextKey, appCtx)
			metrics.CounterInc(metrics.ApiRequests)
			return next(c)
		}
	})

	e.HTTPErrorHandler = errorHandler(appCtx)

	ws := &WebServer{
		root:       e,
		appCtx:     appCtx,
		public:     e.Group("/api"),
		admin:      e.Group("/api/admin"),
		providerMW: []echo.MiddlewareFunc{jwtMiddleware(appCtx), requireType("provider")},
		adminMW:    []echo.MiddlewareFunc{jwtMiddleware(appCtx), requireType("admin")},
	}

	server = ws
	return ws
}

// Listen starts serving and blocks.
func (ws *WebServer) Listen() error {
	cfg := ws.appCtx.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.S().Infof("web server listening on %s", addr)
	return ws.root.Start(addr)
}

// Echo exposes the underlying engine (used in tests).
func (ws *WebServer) Echo() *echo.Echo {
	return ws.root
}

// GetApp returns the application context injected by the middleware.
func GetApp(c echo.Context) app.AppContext {
	return c.Get(appContextKey).(app.AppContext)
}

// Route registration helpers, mirroring how handler packages attach their
// endpoints without importing echo group plumbing everywhere.

func PubGET(path string, h echo.HandlerFunc)  { server.public.GET(path, h) }
func PubPOST(path string, h echo.HandlerFunc) { server.public.POST(path, h) }

func ProviderGET(path string, h echo.HandlerFunc)    { server.public.GET(path, h, server.providerMW...) }
func ProviderPOST(path string, h echo.HandlerFunc)   { server.public.POST(path, h, server.providerMW...) }
func ProviderPUT(path string, h echo.HandlerFunc)    { server.public.PUT(path, h, server.providerMW...) }
func ProviderDELETE(path string, h echo.HandlerFunc) { server.public.DELETE(path, h, server.providerMW...) }

func AdminGET(path string, h echo.HandlerFunc)    { server.admin.GET(path, h, server.adminMW...) }
func AdminPOST(path string, h echo.HandlerFunc)   { server.admin.POST(path, h, server.adminMW...) }
func AdminPUT(path string, h echo.HandlerFunc)    { server.admin.PUT(path, h, server.adminMW...) }
func AdminDELETE(path string, h echo.HandlerFunc) { server.admin.DELETE(path, h, server.adminMW...) }

// errorHandler converts every uncaught error to the JSON error envelope.
// Unexpected errors become a generic 500; the stack only reaches the
// response in debug mode.
func errorHandler(appCtx app.AppContext) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal server error"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			}
			if code == http.StatusNotFound {
				message = "Route not found"
			}
		}

		body := map[string]interface{}{"message": message}
		if code == http.StatusInternalServerError {
			zap.L().Error("unhandled request error",
				zap.String("path", c.Request().URL.Path),
				zap.Error(err))
			if appCtx.Config().System.Debug {
				body["stack"] = string(debug.Stack())
			}
		}

		_ = c.JSON(code, map[string]interface{}{"error": body})
	}
}
