package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	echoapi "go.pilab.hu/esign/api/echo"
	"go.pilab.hu/esign/config"
	"go.pilab.hu/esign/log"
	"go.pilab.hu/esign/middleware"
)

// NewRequestID returns a request id of the form req_<uuid>.
func NewRequestID() string { return "req_" + uuid.NewString() }

// NewRouter builds the echo router with the signing routes, health and
// metrics endpoints.
func NewRouter(cfg *config.Config, appLogger log.Logger, signingAPI *echoapi.SigningAPI, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: NewRequestID}))
	e.Use(otelecho.Middleware(cfg.OtelServiceName))
	e.Use(middleware.AccessLog(appLogger))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	if signingAPI != nil {
		signingAPI.RegisterRoutes(e)
	}

	return e
}

// NewHTTPServer creates and configures a new echo HTTP server.
func NewHTTPServer(cfg *config.Config, appLogger log.Logger, signingAPI *echoapi.SigningAPI, gatherer prometheus.Gatherer) *http.Server {
	// Envelope dispatch may include a merge, bounded as a whole by merge.timeout.
	writeTimeout := cfg.Merge.Timeout + 60*time.Second

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, appLogger, signingAPI, gatherer),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}
