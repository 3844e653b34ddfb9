package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	echoapi "go.pilab.hu/esign/api/echo"
	"go.pilab.hu/esign/config"
	"go.pilab.hu/esign/internal/app"
	"go.pilab.hu/esign/internal/metrics"
	"go.pilab.hu/esign/log"
	"go.pilab.hu/esign/tracing"
)

// Run wires the application, serves HTTP until ctx is cancelled and then
// shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, appLogger log.Logger) error {
	tp, err := tracing.InitTracerProvider(cfg.OtelServiceName, nil)
	if err != nil {
		return err
	}
	appLogger.Info(ctx, "TracerProvider initialized.")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.InitCustomMetrics(reg)

	application, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return err
	}

	httpServer := NewHTTPServer(cfg, appLogger, echoapi.NewSigningAPI(application.Lifecycle, appLogger), reg)

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": cfg.HTTPAddr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		appLogger.Info(context.Background(), "Shutting down server...")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP server shutdown error", err)
	}
	if err := application.Close(); err != nil {
		appLogger.Error(shutdownCtx, "token cache shutdown error", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "TracerProvider shutdown error", err)
	}

	appLogger.Info(shutdownCtx, "Server gracefully stopped.")

	return serveErr
}
