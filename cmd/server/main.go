package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"go.pilab.hu/esign/config"
	"go.pilab.hu/esign/internal/server"
	"go.pilab.hu/esign/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdLog := zerolog.New(os.Stdout).With().Timestamp().Logger()
		stdLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
	}
	appLogger := log.NewZerologAdapter(logLevel, cfg.LogPretty)
	appLogger.Info(context.Background(), "Starting esign server...", map[string]interface{}{
		"http_addr":    cfg.HTTPAddr,
		"log_level":    logLevel.String(),
		"auth_mode":    cfg.DocuSign.AuthMode,
		"token_cache":  cfg.TokenCache.Backend,
		"otel_service": cfg.OtelServiceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal(context.Background(), "Server stopped with error", err)
	}
}
