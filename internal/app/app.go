// Package app wires the orchestrator's components from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"go.pilab.hu/esign/cache"
	"go.pilab.hu/esign/cache/redis"
	"go.pilab.hu/esign/config"
	"go.pilab.hu/esign/domain"
	"go.pilab.hu/esign/internal/auth"
	"go.pilab.hu/esign/internal/gateway"
	"go.pilab.hu/esign/internal/mailer"
	"go.pilab.hu/esign/internal/pdfmerge"
	"go.pilab.hu/esign/internal/pdfrender"
	"go.pilab.hu/esign/log"
	"go.pilab.hu/esign/services"
)

// App holds the wired pipeline and the resources to release on shutdown.
type App struct {
	Credential domain.Credential
	Lifecycle  *services.Lifecycle

	closers []func() error
}

// New builds the pipeline described by cfg.
func New(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Nop()
	}

	cred, err := cfg.Credential()
	if err != nil {
		return nil, err
	}

	a := &App{Credential: cred}

	tokens, err := a.tokenSource(ctx, cfg, cred, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	gw := gateway.New(cred.BasePath, cred.AccountID, http.DefaultClient, logger)
	templates := services.NewTemplateManager(gw, logger)

	var merger pdfmerge.Merger
	if cfg.Merge.BaseURL != "" && cfg.Merge.APIKey != "" {
		merger = pdfmerge.New(cfg.Merge.BaseURL, cfg.Merge.APIKey, cfg.Merge.Timeout, logger)
	}

	var mail mailer.Mailer = mailer.Nop{}
	if cfg.Mail.Host != "" {
		mail = mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			FromName: cfg.Mail.FromName,
			TLS:      cfg.Mail.TLS,
		}, logger)
	}

	a.Lifecycle = services.NewLifecycle(services.LifecycleDeps{
		Tokens:    tokens,
		Templates: templates,
		Envelopes: services.NewEnvelopeManager(gw, templates, merger, pdfrender.New(), logger),
		Status:    services.NewStatusTracker(gw),
		Artifacts: services.NewArtifactFetcher(gw),
		Notifier: services.NewNotificationDispatcher(cfg.Notify.WebhookURL, cfg.Notify.Timeout,
			services.WithCollectionNames(cfg.Notify.DocumentCollection, cfg.Notify.EnvelopeCollection),
			services.WithDispatcherLogger(logger),
		),
		Mailer: mail,
		MailCC: cfg.Mail.CC,
		Logger: logger,
	})

	return a, nil
}

func (a *App) tokenSource(ctx context.Context, cfg *config.Config, cred domain.Credential, logger log.Logger) (auth.TokenSource, error) {
	if cfg.DocuSign.AuthMode == config.AuthModeOAuth2 {
		return auth.NewOAuth2TokenSource(cred, http.DefaultClient), nil
	}

	signer, err := auth.NewKeySigner(cred.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}

	opts := []auth.Option{auth.WithLogger(logger)}
	store, err := a.tokenStore(ctx, cfg.TokenCache)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, auth.WithTokenStore(store, cfg.TokenCache.Leeway))
	}

	return auth.NewTokenProvider(cred, signer, opts...), nil
}

func (a *App) tokenStore(ctx context.Context, c config.TokenCacheConfig) (cache.TokenStore, error) {
	switch c.Backend {
	case config.CacheMemory:
		store := cache.NewMemoryTokenStore()
		a.closers = append(a.closers, store.Close)
		return store, nil
	case config.CacheRedis:
		client := goredis.NewClient(&goredis.Options{Addr: c.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", c.RedisAddr, err)
		}
		a.closers = append(a.closers, client.Close)
		return redis.NewTokenStore(client, c.RedisPrefix), nil
	default:
		return nil, nil
	}
}

// Close releases the token cache resources.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil

	return first
}
