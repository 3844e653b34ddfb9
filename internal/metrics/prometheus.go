package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	TokensIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esign_tokens_issued_total",
		Help: "Total number of access tokens obtained from the provider.",
	})
	TokenCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esign_token_cache_hits_total",
		Help: "Total number of access tokens served from the token cache.",
	})
	TemplatesCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esign_templates_created_total",
		Help: "Total number of templates created.",
	})
	EnvelopesCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esign_envelopes_created_total",
		Help: "Total number of envelopes created and sent.",
	})
	EnvelopesCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esign_envelopes_completed_total",
		Help: "Total number of status checks that found a completed envelope.",
	})
	ProviderErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "esign_provider_errors_total",
		Help: "Total number of failed pipeline steps by error kind.",
	}, []string{"kind"})
	NotificationsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esign_notifications_failed_total",
		Help: "Total number of status notifications that could not be delivered.",
	})
)

// InitCustomMetrics registers the custom Prometheus metrics.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	if reg == nil {
		log.Error().Msg("Prometheus registry is nil, cannot register custom metrics.")
		return
	}

	collectors := map[string]prometheus.Collector{
		"TokensIssuedTotal":        TokensIssuedTotal,
		"TokenCacheHitsTotal":      TokenCacheHitsTotal,
		"TemplatesCreatedTotal":    TemplatesCreatedTotal,
		"EnvelopesCreatedTotal":    EnvelopesCreatedTotal,
		"EnvelopesCompletedTotal":  EnvelopesCompletedTotal,
		"ProviderErrorsTotal":      ProviderErrorsTotal,
		"NotificationsFailedTotal": NotificationsFailedTotal,
	}
	for name, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to register metric")
		}
	}

	log.Info().Msg("Custom Prometheus metrics registered.")
}
