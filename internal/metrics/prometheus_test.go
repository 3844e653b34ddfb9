package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/esign/internal/metrics"
)

func TestInitCustomMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.InitCustomMetrics(reg)

	before := testutil.ToFloat64(metrics.TemplatesCreatedTotal)
	metrics.TemplatesCreatedTotal.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.TemplatesCreatedTotal))

	metrics.ProviderErrorsTotal.WithLabelValues("merge").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "esign_templates_created_total")
	assert.Contains(t, names, "esign_provider_errors_total")
}
