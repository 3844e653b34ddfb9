package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.pilab.hu/esign/config"
	"go.pilab.hu/esign/internal/metrics"
	"go.pilab.hu/esign/log"
)

func testConfig() *config.Config {
	return &config.Config{HTTPAddr: ":0", OtelServiceName: "esign-test", Merge: config.MergeConfig{Timeout: time.Second}}
}

func TestRouter_Healthz(t *testing.T) {
	e := NewRouter(testConfig(), log.Nop(), nil, nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderXRequestID), "req_"))
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.InitCustomMetrics(reg)
	metrics.TemplatesCreatedTotal.Inc()

	e := NewRouter(testConfig(), log.Nop(), nil, reg)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "esign_templates_created_total")
}

func TestNewHTTPServer(t *testing.T) {
	srv := NewHTTPServer(testConfig(), log.Nop(), nil, nil)

	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, 61*time.Second, srv.WriteTimeout)
	assert.NotNil(t, srv.Handler)
}
