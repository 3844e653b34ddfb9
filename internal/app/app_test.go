package app

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/esign/config"
	serrors "go.pilab.hu/esign/errors"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "private.key")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(path, pemBytes, 0o600))

	return &config.Config{
		DocuSign: config.DocuSignConfig{
			IntegrationKey: "ik",
			UserID:         "user",
			AccountID:      "acc",
			PrivateKeyPath: path,
			AuthServer:     "account-d.docusign.com",
			BasePath:       "https://demo.docusign.net/restapi",
			Scopes:         []string{"signature", "impersonation"},
			ExpiresIn:      time.Hour,
			AuthMode:       config.AuthModeDirect,
		},
		TokenCache: config.TokenCacheConfig{Backend: config.CacheNone, Leeway: time.Minute},
	}
}

func TestNew_Backends(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		closers int
	}{
		{"no cache", func(*config.Config) {}, 0},
		{"memory cache", func(c *config.Config) { c.TokenCache.Backend = config.CacheMemory }, 1},
		{"redis cache", func(c *config.Config) {
			c.TokenCache.Backend = config.CacheRedis
			c.TokenCache.RedisAddr = mr.Addr()
		}, 1},
		{"oauth2 source", func(c *config.Config) { c.DocuSign.AuthMode = config.AuthModeOAuth2 }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			a, err := New(context.Background(), cfg, nil)
			require.NoError(t, err)
			assert.NotNil(t, a.Lifecycle)
			assert.Len(t, a.closers, tt.closers)
			assert.NoError(t, a.Close())
		})
	}
}

func TestNew_RedisUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.TokenCache.Backend = config.CacheRedis
	cfg.TokenCache.RedisAddr = "127.0.0.1:1"

	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNew_MissingCredential(t *testing.T) {
	cfg := testConfig(t)
	cfg.DocuSign.AccountID = ""

	_, err := New(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, serrors.ErrConfiguration)
}
