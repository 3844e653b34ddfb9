package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.pilab.hu/esign/domain"
	serrors "go.pilab.hu/esign/errors"
	"go.pilab.hu/esign/internal/auth"
)

// Config holds all configuration for the orchestrator.
// Tags use mapstructure for Viper unmarshalling.
type Config struct {
	HTTPAddr        string `mapstructure:"http_addr"`
	LogLevel        string `mapstructure:"log_level"`
	LogPretty       bool   `mapstructure:"log_pretty"`
	OtelServiceName string `mapstructure:"otel_service_name"`

	DocuSign   DocuSignConfig   `mapstructure:"docusign"`
	Merge      MergeConfig      `mapstructure:"merge"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Mail       MailConfig       `mapstructure:"mail"`
	TokenCache TokenCacheConfig `mapstructure:"token_cache"`
}

// DocuSignConfig is the provider credential material.
type DocuSignConfig struct {
	IntegrationKey string        `mapstructure:"integration_key"`
	UserID         string        `mapstructure:"user_id"`
	AccountID      string        `mapstructure:"account_id"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	AuthServer     string        `mapstructure:"auth_server"`
	BasePath       string        `mapstructure:"base_path"`
	Scopes         []string      `mapstructure:"scopes"`
	ExpiresIn      time.Duration `mapstructure:"expires_in"`
	AuthMode       string        `mapstructure:"auth_mode"` // direct | oauth2
}

type MergeConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type NotifyConfig struct {
	WebhookURL         string        `mapstructure:"webhook_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	DocumentCollection string        `mapstructure:"document_collection"`
	EnvelopeCollection string        `mapstructure:"envelope_collection"`
}

type MailConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	FromName string   `mapstructure:"from_name"`
	TLS      bool     `mapstructure:"tls"`
	CC       []string `mapstructure:"cc"`
}

// TokenCacheConfig selects where minted access tokens are kept.
type TokenCacheConfig struct {
	Backend     string        `mapstructure:"backend"` // none | memory | redis
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
	Leeway      time.Duration `mapstructure:"leeway"`
}

// Auth modes.
const (
	AuthModeDirect = "direct"
	AuthModeOAuth2 = "oauth2"
)

// Token cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("otel_service_name", "esign")

	v.SetDefault("docusign.integration_key", "")
	v.SetDefault("docusign.user_id", "")
	v.SetDefault("docusign.account_id", "")
	v.SetDefault("docusign.private_key_path", "")
	v.SetDefault("docusign.auth_server", "account-d.docusign.com")
	v.SetDefault("docusign.base_path", "https://demo.docusign.net/restapi")
	v.SetDefault("docusign.scopes", []string{"signature", "impersonation"})
	v.SetDefault("docusign.expires_in", "1h")
	v.SetDefault("docusign.auth_mode", AuthModeDirect)

	v.SetDefault("merge.base_url", "https://api.pdf.co")
	v.SetDefault("merge.api_key", "")
	v.SetDefault("merge.timeout", "60s")

	v.SetDefault("notify.webhook_url", "https://us-central1-freeme-6e63a.cloudfunctions.net/widgetsforusa/documents/update")
	v.SetDefault("notify.timeout", "10s")
	v.SetDefault("notify.document_collection", string(domain.DocumentCollection))
	v.SetDefault("notify.envelope_collection", string(domain.EnvelopeCollection))

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "info@duepro.com")
	v.SetDefault("mail.from_name", "DuePro DocuSign System")
	v.SetDefault("mail.tls", false)
	v.SetDefault("mail.cc", []string{})

	v.SetDefault("token_cache.backend", CacheNone)
	v.SetDefault("token_cache.redis_addr", "localhost:6379")
	v.SetDefault("token_cache.redis_prefix", "esign")
	v.SetDefault("token_cache.leeway", "60s")
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile is LoadConfig with an explicit config file. An empty path
// searches the default locations.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("esign_config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/esign/")
		v.AddConfigPath("$HOME/.esign")
	}

	v.SetEnvPrefix("ESIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	cfg.DocuSign.Scopes = splitList(cfg.DocuSign.Scopes)
	cfg.Mail.CC = splitList(cfg.Mail.CC)

	switch cfg.DocuSign.AuthMode {
	case AuthModeDirect, AuthModeOAuth2:
	default:
		return nil, fmt.Errorf("%w: unknown auth_mode %q", serrors.ErrConfiguration, cfg.DocuSign.AuthMode)
	}
	if cfg.DocuSign.ExpiresIn < time.Second {
		return nil, fmt.Errorf("%w: docusign.expires_in must be at least 1s, got %s", serrors.ErrConfiguration, cfg.DocuSign.ExpiresIn)
	}
	switch cfg.TokenCache.Backend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return nil, fmt.Errorf("%w: unknown token_cache.backend %q", serrors.ErrConfiguration, cfg.TokenCache.Backend)
	}

	return &cfg, nil
}

// Credential builds the immutable provider credential, reading the private
// key from disk.
func (c *Config) Credential() (domain.Credential, error) {
	ds := c.DocuSign

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"docusign.integration_key", ds.IntegrationKey},
		{"docusign.user_id", ds.UserID},
		{"docusign.account_id", ds.AccountID},
		{"docusign.private_key_path", ds.PrivateKeyPath},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return domain.Credential{}, fmt.Errorf("%w: missing %s", serrors.ErrConfiguration, strings.Join(missing, ", "))
	}

	key, err := auth.LoadPrivateKey(ds.PrivateKeyPath)
	if err != nil {
		return domain.Credential{}, err
	}

	return domain.Credential{
		IntegrationKey: ds.IntegrationKey,
		UserID:         ds.UserID,
		AccountID:      ds.AccountID,
		PrivateKeyPEM:  key,
		AuthServer:     ds.AuthServer,
		BasePath:       ds.BasePath,
		Scopes:         append([]string(nil), ds.Scopes...),
		TokenLifetime:  ds.ExpiresIn,
	}, nil
}

var (
	durationType    = reflect.TypeOf(time.Duration(0))
	stringSliceType = reflect.TypeOf([]string(nil))
)

// decodeHook reads bare numbers as seconds for durations, so
// `expires_in: 3600` is one hour. Strings bound to lists are left whole
// for splitList.
func decodeHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	switch {
	case to == durationType:
		return toDuration(data)
	case to == stringSliceType && from.Kind() == reflect.String:
		return []string{reflect.ValueOf(data).String()}, nil
	}

	return data, nil
}

func toDuration(data interface{}) (interface{}, error) {
	if d, ok := data.(time.Duration); ok {
		return d, nil
	}

	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(v.Int()) * time.Second, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return time.Duration(v.Uint()) * time.Second, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(v.Float() * float64(time.Second)), nil
	case reflect.String:
		s := strings.TrimSpace(v.String())
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Duration(secs) * time.Second, nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid duration %q", serrors.ErrConfiguration, s)
		}
		return d, nil
	}

	return data, nil
}

// splitList accepts both YAML lists and comma or space separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, part)
		}
	}

	return out
}
