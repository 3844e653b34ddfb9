package domain

import (
	"strings"
	"time"
)

// Credential holds the provider's server-to-server authentication material.
// It is built once at startup and never mutated.
type Credential struct {
	IntegrationKey string   // OAuth client id, used as the JWT issuer
	UserID         string   // impersonated user, used as the JWT subject
	AccountID      string   // provider account the REST calls are scoped to
	PrivateKeyPEM  []byte   // RSA private key in PEM form
	AuthServer     string   // host of the OAuth server, e.g. account-d.docusign.com
	BasePath       string   // REST base, e.g. https://demo.docusign.net/restapi
	Scopes         []string // requested scopes, e.g. signature impersonation
	TokenLifetime  time.Duration
}

// Scope returns the space-separated scope claim.
func (c Credential) Scope() string {
	return strings.Join(c.Scopes, " ")
}

// TokenEndpoint returns the OAuth token URL for the auth server. A bare host
// is served over https; a value with a scheme is used as-is (test servers).
func (c Credential) TokenEndpoint() string {
	return AuthServerURL(c.AuthServer) + "/oauth/token"
}

// AuthServerURL normalizes an auth-server host into a base URL.
func AuthServerURL(host string) string {
	host = strings.TrimRight(host, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}

	return "https://" + host
}

// Audience returns the JWT audience, which is the auth-server host without scheme.
func (c Credential) Audience() string {
	aud := strings.TrimPrefix(c.AuthServer, "https://")
	aud = strings.TrimPrefix(aud, "http://")

	return strings.TrimRight(aud, "/")
}
