package domain

import "time"

// AccessToken is a bearer token issued by the provider's OAuth server.
type AccessToken struct {
	Value     string    `json:"access_token"`
	TokenType string    `json:"token_type"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the token is non-empty and not expiring within leeway.
func (t *AccessToken) Valid(now time.Time, leeway time.Duration) bool {
	if t == nil || t.Value == "" {
		return false
	}

	return now.Add(leeway).Before(t.ExpiresAt)
}
