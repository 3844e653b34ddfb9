package cache

import (
	"context"
	"errors"
	"time"
)

// ErrTokenNotFound is returned when no live entry exists for a key.
var ErrTokenNotFound = errors.New("token not found")

// TokenEntry represents a cached provider access token.
type TokenEntry struct {
	Key        string    `redis:"key"`        // Hashed credential identity
	TokenValue string    `redis:"tokenValue"` // The bearer token
	TokenType  string    `redis:"tokenType"`  // Usually "Bearer"
	IssuedAt   time.Time `redis:"issuedAt"`
	ExpiresAt  time.Time `redis:"expiresAt"`
}

// TokenStore caches access tokens until shortly before they expire.
type TokenStore interface {
	Set(ctx context.Context, entry *TokenEntry, ttl time.Duration) error
	Get(ctx context.Context, key string) (*TokenEntry, error)
	Delete(ctx context.Context, key string) error
}
