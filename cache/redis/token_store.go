package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.pilab.hu/esign/cache"
)

// TokenStore implements cache.TokenStore on Redis so that several service
// instances share one provider token.
type TokenStore struct {
	client *redis.Client
	prefix string
}

// NewTokenStore creates a new [TokenStore] instance
func NewTokenStore(client *redis.Client, prefix string) *TokenStore {
	return &TokenStore{
		client: client,
		prefix: prefix,
	}
}

// redisKey returns the Redis key for a given cache key
func (r *TokenStore) redisKey(key string) string {
	return fmt.Sprintf("%s:token:%s", r.prefix, key)
}

// Set stores the token as a hash and expires the key after ttl.
func (r *TokenStore) Set(ctx context.Context, entry *cache.TokenEntry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := r.redisKey(entry.Key)

	fields := map[string]interface{}{
		"key":        entry.Key,
		"token":      entry.TokenValue,
		"token_type": entry.TokenType,
		"issued_at":  entry.IssuedAt.Unix(),
		"expires_at": entry.ExpiresAt.Unix(),
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set token in Redis: %w", err)
	}

	return nil
}

// Get retrieves a token entry from Redis
func (r *TokenStore) Get(ctx context.Context, key string) (*cache.TokenEntry, error) {
	res, err := r.client.HGetAll(ctx, r.redisKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read token from Redis: %w", err)
	}
	if len(res) == 0 {
		return nil, cache.ErrTokenNotFound
	}

	issuedAt, err := strconv.ParseInt(res["issued_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid issued_at for token: %w", err)
	}
	expiresAt, err := strconv.ParseInt(res["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid expires_at for token: %w", err)
	}

	return &cache.TokenEntry{
		Key:        res["key"],
		TokenValue: res["token"],
		TokenType:  res["token_type"],
		IssuedAt:   time.Unix(issuedAt, 0),
		ExpiresAt:  time.Unix(expiresAt, 0),
	}, nil
}

// Delete removes a token from Redis
func (r *TokenStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to delete token from Redis: %w", err)
	}

	return nil
}

var _ cache.TokenStore = (*TokenStore)(nil)
