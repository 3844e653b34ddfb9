package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.pilab.hu/esign/cache"
	"go.pilab.hu/esign/domain"
	"go.pilab.hu/esign/dto"
	serrors "go.pilab.hu/esign/errors"
	"go.pilab.hu/esign/internal/metrics"
	"go.pilab.hu/esign/log"
)

// GrantTypeJWTBearer is the OAuth grant exchanged for an access token.
const GrantTypeJWTBearer = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// TokenSource yields provider access tokens.
type TokenSource interface {
	AccessToken(ctx context.Context) (*domain.AccessToken, error)
}

// TokenInvalidator is implemented by token sources that cache; Invalidate
// drops the cached token so the next AccessToken call mints a new one.
type TokenInvalidator interface {
	Invalidate(ctx context.Context) error
}

// TokenProvider builds JWT assertions with a KeySigner and exchanges them at
// the provider's token endpoint.
type TokenProvider struct {
	cred       domain.Credential
	signer     *KeySigner
	httpClient *http.Client
	store      cache.TokenStore
	leeway     time.Duration
	now        func() time.Time
	logger     log.Logger
}

// Option configures a TokenProvider.
type Option func(*TokenProvider)

// WithHTTPClient sets the client used for the token request.
func WithHTTPClient(c *http.Client) Option {
	return func(p *TokenProvider) { p.httpClient = c }
}

// WithTokenStore caches tokens until leeway before they expire. Without a
// store every call mints a new token.
func WithTokenStore(store cache.TokenStore, leeway time.Duration) Option {
	return func(p *TokenProvider) {
		p.store = store
		p.leeway = leeway
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(p *TokenProvider) { p.logger = l }
}

// WithClock overrides the clock used for expiry bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(p *TokenProvider) { p.now = now }
}

// NewTokenProvider creates a TokenProvider for cred.
func NewTokenProvider(cred domain.Credential, signer *KeySigner, opts ...Option) *TokenProvider {
	p := &TokenProvider{
		cred:       cred,
		signer:     signer,
		httpClient: http.DefaultClient,
		now:        time.Now,
		logger:     log.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Assertion signs a fresh assertion from the credential.
func (p *TokenProvider) Assertion() (string, error) {
	return p.signer.Sign(AssertionClaims{
		Issuer:   p.cred.IntegrationKey,
		Subject:  p.cred.UserID,
		Audience: p.cred.Audience(),
		Scope:    p.cred.Scope(),
		Lifetime: p.cred.TokenLifetime,
	})
}

// AccessToken returns a token for the configured credential, from the store
// when one is configured and still valid.
func (p *TokenProvider) AccessToken(ctx context.Context) (*domain.AccessToken, error) {
	key := p.cacheKey()

	if p.store != nil {
		entry, err := p.store.Get(ctx, key)
		switch {
		case err == nil:
			tok := &domain.AccessToken{Value: entry.TokenValue, TokenType: entry.TokenType, IssuedAt: entry.IssuedAt, ExpiresAt: entry.ExpiresAt}
			if tok.Valid(p.now(), p.leeway) {
				metrics.TokenCacheHitsTotal.Inc()
				return tok, nil
			}
		case !errors.Is(err, cache.ErrTokenNotFound):
			p.logger.Warn(ctx, "token cache read failed, minting a new token", map[string]interface{}{"error": err.Error()})
		}
	}

	assertion, err := p.Assertion()
	if err != nil {
		return nil, err
	}

	tok, err := p.Exchange(ctx, assertion)
	if err != nil {
		return nil, err
	}

	if p.store != nil {
		entry := &cache.TokenEntry{Key: key, TokenValue: tok.Value, TokenType: tok.TokenType, IssuedAt: tok.IssuedAt, ExpiresAt: tok.ExpiresAt}
		if err := p.store.Set(ctx, entry, tok.ExpiresAt.Sub(p.now())-p.leeway); err != nil {
			p.logger.Warn(ctx, "token cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return tok, nil
}

// Invalidate evicts the cached token for the credential, if any.
func (p *TokenProvider) Invalidate(ctx context.Context) error {
	if p.store == nil {
		return nil
	}

	return p.store.Delete(ctx, p.cacheKey())
}

func (p *TokenProvider) cacheKey() string {
	return cache.CredentialKey(p.cred.IntegrationKey, p.cred.UserID, p.cred.Scope())
}

// Exchange posts a signed assertion to the token endpoint.
func (p *TokenProvider) Exchange(ctx context.Context, assertion string) (*domain.AccessToken, error) {
	form := url.Values{
		"grant_type": {GrantTypeJWTBearer},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cred.TokenEndpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build token request: %w", serrors.ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	issuedAt := p.now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token request failed: %w", serrors.ErrAuth, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read token response: %w", serrors.ErrAuth, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if oe := serrors.ParseOAuth2Error(body); oe != nil {
			return nil, fmt.Errorf("%w: JWT request failed [%d]: %w; body: %s", serrors.ErrAuth, resp.StatusCode, oe, body)
		}
		return nil, fmt.Errorf("%w: JWT request failed [%d]: %s", serrors.ErrAuth, resp.StatusCode, body)
	}

	var tr dto.TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token returned: %s", serrors.ErrAuth, body)
	}

	lifetime := p.cred.TokenLifetime
	if tr.ExpiresIn > 0 {
		lifetime = time.Duration(tr.ExpiresIn) * time.Second
	}
	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	metrics.TokensIssuedTotal.Inc()
	p.logger.Debug(ctx, "access token issued", map[string]interface{}{
		"token":      log.Redact(tr.AccessToken),
		"expires_in": int(lifetime / time.Second),
	})

	return &domain.AccessToken{
		Value:     tr.AccessToken,
		TokenType: tokenType,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(lifetime),
	}, nil
}

var (
	_ TokenSource      = (*TokenProvider)(nil)
	_ TokenInvalidator = (*TokenProvider)(nil)
)
