package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.pilab.hu/esign/domain"
	serrors "go.pilab.hu/esign/errors"
	"go.pilab.hu/esign/internal/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
)

// OAuth2TokenSource obtains tokens through golang.org/x/oauth2/jwt, which
// builds and posts the same JWT-bearer assertion as TokenProvider.
type OAuth2TokenSource struct {
	cfg        *jwt.Config
	httpClient *http.Client
	now        func() time.Time
}

// NewOAuth2TokenSource configures the x/oauth2 JWT flow from cred.
func NewOAuth2TokenSource(cred domain.Credential, httpClient *http.Client) *OAuth2TokenSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OAuth2TokenSource{
		cfg: &jwt.Config{
			Email:      cred.IntegrationKey,
			Subject:    cred.UserID,
			PrivateKey: cred.PrivateKeyPEM,
			Scopes:     cred.Scopes,
			TokenURL:   cred.TokenEndpoint(),
			Audience:   cred.Audience(),
			Expires:    cred.TokenLifetime,
		},
		httpClient: httpClient,
		now:        time.Now,
	}
}

// AccessToken implements TokenSource.
func (s *OAuth2TokenSource) AccessToken(ctx context.Context) (*domain.AccessToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	issuedAt := s.now()

	tok, err := s.cfg.TokenSource(ctx).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return nil, fmt.Errorf("%w: JWT request failed [%d]: %s", serrors.ErrAuth, re.Response.StatusCode, re.Body)
		}
		return nil, fmt.Errorf("%w: %w", serrors.ErrAuth, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token returned", serrors.ErrAuth)
	}

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = issuedAt.Add(s.cfg.Expires)
	}
	metrics.TokensIssuedTotal.Inc()

	return &domain.AccessToken{
		Value:     tok.AccessToken,
		TokenType: tok.Type(),
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

var _ TokenSource = (*OAuth2TokenSource)(nil)
