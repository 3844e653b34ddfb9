// Package auth obtains provider access tokens with the OAuth JWT-bearer grant.
package auth

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	serrors "go.pilab.hu/esign/errors"
)

// AssertionClaims are the inputs of a JWT-bearer assertion.
type AssertionClaims struct {
	Issuer   string // integration key
	Subject  string // impersonated user id
	Audience string // auth-server host
	Scope    string // space separated
	Lifetime time.Duration
}

// KeySigner signs JWT assertions with an RSA private key (RS256).
type KeySigner struct {
	key *rsa.PrivateKey
	now func() time.Time
}

// LoadPrivateKey reads PEM key material from path.
func LoadPrivateKey(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: private key path is not configured", serrors.ErrConfiguration)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: private key not readable: %s: %w", serrors.ErrConfiguration, path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: private key file is empty: %s", serrors.ErrConfiguration, path)
	}

	return data, nil
}

// NewKeySigner parses a PEM encoded RSA private key (PKCS#1 or PKCS#8).
func NewKeySigner(pemBytes []byte) (*KeySigner, error) {
	if len(pemBytes) == 0 {
		return nil, fmt.Errorf("%w: private key material is empty", serrors.ErrConfiguration)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse RSA private key: %w", serrors.ErrSigning, err)
	}

	return &KeySigner{key: key, now: time.Now}, nil
}

// WithClock returns a copy of the signer that reads the issue time from now.
func (s *KeySigner) WithClock(now func() time.Time) *KeySigner {
	return &KeySigner{key: s.key, now: now}
}

// Sign builds header {alg:RS256,typ:JWT} and claims {iss,sub,aud,iat,exp,scope}
// and returns the compact serialization. Output is deterministic for a fixed clock.
func (s *KeySigner) Sign(c AssertionClaims) (string, error) {
	iat := s.now().Unix()
	claims := jwt.MapClaims{
		"iss":   c.Issuer,
		"sub":   c.Subject,
		"aud":   c.Audience,
		"iat":   iat,
		"exp":   iat + int64(c.Lifetime/time.Second),
		"scope": c.Scope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: failed to sign JWT: %w", serrors.ErrSigning, err)
	}

	return signed, nil
}
