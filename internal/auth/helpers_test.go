package auth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
	testKeyErr  error
)

// testKeyPEM returns a PKCS#1 PEM key shared by the package tests.
func testKeyPEM(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()
	testKeyOnce.Do(func() {
		testKey, testKeyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	require.NoError(t, testKeyErr)

	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(testKey)}), testKey
}

func testPublicKey() *rsa.PublicKey {
	return &testKey.PublicKey
}

func encodeSegment(b []byte) string {
	return (&jwt.Token{}).EncodeSegment(b)
}

func decodeSegment(s string) ([]byte, error) {
	return jwt.NewParser().DecodeSegment(s)
}
