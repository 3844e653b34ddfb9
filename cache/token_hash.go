package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashToken hashes a string into a short fixed-length cache key.
func HashToken(token string) string {
	hasher := sha256.New()
	hasher.Write([]byte(token))
	hashedBytes := hasher.Sum(nil)
	return hex.EncodeToString(hashedBytes)
}

// CredentialKey derives the cache key for tokens minted for one
// integration key, impersonated user and scope set.
func CredentialKey(integrationKey, userID, scope string) string {
	return HashToken(strings.Join([]string{integrationKey, userID, scope}, "|"))
}
