package errors

import (
	"encoding/json"
	"fmt"
)

// OAuth2Error is the error document returned by the provider's token endpoint.
type OAuth2Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *OAuth2Error) Error() string {
	if e.Description == "" {
		return e.Code
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Standard OAuth2 error codes returned by the token endpoint.
const (
	InvalidRequest       = "invalid_request"
	InvalidClient        = "invalid_client"
	InvalidGrant         = "invalid_grant"
	UnauthorizedClient   = "unauthorized_client"
	UnsupportedGrantType = "unsupported_grant_type"
	InvalidScope         = "invalid_scope"
	ConsentRequired      = "consent_required"
)

// ParseOAuth2Error decodes a token endpoint error body. It returns nil when
// the body is not an OAuth2 error document.
func ParseOAuth2Error(body []byte) *OAuth2Error {
	var oe OAuth2Error
	if err := json.Unmarshal(body, &oe); err != nil || oe.Code == "" {
		return nil
	}

	return &oe
}
