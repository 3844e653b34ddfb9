package domain

import "strings"

// Envelope statuses reported by the provider.
const (
	EnvelopeStatusCreated   = "created"
	EnvelopeStatusSent      = "sent"
	EnvelopeStatusDelivered = "delivered"
	EnvelopeStatusCompleted = "completed"
	EnvelopeStatusDeclined  = "declined"
	EnvelopeStatusVoided    = "voided"
)

// Recipient identifies the embedded signer. ClientUserID must be the same
// value when the envelope is created and when its signing view is requested.
type Recipient struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	RoleName     string `json:"roleName"`
	ClientUserID string `json:"clientUserId"`
}

// Envelope is the provider's signable package.
type Envelope struct {
	ID         string         `json:"envelopeId"`
	Status     string         `json:"status"`
	TemplateID string         `json:"templateId,omitempty"`
	Recipient  Recipient      `json:"recipient"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// IsCompleted reports whether status is the completed terminal, ignoring case.
// Every other status counts as not yet signed.
func IsCompleted(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), EnvelopeStatusCompleted)
}

// ViewPurpose distinguishes the two embedded views.
type ViewPurpose string

const (
	ViewSenderEdit    ViewPurpose = "sender-edit"
	ViewRecipientSign ViewPurpose = "recipient-sign"
)

// EmbeddedView is a single-use URL handed to the browser.
type EmbeddedView struct {
	URL       string      `json:"url"`
	Purpose   ViewPurpose `json:"purpose"`
	ReturnURL string      `json:"returnUrl"`
}
