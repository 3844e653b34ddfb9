package domain

// Collection tags the business entity a status notification refers to.
type Collection string

// Default collection names understood by the status webhook.
const (
	DocumentCollection Collection = "LawFirm"
	EnvelopeCollection Collection = "QuoteAlert"
)

// StatusNotification is pushed to the external status webhook.
type StatusNotification struct {
	Collection    Collection
	CorrelationID string
	Success       bool
	ErrorMessage  string
}
