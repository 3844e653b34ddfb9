package domain

// Template is a provider-side draft envelope definition.
type Template struct {
	ID            string `json:"templateId"`
	SenderViewURL string `json:"senderViewUrl"`
}
