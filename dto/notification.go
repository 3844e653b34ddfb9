package dto

// StatusWebhookPayload is posted to the external status webhook. Exactly one
// of IsDocumentEdited and IsEnvelopeSigned is set, depending on the collection.
type StatusWebhookPayload struct {
	Collection string            `json:"collection"`
	DocID      string            `json:"docId"`
	Data       StatusWebhookData `json:"data"`
}

// StatusWebhookData is the status flag plus an optional failure reason.
type StatusWebhookData struct {
	IsDocumentEdited *bool  `json:"isDocumentEdited,omitempty"`
	IsEnvelopeSigned *bool  `json:"isEnvelopSign,omitempty"`
	ErrorMessage     string `json:"errorMessage,omitempty"`
}
