package dto

// Response is the uniform body returned by the HTTP surface.
type Response struct {
	Success int    `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// TokenIssuedResponse is returned by the token endpoint of the HTTP surface.
type TokenIssuedResponse struct {
	Success     int     `json:"success"`
	Message     string  `json:"message"`
	AccessToken *string `json:"access_token"`
}

// SenderViewResponse is returned when a fresh sender view is requested.
type SenderViewResponse struct {
	Success       int     `json:"success"`
	Message       string  `json:"message"`
	SenderViewURL *string `json:"senderViewUrl"`
}

// EnvelopeViewResponse is returned after an envelope and its recipient view
// are created. ID is the caller's return URL carrying doc_id and envelopeId.
type EnvelopeViewResponse struct {
	Success int    `json:"success"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}
