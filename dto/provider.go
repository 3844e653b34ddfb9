// Package dto holds the typed request and response bodies exchanged with the
// e-signature provider, the merge service and the status webhook.
package dto

// TokenResponse is returned by the OAuth token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

// Document is an inline document. All fields are required.
type Document struct {
	DocumentBase64 string `json:"documentBase64"`
	Name           string `json:"name"`
	FileExtension  string `json:"fileExtension"`
	DocumentID     string `json:"documentId"`
}

// CreateTemplateRequest creates a draft template holding exactly one document.
type CreateTemplateRequest struct {
	Name         string     `json:"name"`
	EmailSubject string     `json:"emailSubject"`
	Documents    []Document `json:"documents"`
	Status       string     `json:"status"`
}

// CreateTemplateResponse carries the new template id.
type CreateTemplateResponse struct {
	TemplateID string `json:"templateId"`
	Name       string `json:"name,omitempty"`
}

// ReturnURLRequest requests an embedded edit view.
type ReturnURLRequest struct {
	ReturnURL string `json:"returnUrl"`
}

// ViewURLResponse carries an embedded view URL; URL may be empty.
type ViewURLResponse struct {
	URL string `json:"url"`
}

// TemplateRole binds a recipient to a template role.
type TemplateRole struct {
	RoleName     string `json:"roleName"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ClientUserID string `json:"clientUserId"`
}

// Signer is an explicit recipient of an inline-document envelope.
type Signer struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	RoleName     string `json:"roleName"`
	RecipientID  string `json:"recipientId"`
	ClientUserID string `json:"clientUserId"`
}

// Recipients groups the envelope signers.
type Recipients struct {
	Signers []Signer `json:"signers"`
}

// CreateEnvelopeRequest supports both the reference-by-id shape (TemplateID +
// TemplateRoles) and the inline shape (Documents + Recipients).
type CreateEnvelopeRequest struct {
	EmailSubject  string         `json:"emailSubject"`
	TemplateID    string         `json:"templateId,omitempty"`
	TemplateRoles []TemplateRole `json:"templateRoles,omitempty"`
	Documents     []Document     `json:"documents,omitempty"`
	Recipients    *Recipients    `json:"recipients,omitempty"`
	Status        string         `json:"status"`
}

// EnvelopeSummary is returned on envelope creation and status reads.
type EnvelopeSummary struct {
	EnvelopeID     string `json:"envelopeId"`
	Status         string `json:"status"`
	StatusDateTime string `json:"statusDateTime,omitempty"`
	URI            string `json:"uri,omitempty"`
}

// RecipientViewRequest requests an embedded signing view.
type RecipientViewRequest struct {
	ReturnURL            string `json:"returnUrl"`
	AuthenticationMethod string `json:"authenticationMethod"`
	Email                string `json:"email"`
	UserName             string `json:"userName"`
	ClientUserID         string `json:"clientUserId"`
}
