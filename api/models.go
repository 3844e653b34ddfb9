package api

// TemplateRequest is the body of POST /docusign/templates. The document may
// also arrive as a multipart file named "document".
type TemplateRequest struct {
	Document   string `json:"document" form:"document"`
	FileName   string `json:"fileName" form:"fileName"`
	ReturnURL  string `json:"returnUrl" form:"returnUrl"`
	AttorneyID string `json:"attorneyId" form:"attorneyId"`
}

// SenderViewRequest asks for a fresh edit view of an existing template.
type SenderViewRequest struct {
	TemplateID string `json:"templateId" form:"templateId" query:"templateId"`
	ReturnURL  string `json:"returnUrl" form:"returnUrl" query:"returnUrl"`
}

// EnvelopeRequest is the body of POST /docusign/envelopes. A non-empty
// Agreement is rendered and merged with the template document.
type EnvelopeRequest struct {
	TemplateID     string            `json:"templateId" form:"templateId"`
	ReturnURL      string            `json:"returnUrl" form:"returnUrl"`
	Name           string            `json:"name" form:"name"`
	Email          string            `json:"email" form:"email"`
	DocID          string            `json:"doc_id" form:"doc_id"`
	ClientUserID   string            `json:"clientUserId" form:"clientUserId"`
	RoleName       string            `json:"roleName" form:"roleName"`
	AgreementTitle string            `json:"agreementTitle" form:"agreementTitle"`
	Agreement      map[string]string `json:"agreement"`
}

// Defaults applied to EnvelopeRequest.
const (
	DefaultRecipientName  = "Default Client"
	DefaultRecipientEmail = "client@example.com"
	DefaultRoleName       = "Client"
)

// EnvelopeData is the data member of the envelope response.
type EnvelopeData struct {
	Envelope      any    `json:"envelope"`
	RecipientView string `json:"recipientView"`
}

// DocumentRequest identifies the envelope whose signed document is wanted.
type DocumentRequest struct {
	EnvelopeID string `param:"envelopeId" query:"envelopeId" form:"envelopeId" json:"envelopeId"`
}

// CallbackRequest is the provider's redirect after signing.
type CallbackRequest struct {
	DocID         string `query:"doc_id"`
	EnvelopeID    string `query:"envelopeId"`
	UserEmail     string `query:"userEmail"`
	AttorneyEmail string `query:"attorneyEmail"`
}
