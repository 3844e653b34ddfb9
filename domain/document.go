package domain

// DocumentPayload is an inbound document ready to be attached to a template
// or envelope.
type DocumentPayload struct {
	Base64    string
	MimeType  string
	Extension string
	FileName  string
}
