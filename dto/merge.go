package dto

// UploadBase64Request uploads a base64 payload to the merge service.
type UploadBase64Request struct {
	File string `json:"file"`
	Name string `json:"name"`
}

// MergeRequest merges the comma-separated list of uploaded file URLs.
type MergeRequest struct {
	URL   string `json:"url"`
	Name  string `json:"name"`
	Async bool   `json:"async"`
}

// MergeServiceResponse is shared by the upload and merge endpoints.
type MergeServiceResponse struct {
	URL     string `json:"url"`
	Error   bool   `json:"error"`
	Message string `json:"message,omitempty"`
}
