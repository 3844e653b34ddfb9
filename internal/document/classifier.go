// Package document sniffs uploaded documents and prepares them for the provider.
package document

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.pilab.hu/esign/domain"
	serrors "go.pilab.hu/esign/errors"
)

// DefaultExtension is used for every MIME type without a known mapping.
const DefaultExtension = "bin"

// ErrInvalidBase64 is returned for uploads that are not valid standard base64.
var ErrInvalidBase64 = fmt.Errorf("%w: invalid Base64 string", serrors.ErrValidation)

var extensions = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/zip": "zip",
	"image/png":       "png",
	"image/jpeg":      "jpg",
}

// Classify sniffs data and returns its MIME type and file extension.
func Classify(data []byte) (mimeType, extension string) {
	mimeType = baseType(mimetype.Detect(data).String())

	return mimeType, ExtensionFor(mimeType)
}

// ExtensionFor maps a MIME type to a file extension.
func ExtensionFor(mimeType string) string {
	if ext, ok := extensions[baseType(mimeType)]; ok {
		return ext
	}

	return DefaultExtension
}

// ExtensionFromName returns the extension of fileName without the dot.
func ExtensionFromName(fileName string) string {
	return strings.TrimPrefix(filepath.Ext(fileName), ".")
}

// FileName builds the generated upload name document_<unix>.<ext>.
func FileName(extension string, now time.Time) string {
	return fmt.Sprintf("document_%d.%s", now.Unix(), extension)
}

// FromBase64 decodes and classifies an uploaded base64 document.
func FromBase64(encoded string, now time.Time) (*domain.DocumentPayload, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, serrors.NewValidationError("document")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidBase64
	}

	return FromBytes(raw, now), nil
}

// FromBytes classifies raw document bytes.
func FromBytes(raw []byte, now time.Time) *domain.DocumentPayload {
	mimeType, ext := Classify(raw)

	return &domain.DocumentPayload{
		Base64:    base64.StdEncoding.EncodeToString(raw),
		MimeType:  mimeType,
		Extension: ext,
		FileName:  FileName(ext, now),
	}
}

func baseType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}

	return strings.ToLower(strings.TrimSpace(mimeType))
}
