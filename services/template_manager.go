package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.pilab.hu/esign/domain"
	"go.pilab.hu/esign/dto"
	serrors "go.pilab.hu/esign/errors"
	"go.pilab.hu/esign/internal/document"
	"go.pilab.hu/esign/internal/gateway"
	"go.pilab.hu/esign/internal/metrics"
	"go.pilab.hu/esign/log"
)

const (
	templateEmailSubject = "Please prepare template"
	templateStatusDraft  = "created"
	firstDocumentID      = "1"
)

// ErrNoTemplateDocument is returned when the template exists but holds no
// retrievable document (404 or an empty body). Other fetch failures are
// plain ErrFetch.
var ErrNoTemplateDocument = fmt.Errorf("%w: template has no document", serrors.ErrFetch)

// CreateTemplateInput is the caller-supplied material for a new template.
type CreateTemplateInput struct {
	DocumentBase64 string
	FileName       string
	ReturnURL      string
}

// TemplateManager turns uploaded documents into draft templates and issues
// embedded edit views for them.
type TemplateManager struct {
	provider Provider
	logger   log.Logger
	now      func() time.Time
}

// NewTemplateManager creates a TemplateManager.
func NewTemplateManager(provider Provider, logger log.Logger) *TemplateManager {
	if logger == nil {
		logger = log.Nop()
	}

	return &TemplateManager{provider: provider, logger: logger, now: time.Now}
}

// CreateTemplate creates a draft template holding exactly one document and
// returns it together with a sender edit view URL.
func (m *TemplateManager) CreateTemplate(ctx context.Context, token string, in CreateTemplateInput) (*domain.Template, error) {
	var missing []string
	if strings.TrimSpace(in.DocumentBase64) == "" {
		missing = append(missing, "documentBase64")
	}
	if strings.TrimSpace(in.FileName) == "" {
		missing = append(missing, "fileName")
	}
	if strings.TrimSpace(in.ReturnURL) == "" {
		missing = append(missing, "returnUrl")
	}
	if err := serrors.NewValidationError(missing...); err != nil {
		return nil, err
	}

	now := m.now()
	payload, err := document.FromBase64(in.DocumentBase64, now)
	if err != nil {
		return nil, err
	}

	ext := document.ExtensionFromName(in.FileName)
	if ext == "" {
		ext = payload.Extension
	}

	req := dto.CreateTemplateRequest{
		Name:         "Template - " + now.Format("20060102150405"),
		EmailSubject: templateEmailSubject,
		Documents: []dto.Document{{
			DocumentBase64: payload.Base64,
			Name:           in.FileName,
			FileExtension:  ext,
			DocumentID:     firstDocumentID,
		}},
		Status: templateStatusDraft,
	}

	var created dto.CreateTemplateResponse
	if err := m.provider.PostJSON(ctx, token, m.provider.AccountURL("templates"), req, &created); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	if created.TemplateID == "" {
		return nil, fmt.Errorf("%w: template response has no templateId", serrors.ErrAPI)
	}

	m.logger.Info(ctx, "template created", map[string]interface{}{
		"template_id": created.TemplateID,
		"mime_type":   payload.MimeType,
	})
	metrics.TemplatesCreatedTotal.Inc()

	tpl := &domain.Template{ID: created.TemplateID}
	view, err := m.GetFreshSenderView(ctx, token, created.TemplateID, in.ReturnURL)
	if err != nil {
		return nil, err
	}
	if view != nil {
		tpl.SenderViewURL = view.URL
	}

	return tpl, nil
}

// GetFreshSenderView requests a new edit view for an existing template.
// Views are single use, so each call yields a new URL. A reply without a URL
// returns nil and no error.
func (m *TemplateManager) GetFreshSenderView(ctx context.Context, token, templateID, returnURL string) (*domain.EmbeddedView, error) {
	if err := serrors.NewValidationError(missingOf(map[string]string{
		"templateId": templateID,
		"returnUrl":  returnURL,
	})...); err != nil {
		return nil, err
	}

	var view dto.ViewURLResponse
	url := m.provider.AccountURL("templates", templateID, "views", "edit")
	if err := m.provider.PostJSON(ctx, token, url, dto.ReturnURLRequest{ReturnURL: returnURL}, &view); err != nil {
		return nil, fmt.Errorf("failed to create sender view: %w", err)
	}
	if view.URL == "" {
		m.logger.Warn(ctx, "sender view response has no url", map[string]interface{}{"template_id": templateID})
		return nil, nil
	}

	return &domain.EmbeddedView{URL: view.URL, Purpose: domain.ViewSenderEdit, ReturnURL: returnURL}, nil
}

// GetTemplateDocumentBase64 downloads a template document and returns it
// base64 encoded. documentID defaults to 1.
func (m *TemplateManager) GetTemplateDocumentBase64(ctx context.Context, token, templateID string, documentID int) (string, error) {
	if documentID <= 0 {
		documentID = 1
	}

	url := m.provider.AccountURL("templates", templateID, "documents", strconv.Itoa(documentID))
	resp, err := m.provider.GetBinary(ctx, token, url, gateway.AcceptPDF)
	if err != nil {
		var apiErr *serrors.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: template %s document %d", ErrNoTemplateDocument, templateID, documentID)
		}
		return "", fmt.Errorf("%w: template %s document %d: %w", serrors.ErrFetch, templateID, documentID, err)
	}
	if resp.StatusCode == http.StatusOK && len(resp.Body) == 0 {
		return "", fmt.Errorf("%w: template %s document %d", ErrNoTemplateDocument, templateID, documentID)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: failed to fetch template document. HTTP %d", serrors.ErrFetch, resp.StatusCode)
	}

	return base64.StdEncoding.EncodeToString(resp.Body), nil
}

// missingOf returns the keys whose values are blank, in sorted order.
func missingOf(fields map[string]string) []string {
	var missing []string
	for _, k := range sortedKeys(fields) {
		if strings.TrimSpace(fields[k]) == "" {
			missing = append(missing, k)
		}
	}

	return missing
}
