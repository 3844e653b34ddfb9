package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.pilab.hu/esign/domain"
	"go.pilab.hu/esign/dto"
	serrors "go.pilab.hu/esign/errors"
	"go.pilab.hu/esign/internal/document"
	"go.pilab.hu/esign/internal/metrics"
	"go.pilab.hu/esign/internal/pdfmerge"
	"go.pilab.hu/esign/internal/pdfrender"
	"go.pilab.hu/esign/log"
)

const (
	envelopeEmailSubject = "Please sign document"
	envelopeStatusSent   = "sent"
	signerRecipientID    = "1"
	authMethodNone       = "none"
	defaultAgreementName = "Agreement"
)

// EnvelopeParams describes an envelope to send. When Document is set the
// envelope carries it inline with an explicit signer; otherwise the template
// is referenced by id with a single template role.
type EnvelopeParams struct {
	TemplateID string
	Recipient  domain.Recipient
	Document   *domain.DocumentPayload
}

// AgreementParams adds a generated agreement to the template document.
type AgreementParams struct {
	TemplateID string
	Recipient  domain.Recipient
	Title      string
	Fields     map[string]string
}

// RecipientViewParams requests an embedded signing view. ClientUserID must be
// the id the recipient was created with.
type RecipientViewParams struct {
	EnvelopeID   string
	ReturnURL    string
	Name         string
	Email        string
	ClientUserID string
}

// EnvelopeManager creates and sends envelopes and issues signing views.
type EnvelopeManager struct {
	provider  Provider
	templates *TemplateManager
	merger    pdfmerge.Merger
	renderer  pdfrender.Renderer
	logger    log.Logger
	now       func() time.Time
}

// NewEnvelopeManager creates an EnvelopeManager. merger and renderer are only
// needed for CreateEnvelopeWithAgreement.
func NewEnvelopeManager(provider Provider, templates *TemplateManager, merger pdfmerge.Merger, renderer pdfrender.Renderer, logger log.Logger) *EnvelopeManager {
	if logger == nil {
		logger = log.Nop()
	}
	if renderer == nil {
		renderer = pdfrender.New()
	}

	return &EnvelopeManager{
		provider:  provider,
		templates: templates,
		merger:    merger,
		renderer:  renderer,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateEnvelopeFromTemplate creates an envelope with status sent.
func (m *EnvelopeManager) CreateEnvelopeFromTemplate(ctx context.Context, token string, p EnvelopeParams) (*domain.Envelope, error) {
	fields := map[string]string{
		"name":         p.Recipient.Name,
		"email":        p.Recipient.Email,
		"roleName":     p.Recipient.RoleName,
		"clientUserId": p.Recipient.ClientUserID,
	}
	if p.Document == nil {
		fields["templateId"] = p.TemplateID
	} else {
		fields["documentBase64"] = p.Document.Base64
	}
	if err := serrors.NewValidationError(missingOf(fields)...); err != nil {
		return nil, err
	}

	req := dto.CreateEnvelopeRequest{EmailSubject: envelopeEmailSubject, Status: envelopeStatusSent}
	if p.Document == nil {
		req.TemplateID = p.TemplateID
		req.TemplateRoles = []dto.TemplateRole{{
			RoleName:     p.Recipient.RoleName,
			Name:         p.Recipient.Name,
			Email:        p.Recipient.Email,
			ClientUserID: p.Recipient.ClientUserID,
		}}
	} else {
		name := p.Document.FileName
		if name == "" {
			name = document.FileName(p.Document.Extension, m.now())
		}
		req.Documents = []dto.Document{{
			DocumentBase64: p.Document.Base64,
			Name:           name,
			FileExtension:  p.Document.Extension,
			DocumentID:     firstDocumentID,
		}}
		req.Recipients = &dto.Recipients{Signers: []dto.Signer{{
			Email:        p.Recipient.Email,
			Name:         p.Recipient.Name,
			RoleName:     p.Recipient.RoleName,
			RecipientID:  signerRecipientID,
			ClientUserID: p.Recipient.ClientUserID,
		}}}
	}

	raw := map[string]any{}
	if err := m.provider.PostJSON(ctx, token, m.provider.AccountURL("envelopes"), req, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to create envelope: %w", serrors.ErrEnvelope, err)
	}

	env := &domain.Envelope{
		ID:         stringField(raw, "envelopeId"),
		Status:     stringField(raw, "status"),
		TemplateID: p.TemplateID,
		Recipient:  p.Recipient,
		Raw:        raw,
	}
	if env.ID == "" {
		return nil, fmt.Errorf("%w: envelope response has no envelopeId", serrors.ErrEnvelope)
	}

	m.logger.Info(ctx, "envelope sent", map[string]interface{}{
		"envelope_id": env.ID,
		"template_id": p.TemplateID,
		"inline":      p.Document != nil,
	})
	metrics.EnvelopesCreatedTotal.Inc()

	return env, nil
}

// CreateEnvelopeWithAgreement renders the agreement, merges it after the
// template's first document and sends the result inline. A template without
// a document sends the agreement alone; any other fetch failure aborts.
func (m *EnvelopeManager) CreateEnvelopeWithAgreement(ctx context.Context, token string, p AgreementParams) (*domain.Envelope, error) {
	if err := serrors.NewValidationError(missingOf(map[string]string{"templateId": p.TemplateID})...); err != nil {
		return nil, err
	}

	title := p.Title
	if title == "" {
		title = defaultAgreementName
	}
	agreement, err := m.renderer.Render(title, p.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to render agreement: %w", err)
	}
	agreementB64 := base64.StdEncoding.EncodeToString(agreement)

	pdf := agreement
	templateDoc, err := m.templates.GetTemplateDocumentBase64(ctx, token, p.TemplateID, 1)
	switch {
	case errors.Is(err, ErrNoTemplateDocument):
		m.logger.Warn(ctx, "template has no document, sending agreement only", map[string]interface{}{
			"template_id": p.TemplateID,
			"error":       err.Error(),
		})
	case err != nil:
		return nil, err
	default:
		if m.merger == nil {
			return nil, fmt.Errorf("%w: no merge service configured", serrors.ErrMerge)
		}
		pdf, err = m.merger.Merge(ctx, templateDoc, agreementB64)
		if err != nil {
			return nil, err
		}
	}

	payload := document.FromBytes(pdf, m.now())

	return m.CreateEnvelopeFromTemplate(ctx, token, EnvelopeParams{
		TemplateID: p.TemplateID,
		Recipient:  p.Recipient,
		Document:   payload,
	})
}

// CreateRecipientView requests an embedded signing URL.
func (m *EnvelopeManager) CreateRecipientView(ctx context.Context, token string, p RecipientViewParams) (*domain.EmbeddedView, error) {
	if err := serrors.NewValidationError(missingOf(map[string]string{
		"envelopeId":   p.EnvelopeID,
		"returnUrl":    p.ReturnURL,
		"name":         p.Name,
		"email":        p.Email,
		"clientUserId": p.ClientUserID,
	})...); err != nil {
		return nil, err
	}

	req := dto.RecipientViewRequest{
		ReturnURL:            p.ReturnURL,
		AuthenticationMethod: authMethodNone,
		Email:                p.Email,
		UserName:             p.Name,
		ClientUserID:         p.ClientUserID,
	}

	var view dto.ViewURLResponse
	url := m.provider.AccountURL("envelopes", p.EnvelopeID, "views", "recipient")
	if err := m.provider.PostJSON(ctx, token, url, req, &view); err != nil {
		return nil, fmt.Errorf("failed to create recipient view: %w", err)
	}
	if view.URL == "" {
		return nil, fmt.Errorf("%w: recipient view response has no url", serrors.ErrAPI)
	}

	return &domain.EmbeddedView{URL: view.URL, Purpose: domain.ViewRecipientSign, ReturnURL: p.ReturnURL}, nil
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return strings.TrimSpace(v)
	}

	return ""
}
