package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.pilab.hu/esign/domain"
	serrors "go.pilab.hu/esign/errors"
	"go.pilab.hu/esign/internal/auth"
	"go.pilab.hu/esign/internal/document"
	"go.pilab.hu/esign/internal/mailer"
	"go.pilab.hu/esign/internal/metrics"
	"go.pilab.hu/esign/log"
)

// unknownStatus is reported when the provider returns no envelope status.
const unknownStatus = "Unknown"

// Lifecycle coordinates one request's pipeline across the managers. Every
// template or envelope state change it drives produces exactly one status
// notification, success or failure.
type Lifecycle struct {
	tokens    auth.TokenSource
	templates *TemplateManager
	envelopes *EnvelopeManager
	status    *StatusTracker
	artifacts *ArtifactFetcher
	notifier  Notifier
	mailer    mailer.Mailer
	mailCC    []string
	logger    log.Logger
}

// LifecycleDeps holds the collaborators of a Lifecycle.
type LifecycleDeps struct {
	Tokens    auth.TokenSource
	Templates *TemplateManager
	Envelopes *EnvelopeManager
	Status    *StatusTracker
	Artifacts *ArtifactFetcher
	Notifier  Notifier
	Mailer    mailer.Mailer
	MailCC    []string
	Logger    log.Logger
}

// NewLifecycle creates a Lifecycle. Missing notifier and mailer are replaced
// by no-ops.
func NewLifecycle(d LifecycleDeps) *Lifecycle {
	if d.Logger == nil {
		d.Logger = log.Nop()
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Mailer == nil {
		d.Mailer = mailer.Nop{}
	}

	return &Lifecycle{
		tokens:    d.Tokens,
		templates: d.Templates,
		envelopes: d.Envelopes,
		status:    d.Status,
		artifacts: d.Artifacts,
		notifier:  d.Notifier,
		mailer:    d.Mailer,
		mailCC:    d.MailCC,
		logger:    d.Logger,
	}
}

// Token mints (or reads from cache) a provider access token.
func (l *Lifecycle) Token(ctx context.Context) (*domain.AccessToken, error) {
	tok, err := l.tokens.AccessToken(ctx)
	if err != nil {
		l.providerFailed(ctx, err)
		return nil, err
	}

	return tok, nil
}

// CreateTemplate creates a template and notifies the document collection.
// Without a file name the document is named document_<unix>.<ext> after its
// sniffed type.
func (l *Lifecycle) CreateTemplate(ctx context.Context, token, docID string, in CreateTemplateInput) (*domain.Template, error) {
	tpl, err := l.createTemplate(ctx, token, in)
	l.notify(ctx, domain.DocumentCollection, docID, err)
	if err != nil {
		l.providerFailed(ctx, err)
		return nil, err
	}

	return tpl, nil
}

func (l *Lifecycle) createTemplate(ctx context.Context, token string, in CreateTemplateInput) (*domain.Template, error) {
	if strings.TrimSpace(in.FileName) == "" && strings.TrimSpace(in.DocumentBase64) != "" {
		payload, err := document.FromBase64(in.DocumentBase64, l.templates.now())
		if err != nil {
			return nil, err
		}
		in.FileName = payload.FileName
	}

	return l.templates.CreateTemplate(ctx, token, in)
}

// SenderView issues a fresh edit view for an existing template. A nil view
// with a nil error means the provider returned no URL.
func (l *Lifecycle) SenderView(ctx context.Context, token, templateID, returnURL string) (*domain.EmbeddedView, error) {
	view, err := l.templates.GetFreshSenderView(ctx, token, templateID, returnURL)
	if err != nil {
		l.providerFailed(ctx, err)
	}

	return view, err
}

// SendEnvelopeInput describes an envelope dispatch request.
type SendEnvelopeInput struct {
	TemplateID     string
	ReturnURL      string
	DocID          string
	Recipient      domain.Recipient
	AgreementTitle string
	Agreement      map[string]string
}

// SentEnvelope is the outcome of SendEnvelope. RedirectURL is the return URL
// qualified with doc_id and envelopeId, which the signing view redirects to.
type SentEnvelope struct {
	Envelope    *domain.Envelope
	View        *domain.EmbeddedView
	RedirectURL string
}

// SendEnvelope creates and sends an envelope, then issues the recipient's
// signing view. An agreement switches to the merged inline shape.
func (l *Lifecycle) SendEnvelope(ctx context.Context, token string, in SendEnvelopeInput) (*SentEnvelope, error) {
	sent, err := l.sendEnvelope(ctx, token, in)
	l.notify(ctx, domain.DocumentCollection, in.DocID, err)
	if err != nil {
		l.providerFailed(ctx, err)
		return nil, err
	}

	return sent, nil
}

func (l *Lifecycle) sendEnvelope(ctx context.Context, token string, in SendEnvelopeInput) (*SentEnvelope, error) {
	if err := serrors.NewValidationError(missingOf(map[string]string{
		"templateId":   in.TemplateID,
		"returnUrl":    in.ReturnURL,
		"clientUserId": in.Recipient.ClientUserID,
	})...); err != nil {
		return nil, err
	}

	var (
		env *domain.Envelope
		err error
	)
	if len(in.Agreement) > 0 {
		env, err = l.envelopes.CreateEnvelopeWithAgreement(ctx, token, AgreementParams{
			TemplateID: in.TemplateID,
			Recipient:  in.Recipient,
			Title:      in.AgreementTitle,
			Fields:     in.Agreement,
		})
	} else {
		env, err = l.envelopes.CreateEnvelopeFromTemplate(ctx, token, EnvelopeParams{
			TemplateID: in.TemplateID,
			Recipient:  in.Recipient,
		})
	}
	if err != nil {
		return nil, err
	}

	redirect := withQuery(in.ReturnURL, map[string]string{
		"doc_id":     in.DocID,
		"envelopeId": env.ID,
	})

	view, err := l.envelopes.CreateRecipientView(ctx, token, RecipientViewParams{
		EnvelopeID:   env.ID,
		ReturnURL:    redirect,
		Name:         in.Recipient.Name,
		Email:        in.Recipient.Email,
		ClientUserID: in.Recipient.ClientUserID,
	})
	if err != nil {
		return nil, err
	}

	return &SentEnvelope{Envelope: env, View: view, RedirectURL: redirect}, nil
}

// CallbackInput is the provider's post-signing redirect.
type CallbackInput struct {
	DocID         string
	EnvelopeID    string
	UserEmail     string
	AttorneyEmail string
}

// CallbackResult reports what the signing callback observed and did.
type CallbackResult struct {
	Status     string
	Completed  bool
	MailedTo   []string
	MailErrors []error
}

// HandleSigningCallback re-evaluates the envelope status with a fresh token.
// A completed envelope has its combined document mailed to the parties and is
// notified as signed; any other status is notified as not signed.
func (l *Lifecycle) HandleSigningCallback(ctx context.Context, in CallbackInput) (*CallbackResult, error) {
	if err := serrors.NewValidationError(missingOf(map[string]string{
		"doc_id":     in.DocID,
		"envelopeId": in.EnvelopeID,
	})...); err != nil {
		return nil, err
	}

	tok, err := l.Token(ctx)
	if err != nil {
		l.notify(ctx, domain.EnvelopeCollection, in.DocID, err)
		return nil, err
	}

	status, completed, err := l.status.IsSigned(ctx, tok.Value, in.EnvelopeID)
	if err != nil {
		l.notify(ctx, domain.EnvelopeCollection, in.DocID, err)
		l.providerFailed(ctx, err)
		return nil, err
	}

	result := &CallbackResult{Status: status, Completed: completed}
	if !completed {
		message := status
		if strings.TrimSpace(message) == "" {
			message = unknownStatus
		}
		l.notifier.Notify(ctx, domain.StatusNotification{
			Collection:    domain.EnvelopeCollection,
			CorrelationID: in.DocID,
			Success:       false,
			ErrorMessage:  message,
		})
		return result, nil
	}

	metrics.EnvelopesCompletedTotal.Inc()
	l.deliverSignedCopies(ctx, tok.Value, in, result)
	l.notify(ctx, domain.EnvelopeCollection, in.DocID, nil)

	return result, nil
}

// deliverSignedCopies mails the combined document. Failures are recorded on
// result and never change the signing outcome.
func (l *Lifecycle) deliverSignedCopies(ctx context.Context, token string, in CallbackInput, result *CallbackResult) {
	if in.UserEmail == "" && in.AttorneyEmail == "" && len(l.mailCC) == 0 {
		return
	}

	pdf, err := l.artifacts.Combined(ctx, token, in.EnvelopeID)
	if err != nil {
		l.providerFailed(ctx, err)
		result.MailErrors = append(result.MailErrors, err)
		l.logger.Error(ctx, "signed document unavailable for mail delivery", err, map[string]interface{}{
			"envelope_id": in.EnvelopeID,
		})
		return
	}

	send := func(to string, fn func() error) {
		if err := fn(); err != nil {
			result.MailErrors = append(result.MailErrors, fmt.Errorf("mail to %s: %w", to, err))
			l.logger.Error(ctx, "failed to mail signed document", err, map[string]interface{}{
				"envelope_id": in.EnvelopeID,
			})
			return
		}
		result.MailedTo = append(result.MailedTo, to)
	}

	if in.UserEmail != "" {
		send(in.UserEmail, func() error { return l.mailer.SendUserCopy(ctx, in.UserEmail, pdf) })
	}
	if in.AttorneyEmail != "" {
		send(in.AttorneyEmail, func() error { return l.mailer.SendAttorneyCopy(ctx, in.AttorneyEmail, pdf) })
	}
	if len(l.mailCC) > 0 {
		cc := strings.Join(l.mailCC, ", ")
		send(cc, func() error {
			return l.mailer.SendWithAttachment(ctx, l.mailCC, "Document Signed",
				"Envelope "+in.EnvelopeID+" has been signed. PDF attached.", "signed_document.pdf", pdf)
		})
	}
}

// DownloadSigned returns the signed document of an envelope.
func (l *Lifecycle) DownloadSigned(ctx context.Context, token, envelopeID string) ([]byte, error) {
	pdf, err := l.artifacts.Signed(ctx, token, envelopeID)
	if err != nil {
		l.providerFailed(ctx, err)
	}

	return pdf, err
}

// EnvelopeStatus returns the envelope status and whether it is completed.
func (l *Lifecycle) EnvelopeStatus(ctx context.Context, token, envelopeID string) (string, bool, error) {
	return l.status.IsSigned(ctx, token, envelopeID)
}

// DownloadCombined returns all documents of an envelope as one PDF.
func (l *Lifecycle) DownloadCombined(ctx context.Context, token, envelopeID string) ([]byte, error) {
	return l.artifacts.Combined(ctx, token, envelopeID)
}

func (l *Lifecycle) notify(ctx context.Context, c domain.Collection, docID string, err error) {
	n := domain.StatusNotification{Collection: c, CorrelationID: docID, Success: err == nil}
	if err != nil {
		n.ErrorMessage = errorMessage(err)
	}
	l.notifier.Notify(ctx, n)
}

// providerFailed counts err and, when the provider rejected the token,
// evicts it from the token cache.
func (l *Lifecycle) providerFailed(ctx context.Context, err error) {
	metrics.ProviderErrorsTotal.WithLabelValues(serrors.Kind(err)).Inc()

	var apiErr *serrors.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		return
	}
	inv, ok := l.tokens.(auth.TokenInvalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx); err != nil {
		l.logger.Warn(ctx, "failed to evict rejected access token", map[string]interface{}{"error": err.Error()})
		return
	}
	l.logger.Info(ctx, "access token rejected by provider, evicted from cache")
}

// errorMessage prefers the provider's response body when one is attached.
func errorMessage(err error) string {
	var apiErr *serrors.APIError
	if errors.As(err, &apiErr) && apiErr.Body != "" {
		return apiErr.Body
	}

	return err.Error()
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.StatusNotification) {}
