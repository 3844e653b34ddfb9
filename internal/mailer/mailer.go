// Package mailer delivers signed documents by email.
package mailer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.pilab.hu/esign/log"
)

const (
	DefaultFrom     = "info@duepro.com"
	DefaultFromName = "DuePro DocuSign System"

	userCopySubject     = "Your Document is Signed!"
	userCopyBody        = "Hello, your document has been signed successfully. Please see the attached PDF."
	attorneyCopySubject = "Client Document Signed"
	attorneyCopyBody    = "Hello, the client's document has been signed. PDF attached for your records."
)

// Mailer sends signed documents to the parties of an envelope.
type Mailer interface {
	SendWithAttachment(ctx context.Context, to []string, subject, body, attachmentName string, pdf []byte) error
	SendUserCopy(ctx context.Context, userEmail string, pdf []byte) error
	SendAttorneyCopy(ctx context.Context, attorneyEmail string, pdf []byte) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// SMTPMailer sends mail over SMTP using go-mail.
type SMTPMailer struct {
	cfg    Config
	logger log.Logger
}

// NewSMTPMailer creates an SMTP mailer. Empty sender fields fall back to the
// system defaults.
func NewSMTPMailer(cfg Config, logger log.Logger) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if logger == nil {
		logger = log.Nop()
	}

	return &SMTPMailer{cfg: cfg, logger: logger}
}

func (m *SMTPMailer) buildMessage(to []string, subject, body, attachmentName string, pdf []byte) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	msg.AttachReadSeeker(attachmentName, bytes.NewReader(pdf),
		mail.WithFileContentType(mail.ContentType("application/pdf")))

	return msg, nil
}

func (m *SMTPMailer) client() (*mail.Client, error) {
	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	if m.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	return mail.NewClient(m.cfg.Host, opts...)
}

// SendWithAttachment sends a plain-text mail with a single PDF attachment.
func (m *SMTPMailer) SendWithAttachment(ctx context.Context, to []string, subject, body, attachmentName string, pdf []byte) error {
	msg, err := m.buildMessage(to, subject, body, attachmentName, pdf)
	if err != nil {
		return err
	}

	client, err := m.client()
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	m.logger.Info(ctx, "signed document mailed", map[string]interface{}{
		"recipients": len(to),
		"attachment": attachmentName,
	})

	return nil
}

// SendUserCopy mails the signed document to the signer.
func (m *SMTPMailer) SendUserCopy(ctx context.Context, userEmail string, pdf []byte) error {
	return m.SendWithAttachment(ctx, []string{userEmail}, userCopySubject, userCopyBody, "user_signed_document.pdf", pdf)
}

// SendAttorneyCopy mails the signed document to the attorney.
func (m *SMTPMailer) SendAttorneyCopy(ctx context.Context, attorneyEmail string, pdf []byte) error {
	return m.SendWithAttachment(ctx, []string{attorneyEmail}, attorneyCopySubject, attorneyCopyBody, "attorney_signed_document.pdf", pdf)
}

// Nop discards all mail. It is used when no SMTP host is configured.
type Nop struct{}

func (Nop) SendWithAttachment(context.Context, []string, string, string, string, []byte) error {
	return nil
}
func (Nop) SendUserCopy(context.Context, string, []byte) error     { return nil }
func (Nop) SendAttorneyCopy(context.Context, string, []byte) error { return nil }

var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = Nop{}
)
