package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.pilab.hu/esign/domain"
	"go.pilab.hu/esign/dto"
	"go.pilab.hu/esign/internal/audit"
	"go.pilab.hu/esign/internal/metrics"
	"go.pilab.hu/esign/log"
)

// DefaultNotifyTimeout bounds a single webhook call.
const DefaultNotifyTimeout = 10 * time.Second

// NotificationDispatcher posts status changes to the external webhook.
// Delivery is best effort: failures are logged, counted and audited but never
// returned.
type NotificationDispatcher struct {
	url                string
	httpClient         *http.Client
	documentCollection string
	envelopeCollection string
	logger             log.Logger
}

// DispatcherOption configures a NotificationDispatcher.
type DispatcherOption func(*NotificationDispatcher)

// WithCollectionNames overrides the collection names sent on the wire.
func WithCollectionNames(document, envelope string) DispatcherOption {
	return func(d *NotificationDispatcher) {
		if document != "" {
			d.documentCollection = document
		}
		if envelope != "" {
			d.envelopeCollection = envelope
		}
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(l log.Logger) DispatcherOption {
	return func(d *NotificationDispatcher) { d.logger = l }
}

// NewNotificationDispatcher creates a dispatcher for webhookURL. An empty URL
// disables delivery.
func NewNotificationDispatcher(webhookURL string, timeout time.Duration, opts ...DispatcherOption) *NotificationDispatcher {
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}

	d := &NotificationDispatcher{
		url:                webhookURL,
		httpClient:         &http.Client{Timeout: timeout},
		documentCollection: string(domain.DocumentCollection),
		envelopeCollection: string(domain.EnvelopeCollection),
		logger:             log.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Payload builds the webhook body for n.
func (d *NotificationDispatcher) Payload(n domain.StatusNotification) dto.StatusWebhookPayload {
	success := n.Success
	payload := dto.StatusWebhookPayload{
		DocID: n.CorrelationID,
		Data:  dto.StatusWebhookData{ErrorMessage: n.ErrorMessage},
	}

	if n.Collection == domain.EnvelopeCollection {
		payload.Collection = d.envelopeCollection
		payload.Data.IsEnvelopeSigned = &success
	} else {
		payload.Collection = d.documentCollection
		payload.Data.IsDocumentEdited = &success
	}

	return payload
}

// Notify implements Notifier.
func (d *NotificationDispatcher) Notify(ctx context.Context, n domain.StatusNotification) {
	if d.url == "" {
		return
	}

	payload := d.Payload(n)
	err := d.post(ctx, payload)
	if err != nil {
		metrics.NotificationsFailedTotal.Inc()
		d.logger.Warn(ctx, "status notification not delivered", map[string]interface{}{
			"collection": payload.Collection,
			"doc_id":     n.CorrelationID,
			"error":      err.Error(),
		})
	}

	audit.Log("notifier", "status_notification", n.CorrelationID, payload.Collection, err == nil, err)
}

func (d *NotificationDispatcher) post(ctx context.Context, payload dto.StatusWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// The caller's deadline must not cut the notification short, nor must a
	// cancelled request skip it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.httpClient.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}

	return nil
}

var _ Notifier = (*NotificationDispatcher)(nil)
