package services

import (
	"context"
	"fmt"

	"go.pilab.hu/esign/domain"
	"go.pilab.hu/esign/dto"
	serrors "go.pilab.hu/esign/errors"
)

// StatusTracker reads the provider-owned envelope status.
type StatusTracker struct {
	provider Provider
}

// NewStatusTracker creates a StatusTracker.
func NewStatusTracker(provider Provider) *StatusTracker {
	return &StatusTracker{provider: provider}
}

// GetEnvelopeStatus fetches the envelope and returns its status string.
func (t *StatusTracker) GetEnvelopeStatus(ctx context.Context, token, envelopeID string) (string, error) {
	if err := serrors.NewValidationError(missingOf(map[string]string{"envelopeId": envelopeID})...); err != nil {
		return "", err
	}

	var summary dto.EnvelopeSummary
	if err := t.provider.GetJSON(ctx, token, t.provider.AccountURL("envelopes", envelopeID), &summary); err != nil {
		return "", fmt.Errorf("failed to read envelope status: %w", err)
	}

	return summary.Status, nil
}

// IsSigned reports whether the envelope has reached the completed status.
// Every other status, terminal or not, counts as not signed.
func (t *StatusTracker) IsSigned(ctx context.Context, token, envelopeID string) (string, bool, error) {
	status, err := t.GetEnvelopeStatus(ctx, token, envelopeID)
	if err != nil {
		return "", false, err
	}

	return status, domain.IsCompleted(status), nil
}
