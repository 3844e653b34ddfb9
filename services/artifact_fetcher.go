package services

import (
	"context"
	"fmt"
	"net/http"

	serrors "go.pilab.hu/esign/errors"
	"go.pilab.hu/esign/internal/gateway"
)

// Envelope document selectors.
const (
	DocumentSigned   = "1"
	DocumentCombined = "combined"
)

// ArtifactFetcher downloads signed envelope documents.
type ArtifactFetcher struct {
	provider Provider
}

// NewArtifactFetcher creates an ArtifactFetcher.
func NewArtifactFetcher(provider Provider) *ArtifactFetcher {
	return &ArtifactFetcher{provider: provider}
}

// Fetch downloads documentID ("1" or "combined") of an envelope as PDF bytes.
func (f *ArtifactFetcher) Fetch(ctx context.Context, token, envelopeID, documentID string) ([]byte, error) {
	if err := serrors.NewValidationError(missingOf(map[string]string{"envelopeId": envelopeID})...); err != nil {
		return nil, err
	}

	url := f.provider.AccountURL("envelopes", envelopeID, "documents", documentID)
	resp, err := f.provider.GetBinary(ctx, token, url, gateway.AcceptPDF)
	if err != nil {
		return nil, fmt.Errorf("%w: envelope %s document %s: %w", serrors.ErrFetch, envelopeID, documentID, err)
	}
	if resp.StatusCode != http.StatusOK || len(resp.Body) == 0 {
		return nil, fmt.Errorf("%w: failed to download document. HTTP %d", serrors.ErrFetch, resp.StatusCode)
	}

	return resp.Body, nil
}

// Signed returns the first signed document, used for direct downloads.
func (f *ArtifactFetcher) Signed(ctx context.Context, token, envelopeID string) ([]byte, error) {
	return f.Fetch(ctx, token, envelopeID, DocumentSigned)
}

// Combined returns all envelope documents as one PDF, used for mail delivery.
func (f *ArtifactFetcher) Combined(ctx context.Context, token, envelopeID string) ([]byte, error) {
	return f.Fetch(ctx, token, envelopeID, DocumentCombined)
}
