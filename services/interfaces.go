package services

import (
	"context"

	"go.pilab.hu/esign/domain"
	"go.pilab.hu/esign/internal/gateway"
)

// Provider is the authenticated REST surface of the e-signature provider.
// *gateway.Gateway implements it.
type Provider interface {
	AccountURL(segments ...string) string
	PostJSON(ctx context.Context, token, url string, in, out any) error
	GetJSON(ctx context.Context, token, url string, out any) error
	GetBinary(ctx context.Context, token, url, accept string) (*gateway.Response, error)
}

// Notifier pushes status notifications. Implementations never fail the caller.
type Notifier interface {
	Notify(ctx context.Context, n domain.StatusNotification)
}

var _ Provider = (*gateway.Gateway)(nil)
