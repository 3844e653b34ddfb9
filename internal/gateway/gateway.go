// Package gateway issues authenticated calls against the provider's REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	serrors "go.pilab.hu/esign/errors"
	"go.pilab.hu/esign/log"
)

const tracerName = "go.pilab.hu/esign/internal/gateway"

// Accept types understood by Do.
const (
	AcceptJSON = "application/json"
	AcceptPDF  = "application/pdf"
)

// Request describes one provider call. Body, when set, is sent as JSON.
type Request struct {
	Method string
	URL    string
	Token  string
	Body   any
	Accept string
}

// Response is the raw provider reply.
type Response struct {
	StatusCode int
	Body       []byte
}

// Gateway is a thin authenticated HTTP caller. It never fetches tokens itself.
type Gateway struct {
	httpClient *http.Client
	basePath   string
	accountID  string
	logger     log.Logger
	tracer     trace.Tracer
}

// New creates a Gateway for the REST base path (e.g.
// https://demo.docusign.net/restapi) and account.
func New(basePath, accountID string, httpClient *http.Client, logger log.Logger) *Gateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = log.Nop()
	}

	return &Gateway{
		httpClient: httpClient,
		basePath:   strings.TrimRight(basePath, "/"),
		accountID:  accountID,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// AccountURL builds {base}/v2.1/accounts/{accountId}/{segments...} with each
// segment path-escaped.
func (g *Gateway) AccountURL(segments ...string) string {
	var b strings.Builder
	b.WriteString(g.basePath)
	b.WriteString("/v2.1/accounts/")
	b.WriteString(url.PathEscape(g.accountID))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}

	return b.String()
}

// Do performs the call and fails with *errors.APIError when the status is
// outside [200,300).
func (g *Gateway) Do(ctx context.Context, r Request) (*Response, error) {
	ctx, span := g.tracer.Start(ctx, "gateway "+r.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", r.URL)))
	defer span.End()

	var body io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.Token)
	req.Header.Set("Content-Type", "application/json")
	accept := r.Accept
	if accept == "" {
		accept = AcceptJSON
	}
	req.Header.Set("Accept", accept)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return nil, fmt.Errorf("provider request %s %s failed: %w", r.Method, r.URL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		g.logger.Warn(ctx, "provider call failed", map[string]interface{}{
			"method": r.Method,
			"url":    r.URL,
			"status": resp.StatusCode,
		})
		return nil, &serrors.APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// PostJSON posts in and decodes the reply into out (when non-nil).
func (g *Gateway) PostJSON(ctx context.Context, token, url string, in, out any) error {
	return g.doJSON(ctx, Request{Method: http.MethodPost, URL: url, Token: token, Body: in}, out)
}

// GetJSON fetches url and decodes the reply into out.
func (g *Gateway) GetJSON(ctx context.Context, token, url string, out any) error {
	return g.doJSON(ctx, Request{Method: http.MethodGet, URL: url, Token: token}, out)
}

// GetBinary fetches url with the given Accept type and returns the raw bytes.
func (g *Gateway) GetBinary(ctx context.Context, token, url, accept string) (*Response, error) {
	return g.Do(ctx, Request{Method: http.MethodGet, URL: url, Token: token, Accept: accept})
}

func (g *Gateway) doJSON(ctx context.Context, r Request, out any) error {
	resp, err := g.Do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}

	return nil
}
