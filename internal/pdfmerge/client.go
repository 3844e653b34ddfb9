// Package pdfmerge combines two PDFs through a third-party merge service.
package pdfmerge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.pilab.hu/esign/dto"
	serrors "go.pilab.hu/esign/errors"
	"go.pilab.hu/esign/log"
)

// DefaultTimeout bounds every merge service call.
const DefaultTimeout = 60 * time.Second

// Merger merges two base64-encoded PDFs into one document.
type Merger interface {
	Merge(ctx context.Context, firstBase64, secondBase64 string) ([]byte, error)
}

// Client talks to the merge service: two uploads, one synchronous merge and
// a download of the result. Any failed hop aborts the merge.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	logger     log.Logger
}

// New creates a merge client. A zero timeout selects DefaultTimeout.
func New(baseURL, apiKey string, timeout time.Duration, logger log.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Nop()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Merge uploads both payloads, merges them in order and returns the merged
// bytes. The timeout bounds the whole round trip, not each hop.
func (c *Client) Merge(ctx context.Context, firstBase64, secondBase64 string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	firstURL, err := c.upload(ctx, firstBase64, "first.pdf")
	if err != nil {
		return nil, err
	}
	secondURL, err := c.upload(ctx, secondBase64, "second.pdf")
	if err != nil {
		return nil, err
	}

	var merged dto.MergeServiceResponse
	req := dto.MergeRequest{
		URL:   firstURL + "," + secondURL,
		Name:  fmt.Sprintf("merged_%d.pdf", time.Now().Unix()),
		Async: false,
	}
	if err := c.post(ctx, "/v1/pdf/merge", req, &merged); err != nil {
		return nil, err
	}
	if merged.Error || merged.URL == "" {
		msg := merged.Message
		if msg == "" {
			msg = "merge response has no url"
		}
		return nil, fmt.Errorf("%w: %s", serrors.ErrMerge, msg)
	}

	data, err := c.download(ctx, merged.URL)
	if err != nil {
		return nil, err
	}
	c.logger.Debug(ctx, "pdf merge completed", map[string]interface{}{"bytes": len(data)})

	return data, nil
}

func (c *Client) upload(ctx context.Context, payload, name string) (string, error) {
	var resp dto.MergeServiceResponse
	if err := c.post(ctx, "/v1/file/upload/base64", dto.UploadBase64Request{File: payload, Name: name}, &resp); err != nil {
		return "", err
	}
	if resp.Error || resp.URL == "" {
		msg := resp.Message
		if msg == "" {
			msg = "upload response has no url"
		}
		return "", fmt.Errorf("%w: %s: %s", serrors.ErrMerge, name, msg)
	}

	return resp.URL, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: failed to encode request: %w", serrors.ErrMerge, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to build request: %w", serrors.ErrMerge, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", serrors.ErrMerge, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", serrors.ErrMerge, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s: %w", serrors.ErrMerge, path, &serrors.APIError{StatusCode: resp.StatusCode, Body: string(body)})
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: invalid response from %s: %w", serrors.ErrMerge, path, err)
	}

	return nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build download request: %w", serrors.ErrMerge, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download failed: %w", serrors.ErrMerge, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read merged document: %w", serrors.ErrMerge, err)
	}
	if resp.StatusCode != http.StatusOK || len(data) == 0 {
		return nil, fmt.Errorf("%w: download of merged document failed. HTTP %d", serrors.ErrMerge, resp.StatusCode)
	}

	return data, nil
}

var _ Merger = (*Client)(nil)
