package pdfmerge_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/esign/dto"
	serrors "go.pilab.hu/esign/errors"
	"go.pilab.hu/esign/internal/pdfmerge"
)

type mergeStub struct {
	uploads     atomic.Int32
	uploadNoURL bool
	mergeError  string
	mergedURLs  string
	hopDelay    time.Duration
	downloads   atomic.Int32
}

func (s *mergeStub) handler(t *testing.T, baseURL func() string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/file/upload/base64", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		time.Sleep(s.hopDelay)
		var req dto.UploadBase64Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		n := s.uploads.Add(1)
		if s.uploadNoURL {
			_ = json.NewEncoder(w).Encode(dto.MergeServiceResponse{Error: true, Message: "quota exceeded"})
			return
		}
		_ = json.NewEncoder(w).Encode(dto.MergeServiceResponse{URL: baseURL() + "/tmp/" + string(rune('0'+n))})
	})
	mux.HandleFunc("/v1/pdf/merge", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(s.hopDelay)
		var req dto.MergeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		s.mergedURLs = req.URL
		assert.False(t, req.Async)
		if s.mergeError != "" {
			_ = json.NewEncoder(w).Encode(dto.MergeServiceResponse{Error: true, Message: s.mergeError})
			return
		}
		_ = json.NewEncoder(w).Encode(dto.MergeServiceResponse{URL: baseURL() + "/result.pdf"})
	})
	mux.HandleFunc("/result.pdf", func(w http.ResponseWriter, r *http.Request) {
		s.downloads.Add(1)
		_, _ = w.Write([]byte("%PDF-merged"))
	})
	return mux
}

func newServer(t *testing.T, stub *mergeStub) *httptest.Server {
	var server *httptest.Server
	server = httptest.NewServer(stub.handler(t, func() string { return server.URL }))
	t.Cleanup(server.Close)
	return server
}

func TestClient_Merge(t *testing.T) {
	stub := &mergeStub{}
	server := newServer(t, stub)

	client := pdfmerge.New(server.URL, "secret", time.Second, nil)
	data, err := client.Merge(context.Background(), "Zmlyc3Q=", "c2Vjb25k")
	require.NoError(t, err)

	assert.Equal(t, "%PDF-merged", string(data))
	assert.EqualValues(t, 2, stub.uploads.Load())
	assert.Equal(t, server.URL+"/tmp/1,"+server.URL+"/tmp/2", stub.mergedURLs)
}

func TestClient_UploadWithoutURL(t *testing.T) {
	stub := &mergeStub{uploadNoURL: true}
	server := newServer(t, stub)

	_, err := pdfmerge.New(server.URL, "secret", time.Second, nil).Merge(context.Background(), "YQ==", "Yg==")
	require.Error(t, err)
	assert.ErrorIs(t, err, serrors.ErrMerge)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.EqualValues(t, 1, stub.uploads.Load(), "second upload is not attempted")
}

func TestClient_MergeErrorMessage(t *testing.T) {
	stub := &mergeStub{mergeError: "file is not a PDF"}
	server := newServer(t, stub)

	_, err := pdfmerge.New(server.URL, "secret", time.Second, nil).Merge(context.Background(), "YQ==", "Yg==")
	assert.ErrorIs(t, err, serrors.ErrMerge)
	assert.True(t, strings.HasSuffix(err.Error(), "file is not a PDF"))
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := pdfmerge.New(server.URL, "secret", 20*time.Millisecond, nil).Merge(context.Background(), "YQ==", "Yg==")
	assert.ErrorIs(t, err, serrors.ErrMerge)
}

func TestClient_TimeoutBoundsWholeMerge(t *testing.T) {
	stub := &mergeStub{hopDelay: 80 * time.Millisecond}
	server := newServer(t, stub)

	start := time.Now()
	_, err := pdfmerge.New(server.URL, "secret", 200*time.Millisecond, nil).Merge(context.Background(), "YQ==", "Yg==")
	assert.ErrorIs(t, err, serrors.ErrMerge)
	assert.Less(t, time.Since(start), 300*time.Millisecond)
	assert.Zero(t, stub.downloads.Load(), "download must not start after the deadline")
}
