package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.pilab.hu/esign/domain"
	"go.pilab.hu/esign/dto"
	"go.pilab.hu/esign/internal/gateway"
)

const (
	stubAccount  = "acc-1"
	stubTemplate = "tpl-1"
	stubEnvelope = "env-1"
)

// providerStub imitates the provider's REST surface. The recipient view is
// rejected with 400 unless clientUserId matches the one the envelope was
// created with.
type providerStub struct {
	mu sync.Mutex

	server *httptest.Server

	templateDoc     []byte
	templateDocCode int
	envelopeStatus  string
	signedDoc       []byte
	clientUserID    string
	templateReq     dto.CreateTemplateRequest
	envelopeReq     dto.CreateEnvelopeRequest
	noSenderViewURL bool
	failEnvelope    bool
	rejectToken     bool
}

func newProviderStub(t *testing.T) *providerStub {
	t.Helper()

	s := &providerStub{envelopeStatus: domain.EnvelopeStatusSent, signedDoc: []byte("%PDF-1.4 signed")}
	prefix := "/restapi/v2.1/accounts/" + stubAccount

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+prefix+"/templates", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		_ = json.NewDecoder(r.Body).Decode(&s.templateReq)
		writeJSON(w, http.StatusCreated, dto.CreateTemplateResponse{TemplateID: stubTemplate})
	})
	mux.HandleFunc("POST "+prefix+"/templates/{id}/views/edit", func(w http.ResponseWriter, r *http.Request) {
		var req dto.ReturnURLRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if s.noSenderViewURL {
			writeJSON(w, http.StatusCreated, map[string]string{})
			return
		}
		writeJSON(w, http.StatusCreated, dto.ViewURLResponse{
			URL: "https://edit.example.com/" + r.PathValue("id") + "?returnUrl=" + url.QueryEscape(req.ReturnURL),
		})
	})
	mux.HandleFunc("GET "+prefix+"/templates/{id}/documents/{doc}", func(w http.ResponseWriter, r *http.Request) {
		if s.templateDocCode != 0 {
			writeJSON(w, s.templateDocCode, map[string]string{"errorCode": "SERVICE_UNAVAILABLE"})
			return
		}
		if len(s.templateDoc) == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"errorCode": "DOCUMENT_DOES_NOT_EXIST"})
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(s.templateDoc)
	})
	mux.HandleFunc("POST "+prefix+"/envelopes", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.failEnvelope {
			writeJSON(w, http.StatusBadRequest, map[string]string{"errorCode": "TEMPLATE_ID_INVALID"})
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&s.envelopeReq)
		switch {
		case len(s.envelopeReq.TemplateRoles) > 0:
			s.clientUserID = s.envelopeReq.TemplateRoles[0].ClientUserID
		case s.envelopeReq.Recipients != nil && len(s.envelopeReq.Recipients.Signers) > 0:
			s.clientUserID = s.envelopeReq.Recipients.Signers[0].ClientUserID
		}
		writeJSON(w, http.StatusCreated, dto.EnvelopeSummary{EnvelopeID: stubEnvelope, Status: "sent", URI: "/envelopes/" + stubEnvelope})
	})
	mux.HandleFunc("POST "+prefix+"/envelopes/{id}/views/recipient", func(w http.ResponseWriter, r *http.Request) {
		var req dto.RecipientViewRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		expected := s.clientUserID
		s.mu.Unlock()
		if req.ClientUserID == "" || req.ClientUserID != expected || req.AuthenticationMethod != "none" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"errorCode": "UNKNOWN_ENVELOPE_RECIPIENT"})
			return
		}
		writeJSON(w, http.StatusCreated, dto.ViewURLResponse{
			URL: "https://sign.example.com/" + r.PathValue("id") + "?returnUrl=" + url.QueryEscape(req.ReturnURL),
		})
	})
	mux.HandleFunc("GET "+prefix+"/envelopes/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.rejectToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"errorCode": "USER_AUTHENTICATION_FAILED"})
			return
		}
		writeJSON(w, http.StatusOK, dto.EnvelopeSummary{EnvelopeID: r.PathValue("id"), Status: s.envelopeStatus})
	})
	mux.HandleFunc("GET "+prefix+"/envelopes/{id}/documents/{doc}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/pdf" || r.PathValue("id") != stubEnvelope {
			writeJSON(w, http.StatusNotFound, map[string]string{"errorCode": "ENVELOPE_DOES_NOT_EXIST"})
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte(string(s.signedDoc) + " " + r.PathValue("doc")))
	})

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)

	return s
}

func (s *providerStub) gateway() *gateway.Gateway {
	return gateway.New(s.server.URL+"/restapi", stubAccount, s.server.Client(), nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// --- Mock Implementations ---

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n domain.StatusNotification) {
	m.Called(ctx, n)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendWithAttachment(ctx context.Context, to []string, subject, body, attachmentName string, pdf []byte) error {
	args := m.Called(ctx, to, subject, body, attachmentName, pdf)
	return args.Error(0)
}

func (m *MockMailer) SendUserCopy(ctx context.Context, userEmail string, pdf []byte) error {
	args := m.Called(ctx, userEmail, pdf)
	return args.Error(0)
}

func (m *MockMailer) SendAttorneyCopy(ctx context.Context, attorneyEmail string, pdf []byte) error {
	args := m.Called(ctx, attorneyEmail, pdf)
	return args.Error(0)
}

type MockTokenSource struct {
	mock.Mock
}

func (m *MockTokenSource) AccessToken(ctx context.Context) (*domain.AccessToken, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessToken), args.Error(1)
}

type MockCachingTokenSource struct {
	MockTokenSource
}

func (m *MockCachingTokenSource) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockMerger struct {
	mock.Mock
}

func (m *MockMerger) Merge(ctx context.Context, firstBase64, secondBase64 string) ([]byte, error) {
	args := m.Called(ctx, firstBase64, secondBase64)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(title string, fields map[string]string) ([]byte, error) {
	args := m.Called(title, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
