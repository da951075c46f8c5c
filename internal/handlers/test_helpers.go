package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/authguard/internal/detection"
	"github.com/BradenHooton/authguard/internal/models"
	"github.com/BradenHooton/authguard/internal/ratelimit"
	"github.com/BradenHooton/authguard/internal/services"
	"github.com/BradenHooton/authguard/pkg/crypto"
	pkghttp "github.com/BradenHooton/authguard/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.5:40000"
	return req
}

// WithURLParam attaches a chi route parameter to req
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// MockGuardService implements GuardServiceInterface for testing
type MockGuardService struct {
	PrecheckFunc        func(ctx context.Context, lc services.LoginContext) (*services.Verdict, error)
	RecordOutcomeFunc   func(ctx context.Context, lc services.LoginContext, success bool) error
	DecisionFunc        func(ctx context.Context, identifier string) ratelimit.Decision
	ResetIdentifierFunc func(ctx context.Context, identifier string)
	DetectFunc          func(attempts []models.AttemptRecord, window time.Duration) detection.Flags
}

func (m *MockGuardService) Precheck(ctx context.Context, lc services.LoginContext) (*services.Verdict, error) {
	if m.PrecheckFunc != nil {
		return m.PrecheckFunc(ctx, lc)
	}
	return &services.Verdict{Allowed: true, AttemptsLeft: ratelimit.DefaultMaxAttempts}, nil
}

func (m *MockGuardService) RecordOutcome(ctx context.Context, lc services.LoginContext, success bool) error {
	if m.RecordOutcomeFunc != nil {
		return m.RecordOutcomeFunc(ctx, lc, success)
	}
	return nil
}

func (m *MockGuardService) Decision(ctx context.Context, identifier string) ratelimit.Decision {
	if m.DecisionFunc != nil {
		return m.DecisionFunc(ctx, identifier)
	}
	return ratelimit.Decision{Allowed: true, AttemptsLeft: ratelimit.DefaultMaxAttempts}
}

func (m *MockGuardService) ResetIdentifier(ctx context.Context, identifier string) {
	if m.ResetIdentifierFunc != nil {
		m.ResetIdentifierFunc(ctx, identifier)
	}
}

func (m *MockGuardService) Detect(attempts []models.AttemptRecord, window time.Duration) detection.Flags {
	if m.DetectFunc != nil {
		return m.DetectFunc(attempts, window)
	}
	return detection.Flags{}
}

// MockPayloadService implements PayloadServiceInterface for testing
type MockPayloadService struct {
	SealFunc func(ctx context.Context, plaintext []byte) (*crypto.EncryptedPayload, error)
	OpenFunc func(ctx context.Context, payload *crypto.EncryptedPayload) ([]byte, error)
}

func (m *MockPayloadService) Seal(ctx context.Context, plaintext []byte) (*crypto.EncryptedPayload, error) {
	if m.SealFunc != nil {
		return m.SealFunc(ctx, plaintext)
	}
	return &crypto.EncryptedPayload{}, nil
}

func (m *MockPayloadService) Open(ctx context.Context, payload *crypto.EncryptedPayload) ([]byte, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, payload)
	}
	return nil, crypto.ErrAuthenticationFailed
}

// MockPinger implements Pinger for testing
type MockPinger struct {
	Err error
}

func (m *MockPinger) Ping(context.Context) error {
	return m.Err
}
