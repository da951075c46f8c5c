package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/BradenHooton/authguard/internal/detection"
	"github.com/BradenHooton/authguard/internal/models"
	"github.com/BradenHooton/authguard/internal/ratelimit"
	"github.com/BradenHooton/authguard/pkg/logger"
)

// MockRateLimiter implements RateLimiter for testing
type MockRateLimiter struct {
	CanAttemptFunc func(ctx context.Context, identifier string) ratelimit.Decision
	Recorded       []string
	ResetCalls     []string
}

func (m *MockRateLimiter) CanAttempt(ctx context.Context, identifier string) ratelimit.Decision {
	if m.CanAttemptFunc != nil {
		return m.CanAttemptFunc(ctx, identifier)
	}
	return ratelimit.Decision{Allowed: true, AttemptsLeft: ratelimit.DefaultMaxAttempts}
}

func (m *MockRateLimiter) RecordAttempt(_ context.Context, identifier string) {
	m.Recorded = append(m.Recorded, identifier)
}

func (m *MockRateLimiter) Reset(_ context.Context, identifier string) {
	m.ResetCalls = append(m.ResetCalls, identifier)
}

// MockAttemptLog implements AttemptLog for testing
type MockAttemptLog struct {
	RecordFunc       func(ctx context.Context, subject string, record models.AttemptRecord) error
	RecentFunc       func(ctx context.Context, subject string, since time.Time) ([]models.AttemptRecord, error)
	DeleteBeforeFunc func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *MockAttemptLog) Record(ctx context.Context, subject string, record models.AttemptRecord) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, subject, record)
	}
	return nil
}

func (m *MockAttemptLog) Recent(ctx context.Context, subject string, since time.Time) ([]models.AttemptRecord, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, subject, since)
	}
	return nil, nil
}

func (m *MockAttemptLog) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteBeforeFunc != nil {
		return m.DeleteBeforeFunc(ctx, cutoff)
	}
	return 0, nil
}

// MockDetector implements ActivityDetector for testing
type MockDetector struct {
	DetectFunc func(attempts []models.AttemptRecord, window time.Duration) detection.Flags
}

func (m *MockDetector) Detect(attempts []models.AttemptRecord, window time.Duration) detection.Flags {
	if m.DetectFunc != nil {
		return m.DetectFunc(attempts, window)
	}
	return detection.Flags{}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestAuditLogger() *logger.AuditLogger {
	return logger.NewAuditLogger(newTestLogger())
}
