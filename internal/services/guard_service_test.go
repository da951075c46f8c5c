package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BradenHooton/authguard/internal/clock"
	"github.com/BradenHooton/authguard/internal/detection"
	"github.com/BradenHooton/authguard/internal/models"
	"github.com/BradenHooton/authguard/internal/ratelimit"
	"github.com/BradenHooton/authguard/internal/repositories"
	pkgauth "github.com/BradenHooton/authguard/pkg/auth"
	"github.com/BradenHooton/authguard/pkg/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var guardNow = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

func validLogin() LoginContext {
	return LoginContext{
		Username:  "jane.doe",
		Password:  "Password1!",
		IPAddress: "203.0.113.5",
		UserAgent: "Mozilla/5.0",
	}
}

func newTestGuard(limiter RateLimiter, detector ActivityDetector, history AttemptLog) *GuardService {
	return NewGuardService(limiter, detector, history, GuardConfig{}, clock.NewFake(guardNow), newTestLogger(), newTestAuditLogger())
}

func TestGuardService_Precheck_Allowed(t *testing.T) {
	lc := validLogin()
	lc.Attributes = map[string]string{fingerprint.AttrUserAgent: "Mozilla/5.0", fingerprint.AttrTimezone: "UTC"}

	var gotSince time.Time
	history := &MockAttemptLog{RecentFunc: func(_ context.Context, subject string, since time.Time) ([]models.AttemptRecord, error) {
		assert.Equal(t, "jane.doe", subject)
		gotSince = since
		return nil, nil
	}}

	guard := newTestGuard(&MockRateLimiter{}, &MockDetector{}, history)
	verdict, err := guard.Precheck(context.Background(), lc)

	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
	assert.Equal(t, ratelimit.DefaultMaxAttempts, verdict.AttemptsLeft)
	assert.False(t, verdict.RequireStepUp)
	assert.Equal(t, fingerprint.Generate(lc.Attributes), verdict.Fingerprint)
	assert.Equal(t, guardNow.Add(-detection.DefaultWindow), gotSince)
}

func TestGuardService_Precheck_InvalidInput(t *testing.T) {
	limiter := &MockRateLimiter{CanAttemptFunc: func(context.Context, string) ratelimit.Decision {
		t.Fatal("limiter must not be consulted for invalid input")
		return ratelimit.Decision{}
	}}
	guard := newTestGuard(limiter, &MockDetector{}, &MockAttemptLog{})

	lc := validLogin()
	lc.Username = "j!"
	lc.Password = ""

	verdict, err := guard.Precheck(context.Background(), lc)

	assert.ErrorIs(t, err, models.ErrInvalidLoginInput)
	var verr *pkgauth.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errors, 4)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, verr.Errors, verdict.Errors)
}

func TestGuardService_Precheck_RateLimited(t *testing.T) {
	limiter := &MockRateLimiter{CanAttemptFunc: func(_ context.Context, identifier string) ratelimit.Decision {
		assert.Equal(t, "203.0.113.5", identifier)
		return ratelimit.Decision{Allowed: false, TimeToWait: 14*time.Minute + 500*time.Millisecond}
	}}
	guard := newTestGuard(limiter, &MockDetector{}, &MockAttemptLog{})

	verdict, err := guard.Precheck(context.Background(), validLogin())

	assert.ErrorIs(t, err, models.ErrRateLimitExceeded)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, 14*time.Minute+500*time.Millisecond, verdict.TimeToWait)
	assert.Equal(t, 841, verdict.RetryAfterSeconds)
}

func TestGuardService_Precheck_StepUp(t *testing.T) {
	past := []models.AttemptRecord{{Timestamp: guardNow.Add(-time.Minute), Identifier: "198.51.100.9"}}
	history := &MockAttemptLog{RecentFunc: func(context.Context, string, time.Time) ([]models.AttemptRecord, error) {
		return past, nil
	}}
	detector := &MockDetector{DetectFunc: func(attempts []models.AttemptRecord, window time.Duration) detection.Flags {
		assert.Equal(t, past, attempts)
		assert.Equal(t, detection.DefaultWindow, window)
		return detection.Flags{HasMultipleIPs: true}
	}}

	verdict, err := newTestGuard(&MockRateLimiter{}, detector, history).Precheck(context.Background(), validLogin())

	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
	assert.True(t, verdict.RequireStepUp)
	assert.True(t, verdict.Flags.HasMultipleIPs)
	assert.Empty(t, verdict.Fingerprint)
}

func TestGuardService_Precheck_HistoryErrorIsAdvisory(t *testing.T) {
	history := &MockAttemptLog{RecentFunc: func(context.Context, string, time.Time) ([]models.AttemptRecord, error) {
		return nil, errors.New("db unreachable")
	}}
	detector := &MockDetector{DetectFunc: func([]models.AttemptRecord, time.Duration) detection.Flags {
		t.Fatal("detector must not run without history")
		return detection.Flags{}
	}}

	verdict, err := newTestGuard(&MockRateLimiter{}, detector, history).Precheck(context.Background(), validLogin())

	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
	assert.False(t, verdict.RequireStepUp)
}

func TestGuardService_RecordOutcome(t *testing.T) {
	var recorded []models.AttemptRecord
	history := &MockAttemptLog{RecordFunc: func(_ context.Context, subject string, record models.AttemptRecord) error {
		assert.Equal(t, "jane.doe", subject)
		recorded = append(recorded, record)
		return nil
	}}
	limiter := &MockRateLimiter{}
	guard := newTestGuard(limiter, &MockDetector{}, history)

	require.NoError(t, guard.RecordOutcome(context.Background(), validLogin(), false))
	require.NoError(t, guard.RecordOutcome(context.Background(), validLogin(), true))

	assert.Equal(t, []string{"203.0.113.5"}, limiter.Recorded)
	assert.Equal(t, []string{"203.0.113.5"}, limiter.ResetCalls)
	assert.Equal(t, []models.AttemptRecord{
		{Timestamp: guardNow, Identifier: "203.0.113.5", Success: false, UserAgent: "Mozilla/5.0"},
		{Timestamp: guardNow, Identifier: "203.0.113.5", Success: true, UserAgent: "Mozilla/5.0"},
	}, recorded)
}

func TestGuardService_RecordOutcome_HistoryError(t *testing.T) {
	history := &MockAttemptLog{RecordFunc: func(context.Context, string, models.AttemptRecord) error {
		return errors.New("insert failed")
	}}
	limiter := &MockRateLimiter{}
	guard := newTestGuard(limiter, &MockDetector{}, history)

	err := guard.RecordOutcome(context.Background(), validLogin(), false)

	assert.Error(t, err)
	assert.Equal(t, []string{"203.0.113.5"}, limiter.Recorded, "limiter is updated even when history fails")
}

func TestGuardService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(guardNow)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), ratelimit.DefaultConfig(), clk, newTestLogger())
	guard := NewGuardService(limiter, detection.NewDetector(clk), repositories.NewMemoryAttemptLog(0),
		GuardConfig{DetectionWindow: time.Hour}, clk, newTestLogger(), newTestAuditLogger())

	lc := validLogin()
	for i := 0; i < ratelimit.DefaultMaxAttempts; i++ {
		verdict, err := guard.Precheck(ctx, lc)
		require.NoError(t, err)
		assert.Equal(t, ratelimit.DefaultMaxAttempts-i, verdict.AttemptsLeft)
		require.NoError(t, guard.RecordOutcome(ctx, lc, false))
		clk.Advance(time.Second)
	}

	verdict, err := guard.Precheck(ctx, lc)
	assert.ErrorIs(t, err, models.ErrRateLimitExceeded)
	assert.False(t, verdict.Allowed)

	// a different client hitting the same account is allowed but flagged
	other := lc
	other.IPAddress = "198.51.100.77"
	verdict, err = guard.Precheck(ctx, other)
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
	assert.False(t, verdict.Flags.HasMultipleIPs)
	require.NoError(t, guard.RecordOutcome(ctx, other, false))

	verdict, err = guard.Precheck(ctx, other)
	require.NoError(t, err)
	assert.True(t, verdict.Flags.HasMultipleIPs)
	assert.True(t, verdict.RequireStepUp)

	guard.ResetIdentifier(ctx, lc.IPAddress)
	assert.Equal(t, ratelimit.DefaultMaxAttempts, guard.Decision(ctx, lc.IPAddress).AttemptsLeft)
}

func TestGuardService_Detect_DefaultsWindow(t *testing.T) {
	detector := &MockDetector{DetectFunc: func(_ []models.AttemptRecord, window time.Duration) detection.Flags {
		assert.Equal(t, 30*time.Minute, window)
		return detection.Flags{HasRapidAttempts: true}
	}}
	guard := NewGuardService(&MockRateLimiter{}, detector, &MockAttemptLog{}, GuardConfig{DetectionWindow: 30 * time.Minute},
		nil, newTestLogger(), newTestAuditLogger())

	assert.True(t, guard.Detect(nil, 0).HasRapidAttempts)
}
