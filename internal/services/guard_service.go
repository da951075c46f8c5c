package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/BradenHooton/authguard/internal/clock"
	"github.com/BradenHooton/authguard/internal/detection"
	"github.com/BradenHooton/authguard/internal/models"
	"github.com/BradenHooton/authguard/internal/ratelimit"
	pkgauth "github.com/BradenHooton/authguard/pkg/auth"
	"github.com/BradenHooton/authguard/pkg/fingerprint"
	pkghttp "github.com/BradenHooton/authguard/pkg/http"
	"github.com/BradenHooton/authguard/pkg/logger"
)

// AttemptLog stores per-subject attempt history for suspicious activity checks
type AttemptLog interface {
	Record(ctx context.Context, subject string, record models.AttemptRecord) error
	Recent(ctx context.Context, subject string, since time.Time) ([]models.AttemptRecord, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateLimiter is the subset of ratelimit.Limiter used by the guard
type RateLimiter interface {
	CanAttempt(ctx context.Context, identifier string) ratelimit.Decision
	RecordAttempt(ctx context.Context, identifier string)
	Reset(ctx context.Context, identifier string)
}

// ActivityDetector flags anomalies in an attempt history
type ActivityDetector interface {
	Detect(attempts []models.AttemptRecord, window time.Duration) detection.Flags
}

// LoginContext carries everything the guard knows about one login attempt
type LoginContext struct {
	Username   string
	Password   string
	IPAddress  string
	UserAgent  string
	Attributes map[string]string
}

// Verdict is the guard's answer to "may this login be processed?"
type Verdict struct {
	Allowed           bool            `json:"allowed"`
	Errors            []string        `json:"errors,omitempty"`
	AttemptsLeft      int             `json:"attemptsLeft"`
	TimeToWait        time.Duration   `json:"-"`
	RetryAfterSeconds int             `json:"retryAfterSeconds,omitempty"`
	RequireStepUp     bool            `json:"requireStepUp"`
	Flags             detection.Flags `json:"flags"`
	Fingerprint       string          `json:"fingerprint,omitempty"`
}

// GuardConfig holds guard tuning
type GuardConfig struct {
	DetectionWindow time.Duration
}

// GuardService runs the pre-login checks in order: input validation, rate
// limit, then suspicious activity over the subject's history
type GuardService struct {
	limiter     RateLimiter
	detector    ActivityDetector
	history     AttemptLog
	config      GuardConfig
	clock       clock.Clock
	logger      *slog.Logger
	auditLogger *logger.AuditLogger
}

// NewGuardService creates a new GuardService
func NewGuardService(
	limiter RateLimiter,
	detector ActivityDetector,
	history AttemptLog,
	config GuardConfig,
	clk clock.Clock,
	log *slog.Logger,
	auditLogger *logger.AuditLogger,
) *GuardService {
	if config.DetectionWindow <= 0 {
		config.DetectionWindow = detection.DefaultWindow
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &GuardService{
		limiter:     limiter,
		detector:    detector,
		history:     history,
		config:      config,
		clock:       clk,
		logger:      log,
		auditLogger: auditLogger,
	}
}

// Precheck evaluates a login before credentials are checked. Rejections
// return a populated Verdict together with ErrInvalidLoginInput or
// ErrRateLimitExceeded.
func (s *GuardService) Precheck(ctx context.Context, lc LoginContext) (*Verdict, error) {
	validation := pkgauth.ValidateLogin(lc.Username, lc.Password)
	if !validation.IsValid {
		s.audit(ctx, lc, false, "invalid_input", nil)
		return &Verdict{Allowed: false, Errors: validation.Errors},
			fmt.Errorf("%w: %w", models.ErrInvalidLoginInput, validation.Err())
	}

	decision := s.limiter.CanAttempt(ctx, lc.IPAddress)
	if !decision.Allowed {
		s.audit(ctx, lc, false, "rate_limited", map[string]string{
			"retry_after_seconds": strconv.Itoa(pkghttp.RetryAfterSeconds(decision.TimeToWait)),
		})
		return &Verdict{
			Allowed:           false,
			TimeToWait:        decision.TimeToWait,
			RetryAfterSeconds: pkghttp.RetryAfterSeconds(decision.TimeToWait),
		}, models.ErrRateLimitExceeded
	}

	verdict := &Verdict{
		Allowed:      true,
		AttemptsLeft: decision.AttemptsLeft,
	}

	history, err := s.history.Recent(ctx, lc.Username, s.clock.Now().Add(-s.config.DetectionWindow))
	if err != nil {
		// detection is advisory, a missing history never blocks
		s.logger.Error("failed to load attempt history",
			slog.String("subject", logger.MaskUsername(lc.Username)),
			slog.Any("error", err))
	} else {
		verdict.Flags = s.detector.Detect(history, s.config.DetectionWindow)
		verdict.RequireStepUp = verdict.Flags.Any()
	}

	if len(lc.Attributes) > 0 {
		verdict.Fingerprint = fingerprint.Generate(lc.Attributes)
	}

	metadata := map[string]string{"attempts_left": strconv.Itoa(verdict.AttemptsLeft)}
	if verdict.RequireStepUp {
		metadata["step_up"] = "true"
	}
	s.audit(ctx, lc, true, "", metadata)

	return verdict, nil
}

// RecordOutcome appends the attempt to the subject's history and updates the
// limiter: a failure counts against the client, a success forgives it
func (s *GuardService) RecordOutcome(ctx context.Context, lc LoginContext, success bool) error {
	if success {
		s.limiter.Reset(ctx, lc.IPAddress)
	} else {
		s.limiter.RecordAttempt(ctx, lc.IPAddress)
	}

	reason := ""
	if !success {
		reason = "credentials_rejected"
	}
	s.auditLogger.Log(ctx, logger.AuditEvent{
		EventType:     logger.EventLoginOutcome,
		Subject:       lc.Username,
		IPAddress:     lc.IPAddress,
		UserAgent:     lc.UserAgent,
		Success:       success,
		FailureReason: reason,
	})

	record := models.AttemptRecord{
		Timestamp:  s.clock.Now(),
		Identifier: lc.IPAddress,
		Success:    success,
		UserAgent:  lc.UserAgent,
	}
	if err := s.history.Record(ctx, lc.Username, record); err != nil {
		return fmt.Errorf("failed to record attempt history: %w", err)
	}
	return nil
}

// Decision reports the current rate limit state for identifier
func (s *GuardService) Decision(ctx context.Context, identifier string) ratelimit.Decision {
	return s.limiter.CanAttempt(ctx, identifier)
}

// ResetIdentifier clears the rate limit history for identifier
func (s *GuardService) ResetIdentifier(ctx context.Context, identifier string) {
	s.limiter.Reset(ctx, identifier)
	s.auditLogger.Log(ctx, logger.AuditEvent{
		EventType: logger.EventRateLimitReset,
		IPAddress: identifier,
		Success:   true,
	})
}

// Detect runs the detector over a caller-supplied history
func (s *GuardService) Detect(attempts []models.AttemptRecord, window time.Duration) detection.Flags {
	if window <= 0 {
		window = s.config.DetectionWindow
	}
	return s.detector.Detect(attempts, window)
}

func (s *GuardService) audit(ctx context.Context, lc LoginContext, allowed bool, reason string, metadata map[string]string) {
	s.auditLogger.Log(ctx, logger.AuditEvent{
		EventType:     logger.EventLoginPrecheck,
		Subject:       lc.Username,
		IPAddress:     lc.IPAddress,
		UserAgent:     lc.UserAgent,
		Success:       allowed,
		FailureReason: reason,
		Metadata:      metadata,
	})
}
