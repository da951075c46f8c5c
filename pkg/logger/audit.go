package logger

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Audit event types
const (
	EventLoginPrecheck  = "login_precheck"
	EventLoginOutcome   = "login_outcome"
	EventRateLimitReset = "rate_limit_reset"
	EventCryptoFailure  = "crypto_failure"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	Subject       string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes audit events to a structured logger. Subjects and
// addresses are masked before they are written.
type AuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
		now:    time.Now,
	}
}

// Log writes event at Info on success and Warn otherwise
func (al *AuditLogger) Log(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth_guard"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	}

	if event.Subject != "" {
		attrs = append(attrs, slog.String("subject", MaskUsername(event.Subject)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", MaskIdentifier(event.IPAddress)))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	keys := make([]string, 0, len(event.Metadata))
	for key := range event.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		attrs = append(attrs, slog.String(key, event.Metadata[key]))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

// LogCryptoFailure records a failed encrypt/decrypt for alerting. The error
// text is logged as-is; it never contains key or plaintext material.
func (al *AuditLogger) LogCryptoFailure(ctx context.Context, op string, err error) {
	al.logger.LogAttrs(ctx, slog.LevelError, "audit",
		slog.String("audit_type", "crypto"),
		slog.String("event_type", EventCryptoFailure),
		slog.String("operation", op),
		slog.Bool("success", false),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
		slog.Any("error", err),
	)
}
