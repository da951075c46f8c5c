// Package ratelimit implements a sliding-window attempt limiter keyed by a
// client identifier such as an IP address.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/authguard/internal/clock"
	"github.com/BradenHooton/authguard/pkg/logger"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
)

// Config holds the limiter thresholds
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// DefaultConfig returns 5 attempts per 15 minutes
func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		Window:      DefaultWindow,
	}
}

// Decision is the result of CanAttempt. TimeToWait is zero when Allowed.
type Decision struct {
	Allowed      bool
	TimeToWait   time.Duration
	AttemptsLeft int
}

// Limiter counts attempts per identifier inside a trailing window. It never
// returns errors: store failures are logged and the attempt is allowed.
type Limiter struct {
	store  Store
	config Config
	clock  clock.Clock
	logger *slog.Logger
}

// NewLimiter creates a Limiter. Non-positive config values fall back to the
// defaults and nil collaborators to an in-memory store, the system clock and
// slog.Default().
func NewLimiter(store Store, config Config, clk clock.Clock, log *slog.Logger) *Limiter {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.Window <= 0 {
		config.Window = DefaultWindow
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = slog.Default()
	}

	return &Limiter{
		store:  store,
		config: config,
		clock:  clk,
		logger: log,
	}
}

// Config returns the effective thresholds
func (l *Limiter) Config() Config {
	return l.config
}

// CanAttempt reports whether identifier may attempt again now
func (l *Limiter) CanAttempt(ctx context.Context, identifier string) Decision {
	now := l.clock.Now()

	window, err := l.store.Window(ctx, identifier, now.Add(-l.config.Window))
	if err != nil {
		l.logger.Error("rate limit lookup failed, allowing attempt",
			slog.String("identifier", logger.MaskIdentifier(identifier)),
			slog.Any("error", err))
		return Decision{Allowed: true, AttemptsLeft: l.config.MaxAttempts}
	}

	count := len(window)
	if count < l.config.MaxAttempts {
		return Decision{Allowed: true, AttemptsLeft: l.config.MaxAttempts - count}
	}

	oldest := window[0]
	for _, t := range window[1:] {
		if t.Before(oldest) {
			oldest = t
		}
	}

	wait := l.config.Window - now.Sub(oldest)
	if wait < 0 {
		wait = 0
	}

	l.logger.Warn("rate limit exceeded",
		slog.String("identifier", logger.MaskIdentifier(identifier)),
		slog.Int("attempts", count),
		slog.Duration("time_to_wait", wait))

	return Decision{Allowed: false, TimeToWait: wait}
}

// RecordAttempt counts one attempt for identifier at the current time
func (l *Limiter) RecordAttempt(ctx context.Context, identifier string) {
	now := l.clock.Now()
	if err := l.store.Append(ctx, identifier, now, now.Add(-l.config.Window)); err != nil {
		l.logger.Error("failed to record rate limit attempt",
			slog.String("identifier", logger.MaskIdentifier(identifier)),
			slog.Any("error", err))
	}
}

// Reset forgets every attempt for identifier
func (l *Limiter) Reset(ctx context.Context, identifier string) {
	if err := l.store.Clear(ctx, identifier); err != nil {
		l.logger.Error("failed to reset rate limit",
			slog.String("identifier", logger.MaskIdentifier(identifier)),
			slog.Any("error", err))
	}
}

// Sweep drops expired identifiers when the store supports it and returns how
// many were removed
func (l *Limiter) Sweep() int {
	sweeper, ok := l.store.(Sweeper)
	if !ok {
		return 0
	}
	return sweeper.Sweep(l.clock.Now().Add(-l.config.Window))
}

// Ping checks the backing store. Local stores are always healthy.
func (l *Limiter) Ping(ctx context.Context) error {
	if pinger, ok := l.store.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
