// Package auth holds request-path helpers shared by the guard services.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig holds configuration for timing attack prevention
type TimingConfig struct {
	BaseDelayMs    int  // Base delay in milliseconds
	RandomDelayMs  int  // Random delay range in milliseconds
	DelayOnSuccess bool // If true, delay successful operations too
}

// TimingDelay pads failed operations so every failure takes about the same
// time regardless of where it failed
type TimingDelay struct {
	config TimingConfig
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration)
}

// NewTimingDelay creates a new TimingDelay instance
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{
		config: config,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Target returns the padded duration for one operation: base plus a random
// jitter drawn from crypto/rand
func (td *TimingDelay) Target() time.Duration {
	baseDelay := time.Duration(td.config.BaseDelayMs) * time.Millisecond
	var randomDelay time.Duration
	if td.config.RandomDelayMs > 0 {
		if randomValue, err := cryptoRandIntn(td.config.RandomDelayMs); err == nil {
			randomDelay = time.Duration(randomValue) * time.Millisecond
		}
	}
	return baseDelay + randomDelay
}

// Wait applies the full delay unless the operation succeeded and
// DelayOnSuccess is off
func (td *TimingDelay) Wait(ctx context.Context, success bool) {
	if success && !td.config.DelayOnSuccess {
		return
	}
	if d := td.Target(); d > 0 {
		td.sleep(ctx, d)
	}
}

// WaitFrom sleeps until at least Target() has passed since startTime. It
// returns early when ctx is done.
func (td *TimingDelay) WaitFrom(ctx context.Context, startTime time.Time, success bool) {
	if success && !td.config.DelayOnSuccess {
		return
	}

	elapsed := td.now().Sub(startTime)
	if remaining := td.Target() - elapsed; remaining > 0 {
		td.sleep(ctx, remaining)
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// cryptoRandIntn returns a secure random number between 0 and max (exclusive)
func cryptoRandIntn(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return 0, err
	}

	randomValue := binary.BigEndian.Uint64(randomBytes)
	return int(randomValue % uint64(max)), nil
}
