package ratelimit

import (
	"context"
	"time"
)

// Store holds per-identifier attempt timestamps. Every call prunes entries at
// or before cutoff for the identifier it touches, and is atomic with respect
// to concurrent calls for the same identifier.
type Store interface {
	// Window prunes, then returns the remaining timestamps oldest first
	Window(ctx context.Context, identifier string, cutoff time.Time) ([]time.Time, error)
	// Append records at, then prunes
	Append(ctx context.Context, identifier string, at, cutoff time.Time) error
	// Clear drops all history for identifier
	Clear(ctx context.Context, identifier string) error
}

// Sweeper is implemented by stores that can drop expired identifiers in bulk.
// Stores with native expiry (Redis TTLs) don't need it.
type Sweeper interface {
	Sweep(cutoff time.Time) int
}

// Pinger is implemented by stores backed by a remote service
type Pinger interface {
	Ping(ctx context.Context) error
}
