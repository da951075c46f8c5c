// Package detection flags anomaly patterns in a caller-supplied attempt
// history. Its output is advisory; it never blocks an attempt by itself.
package detection

import (
	"time"

	"github.com/BradenHooton/authguard/internal/clock"
	"github.com/BradenHooton/authguard/internal/models"
)

const (
	DefaultWindow = time.Hour

	// Counts above these thresholds raise the matching flag
	RapidAttemptThreshold  = 10
	FailedAttemptThreshold = 5
)

// Flags reports which heuristics fired
type Flags struct {
	HasMultipleIPs        bool `json:"hasMultipleIPs"`
	HasMultipleUserAgents bool `json:"hasMultipleUserAgents"`
	HasRapidAttempts      bool `json:"hasRapidAttempts"`
	HasFailedAttempts     bool `json:"hasFailedAttempts"`
}

// Any reports whether at least one flag is set
func (f Flags) Any() bool {
	return f.HasMultipleIPs || f.HasMultipleUserAgents || f.HasRapidAttempts || f.HasFailedAttempts
}

// Detector evaluates attempt histories against the current time
type Detector struct {
	clock clock.Clock
}

// NewDetector creates a Detector. A nil clock uses the system clock.
func NewDetector(clk clock.Clock) *Detector {
	if clk == nil {
		clk = clock.System{}
	}
	return &Detector{clock: clk}
}

// Detect considers only attempts strictly newer than now-window. A
// non-positive window uses DefaultWindow. Attempts without a user agent do not
// count towards HasMultipleUserAgents.
func (d *Detector) Detect(attempts []models.AttemptRecord, window time.Duration) Flags {
	if window <= 0 {
		window = DefaultWindow
	}
	cutoff := d.clock.Now().Add(-window)

	identifiers := make(map[string]struct{})
	userAgents := make(map[string]struct{})
	total, failed := 0, 0

	for _, attempt := range attempts {
		if !attempt.Timestamp.After(cutoff) {
			continue
		}

		total++
		if !attempt.Success {
			failed++
		}
		identifiers[attempt.Identifier] = struct{}{}
		if attempt.UserAgent != "" {
			userAgents[attempt.UserAgent] = struct{}{}
		}
	}

	return Flags{
		HasMultipleIPs:        len(identifiers) > 1,
		HasMultipleUserAgents: len(userAgents) > 1,
		HasRapidAttempts:      total > RapidAttemptThreshold,
		HasFailedAttempts:     failed > FailedAttemptThreshold,
	}
}
