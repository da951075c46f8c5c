package models

import "time"

// AttemptRecord is one login attempt as seen by the caller. Records are
// immutable once created and kept in chronological order.
type AttemptRecord struct {
	Timestamp time.Time `json:"timestamp" db:"attempted_at"`
	// Identifier is the client identifier, usually the source IP
	Identifier string `json:"identifier" db:"identifier"`
	Success    bool   `json:"success" db:"success"`
	UserAgent  string `json:"userAgent,omitempty" db:"user_agent"`
}
