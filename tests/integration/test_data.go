//go:build integration

package integration

import (
	"fmt"
	"time"

	"github.com/BradenHooton/authguard/internal/models"
)

// baseTime is truncated to microseconds, the precision postgres and the redis scores keep
var baseTime = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// TestSubject generates a unique username using timestamp
func TestSubject(suffix string) string {
	return fmt.Sprintf("user-%d-%s", time.Now().UnixNano(), suffix)
}

// Attempt builds a record offset from baseTime
func Attempt(offset time.Duration, ip string, success bool) models.AttemptRecord {
	return models.AttemptRecord{
		Timestamp:  baseTime.Add(offset),
		Identifier: ip,
		Success:    success,
		UserAgent:  "integration-test",
	}
}
