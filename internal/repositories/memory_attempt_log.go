package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/authguard/internal/models"
)

// DefaultMaxPerSubject bounds the history kept for one subject
const DefaultMaxPerSubject = 500

// MemoryAttemptLog keeps attempt history in process memory. Only the newest
// maxPerSubject records are kept for each subject.
type MemoryAttemptLog struct {
	mu            sync.RWMutex
	records       map[string][]models.AttemptRecord
	maxPerSubject int
}

// NewMemoryAttemptLog creates an empty log. maxPerSubject <= 0 uses DefaultMaxPerSubject.
func NewMemoryAttemptLog(maxPerSubject int) *MemoryAttemptLog {
	if maxPerSubject <= 0 {
		maxPerSubject = DefaultMaxPerSubject
	}
	return &MemoryAttemptLog{
		records:       make(map[string][]models.AttemptRecord),
		maxPerSubject: maxPerSubject,
	}
}

func (l *MemoryAttemptLog) Record(_ context.Context, subject string, record models.AttemptRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	history := append(l.records[subject], record)
	if overflow := len(history) - l.maxPerSubject; overflow > 0 {
		history = append([]models.AttemptRecord(nil), history[overflow:]...)
	}
	l.records[subject] = history
	return nil
}

// Recent returns the subject's records newer than since, oldest first
func (l *MemoryAttemptLog) Recent(_ context.Context, subject string, since time.Time) ([]models.AttemptRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.AttemptRecord
	for _, record := range l.records[subject] {
		if record.Timestamp.After(since) {
			out = append(out, record)
		}
	}
	return out, nil
}

// DeleteBefore drops records older than cutoff across all subjects
func (l *MemoryAttemptLog) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var deleted int64
	for subject, history := range l.records {
		kept := history[:0]
		for _, record := range history {
			if record.Timestamp.Before(cutoff) {
				deleted++
				continue
			}
			kept = append(kept, record)
		}

		if len(kept) == 0 {
			delete(l.records, subject)
			continue
		}
		l.records[subject] = kept
	}
	return deleted, nil
}
