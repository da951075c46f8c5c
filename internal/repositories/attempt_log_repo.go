package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/authguard/internal/database"
	"github.com/BradenHooton/authguard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AttemptLogRepository persists attempt history in the login_attempts table
type AttemptLogRepository struct {
	db            *database.DB
	maxPerSubject int
}

// NewAttemptLogRepository creates a new AttemptLogRepository
func NewAttemptLogRepository(db *database.DB) *AttemptLogRepository {
	return &AttemptLogRepository{db: db, maxPerSubject: DefaultMaxPerSubject}
}

// Record inserts one attempt for subject
func (r *AttemptLogRepository) Record(ctx context.Context, subject string, record models.AttemptRecord) error {
	query := `
		INSERT INTO login_attempts (id, subject, identifier, success, user_agent, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		uuid.New(),
		subject,
		record.Identifier,
		record.Success,
		record.UserAgent,
		record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", database.MapPostgresError(err))
	}
	return nil
}

// Recent returns the newest records after since, in chronological order
func (r *AttemptLogRepository) Recent(ctx context.Context, subject string, since time.Time) ([]models.AttemptRecord, error) {
	query := `
		SELECT attempted_at, identifier, success, user_agent FROM (
			SELECT attempted_at, identifier, success, user_agent, seq
			FROM login_attempts
			WHERE subject = $1 AND attempted_at > $2
			ORDER BY attempted_at DESC, seq DESC
			LIMIT $3
		) recent
		ORDER BY attempted_at, seq
	`

	rows, err := r.db.Pool.Query(ctx, query, subject, since, r.maxPerSubject)
	if err != nil {
		return nil, fmt.Errorf("query recent attempts: %w", database.MapPostgresError(err))
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.AttemptRecord])
	if err != nil {
		return nil, fmt.Errorf("scan recent attempts: %w", err)
	}
	return records, nil
}

// DeleteBefore removes attempts older than cutoff and returns the row count
func (r *AttemptLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM login_attempts WHERE attempted_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old attempts: %w", database.MapPostgresError(err))
	}
	return tag.RowsAffected(), nil
}
