package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/BradenHooton/authguard/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPostgresError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, models.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("query: %w", pgx.ErrNoRows), models.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, models.ErrConflict},
		{"not null violation", &pgconn.PgError{Code: "23502"}, models.ErrBadRequest},
		{"wrapped pg error", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "22001"}), models.ErrBadRequest},
		{"other", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapPostgresError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestMapPostgresError_UnknownCodePassesThrough(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "40001"}
	assert.Same(t, pgErr, MapPostgresError(pgErr))
}
