//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/authguard/internal/detection"
	"github.com/BradenHooton/authguard/internal/repositories"
)

func TestAttemptLogRepository(t *testing.T) {
	ctx := context.Background()
	tdb, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tdb.Teardown(ctx) })

	repo := repositories.NewAttemptLogRepository(tdb.DB)

	t.Run("records come back in chronological order", func(t *testing.T) {
		require.NoError(t, tdb.CleanupTables(ctx))
		subject := TestSubject("order")

		require.NoError(t, repo.Record(ctx, subject, Attempt(2*time.Minute, "10.0.0.2", false)))
		require.NoError(t, repo.Record(ctx, subject, Attempt(0, "10.0.0.1", false)))
		require.NoError(t, repo.Record(ctx, subject, Attempt(time.Minute, "10.0.0.1", true)))
		require.NoError(t, repo.Record(ctx, TestSubject("other"), Attempt(0, "10.0.0.9", false)))

		records, err := repo.Recent(ctx, subject, baseTime.Add(-time.Hour))
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.True(t, records[0].Timestamp.Equal(baseTime))
		assert.True(t, records[2].Timestamp.Equal(baseTime.Add(2*time.Minute)))
		assert.Equal(t, "10.0.0.2", records[2].Identifier)
		assert.Equal(t, "integration-test", records[0].UserAgent)
	})

	t.Run("since is exclusive", func(t *testing.T) {
		require.NoError(t, tdb.CleanupTables(ctx))
		subject := TestSubject("since")

		require.NoError(t, repo.Record(ctx, subject, Attempt(0, "10.0.0.1", false)))
		require.NoError(t, repo.Record(ctx, subject, Attempt(time.Minute, "10.0.0.1", false)))

		records, err := repo.Recent(ctx, subject, baseTime)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, records[0].Timestamp.Equal(baseTime.Add(time.Minute)))
	})

	t.Run("delete before cutoff", func(t *testing.T) {
		require.NoError(t, tdb.CleanupTables(ctx))
		subject := TestSubject("prune")

		for i := 0; i < 4; i++ {
			require.NoError(t, repo.Record(ctx, subject, Attempt(time.Duration(i)*time.Hour, "10.0.0.1", false)))
		}

		deleted, err := repo.DeleteBefore(ctx, baseTime.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		records, err := repo.Recent(ctx, subject, baseTime.Add(-time.Hour))
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("history feeds the detector", func(t *testing.T) {
		require.NoError(t, tdb.CleanupTables(ctx))
		subject := TestSubject("detect")

		for i := 0; i < 6; i++ {
			ip := "10.0.0.1"
			if i%2 == 1 {
				ip = "10.0.0.2"
			}
			require.NoError(t, repo.Record(ctx, subject, Attempt(time.Duration(i)*time.Minute, ip, false)))
		}

		records, err := repo.Recent(ctx, subject, baseTime.Add(-time.Hour))
		require.NoError(t, err)

		now := baseTime.Add(10 * time.Minute)
		flags := detection.NewDetector(fixedClock{now}).Detect(records, time.Hour)
		assert.True(t, flags.HasMultipleIPs)
		assert.True(t, flags.HasFailedAttempts)
		assert.False(t, flags.HasRapidAttempts)
	})
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
