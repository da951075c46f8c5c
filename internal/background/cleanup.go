package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/authguard/internal/clock"
)

// LimiterSweeper drops rate limiter entries whose window has fully expired
type LimiterSweeper interface {
	Sweep() int
}

// HistoryPruner deletes attempt history older than a cutoff
type HistoryPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupConfig holds the cleanup cadence and the history retention
type CleanupConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// CleanupManager periodically sweeps the rate limiter and trims attempt history.
// Either collaborator may be nil.
type CleanupManager struct {
	limiter  LimiterSweeper
	history  HistoryPruner
	config   CleanupConfig
	clock    clock.Clock
	logger   *slog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	limiter LimiterSweeper,
	history HistoryPruner,
	config CleanupConfig,
	clk clock.Clock,
	logger *slog.Logger,
) *CleanupManager {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &CleanupManager{
		limiter: limiter,
		history: history,
		config:  config,
		clock:   clk,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start blocks running cleanup on every tick until Stop or ctx is done
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.config.Interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			cm.RunOnce(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce performs a single sweep and history trim
func (cm *CleanupManager) RunOnce(ctx context.Context) {
	if cm.limiter != nil {
		if removed := cm.limiter.Sweep(); removed > 0 {
			cm.logger.Info("rate limiter sweep completed", slog.Int("identifiers_removed", removed))
		}
	}

	if cm.history == nil || cm.config.Retention <= 0 {
		return
	}

	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := cm.clock.Now().Add(-cm.config.Retention)
	rowsDeleted, err := cm.history.DeleteBefore(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to trim attempt history", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("attempt history trimmed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
