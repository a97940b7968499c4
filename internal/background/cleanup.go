package background

import (
	"context"
	"log/slog"
	"time"
)

// RevocationCleaner prunes expired denylist entries.
type RevocationCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// LedgerCleaner prunes refresh-token ledger rows past their grace window.
type LedgerCleaner interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// ledgerGrace keeps expired refresh rows around long enough that replay
// attempts against recently expired tokens still find their lineage.
const ledgerGrace = 30 * 24 * time.Hour

// CleanupManager periodically prunes the token denylist and the refresh
// ledger so neither grows without bound.
type CleanupManager struct {
	revocations RevocationCleaner
	ledger      LedgerCleaner
	logger      *slog.Logger
	interval    time.Duration
	stopCh      chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	revocations RevocationCleaner,
	ledger LedgerCleaner,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		revocations: revocations,
		ledger:      ledger,
		logger:      logger,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	revoked, err := cm.revocations.CleanupExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to prune denylist", slog.Any("error", err))
	}

	ledger, err := cm.ledger.DeleteExpired(cleanupCtx, time.Now().UTC().Add(-ledgerGrace))
	if err != nil {
		cm.logger.Error("failed to prune refresh ledger", slog.Any("error", err))
	}

	if revoked > 0 || ledger > 0 {
		cm.logger.Info("token cleanup completed",
			slog.Int64("denylist_rows", revoked),
			slog.Int64("ledger_rows", ledger))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
