package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/cache"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/report"
)

// snapshotCacheSize bounds the number of accounts with a memoized snapshot.
const snapshotCacheSize = 256

// SnapshotStore is the read side the report service needs.
type SnapshotStore interface {
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	ListTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error)
	ListBudgets(ctx context.Context, accountID int64) ([]core.Budget, error)
}

// ReportService builds per-account dashboard snapshots, memoizing them
// until the TTL lapses or a write invalidates the account. Every engine
// runs on each rebuild; the cache only saves recomputation between writes.
type ReportService struct {
	store      SnapshotStore
	snapshots  *cache.LRU[report.Snapshot]
	windowDays int
}

// NewReportService wires the service with the configured rolling analytics
// window (config.AnalyticsWindowDays); zero falls back to the engine default.
func NewReportService(store SnapshotStore, windowDays int, ttl time.Duration) *ReportService {
	return &ReportService{
		store:      store,
		snapshots:  cache.NewLRU[report.Snapshot](snapshotCacheSize, ttl),
		windowDays: windowDays,
	}
}

// Snapshot returns the account's dashboard snapshot, rebuilding it from
// storage when no fresh cached copy exists.
func (s *ReportService) Snapshot(ctx context.Context, accountID int64) (report.Snapshot, error) {
	key := snapshotKey(accountID)
	if snap, ok := s.snapshots.Get(key); ok {
		return snap, nil
	}

	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return report.Snapshot{}, fmt.Errorf("load account %d: %w", accountID, err)
	}
	txs, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		return report.Snapshot{}, fmt.Errorf("load transactions for account %d: %w", accountID, err)
	}
	budgets, err := s.store.ListBudgets(ctx, accountID)
	if err != nil {
		return report.Snapshot{}, fmt.Errorf("load budgets for account %d: %w", accountID, err)
	}

	snap := report.Build(account, txs, budgets, s.windowDays, time.Now())
	s.snapshots.Set(key, snap)
	return snap, nil
}

// Invalidate drops the account's cached snapshot. Callers invoke it after
// any write that changes the account's derived state: a recorded
// transaction, a cleared status or a budget change.
func (s *ReportService) Invalidate(accountID int64) {
	s.snapshots.Delete(snapshotKey(accountID))
}

func snapshotKey(accountID int64) string {
	return strconv.FormatInt(accountID, 10)
}
