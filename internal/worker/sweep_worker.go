// Package worker runs the periodic integrity sweep: verify every account's
// chain and raise a tamper alert for each compromised one.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/amqp"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/chain"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
)

// Store is the read side of the storage collaborator the sweep needs.
type Store interface {
	ListAccounts(ctx context.Context) ([]core.Account, error)
	ListTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error)
}

// AlertPublisher receives one alert per compromised account.
type AlertPublisher interface {
	PublishTamperAlert(ctx context.Context, msg *amqp.TamperAlertMessage) error
}

// SweepWorker verifies account chains on a schedule.
type SweepWorker struct {
	store       Store
	publisher   AlertPublisher
	concurrency int
}

func NewSweepWorker(store Store, publisher AlertPublisher, concurrency int) *SweepWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SweepWorker{
		store:       store,
		publisher:   publisher,
		concurrency: concurrency,
	}
}

// RunSweep verifies every account once. Accounts are independent chains, so
// verification fans out across them with bounded concurrency. A compromised
// account produces exactly one alert per sweep.
func (w *SweepWorker) RunSweep(ctx context.Context) error {
	accounts, err := w.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	started := time.Now()
	slog.InfoContext(ctx, "Integrity sweep started", "accounts", len(accounts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, account := range accounts {
		g.Go(func() error {
			return w.sweepAccount(ctx, account)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("integrity sweep: %w", err)
	}

	slog.InfoContext(ctx, "Integrity sweep finished",
		"accounts", len(accounts),
		"elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

func (w *SweepWorker) sweepAccount(ctx context.Context, account core.Account) error {
	txs, err := w.store.ListTransactions(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("load chain for account %d: %w", account.ID, err)
	}

	result := chain.Verify(txs)
	if !result.Compromised() {
		slog.DebugContext(ctx, "Chain verified",
			"account_id", account.ID,
			"verified", result.VerifiedCount,
			"total", result.TotalCount)
		return nil
	}

	tamperedIDs := make([]int64, 0, len(result.TamperedRecords))
	for _, rec := range result.TamperedRecords {
		tamperedIDs = append(tamperedIDs, rec.ID)
	}

	slog.WarnContext(ctx, "Chain compromised",
		"account_id", account.ID,
		"tampered", len(tamperedIDs),
		"verified", result.VerifiedCount,
		"total", result.TotalCount)

	if w.publisher == nil {
		return nil
	}

	msg := amqp.NewTamperAlertMessage(account.ID, tamperedIDs, result.VerifiedCount, result.TotalCount)
	if err := w.publisher.PublishTamperAlert(ctx, msg); err != nil {
		return fmt.Errorf("publish tamper alert for account %d: %w", account.ID, err)
	}
	return nil
}

// Run sweeps immediately, then on every interval tick until the context is
// cancelled. Sweep failures are logged and the loop keeps going.
func (w *SweepWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.RunSweep(ctx); err != nil {
		slog.ErrorContext(ctx, "Integrity sweep failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.RunSweep(ctx); err != nil {
				slog.ErrorContext(ctx, "Integrity sweep failed", "error", err)
			}
		}
	}
}
