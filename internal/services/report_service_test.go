package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
)

type countingStore struct {
	account    core.Account
	txs        []core.Transaction
	budgets    []core.Budget
	accountErr error
	loads      int
}

func (s *countingStore) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	if s.accountErr != nil {
		return core.Account{}, s.accountErr
	}
	s.loads++
	return s.account, nil
}

func (s *countingStore) ListTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	return s.txs, nil
}

func (s *countingStore) ListBudgets(ctx context.Context, accountID int64) ([]core.Budget, error) {
	return s.budgets, nil
}

func TestSnapshot_CachesBetweenCalls(t *testing.T) {
	store := &countingStore{
		account: core.Account{ID: 7, Currency: "EUR"},
		txs: []core.Transaction{{
			AccountID:  7,
			Amount:     decimal.RequireFromString("10.00"),
			Category:   core.CategoryFood,
			Status:     core.StatusCleared,
			OccurredAt: time.Now().UTC(),
		}},
	}
	svc := NewReportService(store, 0, time.Minute)
	ctx := context.Background()

	first, err := svc.Snapshot(ctx, 7)
	require.NoError(t, err)
	second, err := svc.Snapshot(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, 1, store.loads, "second call must come from cache")
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
	assert.Equal(t, int64(7), first.AccountID)
}

func TestSnapshot_InvalidateForcesRebuild(t *testing.T) {
	store := &countingStore{account: core.Account{ID: 7, Currency: "EUR"}}
	svc := NewReportService(store, 0, time.Minute)
	ctx := context.Background()

	_, err := svc.Snapshot(ctx, 7)
	require.NoError(t, err)

	svc.Invalidate(7)

	_, err = svc.Snapshot(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, store.loads)
}

func TestSnapshot_UsesConfiguredWindow(t *testing.T) {
	store := &countingStore{account: core.Account{ID: 7, Currency: "EUR"}}
	svc := NewReportService(store, 90, time.Minute)

	snap, err := svc.Snapshot(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, 90, snap.Analytics.WindowDays)
}

func TestSnapshot_StoreErrorPropagates(t *testing.T) {
	store := &countingStore{accountErr: errors.New("no such account")}
	svc := NewReportService(store, 0, time.Minute)

	_, err := svc.Snapshot(context.Background(), 7)

	assert.ErrorContains(t, err, "load account 7")
}
