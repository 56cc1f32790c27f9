package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/chain"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finpilot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestAccount(t *testing.T, repo *SQLiteRepository, limit *decimal.Decimal) core.Account {
	t.Helper()
	account, err := repo.CreateAccount(context.Background(), "EUR", limit)
	require.NoError(t, err)
	return account
}

func TestAccountRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	limit := decimal.RequireFromString("2500.00")

	created := newTestAccount(t, repo, &limit)

	got, err := repo.GetAccount(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Currency)
	require.NotNil(t, got.MonthlyLimit)
	assert.True(t, got.MonthlyLimit.Equal(limit))

	require.NoError(t, repo.UpdateGlobalLimit(ctx, created.ID, nil))
	got, err = repo.GetAccount(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.MonthlyLimit)

	accounts, err := repo.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestHead_EmptyChainReportsGenesis(t *testing.T) {
	repo := newTestRepository(t)
	account := newTestAccount(t, repo, nil)

	hash, length, err := repo.Head(context.Background(), account.ID)

	require.NoError(t, err)
	assert.Equal(t, chain.Genesis, hash)
	assert.Equal(t, int64(0), length)
}

func TestLedgerAppendAndVerifyThroughSQLite(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	account := newTestAccount(t, repo, nil)
	ledger := chain.NewLedger(repo)

	occurredAt := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
	var prev string
	for i, amount := range []string{"12.50", "7.00", "45.50"} {
		head, err := ledger.Head(ctx, account.ID)
		require.NoError(t, err)
		tx, err := ledger.Append(ctx, account.ID, head, chain.Fields{
			Amount:     decimal.RequireFromString(amount),
			Category:   core.CategoryFood,
			Payee:      "Grocer",
			OccurredAt: occurredAt.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i), tx.Seq)
		if i > 0 {
			assert.Equal(t, prev, tx.PrevHash)
		}
		prev = tx.Hash
	}

	txs, err := repo.ListTransactions(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	report := chain.Verify(txs)
	assert.Equal(t, chain.StatusStable, report.Status)
	assert.Equal(t, 3, report.VerifiedCount)
}

func TestListTransactions_PreservesFields(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	account := newTestAccount(t, repo, nil)
	ledger := chain.NewLedger(repo)

	head, err := ledger.Head(ctx, account.ID)
	require.NoError(t, err)
	_, err = ledger.Append(ctx, account.ID, head, chain.Fields{
		Amount:        decimal.RequireFromString("99.99"),
		Category:      core.CategoryHealth,
		Description:   "annual checkup",
		Payee:         "City Clinic",
		PaymentMethod: core.PaymentCard,
		ReferenceNo:   "INV-2025-041",
		Status:        core.StatusPending,
		OccurredAt:    time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	txs, err := repo.ListTransactions(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("99.99")))
	assert.Equal(t, core.CategoryHealth, tx.Category)
	assert.Equal(t, "annual checkup", tx.Description)
	assert.Equal(t, "City Clinic", tx.Payee)
	assert.Equal(t, core.PaymentCard, tx.PaymentMethod)
	assert.Equal(t, "INV-2025-041", tx.ReferenceNo)
	assert.Equal(t, core.StatusPending, tx.Status)
	assert.Equal(t, time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC), tx.OccurredAt.UTC())
}

func TestMarkCleared(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	account := newTestAccount(t, repo, nil)
	ledger := chain.NewLedger(repo)

	head, err := ledger.Head(ctx, account.ID)
	require.NoError(t, err)
	pending, err := ledger.Append(ctx, account.ID, head, chain.Fields{
		Amount:     decimal.RequireFromString("30.00"),
		Status:     core.StatusPending,
		OccurredAt: time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, repo.MarkCleared(ctx, pending.ID))

	txs, err := repo.ListTransactions(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, core.StatusCleared, txs[0].Status)

	// The hash excludes status, so the transition must keep the chain intact.
	assert.Equal(t, chain.StatusStable, chain.Verify(txs).Status)

	// Clearing twice fails: the row is no longer pending.
	assert.ErrorIs(t, repo.MarkCleared(ctx, pending.ID), core.ErrNotPending)
}

func TestBudgetCRUD(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	account := newTestAccount(t, repo, nil)

	created, err := repo.CreateBudget(ctx, core.Budget{
		AccountID: account.ID,
		Name:      "Groceries",
		Category:  core.CategoryFood,
		Limit:     decimal.RequireFromString("300.00"),
		Period:    core.Monthly,
		Rollover:  true,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	created.Limit = decimal.RequireFromString("350.00")
	created.Rollover = false
	require.NoError(t, repo.UpdateBudget(ctx, created))

	budgets, err := repo.ListBudgets(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.True(t, budgets[0].Limit.Equal(decimal.RequireFromString("350.00")))
	assert.False(t, budgets[0].Rollover)
	assert.Equal(t, core.CategoryFood, budgets[0].Category)

	require.NoError(t, repo.DeleteBudget(ctx, created.ID))
	budgets, err = repo.ListBudgets(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, budgets)
}

func TestCreateBudget_RejectsInvalid(t *testing.T) {
	repo := newTestRepository(t)
	account := newTestAccount(t, repo, nil)

	_, err := repo.CreateBudget(context.Background(), core.Budget{
		AccountID: account.ID,
		Name:      "",
		Limit:     decimal.RequireFromString("300.00"),
		Period:    core.Monthly,
	})

	assert.Error(t, err)
}

func TestSaveTransaction_DuplicateSeqRejected(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	account := newTestAccount(t, repo, nil)

	occurredAt := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
	amount := decimal.RequireFromString("10.00")
	hash, err := chain.ComputeHash(chain.EncodingV1, chain.Genesis, account.ID, 0, amount, core.CategoryFood, occurredAt)
	require.NoError(t, err)
	tx := core.Transaction{
		AccountID:       account.ID,
		Seq:             0,
		Amount:          amount,
		Category:        core.CategoryFood,
		PaymentMethod:   core.PaymentCash,
		Status:          core.StatusCleared,
		OccurredAt:      occurredAt,
		Hash:            hash,
		PrevHash:        chain.Genesis,
		EncodingVersion: chain.EncodingV1,
	}

	_, err = repo.SaveTransaction(ctx, tx)
	require.NoError(t, err)

	// Same account and seq again violates the chain's uniqueness constraint.
	_, err = repo.SaveTransaction(ctx, tx)
	assert.Error(t, err)
}
