package chain

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
)

// memStore is an in-memory HeadStore for exercising the ledger without a
// database.
type memStore struct {
	mu     sync.Mutex
	chains map[int64][]core.Transaction
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{chains: make(map[int64][]core.Transaction)}
}

func (s *memStore) Head(_ context.Context, accountID int64) (string, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.chains[accountID]
	if len(entries) == 0 {
		return Genesis, 0, nil
	}
	return entries[len(entries)-1].Hash, int64(len(entries)), nil
}

func (s *memStore) SaveTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	tx.ID = s.nextID
	s.chains[tx.AccountID] = append(s.chains[tx.AccountID], tx)
	return s.nextID, nil
}

func (s *memStore) entries(accountID int64) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.chains[accountID]))
	copy(out, s.chains[accountID])
	return out
}

func appendOne(t *testing.T, ledger *Ledger, accountID int64, amount string) core.Transaction {
	t.Helper()
	head, err := ledger.Head(context.Background(), accountID)
	require.NoError(t, err)
	tx, err := ledger.Append(context.Background(), accountID, head, Fields{
		Amount:     decimal.RequireFromString(amount),
		Category:   core.CategoryFood,
		OccurredAt: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return tx
}

func TestLedger_AppendLinksChain(t *testing.T) {
	store := newMemStore()
	ledger := NewLedger(store)

	first := appendOne(t, ledger, 1, "45.50")
	second := appendOne(t, ledger, 1, "12.00")
	third := appendOne(t, ledger, 1, "7.25")

	assert.Equal(t, Genesis, first.PrevHash)
	assert.Equal(t, first.Hash, second.PrevHash)
	assert.Equal(t, second.Hash, third.PrevHash)
	assert.Equal(t, int64(0), first.Seq)
	assert.Equal(t, int64(2), third.Seq)
	assert.Equal(t, EncodingV1, third.EncodingVersion)

	head, err := ledger.Head(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, third.Hash, head)
}

func TestLedger_AppendDefaults(t *testing.T) {
	store := newMemStore()
	ledger := NewLedger(store)

	tx, err := ledger.Append(context.Background(), 1, Genesis, Fields{
		Amount: decimal.RequireFromString("10"),
	})
	require.NoError(t, err)

	assert.Equal(t, core.CategoryOther, tx.Category)
	assert.Equal(t, core.PaymentCash, tx.PaymentMethod)
	assert.Equal(t, core.StatusCleared, tx.Status)
	assert.False(t, tx.OccurredAt.IsZero())
}

func TestLedger_AppendRejectsInvalidAmount(t *testing.T) {
	store := newMemStore()
	ledger := NewLedger(store)

	tests := []struct {
		name   string
		amount string
	}{
		{name: "zero", amount: "0"},
		{name: "negative", amount: "-5"},
		{name: "sub-cent", amount: "1.005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Append(context.Background(), 1, Genesis, Fields{
				Amount: decimal.RequireFromString(tt.amount),
			})
			assert.ErrorIs(t, err, core.ErrInvalidAmount)
		})
	}
}

func TestLedger_StaleHeadConflict(t *testing.T) {
	store := newMemStore()
	ledger := NewLedger(store)

	appendOne(t, ledger, 1, "45.50")

	// A second caller that still observes the genesis head must lose.
	_, err := ledger.Append(context.Background(), 1, Genesis, Fields{
		Amount: decimal.RequireFromString("12.00"),
	})
	assert.ErrorIs(t, err, core.ErrChainConflict)
}

func TestLedger_RacingAppendsExactlyOneWins(t *testing.T) {
	store := newMemStore()
	ledger := NewLedger(store)

	head, err := ledger.Head(context.Background(), 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = ledger.Append(context.Background(), 1, head, Fields{
				Amount: decimal.RequireFromString("20"),
			})
		}()
	}
	wg.Wait()

	var conflicts, successes int
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, core.ErrChainConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	// No two entries may claim the same predecessor.
	seen := map[string]bool{}
	for _, tx := range store.entries(1) {
		assert.False(t, seen[tx.PrevHash], "duplicate previous hash %s", tx.PrevHash)
		seen[tx.PrevHash] = true
	}
}

func TestLedger_AccountsAreIndependent(t *testing.T) {
	store := newMemStore()
	ledger := NewLedger(store)

	a := appendOne(t, ledger, 1, "10")
	b := appendOne(t, ledger, 2, "10")

	assert.Equal(t, Genesis, a.PrevHash)
	assert.Equal(t, Genesis, b.PrevHash)
	assert.Equal(t, int64(0), a.Seq)
	assert.Equal(t, int64(0), b.Seq)
}
