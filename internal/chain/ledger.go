package chain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
	"github.com/shopspring/decimal"
)

// HeadStore is the slice of the storage collaborator the ledger needs:
// read the current chain tip and persist a fully hashed entry. The ledger
// serializes access per account, so implementations only need read-then-write
// consistency within a single Append call.
type HeadStore interface {
	// Head returns the current tip hash and chain length for an account.
	// An empty chain reports the Genesis hash and length 0.
	Head(ctx context.Context, accountID int64) (hash string, length int64, err error)
	// SaveTransaction persists a hashed entry and returns its assigned ID.
	SaveTransaction(ctx context.Context, tx core.Transaction) (int64, error)
}

// Fields carries the caller-supplied portion of a new ledger entry.
// Zero values for Category, PaymentMethod and Status take the documented
// defaults (other, cash, cleared).
type Fields struct {
	Amount        decimal.Decimal
	Category      core.Category
	Description   string
	Payee         string
	PaymentMethod core.PaymentMethod
	ReferenceNo   string
	Status        core.TxStatus
	OccurredAt    time.Time
}

// Ledger appends entries to per-account hash chains. Appends to the same
// account are serialized; accounts are independent units of concurrency.
type Ledger struct {
	store HeadStore

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewLedger(store HeadStore) *Ledger {
	return &Ledger{
		store: store,
		locks: make(map[int64]*sync.Mutex),
	}
}

func (l *Ledger) accountLock(accountID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[accountID] = lock
	}
	return lock
}

// Head returns the account's current chain tip, or Genesis for an empty chain.
func (l *Ledger) Head(ctx context.Context, accountID int64) (string, error) {
	hash, _, err := l.store.Head(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("read chain head: %w", err)
	}
	return hash, nil
}

// Append validates the fields, links a new entry to the account's chain tip
// and persists it. The caller passes the head it observed when preparing the
// entry; if another append won the race in between, Append fails with
// core.ErrChainConflict and the caller retries against the fresh head.
func (l *Ledger) Append(ctx context.Context, accountID int64, observedHead string, f Fields) (core.Transaction, error) {
	if err := core.ValidateAmount(f.Amount); err != nil {
		return core.Transaction{}, err
	}
	if f.Category == "" {
		f.Category = core.CategoryOther
	}
	if !f.Category.Valid() {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidCategory, f.Category)
	}
	if f.PaymentMethod == "" {
		f.PaymentMethod = core.PaymentCash
	}
	if !f.PaymentMethod.Valid() {
		return core.Transaction{}, fmt.Errorf("invalid payment method %q", f.PaymentMethod)
	}
	if f.Status == "" {
		f.Status = core.StatusCleared
	}
	if !f.Status.Valid() {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidStatus, f.Status)
	}
	if f.OccurredAt.IsZero() {
		f.OccurredAt = time.Now().UTC()
	}

	lock := l.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	head, length, err := l.store.Head(ctx, accountID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read chain head: %w", err)
	}
	if observedHead != head {
		return core.Transaction{}, fmt.Errorf("%w: observed %s, current %s", core.ErrChainConflict, short(observedHead), short(head))
	}

	seq := length
	occurredAt := f.OccurredAt.Truncate(time.Second).UTC()
	hash, err := ComputeHash(EncodingV1, head, accountID, seq, f.Amount, f.Category, occurredAt)
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		AccountID:       accountID,
		Seq:             seq,
		Amount:          f.Amount,
		Category:        f.Category,
		Description:     f.Description,
		Payee:           f.Payee,
		PaymentMethod:   f.PaymentMethod,
		ReferenceNo:     f.ReferenceNo,
		Status:          f.Status,
		OccurredAt:      occurredAt,
		CreatedAt:       time.Now().UTC(),
		Hash:            hash,
		PrevHash:        head,
		EncodingVersion: EncodingV1,
	}

	id, err := l.store.SaveTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("persist transaction: %w", err)
	}
	tx.ID = id

	slog.InfoContext(ctx, "Transaction appended to chain",
		"account_id", accountID,
		"id", id,
		"seq", seq,
		"amount", f.Amount.String(),
		"category", f.Category,
		"hash", short(hash))

	return tx, nil
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
