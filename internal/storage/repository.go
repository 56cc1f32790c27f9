package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/chain"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the storage collaborator: it persists accounts,
// chained transactions and budgets, and hands ordered snapshots back to the
// pure engines. Chained transactions are append-only here; the repository
// deliberately exposes no way to rewrite or delete one.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateAccount registers a new account and returns it.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, currency string, monthlyLimit *decimal.Decimal) (core.Account, error) {
	if currency == "" {
		currency = "INR"
	}
	now := time.Now().UTC()
	id, err := r.queries.CreateAccount(ctx, CreateAccountParams{
		Currency:     currency,
		MonthlyLimit: nullDecimal(monthlyLimit),
		CreatedAt:    now.Unix(),
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "id", id, "currency", currency)

	return core.Account{
		ID:           id,
		Currency:     currency,
		MonthlyLimit: monthlyLimit,
		CreatedAt:    now,
	}, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row, err := r.queries.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return accountFromRow(row)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	accounts := make([]core.Account, 0, len(rows))
	for _, row := range rows {
		account, err := accountFromRow(row)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// UpdateGlobalLimit sets or clears the account's global monthly cap.
func (r *SQLiteRepository) UpdateGlobalLimit(ctx context.Context, accountID int64, limit *decimal.Decimal) error {
	if limit != nil {
		if err := core.ValidateAmount(*limit); err != nil {
			return fmt.Errorf("global limit: %w", err)
		}
	}
	err := r.queries.UpdateAccountLimit(ctx, UpdateAccountLimitParams{
		ID:           accountID,
		MonthlyLimit: nullDecimal(limit),
	})
	if err != nil {
		return fmt.Errorf("update global limit: %w", err)
	}

	slog.InfoContext(ctx, "Global budget limit updated", "account_id", accountID)
	return nil
}

// Head implements chain.HeadStore.
func (r *SQLiteRepository) Head(ctx context.Context, accountID int64) (string, int64, error) {
	hash, length, err := r.queries.GetChainHead(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return chain.Genesis, 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("get chain head: %w", err)
	}
	return hash, length, nil
}

// SaveTransaction implements chain.HeadStore.
func (r *SQLiteRepository) SaveTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	id, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		AccountID:       tx.AccountID,
		Seq:             tx.Seq,
		Amount:          tx.Amount.String(),
		Category:        string(tx.Category),
		Description:     tx.Description,
		Payee:           tx.Payee,
		PaymentMethod:   string(tx.PaymentMethod),
		ReferenceNo:     tx.ReferenceNo,
		Status:          string(tx.Status),
		OccurredAt:      tx.OccurredAt.Unix(),
		CreatedAt:       tx.CreatedAt.Unix(),
		Hash:            tx.Hash,
		PrevHash:        tx.PrevHash,
		EncodingVersion: int64(tx.EncodingVersion),
	})
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	return id, nil
}

// ListTransactions returns the account's full chain ordered by sequence.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := transactionFromRow(row)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// MarkCleared transitions a pending transaction to cleared. The transition
// does not rehash: status is outside the canonical encoding.
func (r *SQLiteRepository) MarkCleared(ctx context.Context, id int64) error {
	affected, err := r.queries.MarkTransactionCleared(ctx, id)
	if err != nil {
		return fmt.Errorf("mark transaction cleared: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotPending)
	}

	slog.InfoContext(ctx, "Transaction cleared", "id", id)
	return nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("validate budget: %w", err)
	}
	id, err := r.queries.CreateBudget(ctx, CreateBudgetParams{
		AccountID:   b.AccountID,
		Name:        b.Name,
		Category:    string(b.Category),
		LimitAmount: b.Limit.String(),
		Period:      string(b.Period),
		Rollover:    b.Rollover,
		CreatedAt:   time.Now().UTC().Unix(),
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	b.ID = id

	slog.InfoContext(ctx, "Budget created",
		"id", id,
		"account_id", b.AccountID,
		"category", b.Category,
		"limit", b.Limit.String(),
		"period", b.Period)

	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("validate budget: %w", err)
	}
	err := r.queries.UpdateBudget(ctx, UpdateBudgetParams{
		ID:          b.ID,
		Name:        b.Name,
		LimitAmount: b.Limit.String(),
		Period:      string(b.Period),
		Rollover:    b.Rollover,
		UpdatedAt:   time.Now().UTC().Unix(),
	})
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	if err := r.queries.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, accountID int64) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgetsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	budgets := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		b, err := budgetFromRow(row)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, nil
}

func accountFromRow(row Account) (core.Account, error) {
	account := core.Account{
		ID:        row.ID,
		Currency:  row.Currency,
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
	}
	if row.MonthlyLimit.Valid {
		limit, err := decimal.NewFromString(row.MonthlyLimit.String)
		if err != nil {
			return core.Account{}, fmt.Errorf("parse monthly limit for account %d: %w", row.ID, err)
		}
		account.MonthlyLimit = &limit
	}
	return account, nil
}

func transactionFromRow(row Transaction) (core.Transaction, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount for transaction %d: %w", row.ID, err)
	}
	return core.Transaction{
		ID:              row.ID,
		AccountID:       row.AccountID,
		Seq:             row.Seq,
		Amount:          amount,
		Category:        core.Category(row.Category),
		Description:     row.Description,
		Payee:           row.Payee,
		PaymentMethod:   core.PaymentMethod(row.PaymentMethod),
		ReferenceNo:     row.ReferenceNo,
		Status:          core.TxStatus(row.Status),
		OccurredAt:      time.Unix(row.OccurredAt, 0).UTC(),
		CreatedAt:       time.Unix(row.CreatedAt, 0).UTC(),
		Hash:            row.Hash,
		PrevHash:        row.PrevHash,
		EncodingVersion: uint8(row.EncodingVersion),
	}, nil
}

func budgetFromRow(row Budget) (core.Budget, error) {
	limit, err := decimal.NewFromString(row.LimitAmount)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse limit for budget %d: %w", row.ID, err)
	}
	return core.Budget{
		ID:        row.ID,
		AccountID: row.AccountID,
		Name:      row.Name,
		Category:  core.Category(row.Category),
		Limit:     limit,
		Period:    core.Period(row.Period),
		Rollover:  row.Rollover,
	}, nil
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
