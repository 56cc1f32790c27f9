package storage

import (
	"context"
	"database/sql"
)

// Queries wraps raw SQL access to the ledger schema. Row types mirror the
// column types; conversion to domain types happens in the repository.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

type Account struct {
	ID           int64
	Currency     string
	MonthlyLimit sql.NullString
	CreatedAt    int64
}

type Transaction struct {
	ID              int64
	AccountID       int64
	Seq             int64
	Amount          string
	Category        string
	Description     string
	Payee           string
	PaymentMethod   string
	ReferenceNo     string
	Status          string
	OccurredAt      int64
	CreatedAt       int64
	Hash            string
	PrevHash        string
	EncodingVersion int64
}

type Budget struct {
	ID          int64
	AccountID   int64
	Name        string
	Category    string
	LimitAmount string
	Period      string
	Rollover    bool
	CreatedAt   int64
	UpdatedAt   int64
}

type CreateAccountParams struct {
	Currency     string
	MonthlyLimit sql.NullString
	CreatedAt    int64
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO accounts (currency, monthly_limit, created_at) VALUES (?, ?, ?)`,
		arg.Currency, arg.MonthlyLimit, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) GetAccount(ctx context.Context, id int64) (Account, error) {
	var a Account
	err := q.db.QueryRowContext(ctx,
		`SELECT id, currency, monthly_limit, created_at FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Currency, &a.MonthlyLimit, &a.CreatedAt)
	return a, err
}

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, currency, monthly_limit, created_at FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Currency, &a.MonthlyLimit, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

type UpdateAccountLimitParams struct {
	ID           int64
	MonthlyLimit sql.NullString
}

func (q *Queries) UpdateAccountLimit(ctx context.Context, arg UpdateAccountLimitParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET monthly_limit = ? WHERE id = ?`,
		arg.MonthlyLimit, arg.ID)
	return err
}

type CreateTransactionParams struct {
	AccountID       int64
	Seq             int64
	Amount          string
	Category        string
	Description     string
	Payee           string
	PaymentMethod   string
	ReferenceNo     string
	Status          string
	OccurredAt      int64
	CreatedAt       int64
	Hash            string
	PrevHash        string
	EncodingVersion int64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO transactions (
			account_id, seq, amount, category, description, payee,
			payment_method, reference_no, status, occurred_at, created_at,
			hash, prev_hash, encoding_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.AccountID, arg.Seq, arg.Amount, arg.Category, arg.Description,
		arg.Payee, arg.PaymentMethod, arg.ReferenceNo, arg.Status,
		arg.OccurredAt, arg.CreatedAt, arg.Hash, arg.PrevHash, arg.EncodingVersion)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetChainHead returns the hash of the highest-sequence entry and the chain
// length. sql.ErrNoRows means an empty chain.
func (q *Queries) GetChainHead(ctx context.Context, accountID int64) (hash string, length int64, err error) {
	err = q.db.QueryRowContext(ctx,
		`SELECT hash, seq + 1 FROM transactions
		 WHERE account_id = ? ORDER BY seq DESC LIMIT 1`, accountID).
		Scan(&hash, &length)
	return hash, length, err
}

func (q *Queries) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, account_id, seq, amount, category, description, payee,
			payment_method, reference_no, status, occurred_at, created_at,
			hash, prev_hash, encoding_version
		 FROM transactions WHERE account_id = ? ORDER BY seq`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID, &t.AccountID, &t.Seq, &t.Amount, &t.Category,
			&t.Description, &t.Payee, &t.PaymentMethod, &t.ReferenceNo,
			&t.Status, &t.OccurredAt, &t.CreatedAt, &t.Hash, &t.PrevHash,
			&t.EncodingVersion,
		); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// MarkTransactionCleared performs the only legal in-place mutation of a
// chained entry. Returns the number of rows changed: 0 means the entry was
// missing or not pending.
func (q *Queries) MarkTransactionCleared(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET status = 'cleared' WHERE id = ? AND status = 'pending'`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type CreateBudgetParams struct {
	AccountID   int64
	Name        string
	Category    string
	LimitAmount string
	Period      string
	Rollover    bool
	CreatedAt   int64
}

func (q *Queries) CreateBudget(ctx context.Context, arg CreateBudgetParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO budgets (account_id, name, category, limit_amount, period, rollover, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.AccountID, arg.Name, arg.Category, arg.LimitAmount, arg.Period,
		arg.Rollover, arg.CreatedAt, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type UpdateBudgetParams struct {
	ID          int64
	Name        string
	LimitAmount string
	Period      string
	Rollover    bool
	UpdatedAt   int64
}

func (q *Queries) UpdateBudget(ctx context.Context, arg UpdateBudgetParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE budgets SET name = ?, limit_amount = ?, period = ?, rollover = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Name, arg.LimitAmount, arg.Period, arg.Rollover, arg.UpdatedAt, arg.ID)
	return err
}

func (q *Queries) DeleteBudget(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	return err
}

func (q *Queries) ListBudgetsByAccount(ctx context.Context, accountID int64) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, account_id, name, category, limit_amount, period, rollover, created_at, updated_at
		 FROM budgets WHERE account_id = ? ORDER BY id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.AccountID, &b.Name, &b.Category,
			&b.LimitAmount, &b.Period, &b.Rollover, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}
