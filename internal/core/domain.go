package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryUtilities     Category = "utilities"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryShopping      Category = "shopping"
	CategoryEducation     Category = "education"
	CategoryOther         Category = "other"
)

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentUPI          PaymentMethod = "upi"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentWallet       PaymentMethod = "wallet"
)

const (
	StatusCleared TxStatus = "cleared"
	StatusPending TxStatus = "pending"
)

const (
	Monthly   Period = "monthly"
	Quarterly Period = "quarterly"
	Yearly    Period = "yearly"
)

type (
	Category      string
	PaymentMethod string
	TxStatus      string
	Period        string

	// Account owns one hash chain of transactions and a set of budgets.
	// MonthlyLimit is the optional global cap across all categories.
	Account struct {
		ID           int64
		Currency     string
		MonthlyLimit *decimal.Decimal
		CreatedAt    time.Time
	}

	// Transaction is a single chained ledger entry. Seq is the position in
	// the account's chain (0-based); Hash and PrevHash are hex SHA-256
	// values linking the entry to its predecessor. All fields except
	// Status are immutable once the entry is chained.
	Transaction struct {
		ID              int64
		AccountID       int64
		Seq             int64
		Amount          decimal.Decimal
		Category        Category
		Description     string
		Payee           string
		PaymentMethod   PaymentMethod
		ReferenceNo     string
		Status          TxStatus
		OccurredAt      time.Time
		CreatedAt       time.Time
		Hash            string
		PrevHash        string
		EncodingVersion uint8
	}

	// Budget allocates a limit to a category for a recurring period.
	// An empty Category means the budget caps spend across all categories.
	// Spent is never stored; it is always computed from the transaction set.
	Budget struct {
		ID        int64
		AccountID int64
		Name      string
		Category  Category
		Limit     decimal.Decimal
		Period    Period
		Rollover  bool
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrChainConflict   = errors.New("chain head conflict")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidPeriod   = errors.New("invalid period")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrNotPending      = errors.New("transaction is not pending")
)

// Categories lists the closed category set.
func Categories() []Category {
	return []Category{
		CategoryFood, CategoryTransport, CategoryUtilities,
		CategoryEntertainment, CategoryHealth, CategoryShopping,
		CategoryEducation, CategoryOther,
	}
}

func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return CategoryOther, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentBankTransfer, PaymentWallet:
		return true
	}
	return false
}

func (s TxStatus) Valid() bool {
	return s == StatusCleared || s == StatusPending
}

func (p Period) Valid() bool {
	return p == Monthly || p == Quarterly || p == Yearly
}

func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly", "month":
		return Monthly, nil
	case "quarterly", "quarter":
		return Quarterly, nil
	case "yearly", "year":
		return Yearly, nil
	default:
		return Monthly, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// ValidateAmount enforces the ledger's amount contract: strictly positive
// with at most two decimal places, so every amount has an exact
// minor-units representation for hashing.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: more than two decimal places", ErrInvalidAmount)
	}
	return nil
}

func (b Budget) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return errors.New("empty budget name")
	}
	if b.Category != "" && !b.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, b.Category)
	}
	if err := ValidateAmount(b.Limit); err != nil {
		return fmt.Errorf("budget limit: %w", err)
	}
	if !b.Period.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, b.Period)
	}
	return nil
}

// Global reports whether the budget caps all categories.
func (b Budget) Global() bool { return b.Category == "" }

// Covers reports whether a transaction's category counts against the budget.
func (b Budget) Covers(c Category) bool { return b.Global() || b.Category == c }
