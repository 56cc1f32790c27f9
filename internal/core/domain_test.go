package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{input: "food", want: CategoryFood},
		{input: " Food ", want: CategoryFood},
		{input: "UTILITIES", want: CategoryUtilities},
		{input: "other", want: CategoryOther},
		{input: "groceries", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategories_CoversEveryValidCategory(t *testing.T) {
	for _, c := range Categories() {
		assert.True(t, c.Valid(), "category %q", c)
	}
	assert.Contains(t, Categories(), CategoryOther)
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input   string
		want    Period
		wantErr bool
	}{
		{input: "monthly", want: Monthly},
		{input: "Month", want: Monthly},
		{input: "quarter", want: Quarterly},
		{input: "YEARLY", want: Yearly},
		{input: "weekly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePeriod(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPeriod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{name: "whole", amount: "45"},
		{name: "two decimals", amount: "45.50"},
		{name: "one decimal", amount: "0.5"},
		{name: "zero", amount: "0", wantErr: true},
		{name: "negative", amount: "-10.00", wantErr: true},
		{name: "three decimals", amount: "1.005", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{
		Name:   "Groceries",
		Limit:  decimal.RequireFromString("300.00"),
		Period: Monthly,
	}

	tests := []struct {
		name    string
		mutate  func(*Budget)
		wantErr bool
	}{
		{name: "valid global", mutate: func(b *Budget) {}},
		{name: "valid category", mutate: func(b *Budget) { b.Category = CategoryFood }},
		{name: "blank name", mutate: func(b *Budget) { b.Name = "  " }, wantErr: true},
		{name: "unknown category", mutate: func(b *Budget) { b.Category = "groceries" }, wantErr: true},
		{name: "zero limit", mutate: func(b *Budget) { b.Limit = decimal.Zero }, wantErr: true},
		{name: "missing period", mutate: func(b *Budget) { b.Period = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			err := b.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBudgetCovers(t *testing.T) {
	global := Budget{Name: "All", Limit: decimal.NewFromInt(100), Period: Monthly}
	food := global
	food.Category = CategoryFood

	assert.True(t, global.Global())
	assert.True(t, global.Covers(CategoryHealth))
	assert.False(t, food.Global())
	assert.True(t, food.Covers(CategoryFood))
	assert.False(t, food.Covers(CategoryHealth))
}

func TestStatusAndPaymentMethodValidity(t *testing.T) {
	assert.True(t, StatusCleared.Valid())
	assert.True(t, StatusPending.Valid())
	assert.False(t, TxStatus("reversed").Valid())

	assert.True(t, PaymentCash.Valid())
	assert.True(t, PaymentBankTransfer.Valid())
	assert.False(t, PaymentMethod("cheque").Valid())
}
