package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	TransactionKindDeposit    TransactionKind = "deposit"
	TransactionKindWithdrawal TransactionKind = "withdrawal"
)

// Valid reports whether k is a known transaction kind.
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionKindDeposit, TransactionKindWithdrawal:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID          int64
	UserID      int64
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Kind        TransactionKind
}

// Signed returns the amount with the sign it contributes to a balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == TransactionKindWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}
