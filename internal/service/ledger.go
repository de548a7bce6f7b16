package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finance-tracker/internal/domain"
	"finance-tracker/internal/repository"
)

// Amounts carry at most two decimal places and stay below maxAmount.
const maxAmountScale = 2

var maxAmount = decimal.New(1, 12)

// Ledger is the append-only transaction history of each user.
type Ledger interface {
	Append(ctx context.Context, userID int64, kind domain.TransactionKind, amount decimal.Decimal, description string) (*domain.Transaction, error)
	History(ctx context.Context, userID int64) ([]domain.Transaction, error)
	Balance(ctx context.Context, userID int64) (decimal.Decimal, error)
}

type ledger struct {
	txs repository.TransactionRepository
	now func() time.Time
}

func NewLedger(txs repository.TransactionRepository) Ledger {
	return &ledger{
		txs: txs,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// ValidateEntry checks a prospective record and returns the description as it will be stored.
func ValidateEntry(kind domain.TransactionKind, amount decimal.Decimal, description string) (string, error) {
	if err := validate.Var(string(kind), "required,oneof=deposit withdrawal"); err != nil {
		return "", invalid("type", "must be deposit or withdrawal")
	}
	if !amount.IsPositive() {
		return "", invalid("amount", "must be a positive number")
	}
	// exponent checks come first so the comparison never rescales a huge value
	if amount.Exponent() < -maxAmountScale {
		return "", invalid("amount", "must have at most 2 decimal places")
	}
	if amount.Exponent() > maxAmount.Exponent() || amount.GreaterThanOrEqual(maxAmount) {
		return "", invalid("amount", "must be less than 1000000000000")
	}
	description = strings.TrimSpace(description)
	if err := validate.Var(description, "required,min=1,max=20"); err != nil {
		return "", invalid("description", "must be 1 to 20 characters")
	}
	return description, nil
}

func (l *ledger) Append(ctx context.Context, userID int64, kind domain.TransactionKind, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	description, err := ValidateEntry(kind, amount, description)
	if err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		UserID:      userID,
		Date:        l.now(),
		Amount:      amount,
		Description: description,
		Kind:        kind,
	}
	if _, err := l.txs.Create(ctx, tx); err != nil {
		return nil, storageError("append transaction", err)
	}
	return tx, nil
}

// History returns every record of the user ordered by date, ties broken by insertion order.
func (l *ledger) History(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	txs, err := l.txs.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageError("list transactions", err)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}

// Balance folds the full history on every call.
func (l *ledger) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	txs, err := l.History(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return Fold(txs), nil
}

// Fold sums deposits minus withdrawals.
func Fold(txs []domain.Transaction) decimal.Decimal {
	balance := decimal.Zero
	for i := range txs {
		balance = balance.Add(txs[i].Signed())
	}
	return balance
}
