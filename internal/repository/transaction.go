package repository

import (
	"context"

	"finance-tracker/internal/domain"
)

// TransactionRepository is the append-only store behind the ledger.
// It has no update or delete.
type TransactionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, tx *domain.Transaction) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Transaction, error)
}
