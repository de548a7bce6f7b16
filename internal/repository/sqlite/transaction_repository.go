package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finance-tracker/internal/domain"
	"finance-tracker/internal/repository"
)

// amount is stored as decimal text; the balance is folded in Go, never in SQL.
const createTransactionsTable = `
CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	date DATETIME NOT NULL,
	amount TEXT NOT NULL,
	description TEXT NOT NULL,
	kind TEXT NOT NULL CHECK (kind IN ('deposit', 'withdrawal')),
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
`

type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) repository.TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTransactionsTable); err != nil {
		return fmt.Errorf("create transactions table: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) (int64, error) {
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO transactions (user_id, date, amount, description, kind)
VALUES (?, ?, ?, ?, ?)`,
		tx.UserID,
		tx.Date.UTC(),
		tx.Amount.String(),
		tx.Description,
		string(tx.Kind),
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction last insert id: %w", err)
	}
	tx.ID = id
	return id, nil
}

// ListByUser returns the user's records in insertion order.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, date, amount, description, kind
FROM transactions
WHERE user_id = ?
ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var (
			tx     domain.Transaction
			amount string
			kind   string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Date, &amount, &tx.Description, &kind); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount of transaction %d: %w", tx.ID, err)
		}
		tx.Kind = domain.TransactionKind(kind)
		if !tx.Kind.Valid() {
			return nil, fmt.Errorf("transaction %d has unknown kind %q", tx.ID, kind)
		}
		txs = append(txs, tx)
	}

	return txs, rows.Err()
}
