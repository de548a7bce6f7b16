package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"finance-tracker/internal/domain"
)

// TransactionService authorizes callers and drives the ledger on their behalf.
type TransactionService interface {
	ListTransactions(ctx context.Context, token string) ([]domain.Transaction, error)
	Deposit(ctx context.Context, token string, amount decimal.Decimal, description string) (*domain.Transaction, error)
	Withdraw(ctx context.Context, token string, amount decimal.Decimal, description string) (*domain.Transaction, error)
	Balance(ctx context.Context, token string) (decimal.Decimal, error)
	Logout(ctx context.Context, token string)
}

type transactionService struct {
	sessions SessionService
	ledger   Ledger
	locks    *keyedMutex
	logger   logrus.FieldLogger
}

func NewTransactionService(sessions SessionService, ledger Ledger, logger logrus.FieldLogger) TransactionService {
	if logger == nil {
		logger = logrus.New()
	}
	return &transactionService{
		sessions: sessions,
		ledger:   ledger,
		locks:    newKeyedMutex(),
		logger:   logger,
	}
}

func (s *transactionService) ListTransactions(ctx context.Context, token string) ([]domain.Transaction, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, user.ID)
}

func (s *transactionService) Deposit(ctx context.Context, token string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.ledger.Append(ctx, user.ID, domain.TransactionKindDeposit, amount, description)
}

// Withdraw reads the balance and appends under the user's lock so two
// concurrent withdrawals cannot both spend the same funds.
func (s *transactionService) Withdraw(ctx context.Context, token string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, err := ValidateEntry(domain.TransactionKindWithdrawal, amount, description); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(user.ID)
	defer unlock()

	current, err := s.ledger.Balance(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(current) {
		s.logger.WithFields(logrus.Fields{
			"user_id": user.ID,
			"amount":  amount.String(),
			"balance": current.String(),
		}).Debug("withdrawal rejected")
		return nil, ErrInsufficientFunds
	}

	return s.ledger.Append(ctx, user.ID, domain.TransactionKindWithdrawal, amount, description)
}

func (s *transactionService) Balance(ctx context.Context, token string) (decimal.Decimal, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return decimal.Zero, err
	}
	return s.ledger.Balance(ctx, user.ID)
}

// Logout always succeeds from the caller's point of view.
func (s *transactionService) Logout(ctx context.Context, token string) {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.logger.WithError(err).Warn("revoke session")
	}
}
