package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-tracker/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTransactions_Scenario(t *testing.T) {
	env := newTestEnv(t, UserOptions{}, 0)
	ctx := context.Background()

	_, err := env.users.Register(ctx, "Ana", "ana@x.com", "abc123")
	require.NoError(t, err)
	_, err = env.users.Register(ctx, "Ana", "ana@x.com", "abc123")
	require.ErrorIs(t, err, ErrDuplicateEmail)

	user, err := env.users.Verify(ctx, "ana@x.com", "abc123")
	require.NoError(t, err)
	token, err := env.sessions.Create(ctx, user.ID)
	require.NoError(t, err)

	dep, err := env.txs.Deposit(ctx, token, dec("50"), "salary")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionKindDeposit, dep.Kind)
	assertBalance(t, env, token, "50")

	_, err = env.txs.Withdraw(ctx, token, dec("70"), "rent")
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assertBalance(t, env, token, "50")

	wd, err := env.txs.Withdraw(ctx, token, dec("50"), "rent")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionKindWithdrawal, wd.Kind)
	assertBalance(t, env, token, "0")

	list, err := env.txs.ListTransactions(ctx, token)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "salary", list[0].Description)
	assert.Equal(t, "rent", list[1].Description)
}

func assertBalance(t *testing.T, env *testEnv, token, want string) {
	t.Helper()
	got, err := env.txs.Balance(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec(want)), "balance = %s, want %s", got, want)
}

func TestTransactions_Unauthenticated(t *testing.T) {
	env := newTestEnv(t, UserOptions{}, 0)
	ctx := context.Background()

	_, err := env.txs.ListTransactions(ctx, "bogus")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = env.txs.Deposit(ctx, "", dec("1"), "x")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = env.txs.Withdraw(ctx, "bogus", dec("1"), "x")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = env.txs.Balance(ctx, "bogus")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	var count int
	require.NoError(t, env.db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count))
	assert.Zero(t, count)
}

func TestTransactions_Validation(t *testing.T) {
	env := newTestEnv(t, UserOptions{}, 0)
	ctx := context.Background()
	token := env.login(t, "Ana", "ana@x.com")

	_, err := env.txs.Deposit(ctx, token, dec("-1"), "x")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.txs.Deposit(ctx, token, dec("10"), "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.txs.Withdraw(ctx, token, decimal.Zero, "x")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.txs.Withdraw(ctx, token, dec("1"), "a description far too long")
	assert.ErrorIs(t, err, ErrValidation)

	assertBalance(t, env, token, "0")
}

func TestTransactions_LogoutIdempotent(t *testing.T) {
	env := newTestEnv(t, UserOptions{}, 0)
	ctx := context.Background()
	token := env.login(t, "Ana", "ana@x.com")

	env.txs.Logout(ctx, token)
	_, err := env.txs.ListTransactions(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	env.txs.Logout(ctx, token)
	env.txs.Logout(ctx, "")
	assert.Empty(t, env.logs.AllEntries())
}

func TestTransactions_ConcurrentWithdrawalRace(t *testing.T) {
	env := newTestEnv(t, UserOptions{}, 0)
	ctx := context.Background()
	token := env.login(t, "Ana", "ana@x.com")

	_, err := env.txs.Deposit(ctx, token, dec("100"), "salary")
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]error, 2)
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = env.txs.Withdraw(ctx, token, dec("80"), "rent")
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assertBalance(t, env, token, "20")
}

func TestTransactions_ManyConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	env := newTestEnv(t, UserOptions{}, 0)
	ctx := context.Background()
	token := env.login(t, "Ana", "ana@x.com")

	_, err := env.txs.Deposit(ctx, token, dec("55"), "salary")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.txs.Withdraw(ctx, token, dec("10"), "cash")
		}()
	}
	wg.Wait()

	assertBalance(t, env, token, "5")
}

// stubLedger fails the first append and records every call.
type stubLedger struct {
	mu        sync.Mutex
	balance   decimal.Decimal
	appendErr error
	appends   int
	balances  int
}

func (s *stubLedger) Append(_ context.Context, userID int64, kind domain.TransactionKind, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends++
	if s.appendErr != nil {
		err := s.appendErr
		s.appendErr = nil
		return nil, err
	}
	return &domain.Transaction{UserID: userID, Kind: kind, Amount: amount, Description: description}, nil
}

func (s *stubLedger) History(context.Context, int64) ([]domain.Transaction, error) {
	return nil, nil
}

func (s *stubLedger) Balance(context.Context, int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances++
	return s.balance, nil
}

type stubSessions struct {
	user *domain.User
}

func (s *stubSessions) Create(context.Context, int64) (string, error) { return "tok", nil }
func (s *stubSessions) Revoke(context.Context, string) error { return errors.New("db down") }
func (s *stubSessions) PurgeExpired(context.Context) (int64, error) { return 0, nil }
func (s *stubSessions) Resolve(_ context.Context, token string) (*domain.User, error) {
	if token != "tok" {
		return nil, ErrUnauthenticated
	}
	return s.user, nil
}

func TestWithdraw_ReleasesLockOnStorageFailure(t *testing.T) {
	ledger := &stubLedger{balance: dec("100"), appendErr: storageError("append transaction", errors.New("disk full"))}
	svc := NewTransactionService(&stubSessions{user: &domain.User{ID: 9}}, ledger, logrus.New())
	ctx := context.Background()

	_, err := svc.Withdraw(ctx, "tok", dec("10"), "rent")
	require.ErrorIs(t, err, ErrStorageUnavailable)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Withdraw(ctx, "tok", dec("10"), "rent")
		done <- err
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("user lock was not released after a failed append")
	}
	assert.Zero(t, svc.(*transactionService).locks.size())
}

func TestWithdraw_ValidatesBeforeReadingBalance(t *testing.T) {
	ledger := &stubLedger{balance: dec("100")}
	svc := NewTransactionService(&stubSessions{user: &domain.User{ID: 9}}, ledger, nil)

	_, err := svc.Withdraw(context.Background(), "tok", dec("-3"), "rent")
	require.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, ledger.balances)
	assert.Zero(t, ledger.appends)
}

func TestLogout_SwallowsStorageErrors(t *testing.T) {
	logger := logrus.New()
	svc := NewTransactionService(&stubSessions{}, &stubLedger{}, logger)

	assert.NotPanics(t, func() { svc.Logout(context.Background(), "tok") })
}
