package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"finance-tracker/internal/repository/sqlite"
)

type testEnv struct {
	db       *sql.DB
	users    UserService
	sessions SessionService
	ledger   Ledger
	txs      TransactionService
	logs     *test.Hook
}

func newTestEnv(t *testing.T, opts UserOptions, ttl time.Duration) *testEnv {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	txRepo := sqlite.NewTransactionRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, sessionRepo.Init(ctx))
	require.NoError(t, txRepo.Init(ctx))

	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.MinCost
	}
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	users := NewUserService(userRepo, opts)
	sessions := NewSessionService(sessionRepo, users, ttl)
	ledger := NewLedger(txRepo)
	return &testEnv{
		db:       db,
		users:    users,
		sessions: sessions,
		ledger:   ledger,
		txs:      NewTransactionService(sessions, ledger, logger),
		logs:     hook,
	}
}

// login registers a user and returns a fresh session token for it.
func (e *testEnv) login(t *testing.T, name, email string) string {
	t.Helper()
	ctx := context.Background()
	_, err := e.users.Register(ctx, name, email, "abc123")
	require.NoError(t, err)
	user, err := e.users.Verify(ctx, email, "abc123")
	require.NoError(t, err)
	token, err := e.sessions.Create(ctx, user.ID)
	require.NoError(t, err)
	return token
}
