package sqlite

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by the repositories.
// Production passes the *sql.DB from Open; tests pass a go-sqlmock handle.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
