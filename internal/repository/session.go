package repository

import (
	"context"
	"time"

	"finance-tracker/internal/domain"
)

// SessionRepository persists login sessions keyed by their token.
type SessionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
