package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"finance-tracker/internal/domain"
	"finance-tracker/internal/repository"
)

// SessionService issues, resolves and revokes opaque session tokens.
// Resolve is the single authorization gate for protected operations.
type SessionService interface {
	Create(ctx context.Context, userID int64) (string, error)
	Resolve(ctx context.Context, token string) (*domain.User, error)
	Revoke(ctx context.Context, token string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type sessionService struct {
	sessions repository.SessionRepository
	users    UserService
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionService builds a session manager. A zero ttl issues sessions that never expire.
func NewSessionService(sessions repository.SessionRepository, users UserService, ttl time.Duration) SessionService {
	return &sessionService{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *sessionService) Create(ctx context.Context, userID int64) (string, error) {
	token, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	session := &domain.Session{
		Token:     token.String(),
		UserID:    userID,
		CreatedAt: s.now(),
	}
	if s.ttl > 0 {
		expiresAt := session.CreatedAt.Add(s.ttl)
		session.ExpiresAt = &expiresAt
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return "", storageError("create session", err)
	}
	return session.Token, nil
}

// Resolve looks the token up on every call; there is no cache.
func (s *sessionService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, storageError("get session", err)
	}
	if session.Expired(s.now()) {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

func (s *sessionService) Revoke(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return storageError("delete session", err)
	}
	return nil
}

func (s *sessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, storageError("purge sessions", err)
	}
	return n, nil
}
