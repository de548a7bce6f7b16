package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"finance-tracker/internal/domain"
	"finance-tracker/internal/repository"
)

// UserService is the credential store: registration and password verification.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Verify(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// UserOptions carries credential policy.
type UserOptions struct {
	// NormalizeEmail lower-cases and trims emails before they are stored or looked up.
	NormalizeEmail bool
	BcryptCost     int
}

type userService struct {
	users repository.UserRepository
	opts  UserOptions
}

func NewUserService(users repository.UserRepository, opts UserOptions) UserService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		users: users,
		opts:  opts,
	}
}

func (s *userService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = s.canonicalEmail(email)

	if err := validate.Var(name, "required,min=3,max=30"); err != nil {
		return nil, invalid("name", "must be 3 to 30 characters")
	}
	if err := validate.Var(email, "required,email,min=5,max=50"); err != nil {
		return nil, invalid("email", "must be a valid address of 5 to 50 characters")
	}
	if err := validate.Var(password, "required,alphanum,min=3,max=30"); err != nil {
		return nil, invalid("password", "must be 3 to 30 alphanumeric characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, storageError("create user", err)
	}

	return sanitizeUser(user), nil
}

func (s *userService) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	email = s.canonicalEmail(email)
	if email == "" {
		return nil, ErrNotFound
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("get user", err)
	}
	return sanitizeUser(user), nil
}

func (s *userService) canonicalEmail(email string) string {
	if s.opts.NormalizeEmail {
		email = strings.ToLower(strings.TrimSpace(email))
	}
	return email
}

// sanitizeUser drops the verifier so it never leaves the store.
func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
