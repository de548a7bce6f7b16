package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finance-tracker/internal/domain"
	"finance-tracker/internal/storage"
)

// StatementOptions points the archive at a bucket. An empty bucket disables it.
type StatementOptions struct {
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
}

// Statement describes an archived export.
type Statement struct {
	Key         string
	Location    string
	URL         string
	Balance     decimal.Decimal
	Count       int
	GeneratedAt time.Time
}

// StatementService exports a user's ledger as a JSON document to object storage.
type StatementService interface {
	Export(ctx context.Context, token string) (*Statement, error)
	List(ctx context.Context, token string) ([]storage.ObjectInfo, error)
}

type statementService struct {
	sessions SessionService
	ledger   Ledger
	store    storage.Service
	opts     StatementOptions
	now      func() time.Time
}

func NewStatementService(sessions SessionService, ledger Ledger, store storage.Service, opts StatementOptions) StatementService {
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = 15 * time.Minute
	}
	return &statementService{
		sessions: sessions,
		ledger:   ledger,
		store:    store,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type statementDocument struct {
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Balance      decimal.Decimal     `json:"balance"`
	Transactions []statementLineItem `json:"transactions"`
}

type statementLineItem struct {
	ID          int64           `json:"id"`
	Date        time.Time       `json:"date"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (s *statementService) enabled() bool {
	return s.store != nil && s.opts.Bucket != ""
}

func (s *statementService) userPrefix(user *domain.User) string {
	return storage.JoinKey(s.opts.KeyPrefix, "users", strconv.FormatInt(user.ID, 10))
}

func (s *statementService) Export(ctx context.Context, token string) (*Statement, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if !s.enabled() {
		return nil, ErrArchiveDisabled
	}

	txs, err := s.ledger.History(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	generatedAt := s.now()
	doc := statementDocument{
		Name:         user.Name,
		Email:        user.Email,
		GeneratedAt:  generatedAt,
		Balance:      Fold(txs),
		Transactions: make([]statementLineItem, len(txs)),
	}
	for i := range txs {
		doc.Transactions[i] = statementLineItem{
			ID:          txs[i].ID,
			Date:        txs[i].Date,
			Type:        string(txs[i].Kind),
			Amount:      txs[i].Amount,
			Description: txs[i].Description,
		}
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode statement: %w", err)
	}

	key := storage.JoinKey(s.userPrefix(user), fmt.Sprintf("statement-%d-%s.json", generatedAt.Unix(), uuid.NewString()))
	location, err := s.store.Put(ctx, bytes.NewReader(body), storage.PutOptions{
		Bucket:      s.opts.Bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, storageError("upload statement", err)
	}

	stmt := &Statement{
		Key:         key,
		Location:    location,
		Balance:     doc.Balance,
		Count:       len(txs),
		GeneratedAt: generatedAt,
	}
	// URL stays empty when presigning fails
	if url, err := s.store.GetObjectURL(ctx, s.opts.Bucket, key, s.opts.URLExpiry); err == nil {
		stmt.URL = url
	}
	return stmt, nil
}

func (s *statementService) List(ctx context.Context, token string) ([]storage.ObjectInfo, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if !s.enabled() {
		return nil, ErrArchiveDisabled
	}

	objects, err := s.store.ListObjects(ctx, s.opts.Bucket, s.userPrefix(user)+"/")
	if err != nil {
		return nil, storageError("list statements", err)
	}
	if objects == nil {
		objects = []storage.ObjectInfo{}
	}
	return objects, nil
}
