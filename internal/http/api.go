package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"finance-tracker/internal/domain"
	"finance-tracker/internal/service"
	"finance-tracker/internal/storage"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users      service.UserService
	sessions   service.SessionService
	txs        service.TransactionService
	statements service.StatementService
	limiter    *RateLimiter
	logger     logrus.FieldLogger
}

func NewHandler(
	users service.UserService,
	sessions service.SessionService,
	txs service.TransactionService,
	statements service.StatementService,
	limiter *RateLimiter,
	logger logrus.FieldLogger,
) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:      users,
		sessions:   sessions,
		txs:        txs,
		statements: statements,
		limiter:    limiter,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestLogger(h.logger))

	api := router.Group("/api")
	{
		auth := api.Group("")
		if h.limiter != nil {
			auth.Use(h.limiter.Middleware())
		}
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)

		api.POST("/sign-out", h.signOut)
		api.GET("/transactions", h.listTransactions)
		api.POST("/transactions/deposit", h.deposit)
		api.POST("/transactions/withdraw", h.withdraw)
		api.GET("/balance", h.balance)
		api.POST("/statements", h.exportStatement)
		api.GET("/statements", h.listStatements)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}).Info("request")
	}
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
// A missing or malformed header yields "", which the session manager rejects.
func bearerToken(c *gin.Context) string {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type entryRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (h *Handler) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, UserResponse{Name: user.Name, Email: user.Email})
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}

	user, err := h.users.Verify(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.String(http.StatusOK, token)
}

func (h *Handler) signOut(c *gin.Context) {
	h.txs.Logout(c.Request.Context(), bearerToken(c))
	c.Status(http.StatusOK)
}

func (h *Handler) listTransactions(c *gin.Context) {
	txs, err := h.txs.ListTransactions(c.Request.Context(), bearerToken(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]TransactionResponse, len(txs))
	for i := range txs {
		resp[i] = transactionToResponse(txs[i])
	}
	c.JSON(http.StatusOK, gin.H{"list": resp})
}

func (h *Handler) deposit(c *gin.Context) {
	h.appendEntry(c, h.txs.Deposit)
}

func (h *Handler) withdraw(c *gin.Context) {
	h.appendEntry(c, h.txs.Withdraw)
}

func (h *Handler) appendEntry(c *gin.Context, op func(ctx context.Context, token string, amount decimal.Decimal, description string) (*domain.Transaction, error)) {
	token := bearerToken(c)

	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// an anonymous caller gets 401 even when the body is broken
		if _, authErr := h.sessions.Resolve(c.Request.Context(), token); authErr != nil {
			h.writeError(c, authErr)
			return
		}
		h.badBody(c, err)
		return
	}

	tx, err := op(c.Request.Context(), token, req.Amount, req.Description)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transactionToResponse(*tx))
}

func (h *Handler) balance(c *gin.Context) {
	balance, err := h.txs.Balance(c.Request.Context(), bearerToken(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, BalanceResponse{Balance: balance})
}

func (h *Handler) exportStatement(c *gin.Context) {
	stmt, err := h.statements.Export(c.Request.Context(), bearerToken(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, StatementResponse{
		Key:          stmt.Key,
		Location:     stmt.Location,
		URL:          stmt.URL,
		Balance:      stmt.Balance,
		Transactions: stmt.Count,
		GeneratedAt:  stmt.GeneratedAt.Format(time.RFC3339),
	})
}

func (h *Handler) listStatements(c *gin.Context) {
	objects, err := h.statements.List(c.Request.Context(), bearerToken(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, gin.H{"list": resp})
}

type UserResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type TransactionResponse struct {
	ID          int64           `json:"id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
}

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type StatementResponse struct {
	Key          string          `json:"key"`
	Location     string          `json:"location"`
	URL          string          `json:"url,omitempty"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions int             `json:"transactions"`
	GeneratedAt  string          `json:"generated_at"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func transactionToResponse(tx domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		Date:        tx.Date.Format(time.RFC3339),
		Amount:      tx.Amount,
		Description: tx.Description,
		Type:        string(tx.Kind),
	}
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
