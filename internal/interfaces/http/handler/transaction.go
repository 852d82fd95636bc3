package handler

import (
	"context"
	"net/http"
	"strings"

	ledgerapp "github.com/agency/backend/internal/application/ledger"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/agency/backend/internal/interfaces/http/dto"
	"github.com/agency/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxIdempotencyKeyLength caps the Idempotency-Key header
const maxIdempotencyKeyLength = 255

// LedgerService is the ledger engine as seen by the HTTP layer
type LedgerService interface {
	RecordTransaction(ctx context.Context, principal identity.Principal, req ledgerapp.RecordTransactionRequest) (*ledgerapp.LedgerWriteResponse, error)
	AmendTransaction(ctx context.Context, principal identity.Principal, id uuid.UUID, req ledgerapp.AmendTransactionRequest) (*ledgerapp.LedgerWriteResponse, error)
	RemoveTransaction(ctx context.Context, principal identity.Principal, id uuid.UUID) (*ledgerapp.LedgerWriteResponse, error)
	GetTransaction(ctx context.Context, principal identity.Principal, id uuid.UUID) (*ledgerapp.TransactionResponse, error)
	ListForClient(ctx context.Context, principal identity.Principal, filter ledgerapp.TransactionListFilter) ([]ledgerapp.TransactionResponse, int64, error)
	GetClientBalance(ctx context.Context, principal identity.Principal, clientID uuid.UUID, transactionType string) (*ledgerapp.ClientBalanceResponse, error)
}

// TransactionHandler handles ledger endpoints under /transactions
type TransactionHandler struct {
	BaseHandler
	service LedgerService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(service LedgerService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// BalanceQuery selects the client whose balance is checked
type BalanceQuery struct {
	TransactionType string `form:"transaction_type" binding:"omitempty,oneof=B2B B2C"`
}

// Record adds a payment and adjusts the client's due amount atomically.
// A key already seen within the idempotency window yields 409 DUPLICATE_REQUEST.
// POST /transactions
func (h *TransactionHandler) Record(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req ledgerapp.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	key := strings.TrimSpace(c.GetHeader(middleware.IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Idempotency-Key is too long")
		return
	}
	req.IdempotencyKey = key

	resp, err := h.service.RecordTransaction(c.Request.Context(), principal, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns a client's transactions newest first.
// GET /transactions?client_id=
func (h *TransactionHandler) List(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var filter ledgerapp.TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}
	clientID, ok := h.requiredQueryUUID(c, "client_id")
	if !ok {
		return
	}
	filter.ClientID = clientID

	items, total, err := h.service.ListForClient(c.Request.Context(), principal, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	h.SuccessWithMeta(c, items, total, page.Page, page.PageSize)
}

// GetByID returns one transaction.
// GET /transactions/:id
func (h *TransactionHandler) GetByID(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetTransaction(c.Request.Context(), principal, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update amends a transaction and applies the net difference to the client.
// PUT /transactions/:id
func (h *TransactionHandler) Update(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req ledgerapp.AmendTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.service.AmendTransaction(c.Request.Context(), principal, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes a transaction and reverses its effect on the client.
// DELETE /transactions/:id
func (h *TransactionHandler) Delete(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resp, err := h.service.RemoveTransaction(c.Request.Context(), principal, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Balance compares a client's stored due amount with its ledger.
// GET /transactions/balance?client_id=
func (h *TransactionHandler) Balance(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var query BalanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}
	clientID, ok := h.requiredQueryUUID(c, "client_id")
	if !ok {
		return
	}

	resp, err := h.service.GetClientBalance(c.Request.Context(), principal, clientID, query.TransactionType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
