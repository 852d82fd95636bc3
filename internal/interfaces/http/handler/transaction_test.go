package handler

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	ledgerapp "github.com/agency/backend/internal/application/ledger"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/agency/backend/internal/interfaces/http/dto"
	"github.com/agency/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTransactionRouter(svc *MockLedgerService, principal *identity.Principal) *gin.Engine {
	h := NewTransactionHandler(svc)
	router := newTestRouter(principal)
	group := router.Group("/api/v1/transactions")
	group.POST("", h.Record)
	group.GET("", h.List)
	group.GET("/balance", h.Balance)
	group.GET("/:id", h.GetByID)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	return router
}

func TestTransactionHandler_Record(t *testing.T) {
	tenantID := uuid.New()
	principal := companyPrincipal(tenantID)
	clientID := uuid.New()
	body := map[string]any{
		"client_id":        clientID.String(),
		"transaction_type": "B2C",
		"date":             "2024-03-10",
		"received_amount":  "300",
		"refund_amount":    "50",
	}
	written := &ledgerapp.LedgerWriteResponse{
		Transaction: ledgerapp.TransactionResponse{
			ID:              uuid.New(),
			ClientID:        clientID,
			TransactionType: "B2C",
			Date:            "2024-03-10",
			ReceivedAmount:  decimal.NewFromInt(300),
			RefundAmount:    decimal.NewFromInt(50),
			NetAmount:       decimal.NewFromInt(250),
		},
		ClientDueAmount: decimal.NewFromInt(550),
	}

	t.Run("records with idempotency key", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("RecordTransaction", mock.Anything, principal, mock.MatchedBy(func(req ledgerapp.RecordTransactionRequest) bool {
			return req.ClientID == clientID && req.IdempotencyKey == "pay-42" &&
				req.ReceivedAmount.Equal(decimal.NewFromInt(300))
		})).Return(written, nil)

		w := performRequest(setupTransactionRouter(svc, &principal), http.MethodPost, "/api/v1/transactions", body,
			middleware.IdempotencyKeyHeader, "pay-42")

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "550", data["client_due_amount"])
		svc.AssertExpectations(t)
	})

	t.Run("in-flight duplicate key conflicts", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("RecordTransaction", mock.Anything, principal, mock.Anything).Return(nil, shared.ErrDuplicateRequest)

		w := performRequest(setupTransactionRouter(svc, &principal), http.MethodPost, "/api/v1/transactions", body,
			middleware.IdempotencyKeyHeader, "pay-42")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeDuplicateRequest, decodeResponse(t, w).Error.Code)
	})

	t.Run("oversized idempotency key", func(t *testing.T) {
		svc := new(MockLedgerService)

		w := performRequest(setupTransactionRouter(svc, &principal), http.MethodPost, "/api/v1/transactions", body,
			middleware.IdempotencyKeyHeader, strings.Repeat("k", maxIdempotencyKeyLength+1))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown transaction type", func(t *testing.T) {
		svc := new(MockLedgerService)
		bad := map[string]any{}
		for k, v := range body {
			bad[k] = v
		}
		bad["transaction_type"] = "B2X"

		w := performRequest(setupTransactionRouter(svc, &principal), http.MethodPost, "/api/v1/transactions", bad)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown client", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("RecordTransaction", mock.Anything, principal, mock.Anything).Return(nil, shared.ErrNotFound)

		w := performRequest(setupTransactionRouter(svc, &principal), http.MethodPost, "/api/v1/transactions", body)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("storage failure is hidden", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("RecordTransaction", mock.Anything, principal, mock.Anything).Return(nil, errors.New("pq: deadlock detected"))

		w := performRequest(setupTransactionRouter(svc, &principal), http.MethodPost, "/api/v1/transactions", body)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "deadlock")
	})
}

func TestTransactionHandler_Queries(t *testing.T) {
	tenantID := uuid.New()
	principal := companyPrincipal(tenantID)
	clientID := uuid.New()

	t.Run("list requires client_id", func(t *testing.T) {
		svc := new(MockLedgerService)

		w := performRequest(setupTransactionRouter(svc, &principal), http.MethodGet, "/api/v1/transactions", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list for client", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("ListForClient", mock.Anything, principal, mock.MatchedBy(func(f ledgerapp.TransactionListFilter) bool {
			return f.ClientID == clientID && f.TransactionType == "B2C" && f.PageSize == 5
		})).Return([]ledgerapp.TransactionResponse{{ID: uuid.New(), ClientID: clientID}}, int64(6), nil)

		w := performRequest(setupTransactionRouter(svc, &principal), http.MethodGet,
			"/api/v1/transactions?client_id="+clientID.String()+"&transaction_type=B2C&page_size=5", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 2, decodeResponse(t, w).Meta.TotalPages)
		svc.AssertExpectations(t)
	})

	t.Run("balance", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("GetClientBalance", mock.Anything, principal, clientID, "").Return(&ledgerapp.ClientBalanceResponse{
			ClientID:   clientID,
			ClientType: "B2C",
			DueAmount:  decimal.NewFromInt(550),
			Consistent: true,
		}, nil)

		w := performRequest(setupTransactionRouter(svc, &principal), http.MethodGet, "/api/v1/transactions/balance?client_id="+clientID.String(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, true, data["consistent"])
	})

	t.Run("get, amend and remove", func(t *testing.T) {
		svc := new(MockLedgerService)
		txID := uuid.New()
		tx := &ledgerapp.TransactionResponse{ID: txID, ClientID: clientID}
		write := &ledgerapp.LedgerWriteResponse{Transaction: *tx, ClientDueAmount: decimal.NewFromInt(700)}
		svc.On("GetTransaction", mock.Anything, principal, txID).Return(tx, nil)
		svc.On("AmendTransaction", mock.Anything, principal, txID, mock.MatchedBy(func(req ledgerapp.AmendTransactionRequest) bool {
			return req.Notes != nil && *req.Notes == "corrected" && req.ReceivedAmount == nil
		})).Return(write, nil)
		svc.On("RemoveTransaction", mock.Anything, principal, txID).Return(write, nil)
		router := setupTransactionRouter(svc, &principal)

		assert.Equal(t, http.StatusOK, performRequest(router, http.MethodGet, "/api/v1/transactions/"+txID.String(), nil).Code)
		assert.Equal(t, http.StatusOK, performRequest(router, http.MethodPut, "/api/v1/transactions/"+txID.String(), map[string]any{"notes": "corrected"}).Code)
		assert.Equal(t, http.StatusOK, performRequest(router, http.MethodDelete, "/api/v1/transactions/"+txID.String(), nil).Code)
		svc.AssertExpectations(t)
	})
}
