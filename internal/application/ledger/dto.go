package ledger

import (
	"time"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Transaction DTOs
// =============================================================================

// RecordTransactionRequest represents a payment received from or refunded to a client
type RecordTransactionRequest struct {
	ClientID        uuid.UUID        `json:"client_id" binding:"required"`
	TransactionType string           `json:"transaction_type" binding:"required,oneof=B2B B2C"`
	Date            string           `json:"date" binding:"required"`
	ReceivedAmount  *decimal.Decimal `json:"received_amount" binding:"required"`
	RefundAmount    *decimal.Decimal `json:"refund_amount"`
	Notes           string           `json:"notes" binding:"max=1000"`
	IdempotencyKey  string           `json:"-"` // Set from the Idempotency-Key header
}

// AmendTransactionRequest is a partial edit of a transaction
type AmendTransactionRequest struct {
	Date           *string          `json:"date"`
	ReceivedAmount *decimal.Decimal `json:"received_amount"`
	RefundAmount   *decimal.Decimal `json:"refund_amount"`
	Notes          *string          `json:"notes" binding:"omitempty,max=1000"`
}

// TransactionListFilter selects a client's transactions
type TransactionListFilter struct {
	ClientID        uuid.UUID `form:"-"`
	TransactionType string    `form:"transaction_type" binding:"omitempty,oneof=B2B B2C"`
	Page            int       `form:"page" binding:"omitempty,min=1"`
	PageSize        int       `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	ClientID        uuid.UUID       `json:"client_id"`
	ClientName      string          `json:"client_name"`
	TransactionType string          `json:"transaction_type"`
	Date            string          `json:"date"`
	ReceivedAmount  decimal.Decimal `json:"received_amount"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	Notes           string          `json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LedgerWriteResponse is returned by ledger writes together with the client's new due amount
type LedgerWriteResponse struct {
	Transaction     TransactionResponse `json:"transaction"`
	ClientDueAmount decimal.Decimal     `json:"client_due_amount"`
}

// ClientBalanceResponse compares a client's stored due amount with its ledger
type ClientBalanceResponse struct {
	ClientID         uuid.UUID       `json:"client_id"`
	ClientType       string          `json:"client_type"`
	ContractAmount   decimal.Decimal `json:"contract_amount"`
	InitialPayment   decimal.Decimal `json:"initial_payment"`
	LedgerNet        decimal.Decimal `json:"ledger_net"`
	DueAmount        decimal.Decimal `json:"due_amount"`
	ExpectedDue      decimal.Decimal `json:"expected_due"`
	TransactionCount int64           `json:"transaction_count"`
	Consistent       bool            `json:"consistent"`
}

// ToTransactionResponse converts a domain Transaction to a response
func ToTransactionResponse(tx *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		ClientID:        tx.ClientID,
		ClientName:      tx.ClientName,
		TransactionType: string(tx.ClientCategory),
		Date:            tx.Date.Format(client.DateLayout),
		ReceivedAmount:  tx.ReceivedAmount,
		RefundAmount:    tx.RefundAmount,
		NetAmount:       tx.Net(),
		Notes:           tx.Notes,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
}

// ToTransactionResponses converts a slice of domain transactions to responses
func ToTransactionResponses(txs []ledger.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	return responses
}
