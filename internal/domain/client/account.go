package client

import (
	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category distinguishes business partners from individual travellers
type Category string

const (
	CategoryB2B Category = "B2B"
	CategoryB2C Category = "B2C"
)

// IsValid reports whether the category is known
func (c Category) IsValid() bool {
	return c == CategoryB2B || c == CategoryB2C
}

// LedgerAccount is a client whose due amount is driven by ledger transactions
type LedgerAccount interface {
	shared.AggregateRoot
	OwnerTenantID() uuid.UUID
	Category() Category
	DisplayName() string
	CurrentBalance() Balance
	// ApplyNetPayment lowers the due amount by net on behalf of a ledger transaction
	ApplyNetPayment(transactionID uuid.UUID, net decimal.Decimal, reason BalanceChangeReason)
}

// BalanceChangeReason names the ledger operation that moved a due amount
type BalanceChangeReason string

const (
	BalanceChangeRecorded BalanceChangeReason = "transaction_recorded"
	BalanceChangeAmended  BalanceChangeReason = "transaction_amended"
	BalanceChangeRemoved  BalanceChangeReason = "transaction_removed"
)
