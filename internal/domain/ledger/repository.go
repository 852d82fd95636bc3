package ledger

import (
	"context"

	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRepository defines persistence for ledger transactions.
// Callers enforce tenant scope by resolving the owning client first.
type TransactionRepository interface {
	// FindByID finds a transaction by id
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByClient lists a client's transactions newest first
	FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]Transaction, error)

	// CountByClient counts a client's transactions
	CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error)

	// SumNetByClient returns the sum of received minus refund over a client's transactions
	SumNetByClient(ctx context.Context, clientID uuid.UUID) (decimal.Decimal, error)

	// Save inserts or updates a transaction
	Save(ctx context.Context, tx *Transaction) error

	// Delete removes a transaction
	Delete(ctx context.Context, id uuid.UUID) error
}
