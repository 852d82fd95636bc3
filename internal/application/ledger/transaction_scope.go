package ledger

import (
	"context"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/ledger"
)

// TransactionScope runs ledger writes inside one database transaction.
// The transaction row and the owning client's due amount are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction and rolls back if it returns an error
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to the current database transaction
type TransactionalRepositories interface {
	B2CClientRepo() client.B2CClientRepository
	B2BClientRepo() client.B2BClientRepository
	TransactionRepo() ledger.TransactionRepository
}

// NoOpTransactionScope runs fn directly against the given repositories.
// Useful for tests.
type NoOpTransactionScope struct {
	b2cRepo         client.B2CClientRepository
	b2bRepo         client.B2BClientRepository
	transactionRepo ledger.TransactionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	b2cRepo client.B2CClientRepository,
	b2bRepo client.B2BClientRepository,
	transactionRepo ledger.TransactionRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		b2cRepo:         b2cRepo,
		b2bRepo:         b2bRepo,
		transactionRepo: transactionRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// B2CClientRepo returns the B2C client repository
func (s *NoOpTransactionScope) B2CClientRepo() client.B2CClientRepository {
	return s.b2cRepo
}

// B2BClientRepo returns the B2B client repository
func (s *NoOpTransactionScope) B2BClientRepo() client.B2BClientRepository {
	return s.b2bRepo
}

// TransactionRepo returns the ledger transaction repository
func (s *NoOpTransactionScope) TransactionRepo() ledger.TransactionRepository {
	return s.transactionRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
