package persistence

import (
	"context"

	appledger "github.com/agency/backend/internal/application/ledger"
	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormTransactionScope implements the ledger TransactionScope using GORM transactions.
// A transaction row and the owning client's balance commit or roll back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error the transaction is rolled back, otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories builds repositories bound to one transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// B2CClientRepo returns the B2C client repository scoped to the current transaction.
func (r *gormTransactionalRepositories) B2CClientRepo() client.B2CClientRepository {
	return NewGormB2CClientRepository(r.tx)
}

// B2BClientRepo returns the B2B client repository scoped to the current transaction.
func (r *gormTransactionalRepositories) B2BClientRepo() client.B2BClientRepository {
	return NewGormB2BClientRepository(r.tx)
}

// TransactionRepo returns the ledger transaction repository scoped to the current transaction.
func (r *gormTransactionalRepositories) TransactionRepo() ledger.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appledger.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
