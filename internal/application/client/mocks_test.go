package client

import (
	"context"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/ledger"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockB2CClientRepository is a mock implementation of client.B2CClientRepository
type MockB2CClientRepository struct {
	mock.Mock
}

func (m *MockB2CClientRepository) FindByID(ctx context.Context, scope shared.Scope, id uuid.UUID) (*client.B2CClient, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.B2CClient), args.Error(1)
}

func (m *MockB2CClientRepository) FindAll(ctx context.Context, scope shared.Scope, filter client.B2CListFilter) ([]client.B2CClient, error) {
	args := m.Called(ctx, scope, filter)
	return args.Get(0).([]client.B2CClient), args.Error(1)
}

func (m *MockB2CClientRepository) FindAllUnpaged(ctx context.Context, scope shared.Scope, filter client.B2CListFilter) ([]client.B2CClient, error) {
	args := m.Called(ctx, scope, filter)
	return args.Get(0).([]client.B2CClient), args.Error(1)
}

func (m *MockB2CClientRepository) Count(ctx context.Context, scope shared.Scope, filter client.B2CListFilter) (int64, error) {
	args := m.Called(ctx, scope, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockB2CClientRepository) FindByAssociatedB2B(ctx context.Context, scope shared.Scope, b2bID uuid.UUID) ([]client.B2CClient, error) {
	args := m.Called(ctx, scope, b2bID)
	return args.Get(0).([]client.B2CClient), args.Error(1)
}

func (m *MockB2CClientRepository) CountByAssociatedB2B(ctx context.Context, scope shared.Scope, b2bID uuid.UUID) (int64, error) {
	args := m.Called(ctx, scope, b2bID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockB2CClientRepository) FindLatestByPassportNumber(ctx context.Context, passportNumber string) (*client.B2CClient, error) {
	args := m.Called(ctx, passportNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.B2CClient), args.Error(1)
}

func (m *MockB2CClientRepository) ExistsByPassportNumber(ctx context.Context, scope shared.Scope, passportNumber string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, scope, passportNumber, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockB2CClientRepository) Save(ctx context.Context, c *client.B2CClient) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockB2CClientRepository) SaveWithLock(ctx context.Context, c *client.B2CClient) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// MockB2BClientRepository is a mock implementation of client.B2BClientRepository
type MockB2BClientRepository struct {
	mock.Mock
}

func (m *MockB2BClientRepository) FindByID(ctx context.Context, scope shared.Scope, id uuid.UUID) (*client.B2BClient, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.B2BClient), args.Error(1)
}

func (m *MockB2BClientRepository) FindAll(ctx context.Context, scope shared.Scope, filter client.B2BListFilter) ([]client.B2BClient, error) {
	args := m.Called(ctx, scope, filter)
	return args.Get(0).([]client.B2BClient), args.Error(1)
}

func (m *MockB2BClientRepository) FindAllUnpaged(ctx context.Context, scope shared.Scope, filter client.B2BListFilter) ([]client.B2BClient, error) {
	args := m.Called(ctx, scope, filter)
	return args.Get(0).([]client.B2BClient), args.Error(1)
}

func (m *MockB2BClientRepository) Count(ctx context.Context, scope shared.Scope, filter client.B2BListFilter) (int64, error) {
	args := m.Called(ctx, scope, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockB2BClientRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockB2BClientRepository) Save(ctx context.Context, c *client.B2BClient) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockB2BClientRepository) SaveWithLock(ctx context.Context, c *client.B2BClient) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockB2BClientRepository) Delete(ctx context.Context, scope shared.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of ledger.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]ledger.Transaction, error) {
	args := m.Called(ctx, clientID, filter)
	return args.Get(0).([]ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) SumNetByClient(ctx context.Context, clientID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepository) Save(ctx context.Context, tx *ledger.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockStatusCache is a mock implementation of StatusCache
type MockStatusCache struct {
	mock.Mock
}

func (m *MockStatusCache) Get(ctx context.Context, passportNumber string) ([]byte, bool, error) {
	args := m.Called(ctx, passportNumber)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockStatusCache) Set(ctx context.Context, passportNumber string, payload []byte) error {
	args := m.Called(ctx, passportNumber, payload)
	return args.Error(0)
}

func (m *MockStatusCache) Delete(ctx context.Context, passportNumbers ...string) error {
	args := m.Called(ctx, passportNumbers)
	return args.Error(0)
}

// recordingPublisher captures published events
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
