package client

import (
	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeB2CClient = "B2CClient"
	AggregateTypeB2BClient = "B2BClient"
)

// Event type constants
const (
	EventTypeClientCreated        = "ClientCreated"
	EventTypeClientUpdated        = "ClientUpdated"
	EventTypeClientStatusChanged  = "ClientStatusChanged"
	EventTypeClientArchived       = "ClientArchived"
	EventTypeClientRestored       = "ClientRestored"
	EventTypeClientDeleted        = "ClientDeleted"
	EventTypeClientBalanceChanged = "ClientBalanceChanged"
)

func aggregateType(category Category) string {
	if category == CategoryB2B {
		return AggregateTypeB2BClient
	}
	return AggregateTypeB2CClient
}

// ClientCreatedEvent is published when a client is registered
type ClientCreatedEvent struct {
	shared.BaseDomainEvent
	Category Category `json:"category"`
	Name     string   `json:"name"`
}

// NewClientCreatedEvent creates a new ClientCreatedEvent
func NewClientCreatedEvent(id, tenantID uuid.UUID, category Category, name string) *ClientCreatedEvent {
	return &ClientCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientCreated, aggregateType(category), id, tenantID),
		Category:        category,
		Name:            name,
	}
}

// ClientUpdatedEvent is published when a client's profile changes
type ClientUpdatedEvent struct {
	shared.BaseDomainEvent
	Category Category `json:"category"`
}

// NewClientUpdatedEvent creates a new ClientUpdatedEvent
func NewClientUpdatedEvent(id, tenantID uuid.UUID, category Category) *ClientUpdatedEvent {
	return &ClientUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientUpdated, aggregateType(category), id, tenantID),
		Category:        category,
	}
}

// ClientStatusChangedEvent is published when a B2C case moves to another status
type ClientStatusChangedEvent struct {
	shared.BaseDomainEvent
	PassportNumber string `json:"passport_number"`
	OldStatus      Status `json:"old_status"`
	NewStatus      Status `json:"new_status"`
}

// NewClientStatusChangedEvent creates a new ClientStatusChangedEvent
func NewClientStatusChangedEvent(c *B2CClient, oldStatus, newStatus Status) *ClientStatusChangedEvent {
	return &ClientStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientStatusChanged, AggregateTypeB2CClient, c.ID, c.TenantID),
		PassportNumber:  c.PassportNumber,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// ClientArchivedEvent is published when a B2C client is archived
type ClientArchivedEvent struct {
	shared.BaseDomainEvent
	Reason          string `json:"reason"`
	HadTransactions bool   `json:"had_transactions"`
}

// NewClientArchivedEvent creates a new ClientArchivedEvent
func NewClientArchivedEvent(c *B2CClient) *ClientArchivedEvent {
	return &ClientArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientArchived, AggregateTypeB2CClient, c.ID, c.TenantID),
		Reason:          c.ArchivedReason,
		HadTransactions: c.HadTransactions,
	}
}

// ClientRestoredEvent is published when an archived B2C client is restored
type ClientRestoredEvent struct {
	shared.BaseDomainEvent
}

// NewClientRestoredEvent creates a new ClientRestoredEvent
func NewClientRestoredEvent(id, tenantID uuid.UUID) *ClientRestoredEvent {
	return &ClientRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientRestored, AggregateTypeB2CClient, id, tenantID),
	}
}

// ClientDeletedEvent is published when a B2B client is hard-deleted
type ClientDeletedEvent struct {
	shared.BaseDomainEvent
	Category Category `json:"category"`
}

// NewClientDeletedEvent creates a new ClientDeletedEvent
func NewClientDeletedEvent(id, tenantID uuid.UUID, category Category) *ClientDeletedEvent {
	return &ClientDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientDeleted, aggregateType(category), id, tenantID),
		Category:        category,
	}
}

// ClientBalanceChangedEvent is published when a ledger operation moves a due amount
type ClientBalanceChangedEvent struct {
	shared.BaseDomainEvent
	Category      Category            `json:"category"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	Net           decimal.Decimal     `json:"net"`
	DueAmount     decimal.Decimal     `json:"due_amount"`
	Reason        BalanceChangeReason `json:"reason"`
}

// NewClientBalanceChangedEvent creates a new ClientBalanceChangedEvent
func NewClientBalanceChangedEvent(
	id, tenantID uuid.UUID,
	category Category,
	transactionID uuid.UUID,
	net, due decimal.Decimal,
	reason BalanceChangeReason,
) *ClientBalanceChangedEvent {
	return &ClientBalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientBalanceChanged, aggregateType(category), id, tenantID),
		Category:        category,
		TransactionID:   transactionID,
		Net:             net,
		DueAmount:       due,
		Reason:          reason,
	}
}
