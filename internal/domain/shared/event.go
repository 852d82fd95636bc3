package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact about a client, ledger entry or company, raised by
// the aggregate and published once the write has committed
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// AggregateRef identifies the aggregate an event belongs to
type AggregateRef struct {
	ID       uuid.UUID `json:"id"`
	Type     string    `json:"type"`
	TenantID uuid.UUID `json:"tenant_id"`
}

// BaseDomainEvent holds the identity fields shared by every event
type BaseDomainEvent struct {
	ID        uuid.UUID    `json:"id"`
	Type      string       `json:"type"`
	Timestamp time.Time    `json:"occurred_at"`
	Aggregate AggregateRef `json:"aggregate"`
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Aggregate.ID }
func (e *BaseDomainEvent) AggregateType() string  { return e.Aggregate.Type }
func (e *BaseDomainEvent) TenantID() uuid.UUID    { return e.Aggregate.TenantID }

// NewBaseDomainEvent stamps a fresh event id and the current UTC time
func NewBaseDomainEvent(eventType, aggType string, aggID, tenantID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Aggregate: AggregateRef{ID: aggID, Type: aggType, TenantID: tenantID},
	}
}
