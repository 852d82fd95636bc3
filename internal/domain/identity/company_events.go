package identity

import (
	"github.com/agency/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeCompany = "Company"

// Event type constants
const (
	EventTypeCompanyCreated            = "CompanyCreated"
	EventTypeSubscriptionStatusChanged = "SubscriptionStatusChanged"
)

// CompanyCreatedEvent is published when a new company is registered
type CompanyCreatedEvent struct {
	shared.BaseDomainEvent
	Name   string             `json:"name"`
	Email  string             `json:"email"`
	Status SubscriptionStatus `json:"status"`
}

// NewCompanyCreatedEvent creates a new CompanyCreatedEvent
func NewCompanyCreatedEvent(company *Company) *CompanyCreatedEvent {
	return &CompanyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyCreated, AggregateTypeCompany, company.ID, company.ID),
		Name:            company.Name,
		Email:           company.Email,
		Status:          company.Subscription.Status,
	}
}

// SubscriptionStatusChangedEvent is published when a company's subscription status changes
type SubscriptionStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus SubscriptionStatus `json:"old_status"`
	NewStatus SubscriptionStatus `json:"new_status"`
}

// NewSubscriptionStatusChangedEvent creates a new SubscriptionStatusChangedEvent
func NewSubscriptionStatusChangedEvent(company *Company, oldStatus, newStatus SubscriptionStatus) *SubscriptionStatusChangedEvent {
	return &SubscriptionStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionStatusChanged, AggregateTypeCompany, company.ID, company.ID),
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}
