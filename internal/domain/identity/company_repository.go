package identity

import (
	"context"

	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CompanyRepository defines the interface for company persistence
type CompanyRepository interface {
	// FindByID finds a company by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)

	// FindAll finds companies matching the filter, newest first
	FindAll(ctx context.Context, filter shared.Filter) ([]Company, error)

	// FindBySubscriptionStatus returns every company currently in one of the given statuses
	FindBySubscriptionStatus(ctx context.Context, statuses ...SubscriptionStatus) ([]Company, error)

	// Count counts companies matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByEmail checks whether a company with the email exists
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Save creates or updates a company
	Save(ctx context.Context, company *Company) error
}
