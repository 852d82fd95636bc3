package client

import (
	"context"
	"time"

	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// B2CListFilter narrows B2C listings
type B2CListFilter struct {
	shared.Filter
	Status          Status
	ClientType      ClientType
	AssociatedB2BID *uuid.UUID
	IncludeArchived bool
	ArchivedOnly    bool
	CreatedFrom     *time.Time
}

// B2BListFilter narrows B2B listings
type B2BListFilter struct {
	shared.Filter
	CreatedFrom *time.Time
}

// B2CClientRepository defines persistence for B2C clients.
// Every lookup is bounded by a shared.Scope; an out-of-scope row is reported as shared.ErrNotFound.
type B2CClientRepository interface {
	// FindByID finds a client within scope
	FindByID(ctx context.Context, scope shared.Scope, id uuid.UUID) (*B2CClient, error)

	// FindAll lists clients within scope, newest first
	FindAll(ctx context.Context, scope shared.Scope, filter B2CListFilter) ([]B2CClient, error)

	// FindAllUnpaged lists every matching client within scope, ignoring pagination
	FindAllUnpaged(ctx context.Context, scope shared.Scope, filter B2CListFilter) ([]B2CClient, error)

	// Count counts clients matching the filter within scope
	Count(ctx context.Context, scope shared.Scope, filter B2CListFilter) (int64, error)

	// FindByAssociatedB2B returns clients referring to the given B2B client
	FindByAssociatedB2B(ctx context.Context, scope shared.Scope, b2bID uuid.UUID) ([]B2CClient, error)

	// CountByAssociatedB2B counts clients referring to the given B2B client
	CountByAssociatedB2B(ctx context.Context, scope shared.Scope, b2bID uuid.UUID) (int64, error)

	// FindLatestByPassportNumber returns the newest client holding the passport, across tenants
	FindLatestByPassportNumber(ctx context.Context, passportNumber string) (*B2CClient, error)

	// ExistsByPassportNumber checks passport uniqueness within scope, ignoring excludeID
	ExistsByPassportNumber(ctx context.Context, scope shared.Scope, passportNumber string, excludeID *uuid.UUID) (bool, error)

	// Save inserts a new client
	Save(ctx context.Context, c *B2CClient) error

	// SaveWithLock updates a client if its stored version is the one it was loaded with
	SaveWithLock(ctx context.Context, c *B2CClient) error
}

// B2BClientRepository defines persistence for B2B clients
type B2BClientRepository interface {
	// FindByID finds a client within scope
	FindByID(ctx context.Context, scope shared.Scope, id uuid.UUID) (*B2BClient, error)

	// FindAll lists clients within scope, newest first
	FindAll(ctx context.Context, scope shared.Scope, filter B2BListFilter) ([]B2BClient, error)

	// FindAllUnpaged lists every matching client within scope, ignoring pagination
	FindAllUnpaged(ctx context.Context, scope shared.Scope, filter B2BListFilter) ([]B2BClient, error)

	// Count counts clients matching the filter within scope
	Count(ctx context.Context, scope shared.Scope, filter B2BListFilter) (int64, error)

	// ExistsByName checks business-name uniqueness inside a tenant, ignoring excludeID
	ExistsByName(ctx context.Context, tenantID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)

	// Save inserts a new client
	Save(ctx context.Context, c *B2BClient) error

	// SaveWithLock updates a client if its stored version is the one it was loaded with
	SaveWithLock(ctx context.Context, c *B2BClient) error

	// Delete hard-deletes a client within scope
	Delete(ctx context.Context, scope shared.Scope, id uuid.UUID) error
}
