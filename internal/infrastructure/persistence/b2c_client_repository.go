package persistence

import (
	"context"
	"errors"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/agency/backend/internal/infrastructure/persistence/models"
	"github.com/agency/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormB2CClientRepository implements B2CClientRepository using GORM
type GormB2CClientRepository struct {
	db *gorm.DB
}

// NewGormB2CClientRepository creates a new GormB2CClientRepository
func NewGormB2CClientRepository(db *gorm.DB) *GormB2CClientRepository {
	return &GormB2CClientRepository{db: db}
}

// FindByID finds a client by ID within scope
func (r *GormB2CClientRepository) FindByID(ctx context.Context, scope shared.Scope, id uuid.UUID) (*client.B2CClient, error) {
	var model models.B2CClientModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scoped(scope)).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists one page of clients matching the filter
func (r *GormB2CClientRepository) FindAll(ctx context.Context, scope shared.Scope, filter client.B2CListFilter) ([]client.B2CClient, error) {
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.B2CClientModel{}), scope, filter)
	query = query.Order(orderBy(filter.Filter, b2cSortColumns, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return r.find(query)
}

// FindAllUnpaged lists every client matching the filter
func (r *GormB2CClientRepository) FindAllUnpaged(ctx context.Context, scope shared.Scope, filter client.B2CListFilter) ([]client.B2CClient, error) {
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.B2CClientModel{}), scope, filter)
	return r.find(query.Order(orderBy(filter.Filter, b2cSortColumns, "created_at")))
}

// Count counts clients matching the filter
func (r *GormB2CClientRepository) Count(ctx context.Context, scope shared.Scope, filter client.B2CListFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.B2CClientModel{}), scope, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByAssociatedB2B returns every client, archived or not, that refers to the B2B client
func (r *GormB2CClientRepository) FindByAssociatedB2B(ctx context.Context, scope shared.Scope, b2bID uuid.UUID) ([]client.B2CClient, error) {
	query := r.db.WithContext(ctx).
		Model(&models.B2CClientModel{}).
		Scopes(tenant.Scoped(scope)).
		Where("associated_b2b_id = ?", b2bID).
		Order("created_at DESC, id DESC")
	return r.find(query)
}

// CountByAssociatedB2B counts clients, archived or not, that refer to the B2B client
func (r *GormB2CClientRepository) CountByAssociatedB2B(ctx context.Context, scope shared.Scope, b2bID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.B2CClientModel{}).
		Scopes(tenant.Scoped(scope)).
		Where("associated_b2b_id = ?", b2bID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindLatestByPassportNumber returns the newest client holding the passport in any tenant
func (r *GormB2CClientRepository) FindLatestByPassportNumber(ctx context.Context, passportNumber string) (*client.B2CClient, error) {
	var model models.B2CClientModel
	if err := r.db.WithContext(ctx).
		Where("passport_number = ?", passportNumber).
		Order("created_at DESC, id DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByPassportNumber checks if a passport is already registered within scope
func (r *GormB2CClientRepository) ExistsByPassportNumber(ctx context.Context, scope shared.Scope, passportNumber string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.B2CClientModel{}).
		Scopes(tenant.Scoped(scope)).
		Where("passport_number = ?", passportNumber)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts a new client
func (r *GormB2CClientRepository) Save(ctx context.Context, c *client.B2CClient) error {
	model := models.NewB2CClientModelFromDomain(c)
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveWithLock writes every column of the client if the stored version still matches,
// then advances the in-memory version.
// Returns shared.ErrConcurrencyConflict if another writer got there first.
func (r *GormB2CClientRepository) SaveWithLock(ctx context.Context, c *client.B2CClient) error {
	model := models.NewB2CClientModelFromDomain(c)
	model.Version = c.Version + 1
	result := r.db.WithContext(ctx).
		Model(model).
		Where("version = ?", c.Version).
		Select("*").
		Omit("id", "tenant_id", "created_at", "created_by").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	c.IncrementVersion()
	return nil
}

func (r *GormB2CClientRepository) find(query *gorm.DB) ([]client.B2CClient, error) {
	var clientModels []models.B2CClientModel
	if err := query.Find(&clientModels).Error; err != nil {
		return nil, err
	}
	clients := make([]client.B2CClient, len(clientModels))
	for i := range clientModels {
		clients[i] = *clientModels[i].ToDomain()
	}
	return clients, nil
}

// applyFilterWithoutPagination applies scope, archive visibility, search and field filters
func (r *GormB2CClientRepository) applyFilterWithoutPagination(query *gorm.DB, scope shared.Scope, filter client.B2CListFilter) *gorm.DB {
	query = query.Scopes(tenant.Scoped(scope))

	switch {
	case filter.ArchivedOnly:
		query = query.Where("is_archived = ?", true)
	case !filter.IncludeArchived:
		query = query.Where("is_archived = ?", false)
	}

	query = matchAny(query, filter.Search, "name", "email", "passport_number", "phone", "destination")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientType != "" {
		query = query.Where("client_type = ?", filter.ClientType)
	}
	if filter.AssociatedB2BID != nil {
		query = query.Where("associated_b2b_id = ?", *filter.AssociatedB2BID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	return query
}

// Ensure GormB2CClientRepository implements B2CClientRepository
var _ client.B2CClientRepository = (*GormB2CClientRepository)(nil)
