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

// GormB2BClientRepository implements B2BClientRepository using GORM
type GormB2BClientRepository struct {
	db *gorm.DB
}

// NewGormB2BClientRepository creates a new GormB2BClientRepository
func NewGormB2BClientRepository(db *gorm.DB) *GormB2BClientRepository {
	return &GormB2BClientRepository{db: db}
}

// FindByID finds a client by ID within scope
func (r *GormB2BClientRepository) FindByID(ctx context.Context, scope shared.Scope, id uuid.UUID) (*client.B2BClient, error) {
	var model models.B2BClientModel
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
func (r *GormB2BClientRepository) FindAll(ctx context.Context, scope shared.Scope, filter client.B2BListFilter) ([]client.B2BClient, error) {
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.B2BClientModel{}), scope, filter)
	query = query.Order(orderBy(filter.Filter, b2bSortColumns, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return r.find(query)
}

// FindAllUnpaged lists every client matching the filter
func (r *GormB2BClientRepository) FindAllUnpaged(ctx context.Context, scope shared.Scope, filter client.B2BListFilter) ([]client.B2BClient, error) {
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.B2BClientModel{}), scope, filter)
	return r.find(query.Order(orderBy(filter.Filter, b2bSortColumns, "created_at")))
}

// Count counts clients matching the filter
func (r *GormB2BClientRepository) Count(ctx context.Context, scope shared.Scope, filter client.B2BListFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.B2BClientModel{}), scope, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByName checks if a business name is taken inside the tenant, ignoring case and spacing
func (r *GormB2BClientRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.B2BClientModel{}).
		Scopes(tenant.ForTenant(tenantID)).
		Where("name_key = ?", client.BusinessNameKey(name))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts a new client
func (r *GormB2BClientRepository) Save(ctx context.Context, c *client.B2BClient) error {
	model := models.NewB2BClientModelFromDomain(c)
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveWithLock writes every column of the client if the stored version still matches,
// then advances the in-memory version
func (r *GormB2BClientRepository) SaveWithLock(ctx context.Context, c *client.B2BClient) error {
	model := models.NewB2BClientModelFromDomain(c)
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

// Delete removes a client within scope
func (r *GormB2BClientRepository) Delete(ctx context.Context, scope shared.Scope, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(tenant.Scoped(scope)).
		Delete(&models.B2BClientModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormB2BClientRepository) find(query *gorm.DB) ([]client.B2BClient, error) {
	var clientModels []models.B2BClientModel
	if err := query.Find(&clientModels).Error; err != nil {
		return nil, err
	}
	clients := make([]client.B2BClient, len(clientModels))
	for i := range clientModels {
		clients[i] = *clientModels[i].ToDomain()
	}
	return clients, nil
}

// applyFilterWithoutPagination applies scope, search and creation window
func (r *GormB2BClientRepository) applyFilterWithoutPagination(query *gorm.DB, scope shared.Scope, filter client.B2BListFilter) *gorm.DB {
	query = query.Scopes(tenant.Scoped(scope))

	query = matchAny(query, filter.Search, "name", "email", "phone", "business_type")
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	return query
}

// Ensure GormB2BClientRepository implements B2BClientRepository
var _ client.B2BClientRepository = (*GormB2BClientRepository)(nil)
