package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/agency/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCompanyRepository implements CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByID finds a company by its ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds companies matching the filter
func (r *GormCompanyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Company, error) {
	var companyModels []models.CompanyModel
	query := r.applySearch(r.db.WithContext(ctx).Model(&models.CompanyModel{}), filter).
		Order(orderBy(filter, companySortColumns, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&companyModels).Error; err != nil {
		return nil, err
	}
	return toCompanies(companyModels), nil
}

// FindBySubscriptionStatus returns every company in one of the given subscription states
func (r *GormCompanyRepository) FindBySubscriptionStatus(ctx context.Context, statuses ...identity.SubscriptionStatus) ([]identity.Company, error) {
	if len(statuses) == 0 {
		return []identity.Company{}, nil
	}
	var companyModels []models.CompanyModel
	if err := r.db.WithContext(ctx).
		Where("subscription_status IN ?", statuses).
		Order("created_at ASC").
		Find(&companyModels).Error; err != nil {
		return nil, err
	}
	return toCompanies(companyModels), nil
}

// Count counts companies matching the filter
func (r *GormCompanyRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.applySearch(r.db.WithContext(ctx).Model(&models.CompanyModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByEmail checks if a company with the email exists
func (r *GormCompanyRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CompanyModel{}).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a company
func (r *GormCompanyRepository) Save(ctx context.Context, company *identity.Company) error {
	model := models.NewCompanyModelFromDomain(company)
	return r.db.WithContext(ctx).Save(model).Error
}

func (r *GormCompanyRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	return matchAny(query, filter.Search, "name", "email")
}

func toCompanies(companyModels []models.CompanyModel) []identity.Company {
	companies := make([]identity.Company, len(companyModels))
	for i := range companyModels {
		companies[i] = *companyModels[i].ToDomain()
	}
	return companies
}

// Ensure GormCompanyRepository implements CompanyRepository
var _ identity.CompanyRepository = (*GormCompanyRepository)(nil)
