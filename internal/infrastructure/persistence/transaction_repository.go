package persistence

import (
	"context"
	"errors"

	"github.com/agency/backend/internal/domain/ledger"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/agency/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTransactionRepository implements ledger.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByClient lists a client's transactions, by default newest first
func (r *GormTransactionRepository) FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]ledger.Transaction, error) {
	var txModels []models.TransactionModel
	query := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order(orderBy(filter, transactionSortColumns, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&txModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]ledger.Transaction, len(txModels))
	for i := range txModels {
		transactions[i] = *txModels[i].ToDomain()
	}
	return transactions, nil
}

// CountByClient counts a client's transactions
func (r *GormTransactionRepository) CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("client_id = ?", clientID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumNetByClient sums received minus refund over a client's transactions
func (r *GormTransactionRepository) SumNetByClient(ctx context.Context, clientID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Net decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("SUM(received_amount - refund_amount) AS net").
		Where("client_id = ?", clientID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	if !result.Net.Valid {
		return decimal.Zero, nil
	}
	return result.Net.Decimal, nil
}

// Save inserts or updates a transaction
func (r *GormTransactionRepository) Save(ctx context.Context, tx *ledger.Transaction) error {
	model := models.NewTransactionModelFromDomain(tx)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a transaction
func (r *GormTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.TransactionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)
