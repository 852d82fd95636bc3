package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormClientStatsProvider reads gauge figures straight from the client tables.
// It reads across tenants and is only used by the metrics collector.
type GormClientStatsProvider struct {
	db *gorm.DB
}

// NewGormClientStatsProvider creates a stats provider on db
func NewGormClientStatsProvider(db *gorm.DB) *GormClientStatsProvider {
	return &GormClientStatsProvider{db: db}
}

// ActiveTenantIDs implements ClientStatsProvider
func (p *GormClientStatsProvider) ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).Raw(
		"SELECT tenant_id FROM b2c_clients UNION SELECT tenant_id FROM b2b_clients",
	).Scan(&ids).Error
	return ids, err
}

// ClientCountsByStatus implements ClientStatsProvider. Archived clients are
// counted under "archived" whatever their status.
func (p *GormClientStatsProvider) ClientCountsByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := p.db.WithContext(ctx).Raw(`
		SELECT CASE WHEN is_archived THEN 'archived' ELSE status END AS status, COUNT(*) AS count
		FROM b2c_clients
		WHERE tenant_id = ?
		GROUP BY 1`, tenantID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// OutstandingDue implements ClientStatsProvider
func (p *GormClientStatsProvider) OutstandingDue(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	var sum struct {
		Total decimal.NullDecimal
	}
	err := p.db.WithContext(ctx).Raw(`
		SELECT SUM(due_amount) AS total FROM (
			SELECT due_amount FROM b2c_clients WHERE tenant_id = ? AND is_archived = ?
			UNION ALL
			SELECT due_amount FROM b2b_clients WHERE tenant_id = ?
		) AS dues`, tenantID, false, tenantID,
	).Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Total.Valid {
		return decimal.Zero, nil
	}
	return sum.Total.Decimal, nil
}

// CompaniesBySubscription implements ClientStatsProvider
func (p *GormClientStatsProvider) CompaniesBySubscription(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		SubscriptionStatus string
		Count              int64
	}
	err := p.db.WithContext(ctx).Raw(
		"SELECT subscription_status, COUNT(*) AS count FROM companies GROUP BY subscription_status",
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.SubscriptionStatus] = row.Count
	}
	return counts, nil
}

var _ ClientStatsProvider = (*GormClientStatsProvider)(nil)
