package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks ledger activity and the state of each tenant's client book.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	ledgerOperationsTotal *Counter
	ledgerNetAmount       *Histogram
	statusCheckTotal      *Counter

	clientCount      *Gauge
	outstandingDue   *FloatGauge
	subscriptionSize *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	statsProvider ClientStatsProvider
}

// ClientStatsProvider supplies point-in-time figures for periodic collection
type ClientStatsProvider interface {
	// ActiveTenantIDs returns every tenant that owns at least one client
	ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
	// ClientCountsByStatus returns the number of B2C clients per status for a tenant
	ClientCountsByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error)
	// OutstandingDue returns the summed due amount of a tenant's B2C and B2B clients
	OutstandingDue(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)
	// CompaniesBySubscription returns the number of companies per subscription status
	CompaniesBySubscription(ctx context.Context) (map[string]int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration
	StatsProvider   ClientStatsProvider
}

// NewBusinessMetrics creates the business instruments on the given meter.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		statsProvider: cfg.StatsProvider,
	}

	var err error
	bm.ledgerOperationsTotal, err = NewCounter(cfg.Meter,
		"agency_ledger_operations_total",
		"Total number of ledger writes",
		"{operations}",
	)
	if err != nil {
		return nil, err
	}

	bm.ledgerNetAmount, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "agency_ledger_net_amount",
		Description: "Net amount (received minus refund) moved by a ledger write",
		Unit:        "{currency}",
		Boundaries:  AmountBuckets,
	})
	if err != nil {
		return nil, err
	}

	bm.statusCheckTotal, err = NewCounter(cfg.Meter,
		"agency_status_check_total",
		"Public visa status lookups",
		"{lookups}",
	)
	if err != nil {
		return nil, err
	}

	bm.clientCount, err = NewGauge(cfg.Meter,
		"agency_clients",
		"Number of B2C clients by status",
		"{clients}",
	)
	if err != nil {
		return nil, err
	}

	bm.outstandingDue, err = NewFloatGauge(cfg.Meter,
		"agency_outstanding_due",
		"Summed due amount across a tenant's clients",
		"{currency}",
	)
	if err != nil {
		return nil, err
	}

	bm.subscriptionSize, err = NewGauge(cfg.Meter,
		"agency_companies",
		"Number of companies by subscription status",
		"{companies}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordLedgerOperation counts one committed ledger write and its net amount.
// operation is record, amend or remove; category is B2B or B2C.
func (bm *BusinessMetrics) RecordLedgerOperation(ctx context.Context, tenantID uuid.UUID, operation, category string, net decimal.Decimal) {
	if bm == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrTenantID.String(tenantID.String()),
		AttrLedgerOperation.String(operation),
		AttrClientType.String(category),
	}
	bm.ledgerOperationsTotal.Inc(ctx, attrs...)
	bm.ledgerNetAmount.Record(ctx, net.Abs().InexactFloat64(), attrs...)
}

// RecordStatusCheck counts a public status lookup, labelled by whether it found a client
func (bm *BusinessMetrics) RecordStatusCheck(ctx context.Context, found bool) {
	if bm == nil {
		return
	}
	status := "not_found"
	if found {
		status = "found"
	}
	bm.statusCheckTotal.Inc(ctx, AttrClientStatus.String(status))
}

// RecordClientCount records the number of clients in one status for a tenant
func (bm *BusinessMetrics) RecordClientCount(ctx context.Context, tenantID uuid.UUID, status string, count int64) {
	bm.clientCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
		AttrClientStatus.String(status),
	)
}

// RecordOutstandingDue records a tenant's summed due amount
func (bm *BusinessMetrics) RecordOutstandingDue(ctx context.Context, tenantID uuid.UUID, due decimal.Decimal) {
	bm.outstandingDue.Record(ctx, due.InexactFloat64(), AttrTenantID.String(tenantID.String()))
}

// StartPeriodicCollection starts collecting the gauges every interval until
// ctx is done or Stop is called. It is non-blocking and runs at most once.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collect(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.collect(ctx)
		}
	}
}

// collect records gauge values for every tenant; a failing tenant is skipped.
func (bm *BusinessMetrics) collect(ctx context.Context) {
	if bm.statsProvider == nil {
		return
	}

	if bySubscription, err := bm.statsProvider.CompaniesBySubscription(ctx); err != nil {
		bm.logger.Warn("Failed to count companies by subscription", zap.Error(err))
	} else {
		for status, count := range bySubscription {
			bm.subscriptionSize.Record(ctx, count, AttrSubscription.String(status))
		}
	}

	tenantIDs, err := bm.statsProvider.ActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		counts, err := bm.statsProvider.ClientCountsByStatus(ctx, tenantID)
		if err != nil {
			bm.logger.Warn("Failed to count clients for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		} else {
			for status, count := range counts {
				bm.RecordClientCount(ctx, tenantID, status, count)
			}
		}

		due, err := bm.statsProvider.OutstandingDue(ctx, tenantID)
		if err != nil {
			bm.logger.Warn("Failed to sum outstanding due for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		bm.RecordOutstandingDue(ctx, tenantID, due)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
