package telemetry

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/agency/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	dbMetricsStartKey queryStartKey = "db_metrics_start"

	defaultSlowQueryThreshold = 200 * time.Millisecond
)

// DBMetricsConfig controls database instruments
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
}

func DBMetricsConfigFromSettings(cfg config.TelemetryConfig) DBMetricsConfig {
	return DBMetricsConfig{
		Enabled:            cfg.Enabled && cfg.MetricsEnabled,
		SlowQueryThreshold: cfg.DBSlowQueryThresh,
	}
}

// DBMetrics counts queries from GORM callbacks and reports connection pool
// gauges whenever the reader collects
type DBMetrics struct {
	queryTotal     *Counter
	queryErrors    *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter

	meter     metric.Meter
	poolOpen  metric.Int64ObservableGauge
	poolMax   metric.Int64ObservableGauge
	slow      time.Duration
	logger    *zap.Logger
	mu        sync.Mutex
	poolWatch metric.Registration
}

// NewDBMetrics creates the query and pool instruments on meter
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQueryThreshold
	}
	m := &DBMetrics{meter: meter, slow: cfg.SlowQueryThreshold, logger: logger}

	var err error
	if m.queryTotal, err = NewCounter(meter, "db_query_total", "Database queries by operation and table", "{query}"); err != nil {
		return nil, err
	}
	if m.queryErrors, err = NewCounter(meter, "db_query_errors_total", "Failed database queries by operation and table", "{query}"); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the slow query threshold", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.poolOpen, err = meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"), metric.WithUnit("{connection}")); err != nil {
		return nil, err
	}
	if m.poolMax, err = meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum number of open connections"), metric.WithUnit("{connection}")); err != nil {
		return nil, err
	}
	return m, nil
}

// ObservePool reports the stats of sqlDB on every collection, replacing any
// pool observed before
func (m *DBMetrics) ObservePool(sqlDB *sql.DB) error {
	reg, err := m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(m.poolMax, int64(stats.MaxOpenConnections))
		o.ObserveInt64(m.poolOpen, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(m.poolOpen, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(m.poolOpen, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		return nil
	}, m.poolOpen, m.poolMax)
	if err != nil {
		return err
	}

	m.mu.Lock()
	prev := m.poolWatch
	m.poolWatch = reg
	m.mu.Unlock()
	if prev != nil {
		return prev.Unregister()
	}
	return nil
}

// Stop detaches the pool callback. Safe on nil and when called repeatedly.
func (m *DBMetrics) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	reg := m.poolWatch
	m.poolWatch = nil
	m.mu.Unlock()
	if reg == nil {
		return
	}
	if err := reg.Unregister(); err != nil {
		m.logger.Warn("Failed to unregister pool metrics", zap.Error(err))
	}
}

// RecordQuery counts one statement. Record-not-found is not an error.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, elapsed time.Duration, err error) {
	op := AttrDBOperation.String(cmp.Or(strings.ToUpper(operation), "UNKNOWN"))
	tbl := AttrDBTable.String(cmp.Or(table, "unknown"))

	m.queryTotal.Inc(ctx, op, tbl)
	m.queryDuration.RecordDuration(ctx, elapsed, op)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		m.queryErrors.Inc(ctx, op, tbl)
	}
	if elapsed > m.slow {
		m.slowQueryTotal.Inc(ctx, tbl)
	}
}

// DBMetricsPlugin feeds DBMetrics from GORM callbacks
type DBMetricsPlugin struct {
	metrics *DBMetrics
}

func NewDBMetricsPlugin(metrics *DBMetrics) *DBMetricsPlugin {
	return &DBMetricsPlugin{metrics: metrics}
}

func (p *DBMetricsPlugin) Name() string { return "db_metrics" }

func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	return registerAroundCallbacks(db, "db_metrics", dbMetricsStartKey, func(db *gorm.DB, verb string, elapsed time.Duration) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		p.metrics.RecordQuery(ctx, verb, db.Statement.Table, elapsed, db.Error)
	})
}

// RegisterDBMetrics installs the metrics plugin on db and observes its pool.
// Disabled metrics return nil, which Stop accepts.
func RegisterDBMetrics(db *gorm.DB, meterProvider *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled || meterProvider == nil || !meterProvider.IsEnabled() {
		logger.Debug("Database metrics disabled")
		return nil, nil
	}

	metrics, err := NewDBMetrics(meterProvider.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := metrics.ObservePool(sqlDB); err != nil {
		return nil, err
	}
	if err := db.Use(NewDBMetricsPlugin(metrics)); err != nil {
		metrics.Stop()
		return nil, err
	}

	logger.Info("Database metrics registered", zap.Duration("slow_query_threshold", metrics.slow))
	return metrics, nil
}
