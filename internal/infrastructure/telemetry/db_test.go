package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/infrastructure/persistence/models"
	"github.com/agency/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTelemetryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.CompanyModel{},
		&models.B2BClientModel{},
		&models.B2CClientModel{},
	))
	return db
}

func b2cRow(tenantID uuid.UUID, status client.Status, due int64, archived bool) *models.B2CClientModel {
	now := time.Now().UTC()
	m := &models.B2CClientModel{
		Name:              "Traveller",
		Email:             "traveller@example.com",
		PassportNumber:    uuid.NewString()[:8],
		Destination:       "Riyadh",
		ClientType:        client.ClientTypeSaudiKuwait,
		Status:            status,
		StatusHistoryJSON: "[]",
		DueAmount:         decimal.NewFromInt(due),
		IsArchived:        archived,
	}
	m.ID = uuid.New()
	m.TenantID = tenantID
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Version = 1
	return m
}

func TestDBMetricsPlugin_RecordsQueries(t *testing.T) {
	db := setupTelemetryTestDB(t)
	reader, provider := newTestMeter(t)

	metrics, err := telemetry.NewDBMetrics(provider.Meter("db.client"), telemetry.DBMetricsConfig{Enabled: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, db.Use(telemetry.NewDBMetricsPlugin(metrics)))

	ctx := context.Background()
	tenantID := uuid.New()
	require.NoError(t, db.WithContext(ctx).Create(b2cRow(tenantID, client.StatusMedical, 100, false)).Error)

	var rows []models.B2CClientModel
	require.NoError(t, db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&rows).Error)

	var missing models.B2CClientModel
	err = db.WithContext(ctx).First(&missing, "id = ?", uuid.New()).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.Error(t, db.WithContext(ctx).Exec("SELECT * FROM no_such_table").Error)

	got := collect(t, reader)
	queries := got["db_query_total"]
	assert.Equal(t, int64(1), sumFor(t, queries, telemetry.AttrDBOperation, "INSERT"))
	assert.GreaterOrEqual(t, sumFor(t, queries, telemetry.AttrDBOperation, "SELECT"), int64(3))
	assert.GreaterOrEqual(t, sumFor(t, queries, telemetry.AttrDBTable, "b2c_clients"), int64(3))

	errs, ok := got["db_query_errors_total"]
	require.True(t, ok, "the failed raw statement is counted")
	assert.Equal(t, int64(0), sumFor(t, errs, telemetry.AttrDBTable, "b2c_clients"), "record not found is not an error")

	_, ok = got["db_query_duration_seconds"]
	assert.True(t, ok)
}

func TestDBMetrics_ObservePool(t *testing.T) {
	db := setupTelemetryTestDB(t)
	reader, provider := newTestMeter(t)

	metrics, err := telemetry.NewDBMetrics(provider.Meter("db.client"), telemetry.DBMetricsConfig{Enabled: true}, nil)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, metrics.ObservePool(sqlDB))
	require.NoError(t, metrics.ObservePool(sqlDB), "observing again replaces the callback")

	maxConns, ok := collect(t, reader)["db_pool_connections_max"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, maxConns.DataPoints, 1)
	assert.Equal(t, int64(1), maxConns.DataPoints[0].Value)

	states, ok := collect(t, reader)["db_pool_connections"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Len(t, states.DataPoints, 3)

	metrics.Stop()
	metrics.Stop()
}

func TestRegisterDBMetrics_Disabled(t *testing.T) {
	db := setupTelemetryTestDB(t)

	metrics, err := telemetry.RegisterDBMetrics(db, nil, telemetry.DBMetricsConfig{Enabled: true}, nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)
	assert.NotPanics(t, metrics.Stop)

	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{}, nil)
	require.NoError(t, err)
	metrics, err = telemetry.RegisterDBMetrics(db, mp, telemetry.DBMetricsConfig{Enabled: true}, nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)
}

func TestDBTracingPlugin(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		db := setupTelemetryTestDB(t)
		recorder := installSpanRecorder(t)

		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{Enabled: false}, zaptest.NewLogger(t))
		require.NoError(t, plugin.Register(db))

		var count int64
		require.NoError(t, db.Model(&models.CompanyModel{}).Count(&count).Error)
		assert.Empty(t, recorder.Ended())
	})

	t.Run("enabled emits a span per statement", func(t *testing.T) {
		db := setupTelemetryTestDB(t)
		recorder := installSpanRecorder(t)

		cfg := telemetry.DefaultDBTracingConfig()
		cfg.Enabled = true
		cfg.DBSystem = "sqlite"
		require.NoError(t, telemetry.NewDBTracingPlugin(cfg, nil).Register(db))

		ctx, parent := telemetry.StartSpan(context.Background(), "ledger.list")
		var rows []models.B2CClientModel
		require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
		parent.End()

		ended := recorder.Ended()
		require.GreaterOrEqual(t, len(ended), 2)
		var child bool
		for _, span := range ended {
			if span.Parent().SpanID() == parent.SpanContext().SpanID() {
				child = true
			}
		}
		assert.True(t, child, "query span is a child of the service span")
	})
}

func TestGormClientStatsProvider(t *testing.T) {
	db := setupTelemetryTestDB(t)
	stats := telemetry.NewGormClientStatsProvider(db)
	ctx := context.Background()

	tenantA, tenantB := uuid.New(), uuid.New()
	for _, row := range []*models.B2CClientModel{
		b2cRow(tenantA, client.StatusMedical, 200, false),
		b2cRow(tenantA, client.StatusMedical, 300, false),
		b2cRow(tenantA, client.StatusCompleted, 0, false),
		b2cRow(tenantA, client.StatusMedical, 999, true),
		b2cRow(tenantB, client.StatusMofa, 50, false),
	} {
		require.NoError(t, db.Create(row).Error)
	}

	b2b := &models.B2BClientModel{
		Name:         "Gulf Partners",
		NameKey:      "gulf partners",
		Email:        "b2b@example.com",
		BusinessType: "agency",
		DueAmount:    decimal.NewFromInt(1000),
	}
	b2b.ID = uuid.New()
	b2b.TenantID = tenantA
	b2b.CreatedAt = time.Now().UTC()
	b2b.UpdatedAt = b2b.CreatedAt
	require.NoError(t, db.Create(b2b).Error)

	company, err := identity.NewCompany("Desert Travel", "ops@desert.example", identity.DefaultTrialDays)
	require.NoError(t, err)
	require.NoError(t, db.Create(models.NewCompanyModelFromDomain(company)).Error)

	t.Run("active tenants", func(t *testing.T) {
		ids, err := stats.ActiveTenantIDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{tenantA, tenantB}, ids)
	})

	t.Run("counts by status with archived bucket", func(t *testing.T) {
		counts, err := stats.ClientCountsByStatus(ctx, tenantA)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"medical": 2, "completed": 1, "archived": 1}, counts)
	})

	t.Run("outstanding due excludes archived B2C clients", func(t *testing.T) {
		due, err := stats.OutstandingDue(ctx, tenantA)
		require.NoError(t, err)
		assert.True(t, due.Equal(decimal.NewFromInt(1500)), due.String())

		none, err := stats.OutstandingDue(ctx, uuid.New())
		require.NoError(t, err)
		assert.True(t, none.IsZero())
	})

	t.Run("companies by subscription", func(t *testing.T) {
		counts, err := stats.CompaniesBySubscription(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"trial": 1}, counts)
	})
}
