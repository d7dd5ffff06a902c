package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/fieldservice/backend/internal/infrastructure/config"
	"github.com/fieldservice/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func TestDBTracingConfigFrom(t *testing.T) {
	cfg := telemetry.DBTracingConfigFrom(config.TelemetryConfig{Enabled: true, DBTraceEnabled: true, DBLogFullSQL: true})
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.LogFullSQL)
	assert.Equal(t, "postgresql", cfg.DBSystem)

	cfg = telemetry.DBTracingConfigFrom(config.TelemetryConfig{Enabled: false, DBTraceEnabled: true})
	assert.False(t, cfg.Enabled)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	db := openSQLite(t)

	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{Enabled: false}, zap.New(core))
	require.NoError(t, plugin.Register(db))

	assert.Equal(t, 1, logs.FilterMessage("Database tracing disabled, skipping otelgorm registration").Len())
	assert.Nil(t, db.Callback().Query().Get("otel_timing:after_query"))
}

func TestDBTracingPlugin_RecordsQuerySpans(t *testing.T) {
	sr := setupTestTracer(t)
	db := openSQLite(t)

	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, nil)
	require.NoError(t, plugin.Register(db))

	ctx, parent := telemetry.StartSpan(context.Background(), "bundle.create")
	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "valve"}).Error)
	var got widget
	require.NoError(t, db.WithContext(ctx).First(&got).Error)
	parent.End()

	var dbSpans int
	for _, s := range sr.Ended() {
		if s.Parent().SpanID() == parent.SpanContext().SpanID() {
			dbSpans++
		}
	}
	assert.Equal(t, 2, dbSpans)
}

func TestDBTracingPlugin_DoubleRegistrationFails(t *testing.T) {
	db := openSQLite(t)
	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{Enabled: true}, nil)

	require.NoError(t, plugin.Register(db))
	assert.Error(t, plugin.Register(db))
}

func TestDBMetrics(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	db := openSQLite(t)

	metrics, err := telemetry.NewDBMetrics(mp.Meter("db.client"), time.Hour, nil)
	require.NoError(t, err)
	require.NoError(t, metrics.Register(db))
	t.Cleanup(metrics.Stop)

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "valve"}).Error)
	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "pump"}).Error)
	var all []widget
	require.NoError(t, db.WithContext(ctx).Find(&all).Error)
	var missing widget
	assert.ErrorIs(t, db.WithContext(ctx).First(&missing, 999).Error, gorm.ErrRecordNotFound)

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, rm, "db_query_total", telemetry.AttrDBOperation.String("INSERT")))
	assert.Equal(t, int64(2), sumFor(t, rm, "db_query_total", telemetry.AttrDBOperation.String("SELECT")))
	_, hasErrors := findMetric(rm, "db_query_errors_total")
	assert.False(t, hasErrors, "record not found is not a query error")
	_, hasSlow := findMetric(rm, "db_slow_query_total")
	assert.False(t, hasSlow)

	m, ok := findMetric(rm, "db_pool_connections_max")
	require.True(t, ok)
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(1), gauge.DataPoints[0].Value)

	metrics.Stop()
	metrics.Stop()
}

func TestDBMetrics_RecordQuery(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	metrics, err := telemetry.NewDBMetrics(mp.Meter("db.client"), 100*time.Millisecond, nil)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordQuery(ctx, "UPDATE", "invoices", 250*time.Millisecond, nil)
	metrics.RecordQuery(ctx, "INSERT", "", 300*time.Millisecond, assert.AnError)
	metrics.RecordQuery(ctx, "SELECT", "payments", time.Millisecond, gorm.ErrRecordNotFound)

	rm := collect(t, reader)
	assert.Equal(t, int64(1), sumFor(t, rm, "db_slow_query_total", telemetry.AttrDBTable.String("invoices")))
	assert.Equal(t, int64(1), sumFor(t, rm, "db_slow_query_total", telemetry.AttrDBTable.String("unknown")))
	assert.Equal(t, int64(1), sumFor(t, rm, "db_query_errors_total", telemetry.AttrDBOperation.String("INSERT")))
	assert.Equal(t, int64(0), sumFor(t, rm, "db_query_errors_total", telemetry.AttrDBOperation.String("SELECT")))
}
