package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/database"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDatabase_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}

	db, err := database.NewDatabase(cfg, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&domain.RentInvoice{}))
	assert.True(t, db.Migrator().HasIndex(&domain.RentInvoice{}, "idx_rent_invoices_lease_period"))

	stats, err := database.HealthCheckWithStats(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := database.NewDatabase(&config.DatabaseConfig{Driver: "mysql"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:app.db?_foreign_keys=on&_busy_timeout=5000", database.SQLiteDSN("app.db"))
}
