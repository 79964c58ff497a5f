package logger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		logging config.LoggingConfig
		app     config.AppConfig
	}{
		{"console development", config.LoggingConfig{Level: "debug", Format: "console"}, config.AppConfig{Name: "api", Environment: "development"}},
		{"json production", config.LoggingConfig{Level: "warn", Format: "json"}, config.AppConfig{Name: "api", Environment: "production"}},
		{"invalid level falls back to info", config.LoggingConfig{Level: "loud"}, config.AppConfig{Name: "api"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := logger.NewLogger(&tt.logging, &tt.app)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestWithHelpers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	log := logger.WithLandlord(logger.WithUser(base, "u-1", "anna@example.se"), "l-1")
	log.Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "anna@example.se", fields["user_email"])
	assert.Equal(t, "l-1", fields["landlord_id"])
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gl := logger.NewGormLogger(zap.New(core), 100*time.Millisecond)
	sql := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len(), "not found is not an error")

	gl.Trace(context.Background(), time.Now(), sql, errors.New("syntax error"))
	assert.Equal(t, 1, logs.FilterMessage("query failed").Len())

	gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	assert.Equal(t, 1, logs.FilterMessage("slow query").Len())

	silent := gl.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), sql, errors.New("ignored"))
	assert.Equal(t, 2, logs.Len())
}
