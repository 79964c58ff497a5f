package logger

import (
	"fmt"
	"strings"

	"github.com/miniforvaltaren/api/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. JSON is used in production or when
// asked for; everything else gets the colored console encoder.
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if strings.EqualFold(cfg.Format, "json") || appCfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "timestamp"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
	}

	logger, err := zapCfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger, nil
}

// WithUser adds the authenticated principal to logger
func WithUser(logger *zap.Logger, userID, email string) *zap.Logger {
	return logger.With(
		zap.String("user_id", userID),
		zap.String("user_email", email),
	)
}

// WithLandlord adds the tenant scope to logger
func WithLandlord(logger *zap.Logger, landlordID string) *zap.Logger {
	return logger.With(zap.String("landlord_id", landlordID))
}
