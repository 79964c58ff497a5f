package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/miniforvaltaren/api/internal/auth"
	"gorm.io/gorm"
)

// intakeTokenBytes gives 256 bits of entropy per public report link
const intakeTokenBytes = 32

// notFoundOr maps gorm.ErrRecordNotFound to ErrNotFound and wraps anything else
func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func newIntakeToken() (string, error) {
	buf := make([]byte, intakeTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate intake token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func invalidateViewer(ctx context.Context) {
	auth.ViewerCacheFromContext(ctx).Invalidate()
}

// optionalString trims s and turns blanks into nil
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// parseDate reads a YYYY-MM-DD field as local midnight in loc
func parseDate(field, value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, NewValidationError(field, "Ogiltigt datum")
	}
	return t, nil
}

// clock is embedded by services that read the wall clock, so tests can pin it
type clock struct {
	now func() time.Time
}

// SetClock replaces the time source
func (c *clock) SetClock(now func() time.Time) {
	c.now = now
}

func (c *clock) current() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}
