package domain_test

import (
	"testing"
	"time"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKronor(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{"8500", 850000, false},
		{"8500.5", 850050, false},
		{"8 500,50", 850050, false},
		{"8 500", 850000, false},
		{"12,345", 1235, false},
		{"0.005", 1, false},
		{"8500kr", 850000, false},
		{"8500:-", 850000, false},
		{"", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := domain.ParseKronor(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormatKronor(t *testing.T) {
	assert.Equal(t, "8500.00", domain.FormatKronor(850000))
	assert.Equal(t, "0.05", domain.FormatKronor(5))
	assert.Equal(t, "-12.30", domain.FormatKronor(-1230))
}

// =============================================================================
// Periods and month windows
// =============================================================================

func stockholm(t *testing.T) *time.Location {
	t.Helper()
	loc, err := domain.LoadLocation("")
	require.NoError(t, err)
	return loc
}

func TestMonthWindow(t *testing.T) {
	loc := stockholm(t)

	t.Run("march spans the spring DST change", func(t *testing.T) {
		now := time.Date(2024, 3, 15, 10, 0, 0, 0, loc)
		start, end := domain.MonthWindow(now, loc)

		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), start)
		assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, 999_000_000, loc), end)
		// 31 days minus the lost hour
		assert.Equal(t, 31*24*time.Hour-time.Hour-time.Millisecond, end.Sub(start))
	})

	t.Run("october spans the autumn DST change", func(t *testing.T) {
		now := time.Date(2024, 10, 31, 23, 30, 0, 0, loc)
		start, end := domain.MonthWindow(now, loc)

		assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, loc), start)
		assert.Equal(t, 31*24*time.Hour+time.Hour-time.Millisecond, end.Sub(start))
	})

	t.Run("utc instant late on the last day belongs to the next local month", func(t *testing.T) {
		// 2024-01-31 23:30 UTC is 2024-02-01 00:30 in Stockholm
		now := time.Date(2024, 1, 31, 23, 30, 0, 0, time.UTC)
		start, _ := domain.MonthWindow(now, loc)
		assert.Equal(t, time.February, start.Month())
	})

	t.Run("leap february", func(t *testing.T) {
		_, end := domain.MonthWindow(time.Date(2024, 2, 10, 0, 0, 0, 0, loc), loc)
		assert.Equal(t, 29, end.Day())
	})
}

func TestDueDateFor(t *testing.T) {
	loc := stockholm(t)

	for day := domain.MinDueDay; day <= domain.MaxDueDay; day++ {
		due, err := domain.DueDateFor(2023, time.February, day, loc)
		require.NoError(t, err)
		assert.Equal(t, time.February, due.Month(), "day %d", day)
		assert.Equal(t, day, due.Day())
	}

	_, err := domain.DueDateFor(2024, time.January, 29, loc)
	assert.ErrorIs(t, err, domain.ErrInvalidDueDay)

	_, err = domain.DueDateFor(2024, time.January, 0, loc)
	assert.ErrorIs(t, err, domain.ErrInvalidDueDay)
}

func TestPeriodOf(t *testing.T) {
	loc := stockholm(t)

	year, month := domain.PeriodOf(time.Date(2024, 5, 27, 0, 0, 0, 0, loc), loc)
	assert.Equal(t, 2024, year)
	assert.Equal(t, 5, month)

	// midnight local on Jan 1 is still Dec 31 in UTC
	year, month = domain.PeriodOf(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 1, month)
}
