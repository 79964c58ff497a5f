package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a kronor amount cannot be parsed
var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// ParseKronor converts a major-unit amount ("8500", "8 500,50", "8500.5") to öre,
// rounding half away from zero.
func ParseKronor(s string) (int64, error) {
	cleaned := strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(strings.TrimSpace(s))
	cleaned = strings.TrimSuffix(strings.TrimSuffix(cleaned, "kr"), ":-")
	if cleaned == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

// KronorToOre converts a decimal kronor value to öre
func KronorToOre(kr decimal.Decimal) int64 {
	return kr.Mul(hundred).Round(0).IntPart()
}

// FormatKronor renders öre as a two-decimal kronor string ("8500.00")
func FormatKronor(ore int64) string {
	return decimal.New(ore, -2).StringFixed(2)
}
