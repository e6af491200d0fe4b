package venue

import (
	"fmt"
	"strconv"
	"strings"
)

// Decimal parses a wire-level decimal string. The field name only feeds the
// error message.
func Decimal(field, raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return value, nil
}

// OptionalDecimal parses a decimal string, treating empty as zero.
func OptionalDecimal(field, raw string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return Decimal(field, raw)
}

// PositionSideFromString normalizes a venue-reported side string.
func PositionSideFromString(raw string) (PositionSide, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LONG", "BID", "BUY":
		return Long, true
	case "SHORT", "ASK", "SELL":
		return Short, true
	default:
		return "", false
	}
}
