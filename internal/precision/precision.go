package precision

import (
	"math"
	"strconv"
	"strings"
)

// Mode selects how a value is snapped onto the increment grid.
type Mode int

const (
	Nearest Mode = iota
	Floor
	Ceil
)

// Round snaps value to a multiple of minIncrement. The quotient is rounded
// per mode, multiplied back, and the result is re-rounded to the decimal
// precision implied by minIncrement itself; the second stage strips the
// trailing digits binary floating point leaves behind when the increment is
// not a power of two. Values are assumed non-negative.
func Round(value, minIncrement float64, mode Mode) float64 {
	if value == 0 {
		return 0
	}
	if minIncrement <= 0 {
		return value
	}
	quotient := value / minIncrement
	var steps float64
	switch mode {
	case Floor:
		steps = math.Floor(quotient)
	case Ceil:
		steps = math.Ceil(quotient)
	default:
		steps = math.Round(quotient)
	}
	return roundToPlaces(steps*minIncrement, DecimalPlaces(minIncrement))
}

// DecimalPlaces reports how many significant fractional digits an increment
// carries, e.g. 0.0010 -> 3, 1.0 -> 0.
func DecimalPlaces(increment float64) int {
	formatted := strconv.FormatFloat(increment, 'f', 10, 64)
	_, frac, ok := strings.Cut(formatted, ".")
	if !ok {
		return 0
	}
	return len(strings.TrimRight(frac, "0"))
}

func roundToPlaces(value float64, places int) float64 {
	if places <= 0 {
		return math.Round(value)
	}
	factor := math.Pow10(places)
	return math.Round(value*factor) / factor
}
