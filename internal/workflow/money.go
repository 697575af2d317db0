package workflow

import "math"

// Currency amounts are DECIMAL(15,2) in the store and compared on integer
// cents, never by float equality. The workflow tolerance is one cent of
// absolute difference.

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// AmountsMatch reports whether a and b are within 0.01 of each other.
func AmountsMatch(a, b float64) bool {
	diff := toCents(a) - toCents(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}
