package providers

import (
	"math"
	"strconv"
)

// ParseMinorUnits parses an upstream's decimal amount string and rounds it
// to the nearest integer in the currency's minor unit, per the quote
// normalization rule: round(value * 100) for two-decimal currencies.
func ParseMinorUnits(decimal string) (int64, error) {
	value, err := strconv.ParseFloat(decimal, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(value * 100)), nil
}
