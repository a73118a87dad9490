package journal

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundPercent rounds a percent value half away from zero to two places.
func RoundPercent(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// FormatPercent renders a percent value with exactly two decimals.
func FormatPercent(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 0) {
		if v > 0 {
			return "+Inf"
		}
		return "-Inf"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}
