// Package risk sizes strategy entries and vets them against a risk policy.
package risk

import "math"

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// PlannedRisk is the absolute loss in account currency if stop is hit.
func PlannedRisk(units, entry, stop float64) float64 {
	return abs(units) * abs(entry-stop)
}

// RR is the reward to risk ratio of a planned trade.
func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// RiskPct is planned risk as a fraction of equity.
func RiskPct(plannedRisk, equity float64) float64 {
	if equity <= 0 {
		return math.Inf(1)
	}
	return plannedRisk / equity
}
