package risk

import "math"

type Inputs struct {
	Equity     float64
	RiskPct    float64 // 0.01
	EntryPrice float64
	StopPrice  float64

	// LotStep rounds the size down to a multiple of itself. Zero means 1.
	LotStep float64
}

type Result struct {
	Units        float64
	StopDistance float64
	RiskAmount   float64
}

// Calculate sizes a position so that hitting the stop loses RiskPct of
// equity.
func Calculate(in Inputs) Result {
	dist := math.Abs(in.EntryPrice - in.StopPrice)
	riskAmt := in.Equity * in.RiskPct
	step := in.LotStep
	if step <= 0 {
		step = 1
	}

	res := Result{StopDistance: dist, RiskAmount: riskAmt}
	if dist == 0 || riskAmt <= 0 || math.IsNaN(dist) {
		return res
	}
	res.Units = math.Floor(riskAmt/dist/step) * step
	return res
}
