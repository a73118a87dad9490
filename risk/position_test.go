package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        Inputs
		wantUnits float64
		wantDist  float64
		wantRisk  float64
	}{
		{
			name:      "long stop below",
			in:        Inputs{Equity: 10000, RiskPct: 0.01, EntryPrice: 100, StopPrice: 98},
			wantUnits: 50, wantDist: 2, wantRisk: 100,
		},
		{
			name:      "short stop above",
			in:        Inputs{Equity: 2000, RiskPct: 0.005, EntryPrice: 1.0, StopPrice: 1.01},
			wantUnits: 1000, wantDist: 0.01, wantRisk: 10,
		},
		{
			name:      "lot step rounds down",
			in:        Inputs{Equity: 10000, RiskPct: 0.01, EntryPrice: 100, StopPrice: 97, LotStep: 10},
			wantUnits: 30, wantDist: 3, wantRisk: 100,
		},
		{
			name:      "zero distance",
			in:        Inputs{Equity: 10000, RiskPct: 0.01, EntryPrice: 100, StopPrice: 100},
			wantUnits: 0, wantDist: 0, wantRisk: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Calculate(tt.in)
			assert.InDelta(t, tt.wantUnits, got.Units, 1.0)
			assert.InDelta(t, tt.wantDist, got.StopDistance, 1e-9)
			assert.InDelta(t, tt.wantRisk, got.RiskAmount, 1e-9)
		})
	}
}

func TestRRAndRiskPct(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2.0, RR(100, 98, 104))
	assert.Equal(t, 0.0, RR(100, 100, 104))
	assert.Equal(t, 0.01, RiskPct(100, 10000))
	assert.True(t, math.IsInf(RiskPct(1, 0), 1))
	assert.Equal(t, 20.0, PlannedRisk(-10, 100, 102))
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	p := Policy{MaxRiskPct: 0.01, MinRR: 1.5, MaxOpenTrades: 1, MaxLossPct: 0.2}
	acct := AccountSnapshot{StartBalance: 10000, Equity: 10000}

	d := Evaluate(p, TradeIntent{Units: 50, Entry: 100, Stop: 98, TakeProfit: 104}, acct)
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Codes())

	d = Evaluate(p, TradeIntent{Units: 100, Entry: 100, Stop: 98, TakeProfit: 101}, AccountSnapshot{
		StartBalance: 10000, Equity: 10000, OpenTrades: 1, NetProfit: -2500,
	})
	assert.False(t, d.Allowed)
	assert.Equal(t, "RISK_TOO_HIGH,RR_TOO_LOW,TOO_MANY_OPEN_TRADES,LOSS_LIMIT", d.Codes())

	d = Evaluate(p, TradeIntent{Units: 1, Entry: 100}, acct)
	assert.Equal(t, "NO_STOP_OR_ENTRY", d.Codes())

	d = Evaluate(Policy{}, TradeIntent{Units: 1e6, Entry: 100, Stop: 1}, acct)
	assert.True(t, d.Allowed)
}
