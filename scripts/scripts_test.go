package scripts

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/barscript/engine"
	"github.com/rustyeddy/barscript/feed"
	"github.com/rustyeddy/barscript/market"
	"github.com/rustyeddy/barscript/script"
)

func run(t *testing.T, name string, inputs script.Inputs, candles []market.Candle) []engine.Result {
	t.Helper()

	h, err := script.Load(name, inputs, script.Options{})
	require.NoError(t, err)
	s, err := engine.NewSession(h, engine.Options{}, engine.Sinks{})
	require.NoError(t, err)

	var out []engine.Result
	for res, err := range s.All(context.Background(), feed.NewSlice(candles...)) {
		require.NoError(t, err)
		out = append(out, res)
	}
	require.Len(t, out, len(candles))
	return out
}

func series(n int, closeAt func(i int) float64) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		c := closeAt(i)
		out[i] = market.Candle{Timestamp: int64(i) * 3600, Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 100}
	}
	return out
}

func TestBundledScriptsRegistered(t *testing.T) {
	names := script.Default().List()
	for _, want := range []string{"ema-demo", "vstop", "dmi", "hl2-lib", "sma-cross"} {
		assert.Contains(t, names, want)
	}
}

func TestEMADemoFlatSeries(t *testing.T) {
	res := run(t, "ema-demo", nil, series(60, func(int) float64 { return 50 }))

	first := res[0].PlotValues()
	assert.True(t, market.IsNA(first["Fast EMA"].(float64)))
	assert.True(t, market.IsNA(first["Slow EMA"].(float64)))

	last := res[len(res)-1].PlotValues()
	assert.InDelta(t, 50.0, last["Fast EMA"], 1e-9)
	assert.InDelta(t, 50.0, last["Slow EMA"], 1e-9)
}

func TestEMADemoSource(t *testing.T) {
	res := run(t, "ema-demo", script.Inputs{"src": "high", "fast_length": 2}, series(10, func(int) float64 { return 50 }))
	assert.InDelta(t, 51.0, res[9].PlotValues()["Fast EMA"], 1e-9)
}

func TestVStopUptrend(t *testing.T) {
	bars := series(80, func(i int) float64 { return 100 + float64(i) })
	res := run(t, "vstop", nil, bars)

	for i, r := range res {
		p := r.PlotValues()
		assert.Equal(t, true, p["uptrend"], "bar %d", i)
		assert.LessOrEqual(t, p["Volatility Stop"].(float64), bars[i].Close, "bar %d", i)
	}
	assert.Equal(t, 100.0, res[0].PlotValues()["Volatility Stop"])
}

func TestVStopFlipsOnReversal(t *testing.T) {
	bars := series(80, func(i int) float64 {
		if i < 40 {
			return 100 + float64(i)
		}
		return 140 - 3*float64(i-40)
	})
	res := run(t, "vstop", nil, bars)

	assert.Equal(t, false, res[len(res)-1].PlotValues()["uptrend"])
	assert.Greater(t, res[len(res)-1].PlotValues()["Volatility Stop"].(float64), bars[len(bars)-1].Close)
}

func TestDMIUptrend(t *testing.T) {
	res := run(t, "dmi", nil, series(60, func(i int) float64 { return 100 + float64(i) }))

	assert.True(t, market.IsNA(res[0].PlotValues()["ADX"].(float64)))
	last := res[len(res)-1].PlotValues()
	assert.InDelta(t, 100.0, last["ADX"], 1e-6)
	assert.InDelta(t, 0.0, last["-DI"], 1e-9)
}

func TestSMACrossTrades(t *testing.T) {
	bars := series(400, func(i int) float64 { return 100 + 10*math.Sin(float64(i)/8) })
	res := run(t, "sma-cross", nil, bars)

	trades := 0
	for _, r := range res {
		sr, ok := r.(engine.StrategyResult)
		require.True(t, ok)
		trades += len(sr.ClosedTrades)
		for _, tr := range sr.ClosedTrades {
			assert.NotZero(t, tr.Size)
		}
	}
	assert.Positive(t, trades)

	last := res[len(res)-1].PlotValues()
	assert.Contains(t, last, "hl2_ma")
	assert.Contains(t, last, "equity")
	assert.Equal(t, 0, last["rejected"])
}
