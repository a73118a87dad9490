package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/barscript/market"
)

func closes() []float64 {
	return []float64{102, 105, 106, 108, 110, 111, 113, 114, 116, 118}
}

func TestMA(t *testing.T) {
	ma, err := MA(closes(), 5)
	assert.NoError(t, err)
	// Last 5 closes: 111,113,114,116,118 => 572/5 = 114.4
	assert.InDelta(t, 114.4, ma, 0.001)

	_, err = MA(closes(), 0)
	assert.Error(t, err)
	_, err = MA(closes()[:2], 5)
	assert.Error(t, err)
}

func TestEMAMatchesStreaming(t *testing.T) {
	batch, err := EMA(closes(), 5)
	require.NoError(t, err)

	e := NewEMA(5)
	var v float64
	for _, c := range closes() {
		v = e.Update(c)
	}
	assert.InDelta(t, batch, v, 1e-9)
	assert.Equal(t, "EMA(5)", e.Name())
}

func TestSimpleMAStreaming(t *testing.T) {
	ma := NewMA(3)
	assert.Equal(t, "MA(3)", ma.Name())
	assert.Equal(t, 3, ma.Warmup())
	assert.True(t, market.IsNA(ma.Value()))

	ma.Update(102)
	ma.Update(105)
	assert.False(t, ma.Ready())

	assert.InDelta(t, (102.0+105.0+106.0)/3.0, ma.Update(106), 0.001)
	assert.InDelta(t, (105.0+106.0+108.0)/3.0, ma.Update(108), 0.001)

	// NA input is ignored
	assert.InDelta(t, (105.0+106.0+108.0)/3.0, ma.Update(market.NA), 0.001)

	ma.Reset()
	assert.False(t, ma.Ready())
	assert.True(t, market.IsNA(ma.Value()))
}

func TestRMA(t *testing.T) {
	r := NewRMA(2)
	r.Update(2)
	assert.Equal(t, 3.0, r.Update(4))
	// 3 + (5-3)/2
	assert.Equal(t, 4.0, r.Update(5))
}

func TestTrueRange(t *testing.T) {
	assert.Equal(t, 10.0, TrueRange(110, 100, 104))
	assert.Equal(t, 12.0, TrueRange(110, 100, 112))
	assert.Equal(t, 10.0, TrueRange(110, 100, market.NA))
}

func TestATR(t *testing.T) {
	candles := []market.Candle{
		{High: 10, Low: 8, Close: 9},
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 10, Close: 11},
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 10, Close: 11},
		{High: 13, Low: 11, Close: 12},
	}
	atr, err := ATRFunc(candles, 3)
	assert.NoError(t, err)
	assert.InDelta(t, 2.0, atr, 1e-9)

	a := NewATR(3)
	assert.Equal(t, 4, a.Warmup())
	a.Update(10, 8, 9)
	assert.Equal(t, 2.0, a.TR())
	assert.False(t, a.Ready())

	_, err = ATRFunc(candles[:2], 3)
	assert.Error(t, err)
}

func TestADXWarmup(t *testing.T) {
	a := NewADX(3)
	assert.Equal(t, "ADX(3)", a.Name())

	highs := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	var v float64
	for i, h := range highs {
		v = a.Update(h, h-2, h-1)
		if i+1 < a.Warmup() {
			assert.False(t, a.Ready(), "bar %d", i)
		}
	}
	require.True(t, a.Ready())
	// a steady uptrend has no -DM, so DX and ADX are 100
	assert.InDelta(t, 100.0, v, 1e-9)

	plus, minus := a.DI()
	assert.Greater(t, plus, minus)

	a.Reset()
	assert.False(t, a.Ready())
	assert.True(t, market.IsNA(a.Value()))
}
