package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/barscript/script"
)

func TestChartIndicatorAndStrategy(t *testing.T) {
	t.Parallel()

	c := NewChart(Options{})
	require.NoError(t, c.Add("A", load(t, "counter")))
	require.NoError(t, c.Add("B", load(t, "one-trade")))
	assert.Equal(t, []string{"A", "B"}, c.IDs())

	feed := newMockFeed(candles(3)...)
	var frames []Frame
	for frame, err := range c.All(context.Background(), feed) {
		require.NoError(t, err)
		frames = append(frames, frame)
	}
	require.Len(t, frames, 3)

	for i, f := range frames {
		a, ok := f["A"].(IndicatorResult)
		require.True(t, ok, "bar %d", i)
		assert.Equal(t, i+1, a.Plots["count"])

		b, ok := f["B"].(StrategyResult)
		require.True(t, ok, "bar %d", i)
		assert.Equal(t, script.Strategy, b.Kind())

		// both scripts saw the same bar
		assert.Equal(t, a.Candle, b.Candle)

		if i < 2 {
			assert.Empty(t, b.ClosedTrades, "bar %d", i)
		} else {
			require.Len(t, b.ClosedTrades, 1)
			assert.Equal(t, 1.0, b.ClosedTrades[0].Profit)
		}
	}

	assert.Equal(t, 1, feed.closes)
	assert.False(t, c.Context().Live())
}

func TestChartScriptsKeepSeparateState(t *testing.T) {
	t.Parallel()

	c := NewChart(Options{})
	require.NoError(t, c.Add("", load(t, "counter")))
	require.NoError(t, c.Add("again", load(t, "counter")))
	assert.Equal(t, []string{"counter", "again"}, c.IDs())

	var last Frame
	for frame, err := range c.All(context.Background(), newMockFeed(candles(4)...)) {
		require.NoError(t, err)
		last = frame
	}
	assert.Equal(t, 4, last["counter"].PlotValues()["count"])
	assert.Equal(t, 4, last["again"].PlotValues()["count"])
}

func TestChartDuplicateID(t *testing.T) {
	t.Parallel()

	c := NewChart(Options{})
	require.NoError(t, c.Add("x", load(t, "mid")))
	assert.ErrorIs(t, c.Add("x", load(t, "counter")), ErrDuplicateID)
	assert.ErrorIs(t, c.Add("y", nil), script.ErrNoEntryPoint)
}

func TestChartSharedHandleRejected(t *testing.T) {
	t.Parallel()

	h := load(t, "one-trade")
	c := NewChart(Options{})
	require.NoError(t, c.Add("a", h))
	assert.ErrorIs(t, c.Add("b", h), ErrSharedHandle)
	require.NoError(t, c.Add("b", load(t, "one-trade")))

	closed := map[string]int{}
	for frame, err := range c.All(context.Background(), newMockFeed(candles(3)...)) {
		require.NoError(t, err)
		for id, res := range frame {
			sr, ok := res.(StrategyResult)
			require.True(t, ok)
			closed[id] += len(sr.ClosedTrades)
		}
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, closed)
}

func TestChartLiveFeedMarksEveryBarLast(t *testing.T) {
	t.Parallel()

	c := NewChart(Options{})
	require.NoError(t, c.Add("", load(t, "counter")))

	for frame, err := range c.All(context.Background(), newMockFeed(candles(3)...)) {
		require.NoError(t, err)
		assert.Equal(t, true, frame["counter"].PlotValues()["last"])
	}

	c = NewChart(Options{})
	require.NoError(t, c.Add("", load(t, "counter")))
	i := 0
	for frame, err := range c.All(context.Background(), sizedFeed{newMockFeed(candles(3)...)}) {
		require.NoError(t, err)
		assert.Equal(t, i == 2, frame["counter"].PlotValues()["last"])
		i++
	}
}

func TestChartEarlyStop(t *testing.T) {
	t.Parallel()

	c := NewChart(Options{})
	require.NoError(t, c.Add("", load(t, "counter")))
	feed := newMockFeed(candles(5)...)

	for range c.All(context.Background(), feed) {
		break
	}
	assert.Equal(t, 1, feed.closes)
	assert.False(t, c.Context().Live())

	// a new run starts from clean state
	for frame, err := range c.All(context.Background(), newMockFeed(candles(1)...)) {
		require.NoError(t, err)
		assert.Equal(t, 1, frame["counter"].PlotValues()["count"])
	}
}

func TestChartBadReturn(t *testing.T) {
	t.Parallel()

	c := NewChart(Options{})
	require.NoError(t, c.Add("", load(t, "bad-return")))

	var runErr error
	for _, err := range c.All(context.Background(), newMockFeed(candles(3)...)) {
		if err != nil {
			runErr = err
		}
	}
	assert.ErrorIs(t, runErr, ErrBadReturn)
}
