// Package bar holds the shared view of the bar currently being executed.
package bar

import (
	"time"

	"github.com/rustyeddy/barscript/market"
)

// Context is the per-session view of the current bar. It has exactly one
// writer (the runner, through Advance and Scrub); scripts only read it while
// it is lent to them for their turn.
type Context struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	HL2   float64
	HLC3  float64
	OHLC4 float64
	HLCC4 float64

	// Local is the bar open time in the session timezone.
	Local time.Time
	// TimeMs is the bar open time in unix milliseconds.
	TimeMs int64

	BarIndex     int
	LastBarIndex int
	IsFirst      bool
	IsLast       bool

	// LibraryPass is set while library entry points run.
	LibraryPass bool

	candle market.Candle
}

// New returns a scrubbed context.
func New() *Context {
	c := &Context{}
	c.Scrub()
	return c
}

// Advance loads candle as bar barIndex. All derived fields are computed
// before anything is stored, so no reader ever sees a mix of two bars.
func (c *Context) Advance(candle market.Candle, barIndex, lastBarIndex int, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	local := time.Unix(candle.Timestamp, 0).In(loc)

	*c = Context{
		Open:   candle.Open,
		High:   candle.High,
		Low:    candle.Low,
		Close:  candle.Close,
		Volume: candle.Volume,

		HL2:   (candle.High + candle.Low) / 2.0,
		HLC3:  (candle.High + candle.Low + candle.Close) / 3.0,
		OHLC4: (candle.Open + candle.High + candle.Low + candle.Close) / 4.0,
		HLCC4: (candle.High + candle.Low + 2*candle.Close) / 4.0,

		Local:  local,
		TimeMs: local.UnixMilli(),

		BarIndex:     barIndex,
		LastBarIndex: lastBarIndex,
		IsFirst:      barIndex == 0,
		IsLast:       barIndex == lastBarIndex,

		candle: candle,
	}
}

// Scrub replaces every price field with market.NA so that nothing running
// between two bars can read stale values as live ones.
func (c *Context) Scrub() {
	idx, last := c.BarIndex, c.LastBarIndex
	*c = Context{
		Open:   market.NA,
		High:   market.NA,
		Low:    market.NA,
		Close:  market.NA,
		Volume: market.NA,
		HL2:    market.NA,
		HLC3:   market.NA,
		OHLC4:  market.NA,
		HLCC4:  market.NA,

		Local: time.Unix(0, 0).UTC(),

		BarIndex:     idx,
		LastBarIndex: last,
		IsFirst:      true,
	}
}

// Live reports whether the context currently holds a bar.
func (c *Context) Live() bool { return !market.IsNA(c.Close) }

// Candle returns the candle loaded by the last Advance.
func (c *Context) Candle() market.Candle { return c.candle }

// Source returns a price field by its script-facing name (open, high, low,
// close, volume, hl2, hlc3, ohlc4, hlcc4).
func (c *Context) Source(name string) (float64, bool) {
	switch name {
	case "open":
		return c.Open, true
	case "high":
		return c.High, true
	case "low":
		return c.Low, true
	case "close":
		return c.Close, true
	case "volume":
		return c.Volume, true
	case "hl2":
		return c.HL2, true
	case "hlc3":
		return c.HLC3, true
	case "ohlc4":
		return c.OHLC4, true
	case "hlcc4":
		return c.HLCC4, true
	}
	return market.NA, false
}
