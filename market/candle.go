package market

import (
	"math"
	"time"
)

// Field is one named extra column carried by a candle (for example a
// funding rate or open interest column read from the source file).
type Field struct {
	Name  string
	Value any
}

// Candle represents one OHLCV bar. Candles are produced by a feed and are
// never mutated once handed to the engine.
type Candle struct {
	Timestamp int64 // unix seconds, UTC
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64

	// Extra holds optional source columns in file order.
	Extra []Field
}

// Time returns the candle open time in UTC.
func (c Candle) Time() time.Time {
	return time.Unix(c.Timestamp, 0).UTC()
}

// ExtraValue looks up an extra field by name.
func (c Candle) ExtraValue(name string) (any, bool) {
	for _, f := range c.Extra {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// NA is the "not available" value. It is NaN so that it can never be
// mistaken for a real price of zero.
var NA = math.NaN()

// IsNA reports whether v is the NA sentinel.
func IsNA(v float64) bool {
	return math.IsNaN(v)
}

// NZ returns v, or def when v is NA.
func NZ(v, def float64) float64 {
	if IsNA(v) {
		return def
	}
	return v
}
