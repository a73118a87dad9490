// Package feed provides candle feeds: in-memory slices, CSV files (plain or
// compressed) and Parquet bar files.
package feed

import (
	"time"

	"github.com/rustyeddy/barscript/market"
)

// Feed yields candles in timestamp order. Implementations return
// (ok=false, err=nil) at the end of the data.
type Feed interface {
	Next() (c market.Candle, ok bool, err error)
	Close() error
}

// Slice is a finite in-memory feed.
type Slice struct {
	candles []market.Candle
	index   int
}

// NewSlice returns a feed over candles.
func NewSlice(candles ...market.Candle) *Slice {
	return &Slice{candles: candles}
}

func (s *Slice) Next() (market.Candle, bool, error) {
	if s.index >= len(s.candles) {
		return market.Candle{}, false, nil
	}
	c := s.candles[s.index]
	s.index++
	return c, true, nil
}

func (s *Slice) Close() error { return nil }

// Len is the total number of candles.
func (s *Slice) Len() int { return len(s.candles) }

// ReadAll drains f and closes it.
func ReadAll(f Feed) ([]market.Candle, error) {
	defer f.Close()

	var out []market.Candle
	for {
		c, ok, err := f.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, c)
	}
}

// Range limits a feed to candles opening in [From, To). Zero bounds are
// open.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) contains(ts int64) bool {
	t := time.Unix(ts, 0)
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}
