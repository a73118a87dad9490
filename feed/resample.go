package feed

import (
	"math"

	"github.com/rustyeddy/barscript/market"
)

// Resample aggregates a source feed into candles of a larger timeframe.
// Buckets are aligned to multiples of the timeframe since the unix epoch.
type Resample struct {
	src     Feed
	tf      int64
	minBars int

	pending market.Candle
	count   int
	done    bool
}

// NewResample wraps src. Buckets built from fewer than minBars source
// candles are dropped; values below 1 keep every non-empty bucket.
func NewResample(src Feed, tf int64, minBars int) *Resample {
	return &Resample{src: src, tf: tf, minBars: max(minBars, 1)}
}

func (r *Resample) bucket(ts int64) int64 {
	return ts - ((ts%r.tf)+r.tf)%r.tf
}

func (r *Resample) Next() (market.Candle, bool, error) {
	for !r.done {
		c, ok, err := r.src.Next()
		if err != nil {
			return market.Candle{}, false, err
		}
		if !ok {
			r.done = true
			break
		}

		b := r.bucket(c.Timestamp)
		if r.count > 0 && b != r.pending.Timestamp {
			out, n := r.pending, r.count
			r.start(c, b)
			if n >= r.minBars {
				return out, true, nil
			}
			continue
		}
		if r.count == 0 {
			r.start(c, b)
			continue
		}
		r.merge(c)
	}

	if r.count >= r.minBars {
		out := r.pending
		r.count = 0
		return out, true, nil
	}
	r.count = 0
	return market.Candle{}, false, nil
}

func (r *Resample) start(c market.Candle, bucket int64) {
	r.pending = c
	r.pending.Timestamp = bucket
	r.count = 1
}

func (r *Resample) merge(c market.Candle) {
	p := &r.pending
	p.High = math.Max(p.High, c.High)
	p.Low = math.Min(p.Low, c.Low)
	p.Close = c.Close
	p.Volume += c.Volume
	p.Extra = c.Extra
	r.count++
}

func (r *Resample) Close() error { return r.src.Close() }
