package indicators

import (
	"fmt"

	"github.com/rustyeddy/barscript/market"
)

// SimpleMA is a streaming Simple Moving Average.
type SimpleMA struct {
	period int
	values []float64
	sum    float64
}

// NewMA creates a Simple Moving Average with the given period.
func NewMA(period int) *SimpleMA {
	return &SimpleMA{
		period: period,
		values: make([]float64, 0, period),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("MA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int {
	return m.period
}

func (m *SimpleMA) Reset() {
	m.values = m.values[:0]
	m.sum = 0
}

// Update adds v. NA values are skipped.
func (m *SimpleMA) Update(v float64) float64 {
	if market.IsNA(v) {
		return m.Value()
	}
	m.values = append(m.values, v)
	m.sum += v
	// Keep only the last 'period' values
	if len(m.values) > m.period {
		m.sum -= m.values[0]
		m.values = m.values[1:]
	}
	return m.Value()
}

func (m *SimpleMA) Ready() bool {
	return m.period > 0 && len(m.values) >= m.period
}

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return market.NA
	}
	return m.sum / float64(len(m.values))
}

// ExponentialMA is a streaming Exponential Moving Average seeded with the SMA
// of its first period values.
type ExponentialMA struct {
	period     int
	multiplier float64
	ema        float64
	count      int
	warmupSum  float64
}

// NewEMA creates an Exponential Moving Average with the given period.
func NewEMA(period int) *ExponentialMA {
	return &ExponentialMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

// NewRMA creates Wilder's moving average (alpha = 1/period).
func NewRMA(period int) *ExponentialMA {
	return &ExponentialMA{
		period:     period,
		multiplier: 1.0 / float64(period),
	}
}

func (e *ExponentialMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *ExponentialMA) Warmup() int {
	return e.period
}

func (e *ExponentialMA) Reset() {
	e.ema = 0
	e.count = 0
	e.warmupSum = 0
}

// Update adds v. NA values are skipped.
func (e *ExponentialMA) Update(v float64) float64 {
	if market.IsNA(v) {
		return e.Value()
	}
	if e.count < e.period {
		e.warmupSum += v
		e.count++
		if e.count == e.period {
			e.ema = e.warmupSum / float64(e.period)
		}
	} else {
		e.ema = (v-e.ema)*e.multiplier + e.ema
	}
	return e.Value()
}

func (e *ExponentialMA) Ready() bool {
	return e.period > 0 && e.count >= e.period
}

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return market.NA
	}
	return e.ema
}
