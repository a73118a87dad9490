package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/barscript/market"
)

// TrueRange of a bar given the previous close. Without a previous close it
// is high - low.
func TrueRange(high, low, prevClose float64) float64 {
	if market.IsNA(prevClose) {
		return high - low
	}
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}

// ATRFunc calculates the Average True Range over candles.
func ATRFunc(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period+1 {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period+1, len(candles))
	}

	a := NewATR(period)
	for _, c := range candles {
		a.Update(c.High, c.Low, c.Close)
	}
	return a.Value(), nil
}

// ATR is a streaming Average True Range with Wilder smoothing. The first bar
// only seeds the previous close.
type ATR struct {
	period    int
	atr       float64
	count     int
	warmupSum float64
	prevClose float64
	tr        float64
}

// NewATR creates an Average True Range with the given period.
func NewATR(period int) *ATR {
	return &ATR{period: period, prevClose: market.NA, tr: market.NA}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

func (a *ATR) Warmup() int {
	// Need period+1 bars because TR requires previous close
	return a.period + 1
}

func (a *ATR) Reset() {
	a.atr = 0
	a.count = 0
	a.warmupSum = 0
	a.prevClose = market.NA
	a.tr = market.NA
}

// Update consumes the next bar and returns the ATR.
func (a *ATR) Update(high, low, close float64) float64 {
	a.tr = TrueRange(high, low, a.prevClose)
	if market.IsNA(a.prevClose) {
		a.prevClose = close
		return a.Value()
	}
	a.prevClose = close

	if a.count < a.period {
		a.warmupSum += a.tr
		a.count++
		if a.count == a.period {
			a.atr = a.warmupSum / float64(a.period)
		}
	} else {
		a.atr = (a.atr*float64(a.period-1) + a.tr) / float64(a.period)
	}
	return a.Value()
}

// TR returns the true range of the last bar.
func (a *ATR) TR() float64 { return a.tr }

func (a *ATR) Ready() bool {
	return a.period > 0 && a.count >= a.period
}

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return market.NA
	}
	return a.atr
}
