package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/barscript/market"
)

// ADX implements Wilder's Average Directional Index (trend strength).
// Usage:
//
//	adx := indicators.NewADX(14)
//	val := adx.Update(high, low, close)
//	if adx.Ready() && val >= 20 { ... }
type ADX struct {
	Period int

	prevHigh, prevLow, prevClose float64
	havePrev                     bool

	// Wilder-smoothed values after warmup
	trS  float64
	pdmS float64
	mdmS float64

	pdi, mdi float64

	adx   float64
	dxSum float64

	// count of bars processed (including the first prev seed)
	count int
	ready bool
}

func NewADX(period int) *ADX {
	return &ADX{Period: period, pdi: market.NA, mdi: market.NA}
}

func (a *ADX) Name() string { return fmt.Sprintf("ADX(%d)", a.Period) }

func (a *ADX) Warmup() int { return 2*a.Period + 1 }

func (a *ADX) Reset() {
	*a = ADX{Period: a.Period, pdi: market.NA, mdi: market.NA}
}

func (a *ADX) Ready() bool { return a.ready }

func (a *ADX) Value() float64 {
	if !a.ready {
		return market.NA
	}
	return a.adx
}

// DI returns the +DI and -DI of the last bar.
func (a *ADX) DI() (plus, minus float64) { return a.pdi, a.mdi }

// Update consumes the next bar and returns the ADX.
// It becomes ready after enough bars to compute a stable value:
// Period bars to seed smoothed TR/+DM/-DM, then Period DX values to seed
// the ADX itself.
func (a *ADX) Update(high, low, close float64) float64 {
	if !a.havePrev {
		a.prevHigh, a.prevLow, a.prevClose = high, low, close
		a.havePrev = true
		a.count = 1
		return a.Value()
	}

	upMove := high - a.prevHigh
	downMove := a.prevLow - low

	var pdm, mdm float64
	if upMove > downMove && upMove > 0 {
		pdm = upMove
	}
	if downMove > upMove && downMove > 0 {
		mdm = downMove
	}
	tr := TrueRange(high, low, a.prevClose)

	a.prevHigh, a.prevLow, a.prevClose = high, low, close
	a.count++

	// Warmup phase A: sums become simple averages once Period samples are in.
	p := float64(a.Period)
	if a.count <= a.Period+1 {
		a.trS += tr
		a.pdmS += pdm
		a.mdmS += mdm
		if a.count == a.Period+1 {
			a.trS /= p
			a.pdmS /= p
			a.mdmS /= p
		}
		return a.Value()
	}

	a.trS = (a.trS*(p-1) + tr) / p
	a.pdmS = (a.pdmS*(p-1) + pdm) / p
	a.mdmS = (a.mdmS*(p-1) + mdm) / p

	if a.trS == 0 {
		return a.Value()
	}
	a.pdi = 100.0 * a.pdmS / a.trS
	a.mdi = 100.0 * a.mdmS / a.trS
	den := a.pdi + a.mdi
	if den == 0 {
		return a.Value()
	}
	dx := 100 * math.Abs(a.pdi-a.mdi) / den

	// Warmup phase B: the first DX arrives at count Period+2, the ADX is
	// seeded with the mean of Period DX values at count 2*Period+1.
	if !a.ready {
		if a.count >= a.Period+2 && a.count <= 2*a.Period+1 {
			a.dxSum += dx
		}
		if a.count == 2*a.Period+1 {
			a.adx = a.dxSum / p
			a.ready = true
		}
		return a.Value()
	}

	a.adx = (a.adx*(p-1) + dx) / p
	return a.adx
}
