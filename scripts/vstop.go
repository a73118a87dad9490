package scripts

import (
	"math"

	"github.com/rustyeddy/barscript/indicators"
	"github.com/rustyeddy/barscript/isolation"
	"github.com/rustyeddy/barscript/market"
	"github.com/rustyeddy/barscript/script"
)

func init() {
	script.Register(script.Unit{
		Name: "vstop",
		Meta: &script.Meta{
			Kind:  script.Indicator,
			Title: "Volatility Stop",
			Inputs: script.Inputs{
				"length": 20,
				"src":    "close",
				"factor": 2.0,
			},
		},
		Build: buildVStop,
	})
}

// vstopState is the per-run state of the volatility stop.
type vstopState struct {
	max, min    float64
	stop        float64
	uptrend     bool
	prevUptrend bool
	atr         *indicators.ATR
}

func buildVStop(b *script.Builder) script.EntryPoint {
	length := b.Inputs.Int("length")
	state := isolation.Var(b.Sites, "vstop", func() vstopState {
		return vstopState{
			max:         market.NA,
			min:         market.NA,
			stop:        market.NA,
			uptrend:     true,
			prevUptrend: true,
			atr:         indicators.NewATR(length),
		}
	})

	return func(c *script.Call) (any, error) {
		st := state.Get(c.State)
		bc := c.Bar
		src := source(bc, c.Inputs.String("src"))
		factor := c.Inputs.Float("factor")

		atr := st.atr.Update(bc.High, bc.Low, bc.Close)
		if market.IsNA(src) {
			return map[string]any{"Volatility Stop": market.NA, "uptrend": st.uptrend}, nil
		}
		if market.IsNA(st.max) {
			st.max, st.min = src, src
		}

		atrM := nz(atr*factor, st.atr.TR())
		st.max = math.Max(st.max, src)
		st.min = math.Min(st.min, src)
		if st.uptrend {
			st.stop = nz(math.Max(st.stop, st.max-atrM), src)
		} else {
			st.stop = nz(math.Min(st.stop, st.min+atrM), src)
		}
		st.uptrend = src-st.stop >= 0.0

		if st.uptrend != st.prevUptrend && !bc.IsFirst {
			st.max, st.min = src, src
			if st.uptrend {
				st.stop = st.max - atrM
			} else {
				st.stop = st.min + atrM
			}
		}
		st.prevUptrend = st.uptrend

		return map[string]any{"Volatility Stop": st.stop, "uptrend": st.uptrend}, nil
	}
}
