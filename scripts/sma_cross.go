package scripts

import (
	"github.com/rustyeddy/barscript/indicators"
	"github.com/rustyeddy/barscript/isolation"
	"github.com/rustyeddy/barscript/market"
	"github.com/rustyeddy/barscript/risk"
	"github.com/rustyeddy/barscript/script"
	"github.com/rustyeddy/barscript/strategy"
)

func init() {
	script.Register(script.Unit{
		Name: "sma-cross",
		Meta: &script.Meta{
			Kind:           script.Strategy,
			Title:          "SMA Cross",
			InitialCapital: 10_000,
			Libraries:      []string{"hl2-lib"},
			Inputs: script.Inputs{
				"fast":         10,
				"slow":         30,
				"atr_length":   14,
				"stop_mult":    2.0,
				"rr":           2.0,
				"risk_pct":     0.01,
				"max_loss_pct": 0.25,
			},
		},
		Build: buildSMACross,
	})
}

type crossState struct {
	fast, slow         *indicators.SimpleMA
	atr                *indicators.ATR
	prevFast, prevSlow float64
	rejected           int
}

func buildSMACross(b *script.Builder) script.EntryPoint {
	in := b.Inputs
	state := isolation.Var(b.Sites, "cross", func() crossState {
		return crossState{
			fast:     indicators.NewMA(in.Int("fast")),
			slow:     indicators.NewMA(in.Int("slow")),
			atr:      indicators.NewATR(in.Int("atr_length")),
			prevFast: market.NA,
			prevSlow: market.NA,
		}
	})
	signal := isolation.Local(b.Sites, "signal", func() float64 { return 0 })

	return func(c *script.Call) (any, error) {
		st := state.Get(c.State)
		bc := c.Bar
		pos := c.Position

		fast := st.fast.Update(bc.Close)
		slow := st.slow.Update(bc.Close)
		atr := st.atr.Update(bc.High, bc.Low, bc.Close)
		sig := signal.Get(c.State)

		crossUp := st.prevFast <= st.prevSlow && fast > slow
		crossDown := st.prevFast >= st.prevSlow && fast < slow
		st.prevFast, st.prevSlow = fast, slow

		// hl2_ma from hl2-lib is the trend filter: longs above it, shorts below.
		trend, ok := c.Library("hl2-lib")["hl2_ma"].(float64)
		if !ok {
			trend = market.NA
		}
		dir := strategy.Long
		if crossDown {
			dir = strategy.Short
		}
		withTrend := !market.IsNA(trend) && float64(dir)*(bc.Close-trend) > 0

		if (crossUp || crossDown) && withTrend && !market.IsNA(atr) {
			if err := enter(c, st, dir, atr); err != nil {
				return nil, err
			}
			*sig = float64(dir)
		}

		return map[string]any{
			"fast":     fast,
			"slow":     slow,
			"signal":   *sig,
			"equity":   pos.Equity(bc.Close),
			"rejected": st.rejected,
		}, nil
	}
}

// enter sizes a trade so the ATR stop risks risk_pct of equity, vets it
// against the policy and queues the entry with its bracket exit.
func enter(c *script.Call, st *crossState, dir strategy.Direction, atr float64) error {
	in, pos, price := c.Inputs, c.Position, c.Bar.Close
	dist := atr * in.Float("stop_mult")
	stop := price - float64(dir)*dist
	take := price + float64(dir)*dist*in.Float("rr")
	equity := pos.Equity(price)

	size := risk.Calculate(risk.Inputs{
		Equity:     equity,
		RiskPct:    in.Float("risk_pct"),
		EntryPrice: price,
		StopPrice:  stop,
	})
	d := risk.Evaluate(
		risk.Policy{MaxRiskPct: in.Float("risk_pct") * 1.5, MaxLossPct: in.Float("max_loss_pct")},
		risk.TradeIntent{Units: size.Units, Entry: price, Stop: stop, TakeProfit: take},
		risk.AccountSnapshot{StartBalance: pos.InitialCapital, Equity: equity, NetProfit: pos.NetProfit()},
	)
	if !d.Allowed {
		st.rejected++
		return nil
	}

	id := dir.String()
	if err := pos.Entry(id, dir, size.Units); err != nil {
		return err
	}
	pos.Exit(id+" exit", id, stop, take)
	return nil
}
