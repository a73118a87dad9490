package scripts

import (
	"github.com/rustyeddy/barscript/indicators"
	"github.com/rustyeddy/barscript/isolation"
	"github.com/rustyeddy/barscript/script"
)

func init() {
	script.Register(script.Unit{
		Name: "ema-demo",
		Meta: &script.Meta{
			Kind:  script.Indicator,
			Title: "Simple EMA Crossover Demo",
			Inputs: script.Inputs{
				"src":         "close",
				"fast_length": 12,
				"slow_length": 26,
			},
		},
		Build: buildEMADemo,
	})
}

func buildEMADemo(b *script.Builder) script.EntryPoint {
	fastLen, slowLen := b.Inputs.Int("fast_length"), b.Inputs.Int("slow_length")
	fast := isolation.Var(b.Sites, "fast", func() *indicators.ExponentialMA { return indicators.NewEMA(fastLen) })
	slow := isolation.Var(b.Sites, "slow", func() *indicators.ExponentialMA { return indicators.NewEMA(slowLen) })

	return func(c *script.Call) (any, error) {
		src := source(c.Bar, c.Inputs.String("src"))
		return map[string]float64{
			"Fast EMA": (*fast.Get(c.State)).Update(src),
			"Slow EMA": (*slow.Get(c.State)).Update(src),
		}, nil
	}
}
