package scripts

import (
	"github.com/rustyeddy/barscript/indicators"
	"github.com/rustyeddy/barscript/isolation"
	"github.com/rustyeddy/barscript/script"
)

func init() {
	script.Register(script.Unit{
		Name: "hl2-lib",
		Meta: &script.Meta{
			Kind:   script.Library,
			Title:  "HL2 helpers",
			Inputs: script.Inputs{"length": 10},
		},
		Build: func(b *script.Builder) script.EntryPoint {
			length := b.Inputs.Int("length")
			ma := isolation.Var(b.Sites, "hl2_ma", func() *indicators.SimpleMA { return indicators.NewMA(length) })

			return func(c *script.Call) (any, error) {
				return map[string]float64{"hl2_ma": (*ma.Get(c.State)).Update(c.Bar.HL2)}, nil
			}
		},
	})
}
