package scripts

import (
	"github.com/rustyeddy/barscript/indicators"
	"github.com/rustyeddy/barscript/isolation"
	"github.com/rustyeddy/barscript/script"
)

func init() {
	script.Register(script.Unit{
		Name: "dmi",
		Meta: &script.Meta{
			Kind:      script.Indicator,
			Title:     "Directional Movement Index",
			Precision: 4,
			Inputs:    script.Inputs{"length": 14},
		},
		Build: func(b *script.Builder) script.EntryPoint {
			length := b.Inputs.Int("length")
			adx := isolation.Var(b.Sites, "adx", func() *indicators.ADX { return indicators.NewADX(length) })

			return func(c *script.Call) (any, error) {
				a := *adx.Get(c.State)
				v := a.Update(c.Bar.High, c.Bar.Low, c.Bar.Close)
				plus, minus := a.DI()
				return map[string]float64{"ADX": v, "+DI": plus, "-DI": minus}, nil
			}
		},
	})
}
