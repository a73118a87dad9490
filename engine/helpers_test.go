package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/barscript/isolation"
	"github.com/rustyeddy/barscript/journal"
	"github.com/rustyeddy/barscript/market"
	"github.com/rustyeddy/barscript/script"
	"github.com/rustyeddy/barscript/strategy"
)

// mockFeed is a simple in-memory feed for testing
type mockFeed struct {
	candles []market.Candle
	index   int
	closes  int
}

func newMockFeed(candles ...market.Candle) *mockFeed {
	return &mockFeed{candles: candles}
}

func (m *mockFeed) Next() (market.Candle, bool, error) {
	if m.index >= len(m.candles) {
		return market.Candle{}, false, nil
	}
	c := m.candles[m.index]
	m.index++
	return c, true, nil
}

func (m *mockFeed) Close() error {
	m.closes++
	return nil
}

// sizedFeed reports its length so the final bar is known up front.
type sizedFeed struct{ *mockFeed }

func (s sizedFeed) Len() int { return len(s.candles) }

type mockPlotSink struct {
	rows   []journal.PlotRow
	closes int
}

func (m *mockPlotSink) WriteRow(r journal.PlotRow) error {
	m.rows = append(m.rows, r)
	return nil
}

func (m *mockPlotSink) Close() error {
	m.closes++
	return nil
}

type mockEquitySink struct {
	recs   []journal.EquityRecord
	closes int
}

func (m *mockEquitySink) WriteEquity(e journal.EquityRecord) error {
	m.recs = append(m.recs, e)
	return nil
}

func (m *mockEquitySink) Close() error {
	m.closes++
	return nil
}

func candles(n int) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		o := 10 + float64(i)
		out[i] = market.Candle{Timestamp: int64(i * 60), Open: o, High: o + 2, Low: o - 1, Close: o + 1, Volume: 100}
	}
	return out
}

func testRegistry() *script.Registry {
	r := script.NewRegistry()

	r.Register(script.Unit{
		Name: "mid",
		Meta: &script.Meta{Kind: script.Indicator},
		Build: func(*script.Builder) script.EntryPoint {
			return func(c *script.Call) (any, error) {
				return map[string]any{"mid": c.Bar.HL2}, nil
			}
		},
	})

	r.Register(script.Unit{
		Name: "counter",
		Meta: &script.Meta{Kind: script.Indicator, Inputs: script.Inputs{"step": 1}},
		Build: func(b *script.Builder) script.EntryPoint {
			count := isolation.Var(b.Sites, "count", func() int { return 0 })
			seen := isolation.Local(b.Sites, "seen", func() int { return 0 })
			return func(c *script.Call) (any, error) {
				n := count.Get(c.State)
				*n += c.Inputs.Int("step")
				s := seen.Get(c.State)
				*s++
				return Plots{"count": *n, "seen": *s, "first": c.Bar.IsFirst, "last": c.Bar.IsLast}, nil
			}
		},
	})

	r.Register(script.Unit{
		Name: "bad-return",
		Meta: &script.Meta{Kind: script.Indicator},
		Build: func(*script.Builder) script.EntryPoint {
			return func(c *script.Call) (any, error) {
				if c.Bar.BarIndex == 1 {
					return []float64{1}, nil
				}
				return nil, nil
			}
		},
	})

	r.Register(script.Unit{
		Name: "nested-return",
		Meta: &script.Meta{Kind: script.Indicator},
		Build: func(*script.Builder) script.EntryPoint {
			return func(*script.Call) (any, error) {
				return map[string]any{"x": map[string]any{"y": 1.0}}, nil
			}
		},
	})

	r.Register(script.Unit{
		Name: "flag-lib",
		Meta: &script.Meta{Kind: script.Library},
		Build: func(b *script.Builder) script.EntryPoint {
			calls := isolation.Var(b.Sites, "calls", func() int { return 0 })
			return func(c *script.Call) (any, error) {
				n := calls.Get(c.State)
				*n++
				return map[string]any{"lib_pass": c.Bar.LibraryPass, "shared": 1.0, "lib_calls": *n}, nil
			}
		},
	})

	r.Register(script.Unit{
		Name: "uses-lib",
		Meta: &script.Meta{Kind: script.Indicator, Libraries: []string{"flag-lib"}},
		Build: func(*script.Builder) script.EntryPoint {
			return func(c *script.Call) (any, error) {
				return map[string]any{"main_pass": c.Bar.LibraryPass, "shared": 2.0}, nil
			}
		},
	})

	r.Register(script.Unit{
		Name: "chained-lib",
		Meta: &script.Meta{Kind: script.Library, Libraries: []string{"flag-lib"}},
		Build: func(*script.Builder) script.EntryPoint {
			return func(c *script.Call) (any, error) {
				return map[string]any{"chained": c.Library("flag-lib")["lib_calls"]}, nil
			}
		},
	})

	r.Register(script.Unit{
		Name: "reads-lib",
		Meta: &script.Meta{Kind: script.Indicator, Libraries: []string{"chained-lib"}},
		Build: func(*script.Builder) script.EntryPoint {
			return func(c *script.Call) (any, error) {
				return map[string]any{
					"from_lib": c.Library("chained-lib")["chained"],
					"missing":  c.Library("nope") == nil,
				}, nil
			}
		},
	})

	r.Register(script.Unit{
		Name: "mutates-inputs",
		Meta: &script.Meta{Kind: script.Indicator, Inputs: script.Inputs{"step": 1}},
		Build: func(*script.Builder) script.EntryPoint {
			return func(c *script.Call) (any, error) {
				step := c.Inputs.Int("step")
				c.Inputs["step"] = step + 10
				return map[string]any{"step": step}, nil
			}
		},
	})

	// Enters long on bar 0 and closes on bar 1, so one trade closes on
	// bar 2 at that bar's open.
	r.Register(script.Unit{
		Name: "one-trade",
		Meta: &script.Meta{Kind: script.Strategy, InitialCapital: 1000},
		Build: func(b *script.Builder) script.EntryPoint {
			return func(c *script.Call) (any, error) {
				switch c.Bar.BarIndex {
				case 0:
					if err := c.Position.Entry("long", strategy.Long, 1); err != nil {
						return nil, err
					}
				case 1:
					c.Position.Close("long")
				}
				return map[string]float64{"size": c.Position.Size()}, nil
			}
		},
	})

	return r
}

func load(t *testing.T, name string) *script.Handle {
	t.Helper()

	h, err := testRegistry().Load(name, nil, script.Options{})
	require.NoError(t, err)
	return h
}
