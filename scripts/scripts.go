// Package scripts holds the bundled scripts. Importing it registers them in
// the default script registry.
package scripts

import (
	"github.com/rustyeddy/barscript/bar"
	"github.com/rustyeddy/barscript/market"
)

// source reads the named price source from the current bar; unknown names
// fall back to close.
func source(b *bar.Context, name string) float64 {
	if v, ok := b.Source(name); ok {
		return v
	}
	return b.Close
}

// nz replaces NA with def.
func nz(v, def float64) float64 { return market.NZ(v, def) }
