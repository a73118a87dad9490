// Package indicators provides streaming technical analysis indicators for
// scripts. Each indicator consumes one value (or bar) per call to Update and
// reports market.NA until its warmup is complete.
package indicators

// Indicator is the common surface of all streaming indicators.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "ATR(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current value, market.NA before Ready().
	Value() float64
}
