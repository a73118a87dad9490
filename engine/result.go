package engine

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/rustyeddy/barscript/market"
	"github.com/rustyeddy/barscript/script"
	"github.com/rustyeddy/barscript/strategy"
)

// ErrBadReturn is returned when an entry point returns anything but nil or
// a flat label -> value mapping.
var ErrBadReturn = errors.New("engine: entry point must return nil or a flat mapping")

// Plots maps plot labels to numeric or boolean values for one bar.
type Plots map[string]any

// Result is the per-bar output of one script. It is either an
// IndicatorResult or a StrategyResult.
type Result interface {
	Kind() script.Kind
	Bar() market.Candle
	PlotValues() Plots
}

// IndicatorResult is produced by indicator and library scripts.
type IndicatorResult struct {
	Candle market.Candle
	Plots  Plots
}

func (r IndicatorResult) Kind() script.Kind { return script.Indicator }
func (r IndicatorResult) Bar() market.Candle { return r.Candle }
func (r IndicatorResult) PlotValues() Plots { return r.Plots }

// StrategyResult is produced by strategy scripts. ClosedTrades holds the
// trades closed on this bar, possibly none.
type StrategyResult struct {
	Candle       market.Candle
	Plots        Plots
	ClosedTrades []strategy.Trade
}

func (r StrategyResult) Kind() script.Kind { return script.Strategy }
func (r StrategyResult) Bar() market.Candle { return r.Candle }
func (r StrategyResult) PlotValues() Plots { return r.Plots }

// mergePlots folds an entry point return value into dst. Any map with
// string keys and numeric or boolean values is accepted. float64, float32,
// int, int64 and bool values are kept as they are; other numeric kinds are
// widened to int64, uint64 or float64.
func mergePlots(dst Plots, ret any) error {
	switch m := ret.(type) {
	case nil:
		return nil
	case Plots:
		return mergeFlat(dst, m)
	case map[string]any:
		return mergeFlat(dst, m)
	case map[string]float64:
		for k, v := range m {
			dst[k] = v
		}
		return nil
	case map[string]bool:
		for k, v := range m {
			dst[k] = v
		}
		return nil
	}

	rv := reflect.ValueOf(ret)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("%w: got %T", ErrBadReturn, ret)
	}
	flat := make(map[string]any, rv.Len())
	it := rv.MapRange()
	for it.Next() {
		flat[it.Key().String()] = it.Value().Interface()
	}
	return mergeFlat(dst, flat)
}

func mergeFlat(dst Plots, m map[string]any) error {
	for k, v := range m {
		pv, ok := plotValue(v)
		if !ok {
			return fmt.Errorf("%w: plot %q is %T", ErrBadReturn, k, v)
		}
		dst[k] = pv
	}
	return nil
}

func plotValue(v any) (any, bool) {
	switch v.(type) {
	case nil, float64, float32, int, int64, bool:
		return v, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Bool:
		return rv.Bool(), true
	}
	return nil, false
}
