// Package engine runs loaded scripts bar by bar: one script per Session or
// several sharing one bar context in a Chart.
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/barscript/bar"
	"github.com/rustyeddy/barscript/isolation"
	"github.com/rustyeddy/barscript/script"
	"github.com/rustyeddy/barscript/strategy"
)

// Executor drives one script handle through one bar at a time. Each
// executor owns its isolation store; stores are never shared.
type Executor struct {
	h     *script.Handle
	store *isolation.Store
	log   *zap.Logger
}

// NewExecutor creates an executor for h with a fresh store.
func NewExecutor(h *script.Handle, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		h:     h,
		store: isolation.NewStore(h.Sites.Len()),
		log:   log.With(zap.String("script", h.Name)),
	}
}

func (e *Executor) Handle() *script.Handle { return e.h }

func (e *Executor) Store() *isolation.Store { return e.store }

// Reset clears all script state: every store slot and the strategy position.
func (e *Executor) Reset() {
	e.store.Reset()
	if e.h.Position != nil {
		e.h.Position.Reset()
	}
}

// Step runs the script on the bar currently loaded in bc:
//  1. transient slots are cleared
//  2. strategies fill pending orders against the bar
//  3. library entry points run, in order, with bc.LibraryPass set
//  4. the main entry point runs with a copy of the session inputs and
//     the values each library returned on this bar
//  5. strategies collect the trades closed on this bar
//
// Any error is fatal for the run.
func (e *Executor) Step(bc *bar.Context) (Result, error) {
	e.store.ResetStep()

	pos := e.h.Position
	isStrategy := e.h.Kind == script.Strategy && pos != nil
	if isStrategy {
		err := pos.ProcessOrders(strategy.Bar{
			Index: bc.BarIndex,
			Time:  bc.TimeMs,
			Open:  bc.Open,
			High:  bc.High,
			Low:   bc.Low,
			Close: bc.Close,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: bar %d: process orders: %w", e.h.Name, bc.BarIndex, err)
		}
	}

	plots := Plots{}
	libs, err := e.runLibraries(bc, plots)
	if err != nil {
		return nil, err
	}

	ret, err := e.h.Main(&script.Call{
		Bar:       bc,
		State:     e.store,
		Inputs:    e.h.Inputs.Clone(),
		Position:  pos,
		Libraries: libs,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: bar %d: %w", e.h.Name, bc.BarIndex, err)
	}
	if err := mergePlots(plots, ret); err != nil {
		e.log.Error("entry point contract violation", zap.Int("bar_index", bc.BarIndex), zap.Error(err))
		return nil, fmt.Errorf("%s: bar %d: %w", e.h.Name, bc.BarIndex, err)
	}

	candle := bc.Candle()
	if !isStrategy {
		return IndicatorResult{Candle: candle, Plots: plots}, nil
	}
	closed := append([]strategy.Trade(nil), pos.NewClosedTrades()...)
	return StrategyResult{Candle: candle, Plots: plots, ClosedTrades: closed}, nil
}

func (e *Executor) runLibraries(bc *bar.Context, plots Plots) (map[string]map[string]any, error) {
	if len(e.h.Libraries) == 0 {
		return nil, nil
	}
	bc.LibraryPass = true
	defer func() { bc.LibraryPass = false }()

	libs := make(map[string]map[string]any, len(e.h.Libraries))
	for _, lib := range e.h.Libraries {
		e.log.Debug("library pass", zap.String("library", lib.Name), zap.Int("bar_index", bc.BarIndex))
		ret, err := lib.Main(&script.Call{
			Bar:       bc,
			State:     e.store,
			Inputs:    lib.Inputs.Clone(),
			Position:  e.h.Position,
			Libraries: libs,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: library %s: bar %d: %w", e.h.Name, lib.Name, bc.BarIndex, err)
		}
		out := Plots{}
		if err := mergePlots(out, ret); err != nil {
			return nil, fmt.Errorf("%s: library %s: bar %d: %w", e.h.Name, lib.Name, bc.BarIndex, err)
		}
		for k, v := range out {
			plots[k] = v
		}
		libs[lib.Name] = out
	}
	return libs, nil
}
