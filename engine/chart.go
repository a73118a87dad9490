package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/rustyeddy/barscript/bar"
	"github.com/rustyeddy/barscript/script"
)

var (
	// ErrDuplicateID is returned when two chart scripts share an id.
	ErrDuplicateID = errors.New("engine: duplicate chart script id")
	// ErrSharedHandle is returned when a loaded handle is added twice. Each
	// chart entry needs its own load so position and state stay separate.
	ErrSharedHandle = errors.New("engine: script handle already in chart")
)

// Frame holds the results of every chart script for one bar, keyed by id.
type Frame map[string]Result

// Chart runs several scripts over one feed. The bar context is advanced
// once per bar and lent to every script in insertion order; each script
// keeps its own isolation store.
type Chart struct {
	ids   []string
	execs []*Executor
	opts  Options
	log   *zap.Logger
	bc    *bar.Context
}

// NewChart creates an empty chart.
func NewChart(opts Options) *Chart {
	return &Chart{
		opts: opts,
		log:  opts.logger().With(zap.String("run_id", opts.RunID)),
		bc:   bar.New(),
	}
}

// Add appends h under id. An empty id defaults to the script name.
func (c *Chart) Add(id string, h *script.Handle) error {
	if h == nil || h.Main == nil {
		return fmt.Errorf("engine: chart script %q: %w", id, script.ErrNoEntryPoint)
	}
	if id == "" {
		id = h.Name
	}
	for i, existing := range c.ids {
		if existing == id {
			return fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		if c.execs[i].Handle() == h {
			return fmt.Errorf("%w: %q is already added as %q", ErrSharedHandle, id, existing)
		}
	}
	c.ids = append(c.ids, id)
	c.execs = append(c.execs, NewExecutor(h, c.log))
	return nil
}

// IDs returns the script ids in execution order.
func (c *Chart) IDs() []string { return append([]string(nil), c.ids...) }

// Context returns the shared bar context.
func (c *Chart) Context() *bar.Context { return c.bc }

// All returns one Frame per bar of f. Teardown (feed close, state reset,
// context scrub) runs exactly once however iteration ends.
func (c *Chart) All(ctx context.Context, f Feed) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		for _, e := range c.execs {
			e.Reset()
		}
		c.bc.Scrub()
		defer c.teardown(f)

		// Without a known end the chart follows a live feed and every bar
		// is the last one seen so far.
		last := c.opts.lastBarIndex(f)
		loc := c.opts.location()
		c.log.Info("chart start", zap.Strings("scripts", c.ids), zap.Int("last_bar_index", last))

		for idx := 0; ; idx++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			candle, ok, err := f.Next()
			if err != nil {
				yield(nil, fmt.Errorf("feed: bar %d: %w", idx, err))
				return
			}
			if !ok {
				break
			}

			lastIdx := last
			if lastIdx < 0 {
				lastIdx = idx
			}
			c.bc.Advance(candle, idx, lastIdx, loc)

			frame := make(Frame, len(c.execs))
			for i, e := range c.execs {
				res, err := e.Step(c.bc)
				if err != nil {
					yield(nil, fmt.Errorf("chart %s: %w", c.ids[i], err))
					return
				}
				frame[c.ids[i]] = res
			}

			local := c.bc.Local
			more := yield(frame, nil)
			c.bc.Scrub()
			if !more {
				return
			}
			if c.opts.Progress != nil {
				c.opts.Progress(naive(local))
			}
		}

		if c.opts.Progress != nil {
			c.opts.Progress(ProgressDone)
		}
	}
}

func (c *Chart) teardown(f Feed) {
	if err := f.Close(); err != nil {
		c.log.Error("close feed", zap.Error(err))
	}
	for _, e := range c.execs {
		e.Reset()
	}
	c.bc.Scrub()
	c.log.Debug("chart teardown")
}
