package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/barscript/bar"
	"github.com/rustyeddy/barscript/journal"
	"github.com/rustyeddy/barscript/market"
	"github.com/rustyeddy/barscript/script"
)

// Feed yields candles in timestamp order, one at a time. Implementations
// return (ok=false, err=nil) at the end of the data.
type Feed interface {
	Next() (c market.Candle, ok bool, err error)
	Close() error
}

// ProgressFunc receives the wall time of every processed bar in the session
// timezone, with the zone dropped. After the last bar of a feed that ran to
// its end it is called once more with ProgressDone.
type ProgressFunc func(t time.Time)

// ProgressDone is the maximal timestamp that signals completion.
var ProgressDone = time.Date(9999, time.December, 31, 23, 59, 59, 999999999, time.UTC)

// ErrSessionClosed is returned when a session whose sinks were already
// closed is run again.
var ErrSessionClosed = errors.New("engine: session sinks are closed")

// Options controls a run.
type Options struct {
	// Timezone of the bar times seen by scripts. Nil means UTC.
	Timezone *time.Location

	// LastBarIndex is the index of the final bar. When zero the length of
	// the feed is used if it reports one (Len() int); a negative value
	// means the final bar is unknown.
	LastBarIndex int

	Progress ProgressFunc
	Logger   *zap.Logger
	RunID    string
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) location() *time.Location {
	if o.Timezone == nil {
		return time.UTC
	}
	return o.Timezone
}

// lastBarIndex resolves the final bar index for f, or -1 when unknown.
func (o Options) lastBarIndex(f Feed) int {
	if o.LastBarIndex != 0 {
		return max(o.LastBarIndex, -1)
	}
	if l, ok := f.(interface{ Len() int }); ok {
		return l.Len() - 1
	}
	return -1
}

// Sinks are the optional outputs of a single script session. The session
// takes ownership and closes them during teardown.
type Sinks struct {
	Plot   journal.PlotSink
	Equity journal.EquitySink
}

// Session runs one script over a feed.
type Session struct {
	exec  *Executor
	opts  Options
	sinks Sinks
	log   *zap.Logger
	bc    *bar.Context

	closed   bool
	closeErr error
}

// NewSession prepares a run of h.
func NewSession(h *script.Handle, opts Options, sinks Sinks) (*Session, error) {
	if h == nil || h.Main == nil {
		return nil, fmt.Errorf("engine: %w", script.ErrNoEntryPoint)
	}
	log := opts.logger().With(zap.String("run_id", opts.RunID))
	return &Session{
		exec:  NewExecutor(h, log),
		opts:  opts,
		sinks: sinks,
		log:   log,
		bc:    bar.New(),
	}, nil
}

// Context returns the bar context shared with the script.
func (s *Session) Context() *bar.Context { return s.bc }

// Executor returns the executor of the session's script.
func (s *Session) Executor() *Executor { return s.exec }

// Err returns the first error seen while closing the feed or the sinks.
func (s *Session) Err() error { return s.closeErr }

// All returns the per-bar results of a run over f. The run starts from a
// clean state and stops when f is exhausted, on the first error, or when
// the caller stops iterating; in every case the feed and sinks are closed,
// all script state is cleared and the bar context is left scrubbed, once.
func (s *Session) All(ctx context.Context, f Feed) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		if s.closed && (s.sinks.Plot != nil || s.sinks.Equity != nil) {
			_ = f.Close()
			yield(nil, ErrSessionClosed)
			return
		}

		h := s.exec.Handle()
		s.exec.Reset()
		s.bc.Scrub()
		defer s.teardown(f)

		last := s.opts.lastBarIndex(f)
		loc := s.opts.location()
		s.log.Info("session start",
			zap.String("script", h.Name),
			zap.Stringer("kind", h.Kind),
			zap.Int("last_bar_index", last))

		tradeNum := 0
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

			s.bc.Advance(candle, idx, last, loc)
			res, err := s.exec.Step(s.bc)
			if err != nil {
				yield(nil, err)
				return
			}
			if err := s.write(res, &tradeNum, loc); err != nil {
				yield(nil, err)
				return
			}

			local := s.bc.Local
			more := yield(res, nil)
			s.bc.Scrub()
			if !more {
				s.log.Debug("session cancelled", zap.Int("bar_index", idx))
				return
			}
			if s.opts.Progress != nil {
				s.opts.Progress(naive(local))
			}
		}

		if s.opts.Progress != nil {
			s.opts.Progress(ProgressDone)
		}
		s.log.Info("session done", zap.String("script", h.Name), zap.Int("trades", tradeNum))
	}
}

// Run drains All and returns the first error, including teardown errors.
func (s *Session) Run(ctx context.Context, f Feed) error {
	for _, err := range s.All(ctx, f) {
		if err != nil {
			return err
		}
	}
	return s.closeErr
}

func (s *Session) write(res Result, tradeNum *int, loc *time.Location) error {
	if s.sinks.Plot != nil {
		if plots := res.PlotValues(); len(plots) > 0 {
			if err := s.sinks.Plot.WriteRow(journal.PlotRow{Candle: res.Bar(), Plots: plots}); err != nil {
				return fmt.Errorf("plot sink: %w", err)
			}
		}
	}

	sr, ok := res.(StrategyResult)
	if !ok || s.sinks.Equity == nil {
		return nil
	}
	for _, t := range sr.ClosedTrades {
		*tradeNum++
		for _, rec := range journal.EquityRecords(*tradeNum, t, loc) {
			if err := s.sinks.Equity.WriteEquity(rec); err != nil {
				return fmt.Errorf("equity sink: %w", err)
			}
		}
	}
	return nil
}

func (s *Session) teardown(f Feed) {
	var errs []error
	if err := f.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close feed: %w", err))
	}
	if !s.closed {
		if s.sinks.Plot != nil {
			if err := s.sinks.Plot.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close plot sink: %w", err))
			}
		}
		if s.sinks.Equity != nil {
			if err := s.sinks.Equity.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close equity sink: %w", err))
			}
		}
		s.closed = true
	}

	s.exec.Reset()
	s.bc.Scrub()

	s.closeErr = errors.Join(errs...)
	if s.closeErr != nil {
		s.log.Error("teardown", zap.Error(s.closeErr))
	} else {
		s.log.Debug("teardown")
	}
}

// naive drops the zone of t while keeping its wall clock reading.
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
