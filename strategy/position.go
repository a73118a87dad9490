// Package strategy keeps the order, position and trade book of one strategy
// script. Orders placed while a bar is being evaluated are filled when the
// next bar is processed:
//   - market entries and closes fill at the bar open
//   - exit orders with stop/limit are evaluated on the bar's high/low
//   - if stop and limit are both touched in the same bar the stop wins
package strategy

import (
	"fmt"
	"math"
)

type orderKind uint8

const (
	orderEntry orderKind = iota
	orderClose
	orderCloseAll
	orderExit
)

// Order is a pending instruction queued by a script.
type Order struct {
	kind      orderKind
	ID        string
	Direction Direction
	Qty       float64
	FromEntry string
	Stop      float64 // NaN when unset
	Limit     float64 // NaN when unset
}

// Position is the strategy collaborator driven by the engine: the engine
// calls ProcessOrders once per bar before the script runs and reads
// NewClosedTrades after it.
type Position struct {
	InitialCapital float64

	pending   []Order
	exits     []Order
	open      []*Trade
	closed    []Trade
	newClosed []Trade
	netProfit float64
}

// NewPosition returns an empty book.
func NewPosition(initialCapital float64) *Position {
	return &Position{InitialCapital: initialCapital}
}

// Reset drops all orders and trades.
func (p *Position) Reset() {
	p.pending = nil
	p.exits = nil
	p.open = nil
	p.closed = nil
	p.newClosed = nil
	p.netProfit = 0
}

// Entry queues a market entry. An entry opposite to the open position
// reverses it; an entry in the same direction as the open position is
// ignored.
func (p *Position) Entry(id string, dir Direction, qty float64) error {
	if qty <= 0 || math.IsNaN(qty) {
		return fmt.Errorf("strategy entry %q: qty must be positive, got %v", id, qty)
	}
	p.pending = append(p.pending, Order{kind: orderEntry, ID: id, Direction: dir, Qty: qty})
	return nil
}

// Close queues a market close of the trades opened by entry id.
func (p *Position) Close(id string) {
	p.pending = append(p.pending, Order{kind: orderClose, ID: id})
}

// CloseAll queues a market close of every open trade.
func (p *Position) CloseAll() {
	p.pending = append(p.pending, Order{kind: orderCloseAll, ID: "Close position order"})
}

// Exit places a stop and/or limit exit for the trades opened by fromEntry
// (all trades when fromEntry is empty). Pass NaN to leave a leg unset. A new
// exit with the same id replaces the previous one.
func (p *Position) Exit(id, fromEntry string, stop, limit float64) {
	o := Order{kind: orderExit, ID: id, FromEntry: fromEntry, Stop: stop, Limit: limit}
	for i := range p.exits {
		if p.exits[i].ID == id {
			p.exits[i] = o
			return
		}
	}
	p.exits = append(p.exits, o)
}

// ProcessOrders fills pending orders against bar. Trades closed by this call
// are available from NewClosedTrades until the next call.
func (p *Position) ProcessOrders(bar Bar) error {
	p.newClosed = nil

	pending := p.pending
	p.pending = nil
	for _, o := range pending {
		switch o.kind {
		case orderEntry:
			p.fillEntry(o, bar)
		case orderClose:
			p.closeMatching(bar, bar.Open, o.ID, func(t *Trade) bool { return t.EntryID == o.ID })
		case orderCloseAll:
			p.closeMatching(bar, bar.Open, o.ID, func(*Trade) bool { return true })
		}
	}

	for _, t := range p.open {
		t.markExcursion(bar.High, bar.Low)
	}

	p.checkExits(bar)
	return nil
}

func (p *Position) fillEntry(o Order, bar Bar) {
	size := p.Size()
	if size != 0 && (size > 0) == (o.Direction == Long) {
		return
	}
	if size != 0 {
		p.closeMatching(bar, bar.Open, o.ID, func(*Trade) bool { return true })
	}
	p.open = append(p.open, &Trade{
		EntryID:       o.ID,
		EntryBarIndex: bar.Index,
		EntryTime:     bar.Time,
		EntryPrice:    bar.Open,
		Size:          float64(o.Direction) * o.Qty,
	})
}

func (p *Position) checkExits(bar Bar) {
	if len(p.exits) == 0 {
		return
	}
	for _, o := range p.exits {
		for _, t := range append([]*Trade(nil), p.open...) {
			if o.FromEntry != "" && t.EntryID != o.FromEntry {
				continue
			}
			if px, hit := exitPrice(t, o, bar); hit {
				p.closeTrade(t, bar, px, o.ID)
			}
		}
	}
	// drop exits whose trades are gone
	kept := p.exits[:0]
	for _, o := range p.exits {
		if p.hasOpen(o.FromEntry) {
			kept = append(kept, o)
		}
	}
	p.exits = kept
}

func (p *Position) hasOpen(entryID string) bool {
	for _, t := range p.open {
		if entryID == "" || t.EntryID == entryID {
			return true
		}
	}
	return false
}

// exitPrice evaluates stop/limit on OHLC. A bar that opens through a level
// fills at the open.
func exitPrice(t *Trade, o Order, bar Bar) (float64, bool) {
	hasStop := !math.IsNaN(o.Stop)
	hasLimit := !math.IsNaN(o.Limit)

	if t.Size > 0 {
		if hasStop && bar.Low <= o.Stop {
			return math.Min(o.Stop, bar.Open), true
		}
		if hasLimit && bar.High >= o.Limit {
			return math.Max(o.Limit, bar.Open), true
		}
		return 0, false
	}
	if hasStop && bar.High >= o.Stop {
		return math.Max(o.Stop, bar.Open), true
	}
	if hasLimit && bar.Low <= o.Limit {
		return math.Min(o.Limit, bar.Open), true
	}
	return 0, false
}

func (p *Position) closeMatching(bar Bar, price float64, exitID string, match func(*Trade) bool) {
	for _, t := range append([]*Trade(nil), p.open...) {
		if match(t) {
			p.closeTrade(t, bar, price, exitID)
		}
	}
}

func (p *Position) closeTrade(t *Trade, bar Bar, price float64, exitID string) {
	for i, ot := range p.open {
		if ot == t {
			p.open = append(p.open[:i], p.open[i+1:]...)
			break
		}
	}

	t.ExitID = exitID
	t.ExitBarIndex = bar.Index
	t.ExitTime = bar.Time
	t.ExitPrice = price
	t.Profit = t.unrealized(price)

	if v := t.entryValue(); v != 0 {
		t.ProfitPercent = t.Profit / v * 100
		t.MaxRunupPercent = t.MaxRunup / v * 100
		t.MaxDrawdownPercent = t.MaxDrawdown / v * 100
	}

	p.netProfit += t.Profit
	t.CumProfit = p.netProfit
	if p.InitialCapital != 0 {
		t.CumProfitPercent = p.netProfit / p.InitialCapital * 100
	}

	p.closed = append(p.closed, *t)
	p.newClosed = append(p.newClosed, *t)
}

// NewClosedTrades returns the trades closed by the last ProcessOrders call.
// The returned slice is not reused by later calls.
func (p *Position) NewClosedTrades() []Trade { return p.newClosed }

// ClosedTrades returns every trade closed in this run.
func (p *Position) ClosedTrades() []Trade { return p.closed }

// OpenTrades returns copies of the open trades.
func (p *Position) OpenTrades() []Trade {
	out := make([]Trade, 0, len(p.open))
	for _, t := range p.open {
		out = append(out, *t)
	}
	return out
}

// Size is the signed open quantity.
func (p *Position) Size() float64 {
	var s float64
	for _, t := range p.open {
		s += t.Size
	}
	return s
}

// NetProfit is the realized profit of the run.
func (p *Position) NetProfit() float64 { return p.netProfit }

// Equity is initial capital plus realized and unrealized profit at price.
func (p *Position) Equity(price float64) float64 {
	eq := p.InitialCapital + p.netProfit
	for _, t := range p.open {
		eq += t.unrealized(price)
	}
	return eq
}
