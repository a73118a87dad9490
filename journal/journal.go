// Package journal holds the sinks a session writes its per-bar output to:
// plot rows and equity (trade) records, as CSV or SQLite.
package journal

import (
	"time"

	"github.com/rustyeddy/barscript/market"
	"github.com/rustyeddy/barscript/strategy"
)

// PlotRow is one bar of plot output: the candle plus the plots produced
// for it. Plot values win over candle extra fields of the same name.
type PlotRow struct {
	Candle market.Candle
	Plots  map[string]any
}

// PlotSink consumes plot rows.
type PlotSink interface {
	WriteRow(PlotRow) error
	Close() error
}

// EquityRecord is one side (entry or exit) of a closed trade.
type EquityRecord struct {
	TradeNum  int
	BarIndex  int
	Type      string
	Signal    string
	Time      time.Time
	Price     float64
	Contracts float64

	Profit           float64
	ProfitPercent    float64
	CumProfit        float64
	CumProfitPercent float64
	RunUp            float64
	RunUpPercent     float64
	Drawdown         float64
	DrawdownPercent  float64
}

// EquitySink consumes equity records.
type EquitySink interface {
	WriteEquity(EquityRecord) error
	Close() error
}

// Trade side labels.
const (
	EntryLong  = "Entry long"
	EntryShort = "Entry short"
	ExitLong   = "Exit long"
	ExitShort  = "Exit short"
)

// EquityRecords splits a closed trade into its entry and exit records.
// Times are shown in loc (UTC when nil).
func EquityRecords(num int, t strategy.Trade, loc *time.Location) [2]EquityRecord {
	if loc == nil {
		loc = time.UTC
	}
	entryType, exitType := EntryLong, ExitLong
	if t.Size < 0 {
		entryType, exitType = EntryShort, ExitShort
	}
	contracts := t.Size
	if contracts < 0 {
		contracts = -contracts
	}

	base := EquityRecord{
		TradeNum:         num,
		Contracts:        contracts,
		Profit:           t.Profit,
		ProfitPercent:    t.ProfitPercent,
		CumProfit:        t.CumProfit,
		CumProfitPercent: t.CumProfitPercent,
		RunUp:            t.MaxRunup,
		RunUpPercent:     t.MaxRunupPercent,
		Drawdown:         t.MaxDrawdown,
		DrawdownPercent:  t.MaxDrawdownPercent,
	}

	entry := base
	entry.BarIndex = t.EntryBarIndex
	entry.Type = entryType
	entry.Signal = t.EntryID
	entry.Time = time.UnixMilli(t.EntryTime).In(loc)
	entry.Price = t.EntryPrice

	exit := base
	exit.BarIndex = t.ExitBarIndex
	exit.Type = exitType
	exit.Signal = t.ExitID
	exit.Time = time.UnixMilli(t.ExitTime).In(loc)
	exit.Price = t.ExitPrice

	return [2]EquityRecord{entry, exit}
}
