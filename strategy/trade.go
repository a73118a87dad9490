package strategy

// Direction of an entry: +1 long, -1 short.
type Direction int8

const (
	Long  Direction = +1
	Short Direction = -1
)

func (d Direction) String() string {
	if d == Short {
		return "short"
	}
	return "long"
}

// Bar is the slice of the current bar the position needs to fill orders.
type Bar struct {
	Index int
	Time  int64 // unix milliseconds
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Trade is one entry/exit pair. Size is signed: positive for longs.
// Money values are in the session currency; percents are 0..100 based.
type Trade struct {
	EntryID       string
	EntryBarIndex int
	EntryTime     int64
	EntryPrice    float64

	ExitID       string
	ExitBarIndex int
	ExitTime     int64
	ExitPrice    float64

	Size float64

	Profit           float64
	ProfitPercent    float64
	CumProfit        float64
	CumProfitPercent float64

	MaxRunup           float64
	MaxRunupPercent    float64
	MaxDrawdown        float64
	MaxDrawdownPercent float64
}

// Direction of the trade.
func (t Trade) Direction() Direction {
	if t.Size < 0 {
		return Short
	}
	return Long
}

// entryValue is the notional paid to open the trade.
func (t Trade) entryValue() float64 {
	v := t.EntryPrice * t.Size
	if v < 0 {
		return -v
	}
	return v
}

// markExcursion widens run-up and drawdown with the high/low of a bar.
func (t *Trade) markExcursion(high, low float64) {
	var best, worst float64
	if t.Size > 0 {
		best = (high - t.EntryPrice) * t.Size
		worst = (t.EntryPrice - low) * t.Size
	} else {
		best = (t.EntryPrice - low) * -t.Size
		worst = (high - t.EntryPrice) * -t.Size
	}
	if best > t.MaxRunup {
		t.MaxRunup = best
	}
	if worst > t.MaxDrawdown {
		t.MaxDrawdown = worst
	}
}

// unrealized profit at price.
func (t Trade) unrealized(price float64) float64 {
	return (price - t.EntryPrice) * t.Size
}
