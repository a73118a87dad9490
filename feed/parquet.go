package feed

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/rustyeddy/barscript/market"
)

// BarRecord is the Parquet schema of a bar file.
type BarRecord struct {
	Symbol     string  `parquet:"symbol"`
	Timestamp  int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open       float64 `parquet:"open"`
	High       float64 `parquet:"high"`
	Low        float64 `parquet:"low"`
	Close      float64 `parquet:"close"`
	Volume     int64   `parquet:"volume"`
	TradeCount int64   `parquet:"trade_count"`
	VWAP       float64 `parquet:"vwap"`
}

// Candle converts r. Trade count and VWAP are carried as extra fields.
func (r BarRecord) Candle() market.Candle {
	return market.Candle{
		Timestamp: r.Timestamp / 1000,
		Open:      r.Open,
		High:      r.High,
		Low:       r.Low,
		Close:     r.Close,
		Volume:    float64(r.Volume),
		Extra: []market.Field{
			{Name: "trade_count", Value: r.TradeCount},
			{Name: "vwap", Value: r.VWAP},
		},
	}
}

// Parquet is a feed over a Parquet bar file. The file is read whole on
// open, filtered to one symbol (all symbols when empty) and rng, and sorted
// by timestamp.
type Parquet struct {
	Slice
}

// OpenParquet reads path.
func OpenParquet(path, symbol string, rng Range) (*Parquet, error) {
	records, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Timestamp < records[j].Timestamp })

	candles := make([]market.Candle, 0, len(records))
	var last int64
	for i, r := range records {
		if symbol != "" && r.Symbol != symbol {
			continue
		}
		c := r.Candle()
		if !rng.contains(c.Timestamp) {
			continue
		}
		if len(candles) > 0 && c.Timestamp <= last {
			return nil, fmt.Errorf("read %s: row %d: duplicate timestamp %d", path, i, c.Timestamp)
		}
		last = c.Timestamp
		candles = append(candles, c)
	}
	return &Parquet{Slice: Slice{candles: candles}}, nil
}

// WriteParquet stores candles for symbol as a Parquet bar file.
func WriteParquet(path, symbol string, candles []market.Candle) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	records := make([]BarRecord, len(candles))
	for i, c := range candles {
		r := BarRecord{
			Symbol:    symbol,
			Timestamp: c.Timestamp * 1000,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    int64(c.Volume),
		}
		if v, ok := c.ExtraValue("vwap"); ok {
			r.VWAP, _ = v.(float64)
		}
		if v, ok := c.ExtraValue("trade_count"); ok {
			switch n := v.(type) {
			case int64:
				r.TradeCount = n
			case float64:
				r.TradeCount = int64(n)
			}
		}
		records[i] = r
	}
	return parquet.WriteFile(path, records)
}
