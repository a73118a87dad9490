package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// DateTimeFormat is the layout of equity record times.
const DateTimeFormat = "2006-01-02 15:04"

var plotBaseColumns = []string{"time", "open", "high", "low", "close", "volume"}

// PlotCSV writes plot rows as CSV. Columns are the candle fields, then
// extra fields and plot labels in the order they were first seen. Extras
// and labels named like a candle field are written as extra_<name> and
// plot_<name>. Since
// new labels can show up on any bar, rows are spooled to a temporary file
// and the final file is assembled with the complete header on Close.
type PlotCSV struct {
	out  *os.File
	body *os.File
	w    *csv.Writer

	precision int
	columns   []string
	index     map[string]int
	closed    bool
}

// NewPlotCSV creates path and prepares a plot sink formatting numbers with
// precision significant digits.
func NewPlotCSV(path string, precision int) (*PlotCSV, error) {
	out, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	body, err := os.CreateTemp(filepath.Dir(path), ".plot-*.csv")
	if err != nil {
		_ = out.Close()
		return nil, err
	}
	if precision <= 0 {
		precision = 8
	}

	p := &PlotCSV{
		out:       out,
		body:      body,
		w:         csv.NewWriter(body),
		precision: precision,
		index:     make(map[string]int),
	}
	for _, c := range plotBaseColumns {
		p.column(c)
	}
	return p, nil
}

func (p *PlotCSV) column(name string) int {
	if i, ok := p.index[name]; ok {
		return i
	}
	p.index[name] = len(p.columns)
	p.columns = append(p.columns, name)
	return len(p.columns) - 1
}

// Columns returns the header as known so far.
func (p *PlotCSV) Columns() []string {
	return append([]string(nil), p.columns...)
}

func (p *PlotCSV) WriteRow(r PlotRow) error {
	if p.closed {
		return fmt.Errorf("journal: plot sink is closed")
	}
	c := r.Candle
	values := map[int]string{
		0: strconv.FormatInt(c.Timestamp, 10),
		1: p.format(c.Open),
		2: p.format(c.High),
		3: p.format(c.Low),
		4: p.format(c.Close),
		5: p.format(c.Volume),
	}
	for _, f := range c.Extra {
		if _, ok := r.Plots[f.Name]; ok {
			continue
		}
		values[p.column(dataColumn("extra_", f.Name))] = p.format(f.Value)
	}
	labels := make([]string, 0, len(r.Plots))
	for k := range r.Plots {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	for _, k := range labels {
		values[p.column(dataColumn("plot_", k))] = p.format(r.Plots[k])
	}

	rec := make([]string, len(p.columns))
	for i, v := range values {
		rec[i] = v
	}
	return p.w.Write(rec)
}

// dataColumn keeps extra fields and plot labels off the candle columns:
// a name equal to one of them gets prefix.
func dataColumn(prefix, name string) string {
	if slices.Contains(plotBaseColumns, name) {
		return prefix + name
	}
	return name
}

func (p *PlotCSV) format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'g', p.precision, 64)
	case float32:
		return p.format(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// Close writes the header and every spooled row, padded to the full width,
// into the destination file.
func (p *PlotCSV) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	defer os.Remove(p.body.Name())

	p.w.Flush()
	if err := p.w.Error(); err != nil {
		_ = p.body.Close()
		_ = p.out.Close()
		return err
	}
	if _, err := p.body.Seek(0, io.SeekStart); err != nil {
		_ = p.body.Close()
		_ = p.out.Close()
		return err
	}

	err := p.assemble()
	if cerr := p.body.Close(); err == nil {
		err = cerr
	}
	if cerr := p.out.Close(); err == nil {
		err = cerr
	}
	return err
}

func (p *PlotCSV) assemble() error {
	w := csv.NewWriter(p.out)
	if err := w.Write(p.columns); err != nil {
		return err
	}
	r := csv.NewReader(p.body)
	r.FieldsPerRecord = -1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		for len(rec) < len(p.columns) {
			rec = append(rec, "")
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// EquityCSV writes equity records, two per closed trade.
type EquityCSV struct {
	f *os.File
	w *csv.Writer
}

// EquityHeader returns the equity columns for currency.
func EquityHeader(currency string) []string {
	cur := func(s string) string { return strings.TrimSpace(s + " " + currency) }
	return []string{
		"Trade #", "Bar Index", "Type", "Signal", "Date/Time", cur("Price"),
		"Contracts", cur("Profit"), "Profit %", cur("Cumulative profit"),
		"Cumulative profit %", cur("Run-up"), "Run-up %", cur("Drawdown"),
		"Drawdown %",
	}
}

// NewEquityCSV creates path and writes the header.
func NewEquityCSV(path, currency string) (*EquityCSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(EquityHeader(currency)); err != nil {
		_ = f.Close()
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &EquityCSV{f: f, w: w}, nil
}

func (j *EquityCSV) WriteEquity(e EquityRecord) error {
	err := j.w.Write([]string{
		strconv.Itoa(e.TradeNum),
		strconv.Itoa(e.BarIndex),
		e.Type,
		e.Signal,
		e.Time.Format(DateTimeFormat),
		f(e.Price),
		f(e.Contracts),
		f(e.Profit),
		FormatPercent(e.ProfitPercent),
		f(e.CumProfit),
		FormatPercent(e.CumProfitPercent),
		f(e.RunUp),
		FormatPercent(e.RunUpPercent),
		f(e.Drawdown),
		FormatPercent(e.DrawdownPercent),
	})
	if err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *EquityCSV) Close() error {
	if j.f == nil {
		return nil
	}
	j.w.Flush()
	err := j.w.Error()
	if cerr := j.f.Close(); err == nil {
		err = cerr
	}
	j.f = nil
	return err
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
