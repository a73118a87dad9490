package feed

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/rustyeddy/barscript/market"
)

// CSV reads candle rows:
//
//	time,open,high,low,close[,volume[,extra...]]
//
// where time is unix seconds, unix milliseconds or RFC3339. A header row is
// optional; when present, the names of the columns after volume become the
// extra field names, otherwise they are named col6, col7 and so on.
// Files ending in .xz, .lzma or .gz are decompressed on the fly. A leading
// byte order mark selects UTF-16 (as written by some trading terminals) or
// is dropped for UTF-8.
type CSV struct {
	f      *os.File
	closer io.Closer
	r      *csv.Reader
	rng    Range

	sawFirst bool
	extra    []string
	lastTS   int64
	haveLast bool
	line     int
}

// OpenCSV opens path, keeping candles within rng.
func OpenCSV(path string, rng Range) (*CSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var (
		src    io.Reader = f
		closer io.Closer
	)
	switch {
	case strings.HasSuffix(path, ".xz"):
		src, err = xz.NewReader(f)
	case strings.HasSuffix(path, ".lzma"):
		src, err = lzma.NewReader(f)
	case strings.HasSuffix(path, ".gz"):
		var gz *gzip.Reader
		gz, err = gzip.NewReader(f)
		src, closer = gz, gz
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	src = transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comment = '#'

	return &CSV{f: f, closer: closer, r: r, rng: rng}, nil
}

func (c *CSV) Close() error {
	if c.f == nil {
		return nil
	}
	if c.closer != nil {
		_ = c.closer.Close()
	}
	err := c.f.Close()
	c.f = nil
	return err
}

func (c *CSV) Next() (market.Candle, bool, error) {
	for {
		row, err := c.r.Read()
		if err == io.EOF {
			return market.Candle{}, false, nil
		}
		if err != nil {
			return market.Candle{}, false, err
		}
		c.line++
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !c.sawFirst {
			c.sawFirst = true
			if isHeader(row[0]) {
				if len(row) > 6 {
					c.extra = append([]string(nil), row[6:]...)
				}
				continue
			}
		}

		candle, ok, err := c.parseRow(row)
		if err != nil {
			return market.Candle{}, false, fmt.Errorf("line %d: %w", c.line, err)
		}
		if !ok || !c.rng.contains(candle.Timestamp) {
			continue
		}
		if c.haveLast && candle.Timestamp <= c.lastTS {
			return market.Candle{}, false, fmt.Errorf("line %d: timestamp %d not after %d", c.line, candle.Timestamp, c.lastTS)
		}
		c.lastTS, c.haveLast = candle.Timestamp, true
		return candle, true, nil
	}
}

func isHeader(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "time" || s == "timestamp" || s == "date"
}

func (c *CSV) parseRow(row []string) (market.Candle, bool, error) {
	// Need at least: time,open,high,low,close
	if len(row) < 5 {
		return market.Candle{}, false, nil
	}
	ts, err := parseTime(row[0])
	if err != nil {
		return market.Candle{}, false, err
	}

	var v [5]float64
	for i := 1; i < len(row) && i <= 5; i++ {
		s := strings.TrimSpace(row[i])
		if s == "" && i == 5 {
			continue
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Candle{}, false, fmt.Errorf("bad value %q: %w", row[i], err)
		}
		v[i-1] = x
	}

	candle := market.Candle{Timestamp: ts, Open: v[0], High: v[1], Low: v[2], Close: v[3], Volume: v[4]}
	for i := 6; i < len(row); i++ {
		name := fmt.Sprintf("col%d", i)
		if j := i - 6; j < len(c.extra) {
			name = c.extra[j]
		}
		candle.Extra = append(candle.Extra, market.Field{Name: name, Value: parseExtra(row[i])})
	}
	return candle, true, nil
}

// parseTime accepts unix seconds, unix milliseconds or RFC3339.
func parseTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e11 || n < -1e11 {
			return n / 1000, nil
		}
		return n, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, s)
		if err2 != nil {
			return 0, fmt.Errorf("bad time %q: %w", s, err)
		}
		t = t2
	}
	return t.Unix(), nil
}

func parseExtra(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return market.NA
	}
	if x, err := strconv.ParseFloat(s, 64); err == nil {
		return x
	}
	return s
}
