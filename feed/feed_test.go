package feed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"golang.org/x/text/encoding/unicode"

	"github.com/rustyeddy/barscript/market"
)

const sampleCSV = `time,open,high,low,close,volume,oi,tag
0,10,12,9,11,100,5,a
60,11,11,8,9,,6,b
# comment
120,9,10,8.5,9.5,50,,c
`

func writeFile(t *testing.T, name, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestCSVFeed(t *testing.T) {
	t.Parallel()

	f, err := OpenCSV(writeFile(t, "bars.csv", sampleCSV), Range{})
	require.NoError(t, err)

	got, err := ReadAll(f)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, market.Candle{
		Timestamp: 0, Open: 10, High: 12, Low: 9, Close: 11, Volume: 100,
		Extra: []market.Field{{Name: "oi", Value: 5.0}, {Name: "tag", Value: "a"}},
	}, got[0])
	assert.Equal(t, 0.0, got[1].Volume)

	oi, ok := got[2].ExtraValue("oi")
	require.True(t, ok)
	assert.True(t, market.IsNA(oi.(float64)))
}

func TestCSVFeedXZ(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bars.csv.xz")
	fh, err := os.Create(path)
	require.NoError(t, err)
	w, err := xz.NewWriter(fh)
	require.NoError(t, err)
	_, err = w.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, fh.Close())

	f, err := OpenCSV(path, Range{})
	require.NoError(t, err)
	got, err := ReadAll(f)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 9.5, got[2].Close)
}

func TestCSVFeedRangeAndTimeFormats(t *testing.T) {
	t.Parallel()

	data := "2024-01-01T00:00:00Z,1,1,1,1\n1704067260000,2,2,2,2\n1704067320,3,3,3,3\n"
	rng := Range{
		From: time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 1, 0, 2, 0, 0, time.UTC),
	}
	f, err := OpenCSV(writeFile(t, "bars.csv", data), rng)
	require.NoError(t, err)

	got, err := ReadAll(f)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1704067260), got[0].Timestamp)
	assert.Equal(t, 2.0, got[0].Open)
}

func TestCSVFeedErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"bad price", "0,1,x,1,1\n"},
		{"bad time", "yesterday,1,1,1,1\n"},
		{"not increasing", "60,1,1,1,1\n60,1,1,1,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := OpenCSV(writeFile(t, "bars.csv", tt.data), Range{})
			require.NoError(t, err)
			_, err = ReadAll(f)
			assert.Error(t, err)
		})
	}

	_, err := OpenCSV(filepath.Join(t.TempDir(), "missing.csv"), Range{})
	assert.Error(t, err)
}

func TestCSVFeedByteOrderMark(t *testing.T) {
	t.Parallel()

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(sampleCSV)
	require.NoError(t, err)

	for name, data := range map[string]string{
		"utf16.csv": utf16,
		"utf8.csv":  "\uFEFF" + sampleCSV,
	} {
		f, err := OpenCSV(writeFile(t, name, data), Range{})
		require.NoError(t, err, name)
		got, err := ReadAll(f)
		require.NoError(t, err, name)
		require.Len(t, got, 3, name)
		assert.Equal(t, 11.0, got[0].Close, name)
		v, ok := got[0].ExtraValue("tag")
		assert.True(t, ok, name)
		assert.Equal(t, "a", v, name)
	}
}

func TestSliceFeed(t *testing.T) {
	t.Parallel()

	s := NewSlice(market.Candle{Timestamp: 1}, market.Candle{Timestamp: 2})
	assert.Equal(t, 2, s.Len())

	c, ok, err := s.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), c.Timestamp)

	rest, err := ReadAll(s)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	_, ok, err = s.Next()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestParquetRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bars", "AAPL.parquet")
	in := []market.Candle{
		{Timestamp: 120, Open: 3, High: 4, Low: 2, Close: 3.5, Volume: 30},
		{Timestamp: 0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10,
			Extra: []market.Field{{Name: "vwap", Value: 1.2}, {Name: "trade_count", Value: int64(7)}}},
		{Timestamp: 60, Open: 2, High: 3, Low: 1, Close: 2.5, Volume: 20},
	}
	require.NoError(t, WriteParquet(path, "AAPL", in))

	f, err := OpenParquet(path, "AAPL", Range{})
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())

	got, err := ReadAll(f)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{0, 60, 120}, []int64{got[0].Timestamp, got[1].Timestamp, got[2].Timestamp})
	assert.Equal(t, 10.0, got[0].Volume)

	vwap, _ := got[0].ExtraValue("vwap")
	assert.Equal(t, 1.2, vwap)
	n, _ := got[0].ExtraValue("trade_count")
	assert.Equal(t, int64(7), n)

	other, err := OpenParquet(path, "MSFT", Range{})
	require.NoError(t, err)
	assert.Equal(t, 0, other.Len())
}
