package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquitySQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "equity.db")
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	j, err := NewEquitySQLite(path, Run{RunID: "01RUN", Script: "sma-cross", Currency: "USD", Created: created})
	require.NoError(t, err)

	at := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	require.NoError(t, j.WriteEquity(EquityRecord{
		TradeNum: 1, BarIndex: 2, Type: EntryLong, Signal: "long", Time: at,
		Price: 100, Contracts: 1, Profit: 5, ProfitPercent: 5.006,
	}))
	require.NoError(t, j.WriteEquity(EquityRecord{
		TradeNum: 1, BarIndex: 4, Type: ExitLong, Signal: "exit", Time: at.Add(time.Hour),
		Price: 105, Contracts: 1, Profit: 5, ProfitPercent: 5.006,
	}))
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	r, err := OpenReader(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	ctx := context.Background()

	run, err := r.GetRun(ctx, "01RUN")
	require.NoError(t, err)
	assert.Equal(t, "sma-cross", run.Script)
	assert.True(t, run.Created.Equal(created))

	runs, err := r.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	recs, err := r.ListEquity(ctx, "01RUN")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, EntryLong, recs[0].Type)
	assert.Equal(t, ExitLong, recs[1].Type)
	assert.Equal(t, 105.0, recs[1].Price)
	assert.Equal(t, 5.01, recs[1].ProfitPercent)
	assert.True(t, recs[1].Time.Equal(at.Add(time.Hour)))

	none, err := r.ListEquity(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = r.GetRun(ctx, "other")
	assert.Error(t, err)
}

func TestEquitySQLiteRequiresRunID(t *testing.T) {
	t.Parallel()

	_, err := NewEquitySQLite(filepath.Join(t.TempDir(), "x.db"), Run{})
	assert.Error(t, err)
}

func TestEquitySQLiteDuplicateRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "equity.db")
	j, err := NewEquitySQLite(path, Run{RunID: "A", Script: "s"})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	_, err = NewEquitySQLite(path, Run{RunID: "A", Script: "s"})
	assert.Error(t, err)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n))
	assert.Equal(t, 1, n)
}
