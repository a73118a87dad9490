package journal

import (
	"context"
	"database/sql"
	"fmt"
)

// Reader queries an equity database written by EquitySQLite.
type Reader struct {
	db *sql.DB
}

// OpenReader opens the equity database at path.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

// GetRun returns a single run by id.
func (r *Reader) GetRun(ctx context.Context, runID string) (Run, error) {
	var run Run
	row := r.db.QueryRowContext(ctx, `
		SELECT run_id, script, currency, created
		FROM runs
		WHERE run_id = ?`, runID)
	err := row.Scan(&run.RunID, &run.Script, &run.Currency, &run.Created)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, fmt.Errorf("run %q not found", runID)
		}
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns every stored run, oldest first.
func (r *Reader) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, script, currency, created
		FROM runs
		ORDER BY created ASC, run_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.RunID, &run.Script, &run.Currency, &run.Created); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquity returns the equity records of a run in write order.
func (r *Reader) ListEquity(ctx context.Context, runID string) ([]EquityRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT trade_num, bar_index, type, signal, time, price, contracts,
		       profit, profit_pct, cum_profit, cum_profit_pct, runup, runup_pct, drawdown, drawdown_pct
		FROM equity
		WHERE run_id = ?
		ORDER BY rowid ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var e EquityRecord
		if err := rows.Scan(
			&e.TradeNum,
			&e.BarIndex,
			&e.Type,
			&e.Signal,
			&e.Time,
			&e.Price,
			&e.Contracts,
			&e.Profit,
			&e.ProfitPercent,
			&e.CumProfit,
			&e.CumProfitPercent,
			&e.RunUp,
			&e.RunUpPercent,
			&e.Drawdown,
			&e.DrawdownPercent,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
