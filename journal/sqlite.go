package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run identifies one session stored in an equity database.
type Run struct {
	RunID    string
	Script   string
	Currency string
	Created  time.Time
}

// EquitySQLite stores equity records of one run in SQLite.
type EquitySQLite struct {
	db  *sql.DB
	run Run
}

// NewEquitySQLite opens (creating when needed) the database at path and
// registers run in it.
func NewEquitySQLite(path string, run Run) (*EquitySQLite, error) {
	if run.RunID == "" {
		return nil, fmt.Errorf("journal: run id is required")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	if run.Created.IsZero() {
		run.Created = time.Now().UTC()
	}
	_, err = db.Exec(`
		INSERT INTO runs (run_id, script, currency, created)
		VALUES (?, ?, ?, ?)`,
		run.RunID, run.Script, run.Currency, run.Created,
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &EquitySQLite{db: db, run: run}, nil
}

func (j *EquitySQLite) WriteEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, trade_num, bar_index, type, signal, time, price, contracts,
		 profit, profit_pct, cum_profit, cum_profit_pct, runup, runup_pct, drawdown, drawdown_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.run.RunID, e.TradeNum, e.BarIndex, e.Type, e.Signal, e.Time.UTC(), e.Price, e.Contracts,
		e.Profit, RoundPercent(e.ProfitPercent), e.CumProfit, RoundPercent(e.CumProfitPercent),
		e.RunUp, RoundPercent(e.RunUpPercent), e.Drawdown, RoundPercent(e.DrawdownPercent),
	)
	return err
}

func (j *EquitySQLite) Close() error {
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}
