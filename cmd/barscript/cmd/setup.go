package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/barscript/config"
	"github.com/rustyeddy/barscript/engine"
	"github.com/rustyeddy/barscript/feed"
	"github.com/rustyeddy/barscript/script"
)

// sessionFlags are shared by run and chart.
type sessionFlags struct {
	configPath string
	script     string
	inputs     []string
	feedPath   string
	feedType   string
	from, to   string
	timeframe  string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "path to session config (defaults when empty)")
	cmd.Flags().StringVarP(&f.script, "script", "s", "", "script to run, replacing the configured scripts")
	cmd.Flags().StringArrayVarP(&f.inputs, "input", "i", nil, "script input override name=value (repeatable)")
	cmd.Flags().StringVarP(&f.feedPath, "feed", "f", "", "candle file (.csv, .csv.xz, .csv.gz or .parquet)")
	cmd.Flags().StringVar(&f.feedType, "feed-type", "", "feed type csv|parquet (guessed from the extension)")
	cmd.Flags().StringVar(&f.from, "from", "", "first candle time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "end of the candle range, exclusive")
	cmd.Flags().StringVar(&f.timeframe, "timeframe", "", "resample candles to M5|M15|M30|H1|H4|D1|W1")
}

// load builds the effective configuration: file (or defaults), then flag
// overrides, then validation.
func (f *sessionFlags) load() (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(f.configPath); err != nil {
			return nil, err
		}
	} else {
		cfg.ApplyEnv()
	}

	if f.script != "" {
		cfg.Scripts = []config.ScriptConfig{{Name: f.script}}
	}
	if len(f.inputs) > 0 {
		in, err := config.ParseInputs(f.inputs)
		if err != nil {
			return nil, err
		}
		sc := &cfg.Scripts[0]
		if sc.Inputs == nil {
			sc.Inputs = map[string]any{}
		}
		for k, v := range in {
			sc.Inputs[k] = v
		}
	}
	if f.feedPath != "" {
		cfg.Feed.Path = f.feedPath
		cfg.Feed.Type = guessFeedType(f.feedPath)
	}
	if f.feedType != "" {
		cfg.Feed.Type = f.feedType
	}
	if f.from != "" {
		cfg.Feed.From = f.from
	}
	if f.to != "" {
		cfg.Feed.To = f.to
	}
	if f.timeframe != "" {
		cfg.Feed.Timeframe = f.timeframe
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func guessFeedType(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".parquet") {
		return "parquet"
	}
	return "csv"
}

func openFeed(fc config.FeedConfig) (engine.Feed, error) {
	rng, err := fc.Range()
	if err != nil {
		return nil, err
	}
	var src engine.Feed
	switch fc.Type {
	case "parquet":
		src, err = feed.OpenParquet(fc.Path, fc.Symbol, rng)
	default:
		src, err = feed.OpenCSV(fc.Path, rng)
	}
	if err != nil || fc.Timeframe == "" {
		return src, err
	}
	tf, err := feed.ParseTimeframe(fc.Timeframe)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return feed.NewResample(src, tf, 1), nil
}

func loadScript(sc config.ScriptConfig, cfg *config.Config) (*script.Handle, error) {
	return script.Load(sc.Name, script.Inputs(sc.Inputs), script.Options{InitialCapital: cfg.Session.InitialCapital})
}

func engineOptions(cfg *config.Config, runID string) (engine.Options, error) {
	loc, err := cfg.Session.Location()
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		Timezone:     loc,
		LastBarIndex: cfg.Session.LastBarIndex,
		Logger:       log,
		RunID:        runID,
	}, nil
}
