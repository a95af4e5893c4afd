package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"TickerDesk/internal/collector"
	"TickerDesk/internal/config"
	"TickerDesk/internal/desk"
	"TickerDesk/internal/logging"
	"TickerDesk/internal/recorder"
	"TickerDesk/internal/render"
)

const dateLayout = "2006-01-02"

// app bundles what every command needs.
type app struct {
	cfg       *config.Config
	collector *collector.Collector
	recorder  recorder.Recorder
	closers   []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warnf("close: %v", err)
		}
	}
}

// newApp loads config, configures logging and builds the data fetcher. When
// logToFile is set, logs go to log.file instead of stderr.
func newApp(cmd *cobra.Command, logToFile bool) (*app, error) {
	if err := config.LoadEnvFiles(".env"); err != nil {
		return nil, err
	}

	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			cfgPath = v
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("provider"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	a := &app{cfg: cfg}
	logFile := ""
	if logToFile {
		logFile = cfg.Log.File
	}
	closer, err := logging.Setup(cfg.Log.Level, logFile)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closer)

	fetcher := buildFetcher(cfg)
	log.WithField("provider", fetcher.Name()).Info("data source ready")
	a.collector = collector.NewCollector(fetcher, cfg.Fetch.ExpiryWorkers)
	a.recorder = buildRecorder(cfg)
	a.closers = append(a.closers, a.recorder)
	return a, nil
}

func buildFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "polygon":
		return collector.NewPolygonFetcher(cfg.DataSource.PolygonAPIKey, cfg.Proxy)
	case "mock":
		return &collector.MockFetcher{}
	default:
		return collector.NewYahooFetcher(cfg.DataSource.YahooBaseURL, cfg.Proxy)
	}
}

func buildRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Warnf("init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

// newCoordinator wires a coordinator to loop and the two tables.
func (a *app) newCoordinator(ctx context.Context, loop *desk.Loop, prices, options render.Table) *desk.Coordinator {
	coord := desk.NewCoordinator(ctx, a.collector, loop, prices, options)
	coord.Timeout = a.cfg.Fetch.Timeout
	coord.Recorder = a.recorder
	return coord
}

// dateRange resolves --start/--end against config and falls back to the last
// thirty days, end exclusive.
func (a *app) dateRange(cmd *cobra.Command) (string, string) {
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	if start == "" {
		start = a.cfg.UI.StartDate
	}
	if end == "" {
		end = a.cfg.UI.EndDate
	}
	now := time.Now()
	if end == "" {
		end = now.AddDate(0, 0, 1).Format(dateLayout)
	}
	if start == "" {
		start = now.AddDate(0, 0, -30).Format(dateLayout)
	}
	return start, end
}
