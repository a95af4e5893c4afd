package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"TickerDesk/internal/desk"
	"TickerDesk/internal/model"
	"TickerDesk/internal/recorder"
	"TickerDesk/internal/render"
	"TickerDesk/internal/scheduler"
	"TickerDesk/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive terminal UI",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

var pricesCmd = &cobra.Command{
	Use:   "prices SYMBOL",
	Short: "Print daily price history for SYMBOL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		start, end := a.dateRange(cmd)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.runOnce(ctx, desk.KindPrices, args[0], start, end)
	},
}

var optionsCmd = &cobra.Command{
	Use:   "options SYMBOL",
	Short: "Print the call options chain for SYMBOL across all expiries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.runOnce(ctx, desk.KindOptions, args[0], "", "")
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch SYMBOL",
	Short: "Refresh price history and options chain for SYMBOL on a cron schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		spec, _ := cmd.Flags().GetString("cron")
		if spec == "" {
			spec = a.cfg.Watch.Cron
		}
		start, end := a.dateRange(cmd)
		return a.watch(cmd.Context(), args[0], start, end, spec)
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent fetch diagnostics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		sr, ok := a.recorder.(*recorder.SQLiteRecorder)
		if !ok {
			return errors.New("journal disabled: set database.sqlite_path or SQLITE_PATH")
		}
		limit, _ := cmd.Flags().GetInt("limit")
		events, err := sr.Recent(limit)
		if err != nil {
			return err
		}
		fmt.Print(journalTable(events).String())
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, tuiCmd, pricesCmd, watchCmd} {
		c.Flags().String("start", "", "start date YYYY-MM-DD (inclusive)")
		c.Flags().String("end", "", "end date YYYY-MM-DD (exclusive)")
	}
	for _, c := range []*cobra.Command{rootCmd, tuiCmd} {
		c.Flags().String("symbol", "", "initial symbol")
	}
	watchCmd.Flags().String("cron", "", "refresh schedule, six fields with seconds (default watch.cron)")
	journalCmd.Flags().Int("limit", 20, "number of events to show")
}

func runTUI(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	symbol, _ := cmd.Flags().GetString("symbol")
	if symbol == "" {
		symbol = a.cfg.UI.Symbol
	}
	start, end := a.dateRange(cmd)

	return tui.Run(cmd.Context(), tui.Options{
		Fetcher:   a.collector,
		Recorder:  a.recorder,
		Timeout:   a.cfg.Fetch.Timeout,
		Symbol:    symbol,
		StartDate: start,
		EndDate:   end,
	})
}

// runOnce issues a single request and prints the rendered table. A failed
// fetch is returned as an error so the exit status reflects it.
func (a *app) runOnce(ctx context.Context, kind desk.RequestKind, symbol, start, end string) error {
	loop := desk.NewLoop(0)
	defer loop.Stop()
	prices := render.NewTextTable(symbol + " price history")
	options := render.NewTextTable(symbol + " options chain (calls)")
	coord := a.newCoordinator(ctx, loop, prices, options)
	defer coord.Stop()

	var report desk.Report
	coord.OnRender = func(r desk.Report) {
		report = r
		loop.Stop()
	}

	out := prices
	if kind == desk.KindOptions {
		out = options
		coord.RequestOptionsChain(symbol)
	} else {
		coord.RequestPriceHistory(symbol, start, end)
	}
	if err := loop.Run(ctx); err != nil {
		return err
	}

	fmt.Print(out.String())
	fmt.Println(report.String())
	if report.Status == model.StatusError {
		return fmt.Errorf("%s fetch failed: %s", kind, report.ErrorKind)
	}
	return nil
}

// watch re-requests both tables on the cron schedule until SIGINT or SIGTERM, printing
// each table as it renders.
func (a *app) watch(parent context.Context, symbol, start, end, spec string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := desk.NewLoop(0)
	defer loop.Stop()
	prices := render.NewTextTable(symbol + " price history")
	options := render.NewTextTable(symbol + " options chain (calls)")
	coord := a.newCoordinator(ctx, loop, prices, options)
	defer coord.Stop()

	coord.OnRender = func(r desk.Report) {
		out := prices
		if r.Kind == desk.KindOptions {
			out = options
		}
		fmt.Printf("\n[%s]\n", time.Now().Format("2006-01-02 15:04:05"))
		fmt.Print(out.String())
		fmt.Println(r.String())
	}

	sched := scheduler.NewScheduler(coord, scheduler.Target{Symbol: symbol, StartDate: start, EndDate: end})
	if err := sched.Register(spec); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()
	sched.RefreshNow()

	log.WithFields(log.Fields{"symbol": symbol, "cron": spec}).Info("watching, press Ctrl+C to stop")
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.WithField("refreshes", sched.Runs()).Info("watch stopped")
	return nil
}

func journalTable(events []recorder.FetchEvent) *render.TextTable {
	t := render.NewTextTable("recent fetches")
	if len(events) == 0 {
		return t
	}
	t.AppendRow([]string{"Time", "Table", "Symbol", "Range", "Status", "Kind", "Rows", "Elapsed", "Reason"})
	for _, e := range events {
		rng := ""
		if e.StartDate != "" || e.EndDate != "" {
			rng = e.StartDate + " to " + e.EndDate
		}
		t.AppendRow([]string{
			e.RecordedAt.Format("2006-01-02 15:04:05"),
			e.Kind,
			e.Symbol,
			rng,
			string(e.Status),
			string(e.ErrorKind),
			strconv.Itoa(e.Rows),
			e.Duration.String(),
			e.Reason,
		})
	}
	return t
}
