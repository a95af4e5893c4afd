package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"TickerDesk/internal/desk"
	"TickerDesk/internal/recorder"
)

// Options configures Run.
type Options struct {
	Fetcher  desk.DataFetcher
	Recorder recorder.Recorder
	Timeout  time.Duration

	Symbol    string
	StartDate string
	EndDate   string
}

// Run starts the terminal UI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	m := NewModel(opts.Symbol, opts.StartDate, opts.EndDate)
	ui := &programUI{}

	coord := desk.NewCoordinator(ctx, opts.Fetcher, ui, m.prices, m.options)
	if opts.Timeout > 0 {
		coord.Timeout = opts.Timeout
	}
	if opts.Recorder != nil {
		coord.Recorder = opts.Recorder
	}
	coord.OnRender = m.Rendered
	m.Requester = coord
	defer coord.Stop()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	ui.p = p

	log.Info("tui started")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	log.Info("tui stopped")
	return nil
}
