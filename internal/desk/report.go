package desk

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"TickerDesk/internal/calculator"
	"TickerDesk/internal/model"
)

// Report describes a completed render step.
type Report struct {
	RequestID  string
	Kind       RequestKind
	Symbol     string
	Generation uint64
	Status     model.Status
	ErrorKind  model.ErrorKind
	Reason     string
	Rows       int
	Elapsed    time.Duration
	Summary    *calculator.Summary
}

// String is the one-line status shown for the table after the render step.
func (r Report) String() string {
	elapsed := r.Elapsed.Round(time.Millisecond)
	switch r.Status {
	case model.StatusOK:
		line := fmt.Sprintf("%s: %d rows in %s", r.Symbol, r.Rows, elapsed)
		if r.Summary != nil {
			line += "  " + summaryLine(r.Summary)
		}
		return line
	case model.StatusEmpty:
		return fmt.Sprintf("%s: no data in %s", r.Symbol, elapsed)
	default:
		return fmt.Sprintf("%s: %s error: %s", r.Symbol, r.ErrorKind, r.Reason)
	}
}

func summaryLine(s *calculator.Summary) string {
	parts := []string{
		"open " + exact(s.Open),
		"close " + exact(s.Close),
		"high " + exact(s.High),
		"low " + exact(s.Low),
		fmt.Sprintf("change %+.2f%%", s.ChangePct),
	}
	if s.HasSMA {
		parts = append(parts, fmt.Sprintf("sma%d %s", calculator.SMAPeriod, strconv.FormatFloat(s.SMA, 'g', 6, 64)))
	}
	if s.HasRSI {
		parts = append(parts, fmt.Sprintf("rsi%d %.1f", calculator.RSIPeriod, s.RSI))
	}
	return strings.Join(parts, "  ")
}

// exact formats a quoted price without rounding.
func exact(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
