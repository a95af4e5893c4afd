package calculator

import (
	"errors"
	"math"

	"TickerDesk/internal/model"
)

// Summary describes the range covered by a price series.
type Summary struct {
	High      float64
	Low       float64
	Open      float64
	Close     float64
	ChangePct float64

	// SMA and RSI cover the trailing SMAPeriod and RSIPeriod bars and are
	// only set when the series is long enough.
	SMA    float64
	HasSMA bool
	RSI    float64
	HasRSI bool
}

// CalculateRange scans bars and returns the highest high and the lowest low.
func CalculateRange(bars []model.OHLCV) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// Summarize returns the period range plus first open, last close and the change
// between them. Bars must be in chronological order.
func Summarize(bars []model.OHLCV) (*Summary, error) {
	high, low, err := CalculateRange(bars)
	if err != nil {
		return nil, err
	}
	s := &Summary{
		High:  high,
		Low:   low,
		Open:  bars[0].Open,
		Close: bars[len(bars)-1].Close,
	}
	if s.Open != 0 {
		s.ChangePct = (s.Close - s.Open) / s.Open * 100
	}
	if sma, err := CalculateCloseSMA(bars, SMAPeriod); err == nil {
		s.SMA, s.HasSMA = sma, true
	}
	if rsi, err := CalculateRSI(bars, RSIPeriod); err == nil {
		s.RSI, s.HasRSI = rsi, true
	}
	return s, nil
}
