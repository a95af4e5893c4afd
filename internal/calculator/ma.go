package calculator

import (
	"errors"

	"TickerDesk/internal/model"
)

// SMAPeriod is the moving average window reported in a Summary.
const SMAPeriod = 20

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateCloseSMA returns the simple moving average of the last period closes.
func CalculateCloseSMA(bars []model.OHLCV, period int) (float64, error) {
	return CalculateSMA(extractCloses(bars), period)
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
