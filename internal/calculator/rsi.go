package calculator

import (
	"errors"

	"TickerDesk/internal/model"
)

// RSIPeriod is the RSI window reported in a Summary.
const RSIPeriod = 14

// CalculateRSI computes the Wilder-smoothed RSI of bar closes over period.
// It needs at least period+1 bars.
func CalculateRSI(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 0, errors.New("not enough data for RSI calculation")
	}

	closes := extractCloses(bars)
	n := float64(period)

	// Seed with the plain average of the first period moves.
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := splitMove(closes[i] - closes[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= n
	avgLoss /= n

	for i := period + 1; i < len(closes); i++ {
		gain, loss := splitMove(closes[i] - closes[i-1])
		avgGain = (avgGain*(n-1) + gain) / n
		avgLoss = (avgLoss*(n-1) + loss) / n
	}

	if avgLoss == 0 {
		return 100, nil
	}
	return 100 - 100/(1+avgGain/avgLoss), nil
}

// splitMove returns a close-to-close change as a non-negative gain and loss.
func splitMove(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}
