package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TickerDesk/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Nil data fields fall back to generated data around Price.
type MockFetcher struct {
	Price    float64
	Bars     []model.OHLCV
	Expiries []time.Time
	Calls    map[string][]model.OptionContract // keyed by expiry YYYY-MM-DD

	HistoryErr  error
	ExpiriesErr error
	CallsErr    map[string]error
	Delay       time.Duration
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) wait(ctx context.Context) error {
	if m.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.Delay):
		return nil
	}
}

func (m *MockFetcher) FetchHistory(ctx context.Context, _ string, start, end string) ([]model.OHLCV, error) {
	from, err := parseDate(start)
	if err != nil {
		return nil, model.NewFetchError(model.KindInvalidInput, "mock history", err)
	}
	to, err := parseDate(end)
	if err != nil {
		return nil, model.NewFetchError(model.KindInvalidInput, "mock history", err)
	}
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return generateMockBars(m.price(), from, to), nil
}

func (m *MockFetcher) ListExpiries(ctx context.Context, _ string) ([]time.Time, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.ExpiriesErr != nil {
		return nil, m.ExpiriesErr
	}
	if m.Expiries != nil {
		return m.Expiries, nil
	}
	return generateMockExpiries(time.Now().UTC(), 3), nil
}

func (m *MockFetcher) FetchCalls(ctx context.Context, symbol string, expiry time.Time) ([]model.OptionContract, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	key := expiry.UTC().Format(dateLayout)
	if err := m.CallsErr[key]; err != nil {
		return nil, err
	}
	if m.Calls != nil {
		return m.Calls[key], nil
	}
	return generateMockCalls(symbol, m.price(), expiry), nil
}

func (m *MockFetcher) price() float64 {
	if m.Price <= 0 {
		return 100
	}
	return m.Price
}

// generateMockBars produces one bar per weekday in [from, to).
func generateMockBars(basePrice float64, from, to time.Time) []model.OHLCV {
	var bars []model.OHLCV
	for d, i := from, 0; d.Before(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i%10-5)*0.001)
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}

// generateMockExpiries returns the next n Fridays after now.
func generateMockExpiries(now time.Time, n int) []time.Time {
	d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var out []time.Time
	for len(out) < n {
		d = d.AddDate(0, 0, 1)
		if d.Weekday() == time.Friday {
			out = append(out, d)
		}
	}
	return out
}

func generateMockCalls(symbol string, basePrice float64, expiry time.Time) []model.OptionContract {
	root := strings.ToUpper(symbol)
	var calls []model.OptionContract
	for i := -2; i <= 2; i++ {
		strike := float64(int(basePrice)) + float64(i)*5
		last := basePrice - strike + 2.5
		if last < 0.05 {
			last = 0.05
		}
		calls = append(calls, model.OptionContract{
			ContractSymbol: fmt.Sprintf("%s%sC%08d", root, expiry.Format("060102"), int(strike*1000)),
			Expiration:     expiry,
			LastTradeDate:  expiry.AddDate(0, 0, -1).Add(20 * time.Hour),
			Strike:         strike,
			LastPrice:      last,
			Bid:            last - 0.05,
			Ask:            last + 0.05,
			Change:         0.1 * float64(i),
		})
	}
	return calls
}
