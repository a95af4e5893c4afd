package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerDesk/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func contracts(prefix string, n int) []model.OptionContract {
	out := make([]model.OptionContract, n)
	for i := range out {
		out[i] = model.OptionContract{ContractSymbol: fmt.Sprintf("%s-%d", prefix, i), Strike: float64(100 + i)}
	}
	return out
}

func TestFetchPriceHistory_SortsBars(t *testing.T) {
	m := &MockFetcher{Bars: []model.OHLCV{
		{Time: day("2023-01-04"), Close: 2},
		{Time: day("2023-01-03"), Close: 1},
		{Time: day("2023-01-05"), Close: 3},
	}}
	res := NewCollector(m, 0).FetchPriceHistory(context.Background(), "AAPL", "2023-01-01", "2023-01-06")

	require.True(t, res.Available())
	require.Len(t, res.Value.Bars, 3)
	assert.Equal(t, 1.0, res.Value.Bars[0].Close)
	assert.Equal(t, 3.0, res.Value.Bars[2].Close)
	assert.Equal(t, "AAPL", res.Value.Symbol)
}

// symbolFetcher records the symbols the collector passes through.
type symbolFetcher struct {
	*MockFetcher
	history []string
	lists   []string
}

func (f *symbolFetcher) FetchHistory(ctx context.Context, symbol, start, end string) ([]model.OHLCV, error) {
	f.history = append(f.history, symbol)
	return f.MockFetcher.FetchHistory(ctx, symbol, start, end)
}

func (f *symbolFetcher) ListExpiries(ctx context.Context, symbol string) ([]time.Time, error) {
	f.lists = append(f.lists, symbol)
	return f.MockFetcher.ListExpiries(ctx, symbol)
}

func TestFetch_TrimsSymbolForBothTables(t *testing.T) {
	f := &symbolFetcher{MockFetcher: &MockFetcher{
		Bars:     []model.OHLCV{{Time: day("2023-01-03"), Close: 1}},
		Expiries: []time.Time{day("2024-01-19")},
		Calls:    map[string][]model.OptionContract{"2024-01-19": contracts("AAPL", 1)},
	}}
	c := NewCollector(f, 1)

	prices := c.FetchPriceHistory(context.Background(), "  AAPL\t", "2023-01-01", "2023-01-06")
	chain := c.FetchOptionsChain(context.Background(), "  AAPL\t")

	require.True(t, prices.Available())
	require.True(t, chain.Available())
	assert.Equal(t, "AAPL", prices.Value.Symbol)
	assert.Equal(t, "AAPL", chain.Value.Symbol)
	assert.Equal(t, []string{"AAPL"}, f.history)
	assert.Equal(t, []string{"AAPL"}, f.lists)
}

func TestFetchPriceHistory_EmptyIsDistinctFromError(t *testing.T) {
	m := &MockFetcher{Bars: []model.OHLCV{}}
	res := NewCollector(m, 0).FetchPriceHistory(context.Background(), "AAPL", "2023-01-07", "2023-01-08")

	assert.False(t, res.Available())
	assert.Equal(t, model.StatusEmpty, res.Status)
	assert.Equal(t, model.KindNoData, res.Kind)
}

func TestFetchPriceHistory_InvalidDateIsFetchFailure(t *testing.T) {
	m := &MockFetcher{}
	res := NewCollector(m, 0).FetchPriceHistory(context.Background(), "AAPL", "01/01/2023", "2023-01-05")

	assert.Equal(t, model.StatusError, res.Status)
	assert.Equal(t, model.KindInvalidInput, res.Kind)
	assert.Contains(t, res.Reason, "01/01/2023")
}

func TestFetchPriceHistory_ProviderErrorDoesNotPropagate(t *testing.T) {
	m := &MockFetcher{HistoryErr: errors.New("connection refused")}
	res := NewCollector(m, 0).FetchPriceHistory(context.Background(), "AAPL", "2023-01-01", "2023-01-05")

	assert.Equal(t, model.StatusError, res.Status)
	assert.Equal(t, model.KindNetwork, res.Kind)
	assert.Empty(t, res.Value.Bars)
}

func TestFetchPriceHistory_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &MockFetcher{Delay: time.Second}
	res := NewCollector(m, 0).FetchPriceHistory(ctx, "AAPL", "2023-01-01", "2023-01-05")

	assert.Equal(t, model.StatusError, res.Status)
	assert.Equal(t, model.KindCanceled, res.Kind)
}

func TestFetchOptionsChain_AggregatesInExpiryOrder(t *testing.T) {
	expiries := []time.Time{day("2024-03-15"), day("2024-01-19"), day("2024-02-16")}
	m := &MockFetcher{
		Expiries: expiries,
		Calls: map[string][]model.OptionContract{
			"2024-03-15": contracts("mar", 3),
			"2024-01-19": contracts("jan", 1),
			"2024-02-16": contracts("feb", 2),
		},
	}
	res := NewCollector(m, 2).FetchOptionsChain(context.Background(), "TSLA")

	require.True(t, res.Available())
	require.Len(t, res.Value.Contracts, 6)
	var got []string
	for _, c := range res.Value.Contracts {
		got = append(got, c.ContractSymbol)
	}
	assert.Equal(t, []string{"mar-0", "mar-1", "mar-2", "jan-0", "feb-0", "feb-1"}, got)
	assert.Equal(t, expiries, res.Value.Expiries)
}

func TestFetchOptionsChain_ZeroExpiries(t *testing.T) {
	m := &MockFetcher{Expiries: []time.Time{}}
	res := NewCollector(m, 0).FetchOptionsChain(context.Background(), "TSLA")

	assert.Equal(t, model.StatusEmpty, res.Status)
	assert.Empty(t, res.Value.Contracts)
}

func TestFetchOptionsChain_ListFailure(t *testing.T) {
	m := &MockFetcher{ExpiriesErr: model.NewFetchError(model.KindUpstream, "list", errors.New("Not Found"))}
	res := NewCollector(m, 0).FetchOptionsChain(context.Background(), "ZZZZ")

	assert.Equal(t, model.StatusError, res.Status)
	assert.Equal(t, model.KindUpstream, res.Kind)
}

func TestFetchOptionsChain_ExpiryFailureFailsChain(t *testing.T) {
	m := &MockFetcher{
		Expiries: []time.Time{day("2024-01-19"), day("2024-02-16")},
		Calls: map[string][]model.OptionContract{
			"2024-01-19": contracts("jan", 2),
		},
		CallsErr: map[string]error{"2024-02-16": errors.New("timeout")},
	}
	res := NewCollector(m, 0).FetchOptionsChain(context.Background(), "TSLA")

	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.Reason, "2024-02-16")
}

func TestFetchOptionsChain_NoCallsIsEmpty(t *testing.T) {
	m := &MockFetcher{
		Expiries: []time.Time{day("2024-01-19")},
		Calls:    map[string][]model.OptionContract{},
	}
	res := NewCollector(m, 0).FetchOptionsChain(context.Background(), "TSLA")

	assert.Equal(t, model.StatusEmpty, res.Status)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		kind model.ErrorKind
	}{
		{context.Canceled, model.KindCanceled},
		{fmt.Errorf("wrap: %w", context.DeadlineExceeded), model.KindCanceled},
		{model.NewFetchError(model.KindUpstream, "op", errors.New("x")), model.KindUpstream},
		{fmt.Errorf("bad: %w", model.ErrInvalidInput), model.KindInvalidInput},
		{model.ErrNoData, model.KindNoData},
		{errors.New("boom"), model.KindNetwork},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, classify(tt.err), tt.err.Error())
	}
}

func TestMockFetcher_GeneratedData(t *testing.T) {
	m := &MockFetcher{Price: 200}
	bars, err := m.FetchHistory(context.Background(), "AAPL", "2023-01-02", "2023-01-09")
	require.NoError(t, err)
	assert.Len(t, bars, 5)

	expiries, err := m.ListExpiries(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, expiries, 3)
	for _, e := range expiries {
		assert.Equal(t, time.Friday, e.Weekday())
	}

	calls, err := m.FetchCalls(context.Background(), "AAPL", expiries[0])
	require.NoError(t, err)
	assert.Len(t, calls, 5)
}
