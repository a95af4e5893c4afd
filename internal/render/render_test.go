package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerDesk/internal/model"
)

func aaplSeries() model.PriceSeries {
	d := func(s string) time.Time { t, _ := time.Parse("2006-01-02", s); return t }
	return model.PriceSeries{Symbol: "AAPL", Bars: []model.OHLCV{
		{Time: d("2023-01-03"), Open: 130.28, High: 130.9, Low: 124.17, Close: 125.07, Volume: 112117500},
		{Time: d("2023-01-04"), Open: 126.89, High: 128.66, Low: 125.08, Close: 126.36, Volume: 89113600},
		{Time: d("2023-01-05"), Open: 127.13, High: 127.77, Low: 124.76, Close: 125.02, Volume: 80962700},
	}}
}

func TestPriceHistory_HeaderPlusRows(t *testing.T) {
	tbl := NewTextTable("prices")
	n := PriceHistory(tbl, model.OK(aaplSeries()))

	assert.Equal(t, 3, n)
	require.Equal(t, 4, tbl.Len())
	for _, r := range tbl.Rows() {
		assert.Len(t, r, 6)
	}
	assert.Equal(t, PriceHeaders, tbl.Rows()[0])
	assert.Equal(t, []string{"2023-01-03", "130.28", "130.9", "124.17", "125.07", "112117500"}, tbl.Rows()[1])
}

func TestPriceHistory_UnavailableClearsStaleRows(t *testing.T) {
	tbl := NewTextTable("prices")
	PriceHistory(tbl, model.OK(aaplSeries()))
	require.Equal(t, 4, tbl.Len())

	PriceHistory(tbl, model.Failed[model.PriceSeries](model.KindNetwork, "boom"))
	assert.Zero(t, tbl.Len())

	PriceHistory(tbl, model.OK(aaplSeries()))
	PriceHistory(tbl, model.Empty[model.PriceSeries]())
	assert.Zero(t, tbl.Len())
}

func TestPriceHistory_Idempotent(t *testing.T) {
	tbl := NewTextTable("prices")
	PriceHistory(tbl, model.OK(aaplSeries()))
	first := tbl.String()
	PriceHistory(tbl, model.OK(aaplSeries()))
	assert.Equal(t, first, tbl.String())
}

func TestOptionsChain(t *testing.T) {
	chain := model.OptionsChain{Symbol: "TSLA", Contracts: []model.OptionContract{
		{
			ContractSymbol: "TSLA240119C00200000",
			LastTradeDate:  time.Date(2024, 1, 17, 19, 59, 55, 0, time.UTC),
			Strike:         200, LastPrice: 18.5, Bid: 18.4, Ask: 18.6, Change: -1.25,
		},
		{ContractSymbol: "TSLA240119C00205000", Strike: 205},
	}}
	tbl := NewTextTable("options")
	n := OptionsChain(tbl, model.OK(chain))

	assert.Equal(t, 2, n)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, OptionHeaders, tbl.Rows()[0])
	assert.Equal(t,
		[]string{"TSLA240119C00200000", "2024-01-17 19:59:55", "200", "18.5", "18.4", "18.6", "-1.25"},
		tbl.Rows()[1])
	assert.Equal(t, "", tbl.Rows()[2][1])
}

func TestRows_KeepSubCentPrecision(t *testing.T) {
	d := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	prices := PriceRows(model.PriceSeries{Symbol: "PNNY", Bars: []model.OHLCV{
		{Time: d, Open: 0.0042, High: 0.0049, Low: 0.0031, Close: 0.0045, Volume: 12345678},
	}})
	assert.Equal(t, []string{"2023-01-03", "0.0042", "0.0049", "0.0031", "0.0045", "12345678"}, prices[0])

	options := OptionRows(model.OptionsChain{Contracts: []model.OptionContract{
		{ContractSymbol: "X", Strike: 2.125, LastPrice: 0.0005, Bid: 0.001, Ask: 0.01, Change: -0.003},
	}})
	assert.Equal(t, []string{"X", "", "2.125", "0.0005", "0.001", "0.01", "-0.003"}, options[0])
	for _, cell := range options[0] {
		assert.NotEqual(t, "-0.00", cell)
	}
}

func TestOptionsChain_Empty(t *testing.T) {
	tbl := NewTextTable("options")
	assert.Zero(t, OptionsChain(tbl, model.Empty[model.OptionsChain]()))
	assert.Zero(t, tbl.Len())
	assert.Contains(t, tbl.String(), "(no data)")
}

func TestTextTable_String(t *testing.T) {
	tbl := NewTextTable("prices")
	PriceHistory(tbl, model.OK(aaplSeries()))
	out := tbl.String()
	assert.Contains(t, out, "prices:")
	assert.Contains(t, out, "Volume")
	assert.Contains(t, out, "2023-01-05")
}
