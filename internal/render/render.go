// Package render shapes fetch results into table rows and writes them into a
// presentation table.
package render

import (
	"strconv"

	"TickerDesk/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// Column headers, in provider column order.
var (
	PriceHeaders  = []string{"Date", "Open", "High", "Low", "Close", "Volume"}
	OptionHeaders = []string{"Contract Symbol", "Last Trade Date", "Strike", "Last Price", "Bid", "Ask", "Change"}
)

// Table is the presentation side of a rendered grid. Implementations are only
// touched from the goroutine that owns the UI.
type Table interface {
	Clear()
	AppendRow(cells []string)
}

// PriceHistory clears t and, when res is available, writes the header and one row per bar.
func PriceHistory(t Table, res model.FetchResult[model.PriceSeries]) int {
	var rows [][]string
	if res.Available() {
		rows = PriceRows(res.Value)
	}
	return fill(t, res.Available(), PriceHeaders, rows)
}

// OptionsChain clears t and, when res is available, writes the header and one row per contract.
func OptionsChain(t Table, res model.FetchResult[model.OptionsChain]) int {
	var rows [][]string
	if res.Available() {
		rows = OptionRows(res.Value)
	}
	return fill(t, res.Available(), OptionHeaders, rows)
}

// fill returns the number of data rows written.
func fill(t Table, available bool, header []string, rows [][]string) int {
	t.Clear()
	if !available {
		return 0
	}
	t.AppendRow(header)
	for _, r := range rows {
		t.AppendRow(r)
	}
	return len(rows)
}

// PriceRows stringifies every bar of s.
func PriceRows(s model.PriceSeries) [][]string {
	rows := make([][]string, len(s.Bars))
	for i, b := range s.Bars {
		rows[i] = []string{
			b.Time.Format("2006-01-02"),
			price(b.Open),
			price(b.High),
			price(b.Low),
			price(b.Close),
			price(b.Volume),
		}
	}
	return rows
}

// OptionRows stringifies every contract of c.
func OptionRows(c model.OptionsChain) [][]string {
	rows := make([][]string, len(c.Contracts))
	for i, o := range c.Contracts {
		lastTrade := ""
		if !o.LastTradeDate.IsZero() {
			lastTrade = o.LastTradeDate.Format(timeLayout)
		}
		rows[i] = []string{
			o.ContractSymbol,
			lastTrade,
			price(o.Strike),
			price(o.LastPrice),
			price(o.Bid),
			price(o.Ask),
			price(o.Change),
		}
	}
	return rows
}

// price formats v with the fewest digits that represent it exactly.
func price(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
