package collector

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"TickerDesk/internal/model"
)

// PolygonFetcher implements Fetcher using the Polygon REST API.
// The options reference endpoint carries no quotes, so price columns stay zero.
type PolygonFetcher struct {
	Client    *polygon.Client
	PageLimit int
}

// NewPolygonFetcher creates a Polygon fetcher with optional proxy support.
func NewPolygonFetcher(apiKey, proxyURL string) *PolygonFetcher {
	return &PolygonFetcher{
		Client:    polygon.NewWithClient(apiKey, newHTTPClient(proxyURL)),
		PageLimit: 1000,
	}
}

func (f *PolygonFetcher) Name() string { return "polygon" }

func polygonKind(err error) model.ErrorKind {
	var resp *models.ErrorResponse
	if errors.As(err, &resp) {
		return model.KindUpstream
	}
	return model.KindNetwork
}

// FetchHistory lists daily aggregates for [start, end).
func (f *PolygonFetcher) FetchHistory(ctx context.Context, symbol, start, end string) ([]model.OHLCV, error) {
	const op = "polygon history"

	from, err := parseDate(start)
	if err != nil {
		return nil, model.NewFetchError(model.KindInvalidInput, op, err)
	}
	to, err := parseDate(end)
	if err != nil {
		return nil, model.NewFetchError(model.KindInvalidInput, op, err)
	}

	params := models.ListAggsParams{
		Ticker:     strings.ToUpper(strings.TrimSpace(symbol)),
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(from),
		To:         models.Millis(to.Add(-time.Millisecond)),
	}.WithOrder(models.Asc).WithAdjusted(true)

	iter := f.Client.ListAggs(ctx, params)

	var bars []model.OHLCV
	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, model.OHLCV{
			Time:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, model.NewFetchError(polygonKind(err), op, err)
	}
	return bars, nil
}

// ListExpiries enumerates the distinct expiration dates of active call contracts.
func (f *PolygonFetcher) ListExpiries(ctx context.Context, symbol string) ([]time.Time, error) {
	const op = "polygon expiries"

	params := models.ListOptionsContractsParams{}.
		WithUnderlyingTicker(models.EQ, strings.ToUpper(strings.TrimSpace(symbol))).
		WithContractType("call").
		WithLimit(f.PageLimit)

	iter := f.Client.ListOptionsContracts(ctx, params)

	var dates []time.Time
	for iter.Next() {
		dates = append(dates, time.Time(iter.Item().ExpirationDate))
	}
	if err := iter.Err(); err != nil {
		return nil, model.NewFetchError(polygonKind(err), op, err)
	}
	return distinctDates(dates), nil
}

// FetchCalls lists the call contracts of one expiry.
func (f *PolygonFetcher) FetchCalls(ctx context.Context, symbol string, expiry time.Time) ([]model.OptionContract, error) {
	const op = "polygon calls"

	params := models.ListOptionsContractsParams{}.
		WithUnderlyingTicker(models.EQ, strings.ToUpper(strings.TrimSpace(symbol))).
		WithContractType("call").
		WithExpirationDate(models.EQ, models.Date(expiry)).
		WithLimit(f.PageLimit)

	iter := f.Client.ListOptionsContracts(ctx, params)

	var contracts []model.OptionContract
	for iter.Next() {
		contracts = append(contracts, polygonContract(iter.Item()))
	}
	if err := iter.Err(); err != nil {
		return nil, model.NewFetchError(polygonKind(err), op, err)
	}
	sort.SliceStable(contracts, func(i, j int) bool { return contracts[i].Strike < contracts[j].Strike })
	return contracts, nil
}

func polygonContract(c models.OptionsContract) model.OptionContract {
	return model.OptionContract{
		ContractSymbol: strings.TrimPrefix(c.Ticker, "O:"),
		Expiration:     time.Time(c.ExpirationDate),
		Strike:         c.StrikePrice,
	}
}

// distinctDates returns the unique calendar days of dates in ascending order.
func distinctDates(dates []time.Time) []time.Time {
	seen := make(map[string]bool, len(dates))
	var out []time.Time
	for _, d := range dates {
		key := d.UTC().Format(dateLayout)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d.UTC())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
