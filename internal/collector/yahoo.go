package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"TickerDesk/internal/model"
)

const (
	yahooBaseURL   = "https://query2.finance.yahoo.com"
	yahooCookieURL = "https://fc.yahoo.com"
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	CookieURL string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker

	mu    sync.Mutex
	crumb string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL, proxyURL string) *YahooFetcher {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	client := newHTTPClient(proxyURL)
	// The options endpoint needs the session cookie that comes with the crumb.
	client.Jar, _ = cookiejar.New(nil)
	return &YahooFetcher{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		CookieURL: yahooCookieURL,
		Client:    client,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooContract struct {
	ContractSymbol string  `json:"contractSymbol"`
	Strike         float64 `json:"strike"`
	LastPrice      float64 `json:"lastPrice"`
	Change         float64 `json:"change"`
	Bid            float64 `json:"bid"`
	Ask            float64 `json:"ask"`
	Expiration     int64   `json:"expiration"`
	LastTradeDate  int64   `json:"lastTradeDate"`
}

// yahooOptions is the response structure from Yahoo Finance options API.
type yahooOptions struct {
	OptionChain struct {
		Result []struct {
			UnderlyingSymbol string  `json:"underlyingSymbol"`
			ExpirationDates  []int64 `json:"expirationDates"`
			Options          []struct {
				ExpirationDate int64           `json:"expirationDate"`
				Calls          []yahooContract `json:"calls"`
			} `json:"options"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"optionChain"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func unixTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

func (f *YahooFetcher) get(ctx context.Context, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// FetchHistory downloads daily bars for [start, end). Both dates are YYYY-MM-DD.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol, start, end string) ([]model.OHLCV, error) {
	const op = "yahoo history"

	from, err := parseDate(start)
	if err != nil {
		return nil, model.NewFetchError(model.KindInvalidInput, op, err)
	}
	to, err := parseDate(end)
	if err != nil {
		return nil, model.NewFetchError(model.KindInvalidInput, op, err)
	}

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	status, body, err := f.get(ctx, u)
	if err != nil {
		return nil, model.NewFetchError(model.KindNetwork, op, err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		if status != http.StatusOK {
			return nil, model.NewFetchError(model.KindNetwork, op, fmt.Errorf("status %d, body: %s", status, string(body)))
		}
		return nil, model.NewFetchError(model.KindNetwork, op, fmt.Errorf("decode: %w", err))
	}
	if chart.Chart.Error != nil {
		return nil, model.NewFetchError(model.KindUpstream, op,
			fmt.Errorf("%s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description))
	}
	if status != http.StatusOK {
		return nil, model.NewFetchError(model.KindNetwork, op, fmt.Errorf("status %d", status))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	at := func(vals []interface{}, i int) float64 {
		if i >= len(vals) {
			return 0
		}
		return toFloat(vals[i])
	}
	for i, ts := range result.Timestamp {
		o := at(quote.Open, i)
		h := at(quote.High, i)
		l := at(quote.Low, i)
		c := at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// ensureCrumb primes the session cookie and fetches the crumb the options API requires.
func (f *YahooFetcher) ensureCrumb(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.crumb != "" {
		return f.crumb, nil
	}

	// fc.yahoo.com answers 404 but sets the cookie; only transport errors matter.
	if f.CookieURL != "" {
		if _, _, err := f.get(ctx, f.CookieURL); err != nil {
			return "", fmt.Errorf("prime cookie: %w", err)
		}
	}

	status, body, err := f.get(ctx, f.BaseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("get crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if status != http.StatusOK || crumb == "" {
		return "", fmt.Errorf("get crumb: status %d", status)
	}
	f.crumb = crumb
	return crumb, nil
}

func (f *YahooFetcher) resetCrumb() {
	f.mu.Lock()
	f.crumb = ""
	f.mu.Unlock()
}

var errUnauthorized = errors.New("unauthorized")

func (f *YahooFetcher) fetchOptions(ctx context.Context, op, symbol string, date int64) (*yahooOptions, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		opts, err := f.fetchOptionsOnce(ctx, op, symbol, date)
		if !errors.Is(err, errUnauthorized) {
			return opts, err
		}
		// Stale crumb: drop it and try once more with a fresh session.
		lastErr = err
		f.resetCrumb()
	}
	return nil, model.NewFetchError(model.KindNetwork, op, lastErr)
}

func (f *YahooFetcher) fetchOptionsOnce(ctx context.Context, op, symbol string, date int64) (*yahooOptions, error) {
	crumb, err := f.ensureCrumb(ctx)
	if err != nil {
		return nil, model.NewFetchError(model.KindNetwork, op, err)
	}

	q := url.Values{}
	q.Set("crumb", crumb)
	if date > 0 {
		q.Set("date", strconv.FormatInt(date, 10))
	}
	u := fmt.Sprintf("%s/v7/finance/options/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	status, body, err := f.get(ctx, u)
	if err != nil {
		return nil, model.NewFetchError(model.KindNetwork, op, err)
	}
	if status == http.StatusUnauthorized {
		return nil, errUnauthorized
	}

	var opts yahooOptions
	if err := json.Unmarshal(body, &opts); err != nil {
		if status != http.StatusOK {
			return nil, model.NewFetchError(model.KindNetwork, op, fmt.Errorf("status %d, body: %s", status, string(body)))
		}
		return nil, model.NewFetchError(model.KindNetwork, op, fmt.Errorf("decode: %w", err))
	}
	if opts.OptionChain.Error != nil {
		return nil, model.NewFetchError(model.KindUpstream, op,
			fmt.Errorf("%s: %s", opts.OptionChain.Error.Code, opts.OptionChain.Error.Description))
	}
	if status != http.StatusOK {
		return nil, model.NewFetchError(model.KindNetwork, op, fmt.Errorf("status %d", status))
	}
	return &opts, nil
}

// ListExpiries returns the listed expiry dates in the order Yahoo enumerates them.
func (f *YahooFetcher) ListExpiries(ctx context.Context, symbol string) ([]time.Time, error) {
	opts, err := f.fetchOptions(ctx, "yahoo expiries", symbol, 0)
	if err != nil {
		return nil, err
	}
	if len(opts.OptionChain.Result) == 0 {
		return nil, nil
	}
	dates := opts.OptionChain.Result[0].ExpirationDates
	expiries := make([]time.Time, len(dates))
	for i, d := range dates {
		expiries[i] = time.Unix(d, 0).UTC()
	}
	return expiries, nil
}

// FetchCalls returns the call side of the chain for one expiry.
func (f *YahooFetcher) FetchCalls(ctx context.Context, symbol string, expiry time.Time) ([]model.OptionContract, error) {
	opts, err := f.fetchOptions(ctx, "yahoo calls", symbol, expiry.Unix())
	if err != nil {
		return nil, err
	}
	if len(opts.OptionChain.Result) == 0 || len(opts.OptionChain.Result[0].Options) == 0 {
		return nil, nil
	}

	calls := opts.OptionChain.Result[0].Options[0].Calls
	contracts := make([]model.OptionContract, len(calls))
	for i, c := range calls {
		contracts[i] = model.OptionContract{
			ContractSymbol: c.ContractSymbol,
			Expiration:     unixTime(c.Expiration),
			LastTradeDate:  unixTime(c.LastTradeDate),
			Strike:         c.Strike,
			LastPrice:      c.LastPrice,
			Bid:            c.Bid,
			Ask:            c.Ask,
			Change:         c.Change,
		}
	}
	return contracts, nil
}
