package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"TickerDesk/internal/model"
)

const dateLayout = "2006-01-02"

// Fetcher defines the interface of an upstream market-data provider.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol, start, end string) ([]model.OHLCV, error)
	ListExpiries(ctx context.Context, symbol string) ([]time.Time, error)
	FetchCalls(ctx context.Context, symbol string, expiry time.Time) ([]model.OptionContract, error)
	Name() string
}

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// parseDate parses a user supplied YYYY-MM-DD date. It is called from inside the
// provider calls so a malformed date fails the fetch like any other upstream error.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %v", model.ErrInvalidInput, s, err)
	}
	return t, nil
}
