package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerDesk/internal/model"
)

const chartBody = `{"chart":{"result":[{"timestamp":[1672756200,1672842600,1672929000,1673015400],
"indicators":{"quote":[{"open":[130.28,126.89,null,127.13],"high":[130.9,128.66,null,127.77],
"low":[124.17,125.08,null,124.76],"close":[125.07,126.36,null,125.02],"volume":[112117500,89113600,null,80962700]}]}}],
"error":null}}`

func newTestYahoo(srv *httptest.Server) *YahooFetcher {
	f := NewYahooFetcher(srv.URL, "")
	f.CookieURL = srv.URL + "/cookie"
	return f
}

func TestYahooFetchHistory(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	bars, err := newTestYahoo(srv).FetchHistory(context.Background(), "aapl", "2023-01-01", "2023-01-07")
	require.NoError(t, err)
	require.Len(t, bars, 3, "null bar must be skipped")
	assert.Equal(t, 130.28, bars[0].Open)
	assert.Equal(t, 125.02, bars[2].Close)
	assert.Equal(t, 80962700.0, bars[2].Volume)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Contains(t, gotQuery, "period1=1672531200")
	assert.Contains(t, gotQuery, "period2=1673049600")
	assert.Contains(t, gotQuery, "interval=1d")
}

func TestYahooFetchHistory_SymbolMap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/^GSPC", r.URL.Path)
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	_, err := newTestYahoo(srv).FetchHistory(context.Background(), "SPX", "2023-01-01", "2023-01-07")
	require.NoError(t, err)
}

func TestYahooFetchHistory_InvalidDateNeverHitsServer(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	_, err := newTestYahoo(srv).FetchHistory(context.Background(), "AAPL", "Enter start date", "2023-01-07")
	require.Error(t, err)
	var fe *model.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, model.KindInvalidInput, fe.Kind)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestYahooFetchHistory_UnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	_, err := newTestYahoo(srv).FetchHistory(context.Background(), "NOPE", "2023-01-01", "2023-01-07")
	var fe *model.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, model.KindUpstream, fe.Kind)
	assert.Contains(t, err.Error(), "delisted")
}

func TestYahooFetchHistory_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestYahoo(srv).FetchHistory(context.Background(), "AAPL", "2023-01-01", "2023-01-07")
	var fe *model.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, model.KindNetwork, fe.Kind)
}

func TestYahooFetchHistory_NoRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"indicators":{"quote":[{}]}}],"error":null}}`)
	}))
	defer srv.Close()

	bars, err := newTestYahoo(srv).FetchHistory(context.Background(), "AAPL", "2023-01-07", "2023-01-08")
	require.NoError(t, err)
	assert.Empty(t, bars)
}

// optionsServer serves the crumb endpoints and an options chain with two expiries.
func optionsServer(t *testing.T, crumbs *int32, rejectFirst bool) *httptest.Server {
	var rejected int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/cookie":
			http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/v1/test/getcrumb":
			n := atomic.AddInt32(crumbs, 1)
			fmt.Fprintf(w, "crumb%d", n)
		case strings.HasPrefix(r.URL.Path, "/v7/finance/options/"):
			if rejectFirst && atomic.CompareAndSwapInt32(&rejected, 0, 1) {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"finance":{"error":{"code":"Unauthorized","description":"Invalid Crumb"}}}`)
				return
			}
			assert.NotEmpty(t, r.URL.Query().Get("crumb"))
			switch r.URL.Query().Get("date") {
			case "":
				fmt.Fprint(w, `{"optionChain":{"result":[{"underlyingSymbol":"TSLA","expirationDates":[1705622400,1708041600],"options":[]}],"error":null}}`)
			case "1705622400":
				fmt.Fprint(w, `{"optionChain":{"result":[{"underlyingSymbol":"TSLA","expirationDates":[1705622400,1708041600],
"options":[{"expirationDate":1705622400,"calls":[{"contractSymbol":"TSLA240119C00200000","strike":200,"lastPrice":18.5,
"change":-1.25,"bid":18.4,"ask":18.6,"expiration":1705622400,"lastTradeDate":1705521595}]}]}],"error":null}}`)
			default:
				fmt.Fprint(w, `{"optionChain":{"result":[{"underlyingSymbol":"TSLA","options":[{"calls":[]}]}],"error":null}}`)
			}
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestYahooOptions(t *testing.T) {
	var crumbs int32
	srv := optionsServer(t, &crumbs, false)
	defer srv.Close()
	f := newTestYahoo(srv)

	expiries, err := f.ListExpiries(context.Background(), "TSLA")
	require.NoError(t, err)
	require.Len(t, expiries, 2)
	assert.Equal(t, "2024-01-19", expiries[0].Format(dateLayout))

	calls, err := f.FetchCalls(context.Background(), "TSLA", expiries[0])
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "TSLA240119C00200000", calls[0].ContractSymbol)
	assert.Equal(t, 200.0, calls[0].Strike)
	assert.Equal(t, -1.25, calls[0].Change)
	assert.Equal(t, time.Unix(1705521595, 0).UTC(), calls[0].LastTradeDate)

	calls, err = f.FetchCalls(context.Background(), "TSLA", expiries[1])
	require.NoError(t, err)
	assert.Empty(t, calls)

	assert.Equal(t, int32(1), atomic.LoadInt32(&crumbs), "crumb is reused")
}

func TestYahooOptions_RefreshesCrumbOnUnauthorized(t *testing.T) {
	var crumbs int32
	srv := optionsServer(t, &crumbs, true)
	defer srv.Close()

	expiries, err := newTestYahoo(srv).ListExpiries(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Len(t, expiries, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&crumbs))
}

func TestYahooOptions_ChainThroughCollector(t *testing.T) {
	var crumbs int32
	srv := optionsServer(t, &crumbs, false)
	defer srv.Close()

	res := NewCollector(newTestYahoo(srv), 2).FetchOptionsChain(context.Background(), "TSLA")
	require.True(t, res.Available())
	assert.Len(t, res.Value.Contracts, 1)
	assert.Len(t, res.Value.Expiries, 2)
}
