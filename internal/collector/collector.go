package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"TickerDesk/internal/model"
)

const defaultExpiryWorkers = 4

// Collector turns provider calls into FetchResults. Provider errors stop here:
// they are logged and converted to an unavailable result.
type Collector struct {
	Fetcher       Fetcher
	ExpiryWorkers int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, expiryWorkers int) *Collector {
	if expiryWorkers <= 0 {
		expiryWorkers = defaultExpiryWorkers
	}
	return &Collector{Fetcher: fetcher, ExpiryWorkers: expiryWorkers}
}

// FetchPriceHistory fetches daily bars for symbol between start and end.
func (c *Collector) FetchPriceHistory(ctx context.Context, symbol, start, end string) model.FetchResult[model.PriceSeries] {
	symbol = strings.TrimSpace(symbol)
	logger := log.WithFields(log.Fields{
		"provider": c.Fetcher.Name(),
		"symbol":   symbol,
		"start":    start,
		"end":      end,
	})

	bars, err := c.Fetcher.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		kind := classify(err)
		logger.WithField("kind", kind).Warnf("price history unavailable: %v", err)
		return model.Failed[model.PriceSeries](kind, err.Error())
	}
	if len(bars) == 0 {
		logger.Info("price history returned no rows")
		return model.Empty[model.PriceSeries]()
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	logger.WithField("rows", len(bars)).Debug("price history fetched")
	return model.OK(model.PriceSeries{Symbol: symbol, Bars: bars})
}

// FetchOptionsChain enumerates every expiry of symbol and concatenates the call
// contracts of each, in enumeration order. A failed expiry fails the whole chain.
func (c *Collector) FetchOptionsChain(ctx context.Context, symbol string) model.FetchResult[model.OptionsChain] {
	symbol = strings.TrimSpace(symbol)
	logger := log.WithFields(log.Fields{
		"provider": c.Fetcher.Name(),
		"symbol":   symbol,
	})

	expiries, err := c.Fetcher.ListExpiries(ctx, symbol)
	if err != nil {
		kind := classify(err)
		logger.WithField("kind", kind).Warnf("list expiries failed: %v", err)
		return model.Failed[model.OptionsChain](kind, err.Error())
	}
	if len(expiries) == 0 {
		logger.Info("no option expiries listed")
		return model.Empty[model.OptionsChain]()
	}

	perExpiry := make([][]model.OptionContract, len(expiries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.ExpiryWorkers)
	for i, expiry := range expiries {
		g.Go(func() error {
			calls, err := c.Fetcher.FetchCalls(gctx, symbol, expiry)
			if err != nil {
				return fmt.Errorf("expiry %s: %w", expiry.Format(dateLayout), err)
			}
			perExpiry[i] = calls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		kind := classify(err)
		logger.WithField("kind", kind).Warnf("options chain unavailable: %v", err)
		return model.Failed[model.OptionsChain](kind, err.Error())
	}

	chain := model.OptionsChain{Symbol: symbol, Expiries: expiries}
	for _, calls := range perExpiry {
		chain.Contracts = append(chain.Contracts, calls...)
	}
	if len(chain.Contracts) == 0 {
		logger.WithField("expiries", len(expiries)).Info("options chain has no call contracts")
		return model.Empty[model.OptionsChain]()
	}

	logger.WithFields(log.Fields{"expiries": len(expiries), "rows": len(chain.Contracts)}).Debug("options chain fetched")
	return model.OK(chain)
}

// classify maps a provider error onto the fetch error taxonomy.
func classify(err error) model.ErrorKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return model.KindCanceled
	}
	var fe *model.FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return model.KindInvalidInput
	case errors.Is(err, model.ErrNoData):
		return model.KindNoData
	default:
		return model.KindNetwork
	}
}
