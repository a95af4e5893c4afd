// Package desk runs fetches off the UI goroutine and posts their render steps
// back onto it.
//
// Each table has a slot holding the generation of its latest request. Starting
// a request bumps the generation and cancels the previous request's context; a
// render step whose generation is no longer the latest is dropped on the UI
// goroutine, so the table always reflects the most recent request.
package desk

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"TickerDesk/internal/calculator"
	"TickerDesk/internal/model"
	"TickerDesk/internal/recorder"
	"TickerDesk/internal/render"
)

const defaultTimeout = 30 * time.Second

// RequestKind names the table a request renders into.
type RequestKind string

const (
	KindPrices  RequestKind = "prices"
	KindOptions RequestKind = "options"
)

// DataFetcher is the market-data side of the desk.
type DataFetcher interface {
	FetchPriceHistory(ctx context.Context, symbol, start, end string) model.FetchResult[model.PriceSeries]
	FetchOptionsChain(ctx context.Context, symbol string) model.FetchResult[model.OptionsChain]
}

// UI posts fn for execution on the goroutine that owns the tables.
type UI interface {
	Post(fn func())
}

type slot struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func (s *slot) begin(parent context.Context, timeout time.Duration) (uint64, context.Context, context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	ctx, cancel := context.WithTimeout(parent, timeout)
	s.cancel = cancel
	return s.gen, ctx, cancel
}

func (s *slot) isLatest(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

func (s *slot) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Coordinator drives the fetch → post → render cycle for the price and options tables.
type Coordinator struct {
	Fetcher  DataFetcher
	UI       UI
	Prices   render.Table
	Options  render.Table
	Timeout  time.Duration
	Recorder recorder.Recorder

	// OnRender, when set, runs on the UI goroutine right after a render step.
	OnRender func(Report)

	ctx     context.Context
	prices  slot
	options slot
}

// NewCoordinator creates a Coordinator. ctx bounds every request it starts.
func NewCoordinator(ctx context.Context, fetcher DataFetcher, ui UI, prices, options render.Table) *Coordinator {
	return &Coordinator{
		Fetcher:  fetcher,
		UI:       ui,
		Prices:   prices,
		Options:  options,
		Timeout:  defaultTimeout,
		Recorder: recorder.NewNoopRecorder(),
		ctx:      ctx,
	}
}

// RequestPriceHistory starts a price history fetch and returns its generation
// without waiting for it.
func (c *Coordinator) RequestPriceHistory(symbol, start, end string) uint64 {
	gen, ctx, cancel := c.prices.begin(c.ctx, c.timeout())
	req := c.newReport(KindPrices, symbol, gen)
	logger := c.logger(req)
	logger.Debug("price history requested")

	go func() {
		defer cancel()
		started := time.Now()
		res := c.Fetcher.FetchPriceHistory(ctx, symbol, start, end)
		req.Elapsed = time.Since(started)
		req.Status, req.ErrorKind, req.Reason = res.Status, res.Kind, res.Reason
		if res.Available() {
			req.Rows = len(res.Value.Bars)
			if s, err := calculator.Summarize(res.Value.Bars); err == nil {
				req.Summary = s
			}
		}
		c.record(req, start, end)

		c.UI.Post(func() {
			if !c.prices.isLatest(gen) {
				logger.Debug("dropping stale price history result")
				return
			}
			render.PriceHistory(c.Prices, res)
			c.rendered(req)
		})
	}()
	return gen
}

// RequestOptionsChain starts an options chain fetch and returns its generation
// without waiting for it.
func (c *Coordinator) RequestOptionsChain(symbol string) uint64 {
	gen, ctx, cancel := c.options.begin(c.ctx, c.timeout())
	req := c.newReport(KindOptions, symbol, gen)
	logger := c.logger(req)
	logger.Debug("options chain requested")

	go func() {
		defer cancel()
		started := time.Now()
		res := c.Fetcher.FetchOptionsChain(ctx, symbol)
		req.Elapsed = time.Since(started)
		req.Status, req.ErrorKind, req.Reason = res.Status, res.Kind, res.Reason
		if res.Available() {
			req.Rows = len(res.Value.Contracts)
		}
		c.record(req, "", "")

		c.UI.Post(func() {
			if !c.options.isLatest(gen) {
				logger.Debug("dropping stale options chain result")
				return
			}
			render.OptionsChain(c.Options, res)
			c.rendered(req)
		})
	}()
	return gen
}

// Stop cancels any in-flight requests. Their render steps are still posted.
func (c *Coordinator) Stop() {
	c.prices.stop()
	c.options.stop()
}

func (c *Coordinator) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}

func (c *Coordinator) newReport(kind RequestKind, symbol string, gen uint64) Report {
	return Report{
		RequestID:  uuid.NewString(),
		Kind:       kind,
		Symbol:     symbol,
		Generation: gen,
	}
}

func (c *Coordinator) logger(r Report) *log.Entry {
	return log.WithFields(log.Fields{
		"request_id": r.RequestID,
		"table":      r.Kind,
		"symbol":     r.Symbol,
		"generation": r.Generation,
	})
}

func (c *Coordinator) record(r Report, start, end string) {
	if c.Recorder == nil {
		return
	}
	if err := c.Recorder.RecordFetch(&recorder.FetchEvent{
		RequestID:  r.RequestID,
		Kind:       string(r.Kind),
		Symbol:     r.Symbol,
		StartDate:  start,
		EndDate:    end,
		Generation: r.Generation,
		Status:     r.Status,
		ErrorKind:  r.ErrorKind,
		Reason:     r.Reason,
		Rows:       r.Rows,
		Duration:   r.Elapsed,
		RecordedAt: time.Now(),
	}); err != nil {
		c.logger(r).Errorf("record fetch: %v", err)
	}
}

func (c *Coordinator) rendered(r Report) {
	c.logger(r).WithFields(log.Fields{
		"status":  r.Status,
		"rows":    r.Rows,
		"elapsed": r.Elapsed,
	}).Info("table rendered")
	if c.OnRender != nil {
		c.OnRender(r)
	}
}
