package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Requester starts table refreshes. desk.Coordinator satisfies it.
type Requester interface {
	RequestPriceHistory(symbol, start, end string) uint64
	RequestOptionsChain(symbol string) uint64
}

// Target is what a refresh re-requests.
type Target struct {
	Symbol    string
	StartDate string
	EndDate   string
}

// Scheduler re-requests both tables for a fixed target on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Requester Requester

	mu     sync.Mutex
	target Target
	runs   int
}

// NewScheduler creates a new Scheduler.
func NewScheduler(req Requester, target Target) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Requester: req,
		target:    target,
	}
}

// Register adds the refresh task on a six-field cron expression, seconds first.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.RefreshNow); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Runs reports how many refreshes have been issued.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running refresh to return.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

// RefreshNow requests both tables immediately.
func (s *Scheduler) RefreshNow() {
	s.mu.Lock()
	t := s.target
	s.runs++
	s.mu.Unlock()

	if t.Symbol == "" {
		log.Warn("refresh skipped: no symbol")
		return
	}
	log.WithField("symbol", t.Symbol).Info("running refresh")
	s.Requester.RequestPriceHistory(t.Symbol, t.StartDate, t.EndDate)
	s.Requester.RequestOptionsChain(t.Symbol)
}
