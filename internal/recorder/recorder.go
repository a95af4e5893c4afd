package recorder

import (
	"time"

	"TickerDesk/internal/model"
)

// FetchEvent is the diagnostic record of one fetch request. Market data itself
// is never stored.
type FetchEvent struct {
	RequestID  string
	Kind       string // "prices" or "options"
	Symbol     string
	StartDate  string
	EndDate    string
	Generation uint64
	Status     model.Status
	ErrorKind  model.ErrorKind
	Reason     string
	Rows       int
	Duration   time.Duration
	RecordedAt time.Time
}

// Recorder journals fetch diagnostics.
type Recorder interface {
	RecordFetch(evt *FetchEvent) error
	Close() error
}
