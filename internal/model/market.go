package model

import "time"

// OHLCV represents a single daily price bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the bars returned for one price history request.
type PriceSeries struct {
	Symbol string
	Bars   []OHLCV
}

// OptionContract is a single call contract of an options chain.
type OptionContract struct {
	ContractSymbol string
	Expiration     time.Time
	LastTradeDate  time.Time
	Strike         float64
	LastPrice      float64
	Bid            float64
	Ask            float64
	Change         float64
}

// OptionsChain is the flat call list of a symbol, in expiry enumeration order.
type OptionsChain struct {
	Symbol    string
	Expiries  []time.Time
	Contracts []OptionContract
}
