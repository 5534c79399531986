// Package domain defines the core types and interfaces shared across the
// arbitrage bot: quotes, trade records, venue connectivity, the trade ledger,
// and the notification signal bus.
package domain

import "time"

// Quote is an immutable top-of-book snapshot for one venue. It is created
// fresh on every fetch and discarded after the evaluation that consumed it.
type Quote struct {
	Venue     string    `json:"venue"`
	Ask       float64   `json:"ask"`
	Bid       float64   `json:"bid"`
	Timestamp time.Time `json:"timestamp"`
}

// Valid reports whether the quote carries usable prices. Venue APIs
// occasionally return zeroed tickers during maintenance windows.
func (q Quote) Valid() bool {
	return q.Ask > 0 && q.Bid > 0
}
