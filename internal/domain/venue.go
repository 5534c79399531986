package domain

import "context"

// OrderSide is the direction of a market order on a venue.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// Venue is the exchange-connectivity boundary. Implementations wrap one
// trading platform's REST API. Ticker and FreeBalance are read operations and
// safe to retry; CreateMarketOrder is not idempotent and must be attempted at
// most once per leg.
type Venue interface {
	// Name returns the venue identifier used in quotes and trade records.
	Name() string

	// Ticker returns the current best ask/bid for the instrument.
	Ticker(ctx context.Context, symbol string) (Quote, error)

	// FreeBalance returns the free (available) balance in the given currency.
	FreeBalance(ctx context.Context, currency string) (float64, error)

	// CreateMarketOrder submits a market order for amount base units and
	// returns the venue-assigned order reference.
	CreateMarketOrder(ctx context.Context, symbol string, side OrderSide, amount float64) (string, error)
}
