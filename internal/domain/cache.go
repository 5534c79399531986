package domain

import "context"

// QuoteCache keeps the most recent quote seen per venue. It is a read-model
// for the dashboard only; the evaluator always works from fresh fetches.
type QuoteCache interface {
	SetQuote(ctx context.Context, quote Quote) error
	GetQuote(ctx context.Context, venue string) (Quote, error)
	GetQuotes(ctx context.Context, venues []string) (map[string]Quote, error)
}

// SignalBus provides pub/sub fan-out for loop notifications. Delivery is
// ephemeral: subscribers only see messages published while subscribed.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
