package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

// QuoteCache implements domain.QuoteCache using Redis hashes. Each venue's
// latest quote is stored at key "quote:{venue}" with fields "ask", "bid" and
// "ts" (Unix nanosecond timestamp). It feeds the dashboard's latest-quotes
// view; the evaluator never reads from it.
type QuoteCache struct {
	rdb *redis.Client
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying()}
}

func quoteKey(venue string) string {
	return "quote:" + venue
}

// SetQuote stores the latest quote for the quote's venue.
func (qc *QuoteCache) SetQuote(ctx context.Context, quote domain.Quote) error {
	fields := map[string]interface{}{
		"ask": strconv.FormatFloat(quote.Ask, 'f', -1, 64),
		"bid": strconv.FormatFloat(quote.Bid, 'f', -1, 64),
		"ts":  strconv.FormatInt(quote.Timestamp.UnixNano(), 10),
	}
	if err := qc.rdb.HSet(ctx, quoteKey(quote.Venue), fields).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", quote.Venue, err)
	}
	return nil
}

// GetQuote retrieves the latest quote for a venue. It returns
// domain.ErrNotFound when no quote has been stored yet.
func (qc *QuoteCache) GetQuote(ctx context.Context, venue string) (domain.Quote, error) {
	vals, err := qc.rdb.HGetAll(ctx, quoteKey(venue)).Result()
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: get quote %s: %w", venue, err)
	}
	if len(vals) == 0 {
		return domain.Quote{}, domain.ErrNotFound
	}
	return parseQuote(venue, vals)
}

// GetQuotes retrieves the latest quotes for multiple venues using a pipeline.
// Venues without a stored quote are silently omitted from the result map.
func (qc *QuoteCache) GetQuotes(ctx context.Context, venues []string) (map[string]domain.Quote, error) {
	if len(venues) == 0 {
		return map[string]domain.Quote{}, nil
	}

	pipe := qc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(venues))
	for _, v := range venues {
		cmds[v] = pipe.HGetAll(ctx, quoteKey(v))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get quotes pipeline: %w", err)
	}

	result := make(map[string]domain.Quote, len(venues))
	for venue, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		q, err := parseQuote(venue, vals)
		if err != nil {
			continue
		}
		result[venue] = q
	}

	return result, nil
}

func parseQuote(venue string, vals map[string]string) (domain.Quote, error) {
	ask, err := strconv.ParseFloat(vals["ask"], 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse ask %s: %w", venue, err)
	}
	bid, err := strconv.ParseFloat(vals["bid"], 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse bid %s: %w", venue, err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse ts %s: %w", venue, err)
	}

	return domain.Quote{Venue: venue, Ask: ask, Bid: bid, Timestamp: time.Unix(0, tsNano).UTC()}, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
