// Package okx implements the OKX v5 REST client used as one of the two
// arbitrage venues.
package okx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/crypto"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

// DefaultBaseURL is the OKX production API root.
const DefaultBaseURL = "https://www.okx.com"

// Config holds the connection settings for the OKX client. Credentials are
// optional; without them the client serves public market data only.
type Config struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	Passphrase string
	Timeout    time.Duration
}

// Client is the REST client for the OKX v5 API.
type Client struct {
	baseURL    string
	auth       *crypto.OKXAuth
	httpClient *http.Client
}

// New creates an OKX REST client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	if cfg.APIKey != "" && cfg.APISecret != "" {
		c.auth = &crypto.OKXAuth{
			Key:        cfg.APIKey,
			Secret:     cfg.APISecret,
			Passphrase: cfg.Passphrase,
		}
	}
	return c
}

// Name returns the venue identifier.
func (c *Client) Name() string { return "okx" }

// apiResponse is the envelope every OKX endpoint returns.
type apiResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Ticker returns the best ask and bid for the symbol, e.g. "BTC/USDT".
func (c *Client) Ticker(ctx context.Context, symbol string) (domain.Quote, error) {
	path := "/api/v5/market/ticker?instId=" + instID(symbol)

	data, err := c.doRequest(ctx, http.MethodGet, path, nil, false)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("okx: ticker %s: %w", symbol, err)
	}

	var tickers []struct {
		AskPx string `json:"askPx"`
		BidPx string `json:"bidPx"`
		Ts    string `json:"ts"`
	}
	if err := json.Unmarshal(data, &tickers); err != nil {
		return domain.Quote{}, fmt.Errorf("okx: decode ticker: %w", err)
	}
	if len(tickers) == 0 {
		return domain.Quote{}, fmt.Errorf("okx: ticker %s: %w", symbol, domain.ErrNotFound)
	}

	ask, err := strconv.ParseFloat(tickers[0].AskPx, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("okx: parse ask %q: %w", tickers[0].AskPx, err)
	}
	bid, err := strconv.ParseFloat(tickers[0].BidPx, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("okx: parse bid %q: %w", tickers[0].BidPx, err)
	}

	quote := domain.Quote{Venue: c.Name(), Ask: ask, Bid: bid, Timestamp: time.Now().UTC()}
	if ms, err := strconv.ParseInt(tickers[0].Ts, 10, 64); err == nil {
		quote.Timestamp = time.UnixMilli(ms).UTC()
	}
	if !quote.Valid() {
		return domain.Quote{}, fmt.Errorf("okx: ticker %s: empty book (ask=%v bid=%v)", symbol, ask, bid)
	}
	return quote, nil
}

// FreeBalance returns the available balance for a currency, e.g. "USDT".
func (c *Client) FreeBalance(ctx context.Context, currency string) (float64, error) {
	path := "/api/v5/account/balance?ccy=" + strings.ToUpper(currency)

	data, err := c.doRequest(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return 0, fmt.Errorf("okx: balance %s: %w", currency, err)
	}

	var accounts []struct {
		Details []struct {
			Ccy      string `json:"ccy"`
			AvailBal string `json:"availBal"`
		} `json:"details"`
	}
	if err := json.Unmarshal(data, &accounts); err != nil {
		return 0, fmt.Errorf("okx: decode balance: %w", err)
	}

	for _, acc := range accounts {
		for _, d := range acc.Details {
			if !strings.EqualFold(d.Ccy, currency) {
				continue
			}
			bal, err := strconv.ParseFloat(d.AvailBal, 64)
			if err != nil {
				return 0, fmt.Errorf("okx: parse balance %q: %w", d.AvailBal, err)
			}
			return bal, nil
		}
	}
	// A currency the account never held is simply a zero balance.
	return 0, nil
}

// CreateMarketOrder submits a spot market order and returns the venue order
// ID. The amount is in the base currency for both sides.
func (c *Client) CreateMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, amount float64) (string, error) {
	order := map[string]string{
		"instId":  instID(symbol),
		"tdMode":  "cash",
		"side":    string(side),
		"ordType": "market",
		"sz":      strconv.FormatFloat(amount, 'f', -1, 64),
		// Market buys default to sizing in the quote currency; force base.
		"tgtCcy": "base_ccy",
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/api/v5/trade/order", order, true)
	if err != nil {
		return "", fmt.Errorf("okx: create order: %w", err)
	}

	var results []struct {
		OrdID string `json:"ordId"`
		SCode string `json:"sCode"`
		SMsg  string `json:"sMsg"`
	}
	if err := json.Unmarshal(data, &results); err != nil {
		return "", fmt.Errorf("okx: decode order response: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("okx: create order: empty response")
	}
	if results[0].SCode != "0" {
		if results[0].SCode == "51008" {
			return "", fmt.Errorf("okx: create order: %w: %s", domain.ErrInsufficientBalance, results[0].SMsg)
		}
		return "", fmt.Errorf("okx: create order rejected (%s): %s", results[0].SCode, results[0].SMsg)
	}

	return results[0].OrdID, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// instID converts "BTC/USDT" into the OKX instrument form "BTC-USDT".
func instID(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", "-"))
}

// doRequest builds, optionally signs, sends, and reads an HTTP request
// against the OKX API, returning the envelope's data payload.
func (c *Client) doRequest(ctx context.Context, method, path string, reqBody any, signed bool) (json.RawMessage, error) {
	var bodyReader io.Reader
	var bodyStr string
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if signed {
		if c.auth == nil {
			return nil, domain.ErrNoCredentials
		}
		for k, v := range c.auth.Headers(method, path, bodyStr) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if envelope.Code != "0" {
		return nil, fmt.Errorf("api error %s: %s", envelope.Code, envelope.Msg)
	}

	return envelope.Data, nil
}

// checkStatus maps non-2xx HTTP status codes to sentinel errors so the retry
// layer can classify them.
func checkStatus(statusCode int) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	case statusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		return fmt.Errorf("HTTP %d", statusCode)
	}
}

var _ domain.Venue = (*Client)(nil)
