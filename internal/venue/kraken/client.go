// Package kraken implements the Kraken REST client used as one of the two
// arbitrage venues.
package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/crypto"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

// DefaultBaseURL is the Kraken production API root.
const DefaultBaseURL = "https://api.kraken.com"

// Config holds the connection settings for the Kraken client. Credentials are
// optional; without them the client serves public market data only.
type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// Client is the REST client for the Kraken API.
type Client struct {
	baseURL    string
	auth       *crypto.KrakenAuth
	httpClient *http.Client
}

// New creates a Kraken REST client.
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
		c.auth = &crypto.KrakenAuth{Key: cfg.APIKey, Secret: cfg.APISecret}
	}
	return c
}

// Name returns the venue identifier.
func (c *Client) Name() string { return "kraken" }

// Ticker returns the best ask and bid for the symbol, e.g. "BTC/USDT".
func (c *Client) Ticker(ctx context.Context, symbol string) (domain.Quote, error) {
	path := "/0/public/Ticker?pair=" + pairName(symbol)

	result, err := c.doPublic(ctx, path)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("kraken: ticker %s: %w", symbol, err)
	}

	// The result is keyed by Kraken's canonical pair name, which may differ
	// from the requested one (e.g. XBTUSDT vs XXBTZUSD). Take the first entry.
	var pairs map[string]struct {
		Ask []string `json:"a"`
		Bid []string `json:"b"`
	}
	if err := json.Unmarshal(result, &pairs); err != nil {
		return domain.Quote{}, fmt.Errorf("kraken: decode ticker: %w", err)
	}

	for _, p := range pairs {
		if len(p.Ask) == 0 || len(p.Bid) == 0 {
			break
		}
		ask, err := strconv.ParseFloat(p.Ask[0], 64)
		if err != nil {
			return domain.Quote{}, fmt.Errorf("kraken: parse ask %q: %w", p.Ask[0], err)
		}
		bid, err := strconv.ParseFloat(p.Bid[0], 64)
		if err != nil {
			return domain.Quote{}, fmt.Errorf("kraken: parse bid %q: %w", p.Bid[0], err)
		}
		quote := domain.Quote{Venue: c.Name(), Ask: ask, Bid: bid, Timestamp: time.Now().UTC()}
		if !quote.Valid() {
			return domain.Quote{}, fmt.Errorf("kraken: ticker %s: empty book (ask=%v bid=%v)", symbol, ask, bid)
		}
		return quote, nil
	}

	return domain.Quote{}, fmt.Errorf("kraken: ticker %s: %w", symbol, domain.ErrNotFound)
}

// FreeBalance returns the available balance for a currency, e.g. "USDT".
func (c *Client) FreeBalance(ctx context.Context, currency string) (float64, error) {
	result, err := c.doPrivate(ctx, "/0/private/Balance", url.Values{})
	if err != nil {
		return 0, fmt.Errorf("kraken: balance %s: %w", currency, err)
	}

	var balances map[string]string
	if err := json.Unmarshal(result, &balances); err != nil {
		return 0, fmt.Errorf("kraken: decode balance: %w", err)
	}

	for _, name := range assetNames(currency) {
		raw, ok := balances[name]
		if !ok {
			continue
		}
		bal, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("kraken: parse balance %q: %w", raw, err)
		}
		return bal, nil
	}
	// A currency the account never held is simply a zero balance.
	return 0, nil
}

// CreateMarketOrder submits a market order and returns the venue transaction
// ID. The amount is the base currency volume for both sides.
func (c *Client) CreateMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, amount float64) (string, error) {
	form := url.Values{}
	form.Set("pair", pairName(symbol))
	form.Set("type", string(side))
	form.Set("ordertype", "market")
	form.Set("volume", strconv.FormatFloat(amount, 'f', -1, 64))

	result, err := c.doPrivate(ctx, "/0/private/AddOrder", form)
	if err != nil {
		return "", fmt.Errorf("kraken: add order: %w", err)
	}

	var resp struct {
		TxID []string `json:"txid"`
	}
	if err := json.Unmarshal(result, &resp); err != nil {
		return "", fmt.Errorf("kraken: decode order response: %w", err)
	}
	if len(resp.TxID) == 0 {
		return "", fmt.Errorf("kraken: add order: no transaction id returned")
	}

	return resp.TxID[0], nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// pairName converts "BTC/USDT" into Kraken's pair form "XBTUSDT".
func pairName(symbol string) string {
	s := strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
	return strings.ReplaceAll(s, "BTC", "XBT")
}

// assetNames returns the balance-map keys a currency may appear under.
// Kraken prefixes legacy assets (XXBT, ZUSD) but not newer ones (USDT).
func assetNames(currency string) []string {
	cur := strings.ToUpper(currency)
	switch cur {
	case "BTC", "XBT":
		return []string{"XXBT", "XBT"}
	case "USD", "EUR", "GBP", "JPY":
		return []string{"Z" + cur, cur}
	default:
		return []string{cur}
	}
}

// apiResponse is the envelope every Kraken endpoint returns.
type apiResponse struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

func (c *Client) doPublic(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.send(req)
}

func (c *Client) doPrivate(ctx context.Context, path string, form url.Values) (json.RawMessage, error) {
	if c.auth == nil {
		return nil, domain.ErrNoCredentials
	}

	nonce := strconv.FormatInt(time.Now().UnixMilli(), 10)
	form.Set("nonce", nonce)
	postData := form.Encode()

	sig, err := c.auth.Sign(path, nonce, postData)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(postData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("API-Key", c.auth.Key)
	req.Header.Set("API-Sign", sig)

	return c.send(req)
}

func (c *Client) send(req *http.Request) (json.RawMessage, error) {
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
	if len(envelope.Error) > 0 {
		return nil, apiError(envelope.Error)
	}

	return envelope.Result, nil
}

// apiError maps Kraken's error codes to sentinel errors so the retry layer
// can classify them.
func apiError(errs []string) error {
	joined := strings.Join(errs, "; ")
	switch {
	case strings.Contains(joined, "Rate limit"):
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, joined)
	case strings.Contains(joined, "Invalid key"), strings.Contains(joined, "Permission denied"), strings.Contains(joined, "Invalid signature"):
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, joined)
	case strings.Contains(joined, "Insufficient funds"):
		return fmt.Errorf("%w: %s", domain.ErrInsufficientBalance, joined)
	case strings.Contains(joined, "Unknown asset pair"):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, joined)
	default:
		return fmt.Errorf("api error: %s", joined)
	}
}

// checkStatus maps non-2xx HTTP status codes to sentinel errors.
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
