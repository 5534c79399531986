package kraken

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

var testSecret = base64.StdEncoding.EncodeToString([]byte("kraken-secret"))

func TestPairName(t *testing.T) {
	assert.Equal(t, "XBTUSDT", pairName("BTC/USDT"))
	assert.Equal(t, "ETHUSDT", pairName("ETH/USDT"))
	assert.Equal(t, "XBTEUR", pairName("xbt/eur"))
}

func TestAssetNames(t *testing.T) {
	assert.Equal(t, []string{"XXBT", "XBT"}, assetNames("BTC"))
	assert.Equal(t, []string{"ZUSD", "USD"}, assetNames("usd"))
	assert.Equal(t, []string{"USDT"}, assetNames("USDT"))
}

func TestTicker(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/0/public/Ticker", r.URL.Path)
			assert.Equal(t, "XBTUSDT", r.URL.Query().Get("pair"))
			w.Write([]byte(`{"error":[],"result":{"XBTUSDT":{"a":["50002.3","1","1.000"],"b":["50001.7","2","2.000"]}}}`))
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL})
		q, err := c.Ticker(context.Background(), "BTC/USDT")
		require.NoError(t, err)
		assert.Equal(t, "kraken", q.Venue)
		assert.Equal(t, 50002.3, q.Ask)
		assert.Equal(t, 50001.7, q.Bid)
	})

	t.Run("unknown pair", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":["EQuery:Unknown asset pair"]}`))
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL})
		_, err := c.Ticker(context.Background(), "NOPE/USDT")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("rate limited", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":["EAPI:Rate limit exceeded"]}`))
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL})
		_, err := c.Ticker(context.Background(), "BTC/USDT")
		assert.ErrorIs(t, err, domain.ErrRateLimited)
	})
}

func TestFreeBalance(t *testing.T) {
	t.Run("signed request", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/0/private/Balance", r.URL.Path)
			assert.Equal(t, "api-key", r.Header.Get("API-Key"))
			assert.NotEmpty(t, r.Header.Get("API-Sign"))
			require.NoError(t, r.ParseForm())
			assert.NotEmpty(t, r.PostForm.Get("nonce"))
			w.Write([]byte(`{"error":[],"result":{"USDT":"55.5","XXBT":"0.01"}}`))
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL, APIKey: "api-key", APISecret: testSecret})

		bal, err := c.FreeBalance(context.Background(), "USDT")
		require.NoError(t, err)
		assert.Equal(t, 55.5, bal)

		btc, err := c.FreeBalance(context.Background(), "BTC")
		require.NoError(t, err)
		assert.Equal(t, 0.01, btc)
	})

	t.Run("no credentials", func(t *testing.T) {
		c := New(Config{BaseURL: "http://unused"})
		_, err := c.FreeBalance(context.Background(), "USDT")
		assert.ErrorIs(t, err, domain.ErrNoCredentials)
	})
}

func TestCreateMarketOrder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/0/private/AddOrder", r.URL.Path)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "XBTUSDT", r.PostForm.Get("pair"))
			assert.Equal(t, "sell", r.PostForm.Get("type"))
			assert.Equal(t, "market", r.PostForm.Get("ordertype"))
			assert.Equal(t, "0.001", r.PostForm.Get("volume"))
			w.Write([]byte(`{"error":[],"result":{"descr":{"order":"sell 0.001 XBTUSDT @ market"},"txid":["OUF4EM-FRGI2-MQMWZD"]}}`))
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL, APIKey: "api-key", APISecret: testSecret})
		ref, err := c.CreateMarketOrder(context.Background(), "BTC/USDT", domain.SideSell, 0.001)
		require.NoError(t, err)
		assert.Equal(t, "OUF4EM-FRGI2-MQMWZD", ref)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":["EOrder:Insufficient funds"]}`))
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL, APIKey: "api-key", APISecret: testSecret})
		_, err := c.CreateMarketOrder(context.Background(), "BTC/USDT", domain.SideBuy, 0.001)
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	})
}
