package okx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

func TestTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/market/ticker", r.URL.Path)
		assert.Equal(t, "BTC-USDT", r.URL.Query().Get("instId"))
		w.Write([]byte(`{"code":"0","msg":"","data":[{"askPx":"50001.5","bidPx":"50000.1","ts":"1709284137715"}]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	q, err := c.Ticker(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, "okx", q.Venue)
	assert.Equal(t, 50001.5, q.Ask)
	assert.Equal(t, 50000.1, q.Bid)
	assert.Equal(t, int64(1709284137715), q.Timestamp.UnixMilli())
}

func TestTickerRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	_, err := c.Ticker(context.Background(), "BTC/USDT")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestFreeBalance(t *testing.T) {
	t.Run("signed request with headers", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "key-1", r.Header.Get("OK-ACCESS-KEY"))
			assert.NotEmpty(t, r.Header.Get("OK-ACCESS-SIGN"))
			assert.NotEmpty(t, r.Header.Get("OK-ACCESS-TIMESTAMP"))
			assert.Equal(t, "phrase", r.Header.Get("OK-ACCESS-PASSPHRASE"))
			w.Write([]byte(`{"code":"0","msg":"","data":[{"details":[{"ccy":"USDT","availBal":"123.45"}]}]}`))
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL, APIKey: "key-1", APISecret: "sec", Passphrase: "phrase"})
		bal, err := c.FreeBalance(context.Background(), "USDT")
		require.NoError(t, err)
		assert.Equal(t, 123.45, bal)
	})

	t.Run("unknown currency is zero", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":"0","msg":"","data":[{"details":[]}]}`))
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL, APIKey: "k", APISecret: "s"})
		bal, err := c.FreeBalance(context.Background(), "DOGE")
		require.NoError(t, err)
		assert.Zero(t, bal)
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
			assert.Equal(t, http.MethodPost, r.Method)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "BTC-USDT", body["instId"])
			assert.Equal(t, "buy", body["side"])
			assert.Equal(t, "market", body["ordType"])
			assert.Equal(t, "0.001", body["sz"])
			assert.Equal(t, "base_ccy", body["tgtCcy"])
			w.Write([]byte(`{"code":"0","msg":"","data":[{"ordId":"312269865356374016","sCode":"0","sMsg":""}]}`))
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL, APIKey: "k", APISecret: "s"})
		ref, err := c.CreateMarketOrder(context.Background(), "BTC/USDT", domain.SideBuy, 0.001)
		require.NoError(t, err)
		assert.Equal(t, "312269865356374016", ref)
	})

	t.Run("insufficient balance code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":"0","msg":"","data":[{"ordId":"","sCode":"51008","sMsg":"Order failed. Insufficient USDT balance"}]}`))
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL, APIKey: "k", APISecret: "s"})
		_, err := c.CreateMarketOrder(context.Background(), "BTC/USDT", domain.SideBuy, 0.001)
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	})

	t.Run("envelope error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":"50011","msg":"Requests too frequent","data":[]}`))
		}))
		defer srv.Close()

		c := New(Config{BaseURL: srv.URL, APIKey: "k", APISecret: "s"})
		_, err := c.CreateMarketOrder(context.Background(), "BTC/USDT", domain.SideSell, 0.001)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "50011")
	})
}
