package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramSenderSend(t *testing.T) {
	var (
		gotPath    string
		gotUA      string
		gotPayload map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	sender := NewTelegramSender("tok123", "chat-42")
	sender.apiBase = srv.URL

	require.NoError(t, sender.Send(context.Background(), "Trade Executed", "bought on okx"))

	assert.Equal(t, "/bottok123/sendMessage", gotPath)
	assert.Equal(t, userAgent, gotUA)
	assert.Equal(t, "chat-42", gotPayload["chat_id"])
	assert.Equal(t, "*Trade Executed*\nbought on okx", gotPayload["text"])
	assert.Equal(t, "Markdown", gotPayload["parse_mode"])
	assert.Equal(t, "telegram", sender.Name())
}

func TestTelegramSenderSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	sender := NewTelegramSender("tok", "chat")
	sender.apiBase = srv.URL

	err := sender.Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
}

func TestDiscordSenderSend(t *testing.T) {
	var (
		gotUA      string
		gotPayload map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sender := NewDiscordSender(srv.URL)

	require.NoError(t, sender.Send(context.Background(), "Arbitrage Detected", "okx -> kraken"))

	assert.Equal(t, userAgent, gotUA)
	assert.Equal(t, "**Arbitrage Detected**\nokx -> kraken", gotPayload["content"])
	assert.Equal(t, "discord", sender.Name())
}
