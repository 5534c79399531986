package executor

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/arbitrage"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/fetch"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/ledger"
)

type fakeVenue struct {
	name        string
	balance     float64
	balanceErr  error
	orderRef    string
	orderErr    error
	orderCalls  int
	balanceCalls int
}

func (f *fakeVenue) Name() string { return f.name }

func (f *fakeVenue) Ticker(context.Context, string) (domain.Quote, error) {
	return domain.Quote{}, errors.New("not implemented")
}

func (f *fakeVenue) FreeBalance(context.Context, string) (float64, error) {
	f.balanceCalls++
	return f.balance, f.balanceErr
}

func (f *fakeVenue) CreateMarketOrder(context.Context, string, domain.OrderSide, float64) (string, error) {
	f.orderCalls++
	return f.orderRef, f.orderErr
}

func newExecutor(l domain.TradeLedger) *Executor {
	return New(Config{
		Symbol:        "BTC/USDT",
		QuoteCurrency: "USDT",
		Amount:        0.001,
		Retry:         fetch.Policy{MaxAttempts: 2, InitialDelay: time.Millisecond, BackoffFactor: 2},
	}, l, slog.New(slog.DiscardHandler))
}

func TestExecuteSimulation(t *testing.T) {
	l := ledger.New(10)
	v := &fakeVenue{name: "okx"}

	rec := newExecutor(l).Execute(context.Background(), v, domain.ActionBuy, 50000, domain.ModeSimulation)

	assert.True(t, rec.Success)
	assert.Empty(t, rec.FailReason)
	assert.Equal(t, "okx", rec.Venue)
	assert.Equal(t, domain.ModeSimulation, rec.Mode)
	assert.Equal(t, 0.001, rec.Amount)
	assert.NotEmpty(t, rec.ID)
	assert.Zero(t, v.orderCalls, "simulation must not touch the venue")
	assert.Zero(t, v.balanceCalls)
	assert.Equal(t, 1, l.Len())
}

func TestExecuteReal(t *testing.T) {
	t.Run("buy with sufficient balance", func(t *testing.T) {
		l := ledger.New(10)
		v := &fakeVenue{name: "okx", balance: 100, orderRef: "ord-1"}

		rec := newExecutor(l).Execute(context.Background(), v, domain.ActionBuy, 50000, domain.ModeReal)

		assert.True(t, rec.Success)
		assert.Equal(t, "ord-1", rec.OrderRef)
		assert.Equal(t, 1, v.orderCalls)
		assert.Equal(t, 1, l.Len())
	})

	t.Run("buy gated on insufficient balance", func(t *testing.T) {
		l := ledger.New(10)
		// Requires 50000 * 0.001 = 50 USDT.
		v := &fakeVenue{name: "okx", balance: 49.99}

		rec := newExecutor(l).Execute(context.Background(), v, domain.ActionBuy, 50000, domain.ModeReal)

		assert.False(t, rec.Success)
		assert.Equal(t, "insufficient balance", rec.FailReason)
		assert.Zero(t, v.orderCalls, "no order may be submitted when the gate fails")
		assert.Equal(t, 1, l.Len(), "failed leg still appends a record")
	})

	t.Run("buy aborted when balance unavailable", func(t *testing.T) {
		l := ledger.New(10)
		v := &fakeVenue{name: "okx", balanceErr: errors.New("venue down")}

		rec := newExecutor(l).Execute(context.Background(), v, domain.ActionBuy, 50000, domain.ModeReal)

		assert.False(t, rec.Success)
		assert.Contains(t, rec.FailReason, "balance unavailable")
		assert.Equal(t, 2, v.balanceCalls, "balance read is retried")
		assert.Zero(t, v.orderCalls)
	})

	t.Run("sell submits without balance check", func(t *testing.T) {
		l := ledger.New(10)
		v := &fakeVenue{name: "kraken", orderRef: "ord-2"}

		rec := newExecutor(l).Execute(context.Background(), v, domain.ActionSell, 50100, domain.ModeReal)

		assert.True(t, rec.Success)
		assert.Zero(t, v.balanceCalls)
		assert.Equal(t, 1, v.orderCalls)
	})

	t.Run("submission failure recorded not retried", func(t *testing.T) {
		l := ledger.New(10)
		v := &fakeVenue{name: "kraken", orderErr: errors.New("order rejected")}

		rec := newExecutor(l).Execute(context.Background(), v, domain.ActionSell, 50100, domain.ModeReal)

		assert.False(t, rec.Success)
		assert.Equal(t, "order rejected", rec.FailReason)
		assert.Equal(t, 1, v.orderCalls, "submission is attempted at most once")
		assert.Equal(t, 1, l.Len())
	})
}

func TestExecutePlan(t *testing.T) {
	plan := &arbitrage.Plan{
		ID:     "plan-1",
		Symbol: "BTC/USDT",
		Amount: 0.001,
		Buy:    arbitrage.Leg{Venue: "okx", Action: domain.ActionBuy, Price: 50000},
		Sell:   arbitrage.Leg{Venue: "kraken", Action: domain.ActionSell, Price: 50400},
	}

	t.Run("both legs succeed", func(t *testing.T) {
		l := ledger.New(10)
		buy := &fakeVenue{name: "okx", balance: 100, orderRef: "b-1"}
		sell := &fakeVenue{name: "kraken", orderRef: "s-1"}

		res := newExecutor(l).ExecutePlan(context.Background(), plan, buy, sell, domain.ModeReal)

		assert.True(t, res.Success())
		assert.False(t, res.Partial())
		assert.Equal(t, 2, l.Len())
	})

	t.Run("failed buy does not stop the sell", func(t *testing.T) {
		l := ledger.New(10)
		buy := &fakeVenue{name: "okx", balance: 0}
		sell := &fakeVenue{name: "kraken", orderRef: "s-1"}

		res := newExecutor(l).ExecutePlan(context.Background(), plan, buy, sell, domain.ModeReal)

		require.False(t, res.Buy.Success)
		assert.True(t, res.Sell.Success)
		assert.True(t, res.Partial())
		assert.Equal(t, 1, sell.orderCalls)
		assert.Equal(t, 2, l.Len(), "both legs append records")
	})

	t.Run("failed sell is not unwound", func(t *testing.T) {
		l := ledger.New(10)
		buy := &fakeVenue{name: "okx", balance: 100, orderRef: "b-1"}
		sell := &fakeVenue{name: "kraken", orderErr: errors.New("rejected")}

		res := newExecutor(l).ExecutePlan(context.Background(), plan, buy, sell, domain.ModeReal)

		assert.True(t, res.Buy.Success)
		assert.False(t, res.Sell.Success)
		assert.True(t, res.Partial())
		assert.Equal(t, 1, buy.orderCalls, "no compensating order on the buy venue")
	})
}
