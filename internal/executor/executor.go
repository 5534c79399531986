// Package executor performs simulated and real trade legs and records every
// attempt in the trade ledger.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/arbitrage"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/fetch"
)

// Config holds the executor's trading parameters.
type Config struct {
	// Symbol is the traded instrument, e.g. "BTC/USDT".
	Symbol string
	// QuoteCurrency is the currency real buys are funded from, e.g. "USDT".
	QuoteCurrency string
	// Amount is the base asset quantity per leg.
	Amount float64
	// Retry applies to balance reads only. Order submission is never
	// retried: a venue that accepted the order before the response was
	// lost would fill a duplicate.
	Retry fetch.Policy
}

// Executor runs individual trade legs against venues. Every invocation of
// Execute appends exactly one TradeRecord to the ledger, success or failure.
type Executor struct {
	cfg    Config
	ledger domain.TradeLedger
	logger *slog.Logger
}

// New creates an Executor writing to the given ledger.
func New(cfg Config, ledger domain.TradeLedger, logger *slog.Logger) *Executor {
	return &Executor{
		cfg:    cfg,
		ledger: ledger,
		logger: logger.With(slog.String("component", "executor")),
	}
}

// PlanResult is the outcome of executing both legs of a plan.
type PlanResult struct {
	Plan *arbitrage.Plan    `json:"plan"`
	Buy  domain.TradeRecord `json:"buy"`
	Sell domain.TradeRecord `json:"sell"`
}

// Partial reports whether exactly one leg succeeded. A partial fill leaves an
// open position that an operator must reconcile manually.
func (r PlanResult) Partial() bool {
	return r.Buy.Success != r.Sell.Success
}

// Success reports whether both legs succeeded.
func (r PlanResult) Success() bool {
	return r.Buy.Success && r.Sell.Success
}

// Execute performs a single trade leg on the venue and returns its record.
// Simulated legs always succeed and touch no venue. Real buys are gated on
// free balance in the quote currency; real sells submit directly. Submission
// failures are recorded, never retried.
func (e *Executor) Execute(ctx context.Context, v domain.Venue, action domain.TradeAction, price float64, mode domain.TradeMode) domain.TradeRecord {
	rec := domain.TradeRecord{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Venue:     v.Name(),
		Price:     price,
		Amount:    e.cfg.Amount,
		Mode:      mode,
	}

	log := e.logger.With(
		slog.String("trade_id", rec.ID),
		slog.String("action", string(action)),
		slog.String("venue", rec.Venue),
		slog.String("mode", string(mode)),
		slog.Float64("price", price),
	)

	switch mode {
	case domain.ModeSimulation:
		rec.Success = true
		log.Info("simulated trade recorded")

	case domain.ModeReal:
		e.executeReal(ctx, v, action, price, &rec, log)

	default:
		rec.FailReason = fmt.Sprintf("unknown trade mode %q", mode)
		log.Error("trade rejected", slog.String("reason", rec.FailReason))
	}

	e.ledger.Append(rec)
	return rec
}

func (e *Executor) executeReal(ctx context.Context, v domain.Venue, action domain.TradeAction, price float64, rec *domain.TradeRecord, log *slog.Logger) {
	if action == domain.ActionBuy {
		balance, err := fetch.Do(ctx, e.logger, "balance "+v.Name(), e.cfg.Retry, func(ctx context.Context) (float64, error) {
			return v.FreeBalance(ctx, e.cfg.QuoteCurrency)
		})
		if err != nil {
			rec.FailReason = fmt.Sprintf("balance unavailable: %v", err)
			log.Warn("real trade aborted", slog.String("reason", rec.FailReason))
			return
		}
		if balance < price*e.cfg.Amount {
			rec.FailReason = "insufficient balance"
			log.Warn("real trade aborted",
				slog.String("reason", rec.FailReason),
				slog.Float64("balance", balance),
				slog.Float64("required", price*e.cfg.Amount),
			)
			return
		}
	}

	side := domain.SideBuy
	if action == domain.ActionSell {
		side = domain.SideSell
	}

	ref, err := v.CreateMarketOrder(ctx, e.cfg.Symbol, side, e.cfg.Amount)
	if err != nil {
		rec.FailReason = err.Error()
		if errors.Is(err, domain.ErrInsufficientBalance) {
			rec.FailReason = "insufficient balance"
		}
		log.Error("order submission failed", slog.String("error", err.Error()))
		return
	}

	rec.Success = true
	rec.OrderRef = ref
	log.Info("real trade executed", slog.String("order_ref", ref))
}

// ExecutePlan runs the plan's buy leg then its sell leg. A failed buy does not
// stop the sell and a successful buy is never unwound when the sell fails;
// the asymmetry is surfaced through PlanResult.Partial for the caller to
// report.
func (e *Executor) ExecutePlan(ctx context.Context, plan *arbitrage.Plan, buyVenue, sellVenue domain.Venue, mode domain.TradeMode) PlanResult {
	res := PlanResult{Plan: plan}
	res.Buy = e.Execute(ctx, buyVenue, domain.ActionBuy, plan.Buy.Price, mode)
	res.Sell = e.Execute(ctx, sellVenue, domain.ActionSell, plan.Sell.Price, mode)

	if res.Partial() {
		e.logger.Warn("partial plan execution, manual reconciliation required",
			slog.String("plan_id", plan.ID),
			slog.Bool("buy_success", res.Buy.Success),
			slog.Bool("sell_success", res.Sell.Success),
		)
	}
	return res
}
