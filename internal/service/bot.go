// Package service implements the bot facade: the operations the HTTP API and
// the background loops share for detecting and executing arbitrage.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/arbitrage"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/executor"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/fetch"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/ledger"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/looper"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/notify"
)

// SignalChannel is the bus channel loop outcomes are published on.
const SignalChannel = "arbbot:signals"

// Notifier is the push-notification sink the bot reports loop outcomes to.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config holds the bot's trading parameters, fixed for the process lifetime.
type Config struct {
	Symbol          string
	BaseCurrency    string
	QuoteCurrency   string
	ProfitThreshold float64
	TradeAmount     float64
	FeeRate         float64
	PollInterval    time.Duration
	LedgerMax       int
	Retry           fetch.Policy
}

// Bot wires the two venues, the evaluator, the per-mode executors and the
// loop manager behind the operations the front ends call.
type Bot struct {
	cfg       Config
	venueA    domain.Venue
	venueB    domain.Venue
	evaluator *arbitrage.Evaluator
	executors map[domain.TradeMode]*executor.Executor
	ledgers   map[domain.TradeMode]domain.TradeLedger
	loops     *looper.Manager
	quotes    domain.QuoteCache // optional
	bus       domain.SignalBus  // optional
	notifier  Notifier          // optional
	logger    *slog.Logger

	// initial free balances per venue, captured on the first account-status
	// query and never updated afterwards.
	initialMu sync.Mutex
	initial   map[string]Balances
}

// New creates a fully wired Bot. venueA gets direction priority: when both
// trade directions clear the threshold, the bot buys on venueA.
func New(cfg Config, venueA, venueB domain.Venue, quotes domain.QuoteCache, bus domain.SignalBus, notifier Notifier, logger *slog.Logger) *Bot {
	b := &Bot{
		cfg:    cfg,
		venueA: venueA,
		venueB: venueB,
		evaluator: arbitrage.NewEvaluator(arbitrage.EvaluatorConfig{
			Symbol:          cfg.Symbol,
			ProfitThreshold: cfg.ProfitThreshold,
			Amount:          cfg.TradeAmount,
			FeeRate:         cfg.FeeRate,
		}, logger),
		executors: make(map[domain.TradeMode]*executor.Executor, 2),
		ledgers:   make(map[domain.TradeMode]domain.TradeLedger, 2),
		quotes:    quotes,
		bus:       bus,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "bot")),
		initial:   make(map[string]Balances, 2),
	}

	execCfg := executor.Config{
		Symbol:        cfg.Symbol,
		QuoteCurrency: cfg.QuoteCurrency,
		Amount:        cfg.TradeAmount,
		Retry:         cfg.Retry,
	}
	for _, mode := range []domain.TradeMode{domain.ModeSimulation, domain.ModeReal} {
		led := ledger.New(cfg.LedgerMax)
		b.ledgers[mode] = led
		b.executors[mode] = executor.New(execCfg, led, logger)
	}

	b.loops = looper.NewManager(cfg.PollInterval, b, logger)
	return b
}

// Balances is a venue's free balances in the traded pair.
type Balances struct {
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// StatusReport is the answer to a status query: both venues' fresh quotes and
// the fee-adjusted profit of each direction.
type StatusReport struct {
	Symbol    string                     `json:"symbol"`
	Threshold float64                    `json:"threshold_percent"`
	Quotes    []domain.Quote             `json:"quotes"`
	Estimates []arbitrage.ProfitEstimate `json:"estimates"`
}

// RunReport is the outcome of a single arbitrage pass.
type RunReport struct {
	Status   StatusReport         `json:"status"`
	Plan     *arbitrage.Plan      `json:"plan,omitempty"`
	Executed *executor.PlanResult `json:"executed,omitempty"`
}

// VenueAccount is one venue's entry in an account-status report.
type VenueAccount struct {
	Venue       string   `json:"venue"`
	Current     Balances `json:"current"`
	Initial     Balances `json:"initial"`
	BaseChange  float64  `json:"base_change"`
	QuoteChange float64  `json:"quote_change"`
}

// LoopStatus describes one mode's loop state.
type LoopStatus struct {
	Mode    domain.TradeMode `json:"mode"`
	Running bool             `json:"running"`
}

// Status fetches both venues' quotes and reports both directions' profit.
func (b *Bot) Status(ctx context.Context) (StatusReport, error) {
	qa, qb, err := b.fetchQuotes(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	return b.report(qa, qb), nil
}

func (b *Bot) report(qa, qb domain.Quote) StatusReport {
	return StatusReport{
		Symbol:    b.cfg.Symbol,
		Threshold: b.cfg.ProfitThreshold,
		Quotes:    []domain.Quote{qa, qb},
		Estimates: []arbitrage.ProfitEstimate{
			arbitrage.Estimate(qa, qb, b.cfg.FeeRate),
			arbitrage.Estimate(qb, qa, b.cfg.FeeRate),
		},
	}
}

// ArbitrageOnce runs a single detect-and-execute pass in the given mode and
// returns what happened. A pass with no plan is a successful no-op.
func (b *Bot) ArbitrageOnce(ctx context.Context, mode domain.TradeMode) (RunReport, error) {
	exec, ok := b.executors[mode]
	if !ok {
		return RunReport{}, fmt.Errorf("service: unknown trade mode %q", mode)
	}

	qa, qb, err := b.fetchQuotes(ctx)
	if err != nil {
		return RunReport{}, err
	}

	rep := RunReport{Status: b.report(qa, qb)}

	plan := b.evaluator.Evaluate(qa, qb)
	if plan == nil {
		return rep, nil
	}
	rep.Plan = plan

	// A started trade always runs to completion, even if the caller goes away.
	res := exec.ExecutePlan(context.WithoutCancel(ctx), plan, b.venueByName(plan.Buy.Venue), b.venueByName(plan.Sell.Venue), mode)
	rep.Executed = &res
	return rep, nil
}

// AccountStatus reads both venues' free balances in the traded pair. The
// first successful read per venue is kept as the initial snapshot; later
// reports include the change against it.
func (b *Bot) AccountStatus(ctx context.Context) ([]VenueAccount, error) {
	accounts := make([]VenueAccount, 0, 2)
	for _, v := range []domain.Venue{b.venueA, b.venueB} {
		cur, err := b.fetchBalances(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("service: account status %s: %w", v.Name(), err)
		}

		b.initialMu.Lock()
		init, ok := b.initial[v.Name()]
		if !ok {
			init = cur
			b.initial[v.Name()] = cur
		}
		b.initialMu.Unlock()

		accounts = append(accounts, VenueAccount{
			Venue:       v.Name(),
			Current:     cur,
			Initial:     init,
			BaseChange:  cur.Base - init.Base,
			QuoteChange: cur.Quote - init.Quote,
		})
	}
	return accounts, nil
}

// History returns the most recent n trades of a mode, oldest first.
func (b *Bot) History(mode domain.TradeMode, n int) ([]domain.TradeRecord, error) {
	led, ok := b.ledgers[mode]
	if !ok {
		return nil, fmt.Errorf("service: unknown trade mode %q", mode)
	}
	return led.Recent(n), nil
}

// LatestQuotes returns the last quote seen per venue from the read-model
// cache. Without a cache it reports nothing rather than hitting the venues.
func (b *Bot) LatestQuotes(ctx context.Context) (map[string]domain.Quote, error) {
	if b.quotes == nil {
		return map[string]domain.Quote{}, nil
	}
	return b.quotes.GetQuotes(ctx, []string{b.venueA.Name(), b.venueB.Name()})
}

// StartLoop starts the background loop for a mode.
func (b *Bot) StartLoop(ctx context.Context, mode domain.TradeMode) error {
	return b.loops.Start(ctx, mode)
}

// StopLoop stops the background loop for a mode, waiting for any in-flight
// iteration to finish.
func (b *Bot) StopLoop(mode domain.TradeMode) error {
	return b.loops.Stop(mode)
}

// Loops reports both modes' loop states.
func (b *Bot) Loops() []LoopStatus {
	statuses := make([]LoopStatus, 0, 2)
	for _, mode := range []domain.TradeMode{domain.ModeSimulation, domain.ModeReal} {
		statuses = append(statuses, LoopStatus{Mode: mode, Running: b.loops.Running(mode)})
	}
	return statuses
}

// StopAllLoops stops every running loop. Used at shutdown.
func (b *Bot) StopAllLoops() {
	b.loops.StopAll()
}

// Iterate runs one loop cycle: fetch, evaluate, execute, report. Fetch
// failures end the cycle quietly; the next tick retries from scratch.
func (b *Bot) Iterate(ctx context.Context, mode domain.TradeMode) {
	log := b.logger.With(slog.String("mode", string(mode)))

	rep, err := b.ArbitrageOnce(ctx, mode)
	if err != nil {
		log.Warn("iteration skipped", slog.String("error", err.Error()))
		b.emit(ctx, notify.EventLoopError, "Arbitrage loop error",
			fmt.Sprintf("mode %s: %v", mode, err), map[string]any{"mode": mode, "error": err.Error()})
		return
	}
	if rep.Plan == nil {
		log.Debug("no opportunity this cycle")
		return
	}

	title, message := notify.FormatPlan(rep.Plan)
	b.emit(ctx, notify.EventArbDetected, title, message, map[string]any{"mode": mode, "plan": rep.Plan})

	res := *rep.Executed
	event := notify.EventTradeExecuted
	if !res.Success() {
		event = notify.EventTradeFailed
	}
	title, message = notify.FormatPlanResult(res)
	b.emit(ctx, event, title, message, map[string]any{"mode": mode, "result": res})
}

// emit pushes a loop outcome to the notifier and the signal bus. Both are
// best effort; a dead Telegram API must not stall trading.
func (b *Bot) emit(ctx context.Context, event, title, message string, payload map[string]any) {
	if b.notifier != nil {
		if err := b.notifier.Notify(ctx, event, title, message); err != nil {
			b.logger.Warn("notify failed", slog.String("event", event), slog.String("error", err.Error()))
		}
	}
	if b.bus != nil {
		payload["event"] = event
		payload["ts"] = time.Now().UTC()
		data, err := json.Marshal(payload)
		if err != nil {
			b.logger.Warn("marshal signal failed", slog.String("event", event), slog.String("error", err.Error()))
			return
		}
		if err := b.bus.Publish(ctx, SignalChannel, data); err != nil {
			b.logger.Warn("publish signal failed", slog.String("event", event), slog.String("error", err.Error()))
		}
	}
}

func (b *Bot) fetchQuotes(ctx context.Context) (domain.Quote, domain.Quote, error) {
	qa, err := b.fetchQuote(ctx, b.venueA)
	if err != nil {
		return domain.Quote{}, domain.Quote{}, err
	}
	qb, err := b.fetchQuote(ctx, b.venueB)
	if err != nil {
		return domain.Quote{}, domain.Quote{}, err
	}
	return qa, qb, nil
}

func (b *Bot) fetchQuote(ctx context.Context, v domain.Venue) (domain.Quote, error) {
	q, err := fetch.Do(ctx, b.logger, "ticker "+v.Name(), b.cfg.Retry, func(ctx context.Context) (domain.Quote, error) {
		return v.Ticker(ctx, b.cfg.Symbol)
	})
	if err != nil {
		return domain.Quote{}, fmt.Errorf("service: quote %s: %w", v.Name(), err)
	}

	if b.quotes != nil {
		if cacheErr := b.quotes.SetQuote(ctx, q); cacheErr != nil {
			b.logger.Warn("quote cache set failed",
				slog.String("venue", v.Name()),
				slog.String("error", cacheErr.Error()),
			)
		}
	}
	return q, nil
}

func (b *Bot) fetchBalances(ctx context.Context, v domain.Venue) (Balances, error) {
	base, err := fetch.Do(ctx, b.logger, "balance "+v.Name()+" "+b.cfg.BaseCurrency, b.cfg.Retry, func(ctx context.Context) (float64, error) {
		return v.FreeBalance(ctx, b.cfg.BaseCurrency)
	})
	if err != nil {
		return Balances{}, err
	}
	quote, err := fetch.Do(ctx, b.logger, "balance "+v.Name()+" "+b.cfg.QuoteCurrency, b.cfg.Retry, func(ctx context.Context) (float64, error) {
		return v.FreeBalance(ctx, b.cfg.QuoteCurrency)
	})
	if err != nil {
		return Balances{}, err
	}
	return Balances{Base: base, Quote: quote}, nil
}

func (b *Bot) venueByName(name string) domain.Venue {
	if b.venueB.Name() == name {
		return b.venueB
	}
	return b.venueA
}

var _ looper.Iterator = (*Bot)(nil)
