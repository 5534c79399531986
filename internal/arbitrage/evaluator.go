package arbitrage

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
)

// Leg is one half of an arbitrage plan.
type Leg struct {
	Venue  string             `json:"venue"`
	Action domain.TradeAction `json:"action"`
	Price  float64            `json:"price"`
}

// Plan is a detected opportunity ready for execution: a buy leg followed by a
// sell leg for the same amount of the base asset.
type Plan struct {
	ID         string         `json:"id"`
	Symbol     string         `json:"symbol"`
	Amount     float64        `json:"amount"`
	Buy        Leg            `json:"buy"`
	Sell       Leg            `json:"sell"`
	Estimate   ProfitEstimate `json:"estimate"`
	DetectedAt time.Time      `json:"detected_at"`
}

// EvaluatorConfig configures opportunity detection.
type EvaluatorConfig struct {
	Symbol string
	// ProfitThreshold is the minimum net profit percent for a plan.
	ProfitThreshold float64
	// Amount is the base asset quantity per plan.
	Amount  float64
	FeeRate float64
}

// Evaluator compares a pair of quotes and emits a Plan when either direction
// clears the profit threshold.
type Evaluator struct {
	cfg    EvaluatorConfig
	logger *slog.Logger
}

// NewEvaluator creates an opportunity evaluator.
func NewEvaluator(cfg EvaluatorConfig, logger *slog.Logger) *Evaluator {
	return &Evaluator{cfg: cfg, logger: logger.With(slog.String("component", "evaluator"))}
}

// Evaluate checks both trade directions between the two quotes and returns a
// plan for the first profitable one, or nil when neither clears the
// threshold. The a-to-b direction is always checked first, so when both
// directions are profitable the a-to-b plan wins.
func (e *Evaluator) Evaluate(a, b domain.Quote) *Plan {
	if !a.Valid() || !b.Valid() {
		return nil
	}

	for _, est := range []ProfitEstimate{
		Estimate(a, b, e.cfg.FeeRate),
		Estimate(b, a, e.cfg.FeeRate),
	} {
		e.logger.Debug("direction evaluated",
			slog.String("buy_venue", est.BuyVenue),
			slog.String("sell_venue", est.SellVenue),
			slog.Float64("net", est.Net),
			slog.Float64("percent", est.Percent),
		)
		// A plan requires the estimate to strictly beat the threshold.
		if est.Percent <= e.cfg.ProfitThreshold {
			continue
		}
		return &Plan{
			ID:     uuid.Must(uuid.NewRandom()).String(),
			Symbol: e.cfg.Symbol,
			Amount: e.cfg.Amount,
			Buy: Leg{
				Venue:  est.BuyVenue,
				Action: domain.ActionBuy,
				Price:  est.BuyPrice,
			},
			Sell: Leg{
				Venue:  est.SellVenue,
				Action: domain.ActionSell,
				Price:  est.SellPrice,
			},
			Estimate:   est,
			DetectedAt: time.Now().UTC(),
		}
	}
	return nil
}
