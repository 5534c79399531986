// Package arbitrage computes cross-venue profit estimates and turns quote
// pairs into executable trade plans.
package arbitrage

import "github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"

// ProfitEstimate is the fee-adjusted outcome of buying one unit on one venue
// and selling it on another.
type ProfitEstimate struct {
	BuyVenue  string  `json:"buy_venue"`
	SellVenue string  `json:"sell_venue"`
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
	// Net is the per-unit profit after fees on both legs, in quote currency.
	Net float64 `json:"net"`
	// Percent is Net relative to the fee-inclusive cost of the buy leg.
	Percent float64 `json:"percent"`
}

// Estimate computes the net profit of buying at buy.Ask on the buy venue and
// selling at sell.Bid on the sell venue, charging feeRate on both legs.
func Estimate(buy, sell domain.Quote, feeRate float64) ProfitEstimate {
	cost := buy.Ask * (1 + feeRate)
	proceeds := sell.Bid * (1 - feeRate)
	net := proceeds - cost

	est := ProfitEstimate{
		BuyVenue:  buy.Venue,
		SellVenue: sell.Venue,
		BuyPrice:  buy.Ask,
		SellPrice: sell.Bid,
		Net:       net,
	}
	if cost > 0 {
		est.Percent = net / cost * 100
	}
	return est
}
