package domain

import "time"

// TradeAction identifies one side of a two-venue arbitrage trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// TradeMode distinguishes simulated bookkeeping trades from real orders
// submitted to a venue. Both modes may run concurrently.
type TradeMode string

const (
	ModeSimulation TradeMode = "simulation"
	ModeReal       TradeMode = "real"
)

// ValidMode reports whether s names a known trade mode.
func ValidMode(s string) bool {
	return s == string(ModeSimulation) || s == string(ModeReal)
}

// TradeRecord is one executed (or simulated) leg, created exactly once per
// execution and immutable afterwards. Failed legs are recorded too, with
// FailReason set and Success false.
type TradeRecord struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	Action     TradeAction `json:"action"`
	Venue      string      `json:"venue"`
	Price      float64     `json:"price"`
	Amount     float64     `json:"amount"`
	Mode       TradeMode   `json:"mode"`
	Success    bool        `json:"success"`
	OrderRef   string      `json:"order_ref,omitempty"`
	FailReason string      `json:"fail_reason,omitempty"`
}
