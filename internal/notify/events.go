package notify

import (
	"fmt"
	"strings"

	"github.com/angelolockdev/AngeloCryptoArbBot/internal/arbitrage"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/domain"
	"github.com/angelolockdev/AngeloCryptoArbBot/internal/executor"
)

// Event types emitted by the arbitrage loops, usable in notify.events config.
const (
	EventArbDetected   = "arb_detected"
	EventTradeExecuted = "trade_executed"
	EventTradeFailed   = "trade_failed"
	EventLoopError     = "loop_error"
)

// FormatPlan renders a detected opportunity for human consumption.
func FormatPlan(plan *arbitrage.Plan) (title, message string) {
	title = fmt.Sprintf("Arbitrage detected: %s", plan.Symbol)
	message = fmt.Sprintf(
		"Buy %s @ %.2f, sell %s @ %.2f\nNet profit: %.4f (%.3f%%) per unit, amount %v",
		plan.Buy.Venue, plan.Buy.Price,
		plan.Sell.Venue, plan.Sell.Price,
		plan.Estimate.Net, plan.Estimate.Percent, plan.Amount,
	)
	return title, message
}

// FormatPlanResult renders the execution outcome of a plan, flagging partial
// fills so an operator can reconcile the open position by hand.
func FormatPlanResult(res executor.PlanResult) (title, message string) {
	switch {
	case res.Success():
		title = fmt.Sprintf("Trade executed (%s)", res.Buy.Mode)
	case res.Partial():
		title = fmt.Sprintf("PARTIAL trade execution (%s), manual action required", res.Buy.Mode)
	default:
		title = fmt.Sprintf("Trade failed (%s)", res.Buy.Mode)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", formatLeg(res.Buy))
	fmt.Fprintf(&b, "%s", formatLeg(res.Sell))
	return title, b.String()
}

func formatLeg(rec domain.TradeRecord) string {
	if rec.Success {
		ref := rec.OrderRef
		if ref == "" {
			ref = "simulated"
		}
		return fmt.Sprintf("%s on %s @ %.2f x %v: OK (%s)", rec.Action, rec.Venue, rec.Price, rec.Amount, ref)
	}
	return fmt.Sprintf("%s on %s @ %.2f x %v: FAILED (%s)", rec.Action, rec.Venue, rec.Price, rec.Amount, rec.FailReason)
}
