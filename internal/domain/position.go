package domain

// PositionStatus tracks the lifecycle of a position.
type PositionStatus string

// Position status constants
const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// ExitReason explains why a position left (or stays in) the book.
type ExitReason string

// Exit reason constants. EvaluateExit checks them in this order:
// stop loss first, then take profit, then the holding-time limit.
const (
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitTimeLimit  ExitReason = "TIME_LIMIT"
	ExitHolding    ExitReason = "HOLDING"
)

// Position is an open paper position in a single token.
type Position struct {
	TokenAddress string         // token address, unique key
	Symbol       string         // ticker symbol
	EntryPrice   float64        // fill price at open
	CurrentPrice float64        // last mark price
	Amount       float64        // position notional in account currency
	EntryTime    int64          // Unix timestamp in milliseconds
	StopLoss     float64        // exit below this price
	TakeProfit   float64        // exit above this price
	PnLPercent   float64        // unrealized PnL, percent of entry
	PnL          float64        // unrealized PnL in account currency
	Status       PositionStatus // OPEN | CLOSED
}

// MarkToMarket updates the mark price and the derived unrealized PnL.
func (p *Position) MarkToMarket(price float64) {
	p.CurrentPrice = price
	if p.EntryPrice > 0 {
		p.PnLPercent = (price - p.EntryPrice) / p.EntryPrice * 100
	} else {
		p.PnLPercent = 0
	}
	p.PnL = p.Amount * p.PnLPercent / 100
}

// EvaluateExit decides whether the position should be closed at the
// current mark. Stop loss wins over take profit when both trigger
// (possible with a degenerate stop >= take configuration).
func (p *Position) EvaluateExit(nowMs, maxHoldingMs int64) ExitReason {
	if p.CurrentPrice <= p.StopLoss {
		return ExitStopLoss
	}
	if p.CurrentPrice >= p.TakeProfit {
		return ExitTakeProfit
	}
	if nowMs-p.EntryTime > maxHoldingMs {
		return ExitTimeLimit
	}
	return ExitHolding
}
