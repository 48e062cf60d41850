package domain

// TradeAction distinguishes the two sides of a settled trade.
type TradeAction string

// Trade action constants
const (
	TradeBuy  TradeAction = "BUY"
	TradeSell TradeAction = "SELL"
)

// TradeStatus records whether settlement went through.
type TradeStatus string

// Trade status constants
const (
	TradeExecuted TradeStatus = "EXECUTED"
	TradeFailed   TradeStatus = "FAILED"
)

// Trade is an immutable record of a settled (or force-closed) trade.
// Corresponds to the trades table in PostgreSQL.
type Trade struct {
	TradeID      string      // PRIMARY KEY, deterministic hash
	TokenAddress string      // token address
	Action       TradeAction // BUY | SELL
	Amount       float64     // notional in account currency
	Price        float64     // fill price
	Timestamp    int64       // Unix timestamp in milliseconds
	SettlementID string      // settlement transaction id, empty on FAILED
	ExitReason   ExitReason  // set on SELL rows, empty on BUY
	PnL          float64     // realized PnL, SELL rows only
	Status       TradeStatus // EXECUTED | FAILED
}
