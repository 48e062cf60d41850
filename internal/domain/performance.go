package domain

// Performance is a point-in-time snapshot of account state and
// realized trading statistics.
type Performance struct {
	Balance       float64 // current account balance
	TotalPnL      float64 // cumulative realized PnL
	TotalTrades   int     // closed round trips
	WinningTrades int     // round trips with positive PnL
	BestTrade     float64 // largest single realized PnL
	WorstTrade    float64 // smallest single realized PnL
	OpenPositions int     // positions currently in the book
	WinRate       float64 // winning / total, percent; 0 with no trades
}
