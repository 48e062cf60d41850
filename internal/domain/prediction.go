package domain

// Action is the trade directive attached to a prediction.
type Action string

// Action constants
const (
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
)

// Prediction is the scored trade signal produced from an opportunity.
// One live record per token address; regeneration overwrites in place.
type Prediction struct {
	TokenAddress   string  // token address, unique key
	Action         Action  // BUY above 0.75 combined score, HOLD otherwise
	Confidence     float64 // combined score [0, 1]
	ExpectedReturn float64 // projected return multiple carried from the opportunity
	RiskScore      float64 // 1 - combined score
	EntryPrice     float64 // price at prediction time
	TargetPrice    float64 // entry * (1 + expected return)
	StopLoss       float64 // entry * 0.8
	TimeHorizonSec int     // suggested holding window in seconds
	SocialScore    float64 // social component [0, 1]
	TechnicalScore float64 // technical component [0, 1]
	WhaleScore     float64 // whale component [0, 1]
	CreatedAt      int64   // Unix timestamp in milliseconds
}

// Rank orders BUY predictions for execution: strongest conviction with
// the largest projected upside goes first.
func (p *Prediction) Rank() float64 {
	return p.Confidence * p.ExpectedReturn
}
