package contracts

import "time"

// OrderSide represents buy or sell
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents market or limit order
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// IntentResult tags an intent as accepted or rejected
type IntentResult string

const (
	IntentAccepted IntentResult = "ACCEPTED"
	IntentRejected IntentResult = "REJECTED"
)

// RejectReason is the closed set of business rejection reasons.
// 거부는 에러가 아니라 정상적인 부정 결과 — 항상 타입으로 모델링
type RejectReason string

const (
	RejectNone            RejectReason = ""
	RejectBelowThreshold  RejectReason = "SCORE_BELOW_THRESHOLD"
	RejectNoStructure     RejectReason = "NO_ELIGIBLE_STRUCTURE"
	RejectRewardRisk      RejectReason = "INSUFFICIENT_REWARD_RISK"
	RejectShortDisabled   RejectReason = "SHORTING_DISABLED"
	RejectCashReserve     RejectReason = "CASH_RESERVE"
	RejectSectorCap       RejectReason = "SECTOR_CAP"
	RejectPositionCap     RejectReason = "POSITION_CAP"
	RejectMaxPositions    RejectReason = "MAX_POSITIONS"
	RejectMinNotional     RejectReason = "MIN_NOTIONAL"
	RejectDuplicate       RejectReason = "ALREADY_HELD"
	RejectBreakerDaily    RejectReason = "BREAKER_DAILY_HALTED"
	RejectBreakerDrawdown RejectReason = "BREAKER_DRAWDOWN_HALTED"
	RejectBroker          RejectReason = "BROKER_REJECTED"
)

// OrderIntent is the pipeline's sole externally visible output per
// instrument per cycle. 영속화는 write-once (코어는 다시 읽지 않음)
type OrderIntent struct {
	ID        string     `json:"id"`
	CycleID   string     `json:"cycle_id"`
	Symbol    string     `json:"symbol"`
	Sector    string     `json:"sector"`
	Class     AssetClass `json:"class"`
	Structure Structure  `json:"structure"`
	Side      OrderSide  `json:"side"`
	Qty       int        `json:"qty"`
	OrderType OrderType  `json:"order_type"`

	LimitPrice float64 `json:"limit_price"` // 0 = market
	StopPrice  float64 `json:"stop_price"`
	Notional   float64 `json:"notional"`
	Score      float64 `json:"score"`

	Result IntentResult `json:"result"`
	Reason RejectReason `json:"reason,omitempty"`
	Detail string       `json:"detail,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsAccepted reports whether the intent was accepted
func (o *OrderIntent) IsAccepted() bool {
	return o.Result == IntentAccepted
}

// Reject marks the intent rejected with a reason
func (o *OrderIntent) Reject(reason RejectReason, detail string) {
	o.Result = IntentRejected
	o.Reason = reason
	o.Detail = detail
}
