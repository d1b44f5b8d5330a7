package contracts

import "time"

// AssetClass represents the instrument class of a proposal or position
type AssetClass string

const (
	AssetStock  AssetClass = "STOCK"
	AssetOption AssetClass = "OPTION"
)

// Structure is the closed set of trade structures the selector can emit.
// Sizer와 Pipeline은 switch로 전 케이스 처리 (케이스 추가 시 컴파일러가 잡도록)
type Structure string

const (
	StructureStock          Structure = "STOCK"
	StructureLongCall       Structure = "LONG_CALL"
	StructureLongPut        Structure = "LONG_PUT"
	StructureVerticalSpread Structure = "VERTICAL_SPREAD"
)

// OptionType represents call or put
type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// StockLeg carries the payload of an outright stock proposal
type StockLeg struct {
	Entry  float64 `json:"entry"`
	Stop   float64 `json:"stop"`
	Target float64 `json:"target"`
}

// OptionLeg carries a single option contract
type OptionLeg struct {
	Type       OptionType `json:"type"`
	Strike     float64    `json:"strike"`
	Expiry     time.Time  `json:"expiry"`
	DTE        int        `json:"dte"`
	Premium    float64    `json:"premium"`    // per share
	Multiplier int        `json:"multiplier"` // 보통 100
	IV         float64    `json:"iv,omitempty"`
}

// CostPerContract returns the debit for one contract
func (l OptionLeg) CostPerContract() float64 {
	return l.Premium * float64(l.Multiplier)
}

// SpreadLegs carries a defined-risk vertical spread
type SpreadLegs struct {
	Long      OptionLeg `json:"long"`
	Short     OptionLeg `json:"short"`
	NetDebit  float64   `json:"net_debit"`  // per share
	MaxProfit float64   `json:"max_profit"` // per contract
	MaxLoss   float64   `json:"max_loss"`   // per contract
}

// RewardRisk returns the modeled reward/risk ratio of the spread
func (s SpreadLegs) RewardRisk() float64 {
	if s.MaxLoss <= 0 {
		return 0
	}
	return s.MaxProfit / s.MaxLoss
}

// CostPerContract returns the net debit for one spread contract
func (s SpreadLegs) CostPerContract() float64 {
	return s.NetDebit * float64(s.Long.Multiplier)
}

// TradeProposal is the selector output for one instrument in one cycle.
// Exactly one payload pointer is set, matching Structure.
// 사이클마다 새로 생성, 코어에서는 영속화하지 않음
type TradeProposal struct {
	Symbol    string     `json:"symbol"`
	Sector    string     `json:"sector"`
	Class     AssetClass `json:"class"`
	Direction Direction  `json:"direction"`
	Structure Structure  `json:"structure"`

	Score      float64    `json:"score"`
	Confidence Confidence `json:"confidence"`
	Rationale  string     `json:"rationale"`

	Stock  *StockLeg   `json:"stock,omitempty"`
	Option *OptionLeg  `json:"option,omitempty"`
	Spread *SpreadLegs `json:"spread,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// UnitCost returns the cost of one unit (share or contract) of the proposal
func (p *TradeProposal) UnitCost(price float64) float64 {
	switch p.Structure {
	case StructureStock:
		return price
	case StructureLongCall, StructureLongPut:
		return p.Option.CostPerContract()
	case StructureVerticalSpread:
		return p.Spread.CostPerContract()
	}
	return 0
}
