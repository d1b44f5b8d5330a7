package contracts

import "testing"

func TestSpreadLegs_RewardRisk(t *testing.T) {
	spread := SpreadLegs{
		Long:      OptionLeg{Type: OptionCall, Strike: 100, Premium: 3.0, Multiplier: 100},
		Short:     OptionLeg{Type: OptionCall, Strike: 105, Premium: 1.0, Multiplier: 100},
		NetDebit:  2.0,
		MaxProfit: 300, // (폭 5 - 순매수 2) * 100
		MaxLoss:   200,
	}
	if got := spread.RewardRisk(); got != 1.5 {
		t.Errorf("RewardRisk() = %v, want 1.5", got)
	}

	zero := SpreadLegs{MaxProfit: 100, MaxLoss: 0}
	if got := zero.RewardRisk(); got != 0 {
		t.Errorf("zero-loss RewardRisk() = %v, want 0", got)
	}
}

func TestTradeProposal_UnitCost(t *testing.T) {
	stock := &TradeProposal{Structure: StructureStock, Stock: &StockLeg{Entry: 150}}
	if got := stock.UnitCost(150); got != 150 {
		t.Errorf("stock UnitCost = %v, want 150", got)
	}

	call := &TradeProposal{
		Structure: StructureLongCall,
		Option:    &OptionLeg{Premium: 3.5, Multiplier: 100},
	}
	if got := call.UnitCost(0); got != 350 {
		t.Errorf("call UnitCost = %v, want 350", got)
	}

	spread := &TradeProposal{
		Structure: StructureVerticalSpread,
		Spread: &SpreadLegs{
			Long:     OptionLeg{Multiplier: 100},
			NetDebit: 2.0,
		},
	}
	if got := spread.UnitCost(0); got != 200 {
		t.Errorf("spread UnitCost = %v, want 200", got)
	}
}
