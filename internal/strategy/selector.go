package strategy

import (
	"context"
	"fmt"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/strategyconfig"
	"github.com/wonny/kairos/pkg/logger"
)

// OptionQuotes supplies candidate option structures for a symbol
// (의존성 역전: 체인 조회/그릭스 계산은 collaborator 소관)
type OptionQuotes interface {
	// BestCall returns the best long call inside the configured DTE window
	BestCall(ctx context.Context, symbol string) (*contracts.OptionLeg, error)

	// BestPut returns the best long put inside the configured DTE window
	BestPut(ctx context.Context, symbol string) (*contracts.OptionLeg, error)

	// VerticalSpread returns a defined-risk vertical in the signal direction
	VerticalSpread(ctx context.Context, symbol string, dir contracts.Direction) (*contracts.SpreadLegs, error)
}

// Selector maps a composite signal to at most one trade proposal
// ⭐ SSOT: 진입 구조 선택은 여기서만
type Selector struct {
	rules  *strategyconfig.Config
	quotes OptionQuotes
	logger *logger.Logger
}

// NewSelector creates a strategy selector
func NewSelector(rules *strategyconfig.Config, quotes OptionQuotes, log *logger.Logger) *Selector {
	return &Selector{rules: rules, quotes: quotes, logger: log}
}

// Select returns zero or one proposal for the given class.
// 거부는 에러가 아님: (nil, reason, detail)로 반환하고 사이클은 계속
func (s *Selector) Select(ctx context.Context, sig contracts.CompositeSignal, class contracts.AssetClass) (*contracts.TradeProposal, contracts.RejectReason, string) {
	// 진입 임계값: 미달이면 다른 입력과 무관하게 무조건 no action
	if sig.Total < s.rules.Entry.ScoreThreshold {
		return nil, contracts.RejectBelowThreshold,
			fmt.Sprintf("score %.1f below %.0f", sig.Total, s.rules.Entry.ScoreThreshold)
	}

	switch class {
	case contracts.AssetStock:
		return s.selectStock(sig)
	case contracts.AssetOption:
		return s.selectOption(ctx, sig)
	}
	return nil, contracts.RejectNoStructure, fmt.Sprintf("unknown asset class %q", class)
}

// selectStock proposes an outright stock entry
func (s *Selector) selectStock(sig contracts.CompositeSignal) (*contracts.TradeProposal, contracts.RejectReason, string) {
	switch sig.Direction {
	case contracts.DirectionBullish:
		entry := sig.Price
		return &contracts.TradeProposal{
			Symbol:     sig.Symbol,
			Sector:     sig.Sector,
			Class:      contracts.AssetStock,
			Direction:  contracts.DirectionBullish,
			Structure:  contracts.StructureStock,
			Score:      sig.Total,
			Confidence: sig.Confidence,
			Rationale:  fmt.Sprintf("composite %.1f bullish", sig.Total),
			Stock: &contracts.StockLeg{
				Entry:  entry,
				Stop:   round2(entry * (1 - s.rules.Exits.StockStopLossPct)),
				Target: round2(entry * (1 + s.rules.Exits.StockProfitTargetPct)),
			},
			CreatedAt: sig.Timestamp,
		}, contracts.RejectNone, ""

	case contracts.DirectionBearish:
		// 공매도 비활성 (기본): 베어리시 주식 시그널은 옵션 경로(풋)로만
		if !s.rules.Entry.AllowShort {
			return nil, contracts.RejectShortDisabled, "bearish equity signal, shorting disabled"
		}
		entry := sig.Price
		return &contracts.TradeProposal{
			Symbol:     sig.Symbol,
			Sector:     sig.Sector,
			Class:      contracts.AssetStock,
			Direction:  contracts.DirectionBearish,
			Structure:  contracts.StructureStock,
			Score:      sig.Total,
			Confidence: sig.Confidence,
			Rationale:  fmt.Sprintf("composite %.1f bearish short", sig.Total),
			Stock: &contracts.StockLeg{
				Entry:  entry,
				Stop:   round2(entry * (1 + s.rules.Exits.StockStopLossPct)),
				Target: round2(entry * (1 - s.rules.Exits.StockProfitTargetPct)),
			},
			CreatedAt: sig.Timestamp,
		}, contracts.RejectNone, ""
	}

	return nil, contracts.RejectNoStructure, "neutral direction"
}

// selectOption maps conviction bands to option structures:
// total >= high_conviction → 아웃라이트 콜/풋, 그 외(60~74) → 버티컬 스프레드
func (s *Selector) selectOption(ctx context.Context, sig contracts.CompositeSignal) (*contracts.TradeProposal, contracts.RejectReason, string) {
	if sig.Direction == contracts.DirectionNeutral {
		return nil, contracts.RejectNoStructure, "neutral direction"
	}

	if sig.Total >= s.rules.Entry.HighConviction {
		return s.outrightOption(ctx, sig)
	}
	return s.spreadOption(ctx, sig)
}

func (s *Selector) outrightOption(ctx context.Context, sig contracts.CompositeSignal) (*contracts.TradeProposal, contracts.RejectReason, string) {
	var (
		leg *contracts.OptionLeg
		err error
		str contracts.Structure
	)

	if sig.Direction == contracts.DirectionBullish {
		leg, err = s.quotes.BestCall(ctx, sig.Symbol)
		str = contracts.StructureLongCall
	} else {
		leg, err = s.quotes.BestPut(ctx, sig.Symbol)
		str = contracts.StructureLongPut
	}

	if err != nil {
		// 체인 조회 실패도 no action으로 강등 (사이클 차단 금지)
		s.logger.WithFields(map[string]interface{}{
			"symbol": sig.Symbol,
			"error":  err,
		}).Warn("Option quote unavailable")
		return nil, contracts.RejectNoStructure, fmt.Sprintf("option chain unavailable: %v", err)
	}
	if leg == nil {
		return nil, contracts.RejectNoStructure, "no contract in DTE window"
	}
	if reason, ok := s.checkDTE(leg.DTE); !ok {
		return nil, contracts.RejectNoStructure, reason
	}

	return &contracts.TradeProposal{
		Symbol:     sig.Symbol,
		Sector:     sig.Sector,
		Class:      contracts.AssetOption,
		Direction:  sig.Direction,
		Structure:  str,
		Score:      sig.Total,
		Confidence: sig.Confidence,
		Rationale: fmt.Sprintf("high conviction %.1f | strike %.1f | %dDTE",
			sig.Total, leg.Strike, leg.DTE),
		Option:    leg,
		CreatedAt: sig.Timestamp,
	}, contracts.RejectNone, ""
}

func (s *Selector) spreadOption(ctx context.Context, sig contracts.CompositeSignal) (*contracts.TradeProposal, contracts.RejectReason, string) {
	spread, err := s.quotes.VerticalSpread(ctx, sig.Symbol, sig.Direction)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"symbol": sig.Symbol,
			"error":  err,
		}).Warn("Spread quote unavailable")
		return nil, contracts.RejectNoStructure, fmt.Sprintf("option chain unavailable: %v", err)
	}
	if spread == nil {
		return nil, contracts.RejectNoStructure, "no spread in DTE window"
	}
	if reason, ok := s.checkDTE(spread.Long.DTE); !ok {
		return nil, contracts.RejectNoStructure, reason
	}

	// 정의된 리스크: 보상/위험 비율 미달이면 거부
	if rr := spread.RewardRisk(); rr < s.rules.Options.MinRewardRisk {
		return nil, contracts.RejectRewardRisk,
			fmt.Sprintf("reward/risk %.2f below %.1f", rr, s.rules.Options.MinRewardRisk)
	}

	return &contracts.TradeProposal{
		Symbol:     sig.Symbol,
		Sector:     sig.Sector,
		Class:      contracts.AssetOption,
		Direction:  sig.Direction,
		Structure:  contracts.StructureVerticalSpread,
		Score:      sig.Total,
		Confidence: sig.Confidence,
		Rationale: fmt.Sprintf("moderate conviction %.1f | %s %.0f/%.0f | R:R %.1f",
			sig.Total, sig.Direction, spread.Long.Strike, spread.Short.Strike, spread.RewardRisk()),
		Spread:    spread,
		CreatedAt: sig.Timestamp,
	}, contracts.RejectNone, ""
}

func (s *Selector) checkDTE(dte int) (string, bool) {
	if dte < s.rules.Options.MinDTE || dte > s.rules.Options.MaxDTE {
		return fmt.Sprintf("%dDTE outside %d-%d window",
			dte, s.rules.Options.MinDTE, s.rules.Options.MaxDTE), false
	}
	return "", true
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
