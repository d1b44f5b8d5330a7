package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/strategyconfig"
	"github.com/wonny/kairos/pkg/logger"
)

// stubQuotes implements OptionQuotes for tests
type stubQuotes struct {
	call   *contracts.OptionLeg
	put    *contracts.OptionLeg
	spread *contracts.SpreadLegs
	err    error
}

func (s *stubQuotes) BestCall(ctx context.Context, symbol string) (*contracts.OptionLeg, error) {
	return s.call, s.err
}

func (s *stubQuotes) BestPut(ctx context.Context, symbol string) (*contracts.OptionLeg, error) {
	return s.put, s.err
}

func (s *stubQuotes) VerticalSpread(ctx context.Context, symbol string, dir contracts.Direction) (*contracts.SpreadLegs, error) {
	return s.spread, s.err
}

func testLeg(t contracts.OptionType, dte int) *contracts.OptionLeg {
	return &contracts.OptionLeg{
		Type: t, Strike: 100, Premium: 3.0, Multiplier: 100,
		DTE: dte, Expiry: time.Now().AddDate(0, 0, dte),
	}
}

func testSpread(rr float64, dte int) *contracts.SpreadLegs {
	// MaxLoss 기준으로 R:R 역산
	return &contracts.SpreadLegs{
		Long:      *testLeg(contracts.OptionCall, dte),
		Short:     contracts.OptionLeg{Type: contracts.OptionCall, Strike: 105, Premium: 1.0, Multiplier: 100, DTE: dte},
		NetDebit:  2.0,
		MaxLoss:   200,
		MaxProfit: 200 * rr,
	}
}

func newSelector(quotes OptionQuotes) *Selector {
	return NewSelector(strategyconfig.Default(), quotes, logger.NewNop())
}

func bullishSignal(total float64) contracts.CompositeSignal {
	return contracts.CompositeSignal{
		Symbol: "AAPL", Sector: "tech", Price: 200,
		Total: total, Direction: contracts.DirectionBullish,
		Confidence: contracts.ConfidenceMedium,
		Timestamp:  time.Now(),
	}
}

func TestSelect_EntryThresholdBoundary(t *testing.T) {
	sel := newSelector(&stubQuotes{})

	// 59.x → no action, 60 → 제안 생성 (경계 포함)
	p, reason, _ := sel.Select(context.Background(), bullishSignal(59.9), contracts.AssetStock)
	if p != nil || reason != contracts.RejectBelowThreshold {
		t.Errorf("total=59.9: proposal=%v reason=%s, want nil/%s", p, reason, contracts.RejectBelowThreshold)
	}

	p, reason, _ = sel.Select(context.Background(), bullishSignal(60), contracts.AssetStock)
	if p == nil || reason != contracts.RejectNone {
		t.Fatalf("total=60: expected proposal, got reason=%s", reason)
	}
	if p.Structure != contracts.StructureStock || p.Stock == nil {
		t.Errorf("unexpected structure %s", p.Structure)
	}
}

func TestSelect_StockLevels(t *testing.T) {
	sel := newSelector(&stubQuotes{})

	p, _, _ := sel.Select(context.Background(), bullishSignal(72), contracts.AssetStock)
	if p == nil {
		t.Fatal("expected proposal")
	}
	// 기본 룰: 손절 -8%, 목표 +15%
	if p.Stock.Stop != 184.0 {
		t.Errorf("Stop = %v, want 184.00", p.Stock.Stop)
	}
	if p.Stock.Target != 230.0 {
		t.Errorf("Target = %v, want 230.00", p.Stock.Target)
	}
}

func TestSelect_ShortDisabledByDefault(t *testing.T) {
	sel := newSelector(&stubQuotes{})

	sig := bullishSignal(80)
	sig.Direction = contracts.DirectionBearish

	p, reason, _ := sel.Select(context.Background(), sig, contracts.AssetStock)
	if p != nil || reason != contracts.RejectShortDisabled {
		t.Errorf("bearish stock: proposal=%v reason=%s, want nil/%s", p, reason, contracts.RejectShortDisabled)
	}
}

func TestSelect_ShortEnabled(t *testing.T) {
	rules := strategyconfig.Default()
	rules.Entry.AllowShort = true
	sel := NewSelector(rules, &stubQuotes{}, logger.NewNop())

	sig := bullishSignal(80)
	sig.Direction = contracts.DirectionBearish

	p, reason, _ := sel.Select(context.Background(), sig, contracts.AssetStock)
	if p == nil {
		t.Fatalf("expected short proposal, got reason=%s", reason)
	}
	if p.Direction != contracts.DirectionBearish {
		t.Errorf("Direction = %s, want BEARISH", p.Direction)
	}
	// 숏은 손절이 진입가 위
	if p.Stock.Stop <= p.Stock.Entry {
		t.Errorf("short stop %v should be above entry %v", p.Stock.Stop, p.Stock.Entry)
	}
}

func TestSelect_OptionConvictionBands(t *testing.T) {
	quotes := &stubQuotes{
		call:   testLeg(contracts.OptionCall, 37),
		put:    testLeg(contracts.OptionPut, 37),
		spread: testSpread(2.5, 37),
	}
	sel := newSelector(quotes)

	// 고확신(>=75) → 아웃라이트 콜
	p, reason, _ := sel.Select(context.Background(), bullishSignal(80), contracts.AssetOption)
	if p == nil || p.Structure != contracts.StructureLongCall {
		t.Errorf("total=80: structure=%v reason=%s, want LONG_CALL", p, reason)
	}

	// 고확신 베어리시 → 아웃라이트 풋
	sig := bullishSignal(80)
	sig.Direction = contracts.DirectionBearish
	p, _, _ = sel.Select(context.Background(), sig, contracts.AssetOption)
	if p == nil || p.Structure != contracts.StructureLongPut {
		t.Errorf("bearish total=80: want LONG_PUT, got %+v", p)
	}

	// 중간 확신(60~74) → 버티컬 스프레드
	p, _, _ = sel.Select(context.Background(), bullishSignal(68), contracts.AssetOption)
	if p == nil || p.Structure != contracts.StructureVerticalSpread {
		t.Errorf("total=68: want VERTICAL_SPREAD, got %+v", p)
	}

	// 경계: 75는 아웃라이트
	p, _, _ = sel.Select(context.Background(), bullishSignal(75), contracts.AssetOption)
	if p == nil || p.Structure != contracts.StructureLongCall {
		t.Errorf("total=75: want LONG_CALL, got %+v", p)
	}
}

func TestSelect_SpreadRewardRiskGate(t *testing.T) {
	// R:R 1.5 < 2.0 → 거부
	sel := newSelector(&stubQuotes{spread: testSpread(1.5, 37)})

	p, reason, detail := sel.Select(context.Background(), bullishSignal(68), contracts.AssetOption)
	if p != nil || reason != contracts.RejectRewardRisk {
		t.Errorf("RR=1.5: proposal=%v reason=%s detail=%s, want %s",
			p, reason, detail, contracts.RejectRewardRisk)
	}

	// 정확히 2.0은 통과
	sel = newSelector(&stubQuotes{spread: testSpread(2.0, 37)})
	p, reason, _ = sel.Select(context.Background(), bullishSignal(68), contracts.AssetOption)
	if p == nil {
		t.Errorf("RR=2.0: expected proposal, got reason=%s", reason)
	}
}

func TestSelect_QuoteFailureDegrades(t *testing.T) {
	// 체인 조회 실패는 사이클을 막지 않고 no action으로 강등
	sel := newSelector(&stubQuotes{err: errors.New("chain timeout")})

	p, reason, _ := sel.Select(context.Background(), bullishSignal(80), contracts.AssetOption)
	if p != nil || reason != contracts.RejectNoStructure {
		t.Errorf("quote failure: proposal=%v reason=%s, want nil/%s", p, reason, contracts.RejectNoStructure)
	}
}

func TestSelect_DTEWindow(t *testing.T) {
	// 만기 20일짜리 콜은 30~45 윈도우 밖 → 거부
	sel := newSelector(&stubQuotes{call: testLeg(contracts.OptionCall, 20)})

	p, reason, detail := sel.Select(context.Background(), bullishSignal(80), contracts.AssetOption)
	if p != nil || reason != contracts.RejectNoStructure {
		t.Errorf("DTE=20: proposal=%v reason=%s detail=%s", p, reason, detail)
	}
}
