package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/logger"
)

func testIntent(symbol string, qty int, limit float64) *contracts.OrderIntent {
	return &contracts.OrderIntent{
		ID: "intent-1", CycleID: "cycle-1",
		Symbol: symbol, Class: contracts.AssetStock,
		Structure: contracts.StructureStock, Side: contracts.OrderSideBuy,
		Qty: qty, OrderType: contracts.OrderTypeLimit, LimitPrice: limit,
		Result: contracts.IntentAccepted, CreatedAt: time.Now(),
	}
}

func TestPaperBroker_FillsAtLimit(t *testing.T) {
	b := NewPaperBroker()

	fill, err := b.Submit(context.Background(), testIntent("AAPL", 50, 200))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if fill.Qty != 50 || fill.Price != 200 || fill.Symbol != "AAPL" {
		t.Errorf("fill = %+v", fill)
	}

	// 주문 ID는 단조 증가
	fill2, _ := b.Submit(context.Background(), testIntent("MSFT", 10, 300))
	if fill2.OrderID == fill.OrderID {
		t.Error("order IDs must be unique")
	}
}

func TestPaperBroker_RejectsInvalid(t *testing.T) {
	b := NewPaperBroker()

	if _, err := b.Submit(context.Background(), testIntent("AAPL", 0, 200)); err == nil {
		t.Error("zero qty accepted")
	}
	if _, err := b.Submit(context.Background(), testIntent("AAPL", 10, 0)); err == nil {
		t.Error("zero limit price accepted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Submit(ctx, testIntent("AAPL", 10, 200)); err == nil {
		t.Error("cancelled context accepted")
	}
}

// failBroker fails a fixed number of times, then succeeds
type failBroker struct {
	failures int
	calls    int
}

func (f *failBroker) Submit(ctx context.Context, intent *contracts.OrderIntent) (*Fill, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	return &Fill{OrderID: "OK", Symbol: intent.Symbol, Qty: intent.Qty, Price: intent.LimitPrice, At: time.Now()}, nil
}

func TestGuardedBroker_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failBroker{failures: 100}
	g := NewGuardedBroker(inner, logger.NewNop())

	// 연속 3회 실패 후 회로 open → 이후 호출은 브로커에 도달하지 않음
	for i := 0; i < 3; i++ {
		if _, err := g.Submit(context.Background(), testIntent("AAPL", 10, 200)); err == nil {
			t.Fatal("expected failure")
		}
	}
	callsBefore := inner.calls

	if _, err := g.Submit(context.Background(), testIntent("AAPL", 10, 200)); err == nil {
		t.Fatal("expected open-circuit failure")
	}
	if inner.calls != callsBefore {
		t.Errorf("open circuit still reached broker: %d calls", inner.calls-callsBefore)
	}
}

func TestGuardedBroker_PassesThroughSuccess(t *testing.T) {
	g := NewGuardedBroker(&failBroker{failures: 0}, logger.NewNop())

	fill, err := g.Submit(context.Background(), testIntent("AAPL", 10, 200))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if fill.Qty != 10 {
		t.Errorf("fill = %+v", fill)
	}
}
