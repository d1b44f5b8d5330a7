package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/kairos/internal/contracts"
)

// Broker defines the order submission boundary
// ⭐ SSOT: 증권사 연동 인터페이스는 여기서만 정의
type Broker interface {
	// Submit sends an accepted intent to the broker and returns the fill
	Submit(ctx context.Context, intent *contracts.OrderIntent) (*Fill, error)
}

// Fill represents a completed execution
type Fill struct {
	OrderID string    `json:"order_id"`
	Symbol  string    `json:"symbol"`
	Qty     int       `json:"qty"`
	Price   float64   `json:"price"`
	At      time.Time `json:"at"`
}

// PaperBroker fills every order deterministically at the limit price.
// ⭐ 실거래 어댑터가 붙기 전까지의 기본 브로커 — 슬리피지/부분 체결 없음
type PaperBroker struct {
	mu  sync.Mutex
	seq int
	now func() time.Time
}

// NewPaperBroker creates a paper trading broker
func NewPaperBroker() *PaperBroker {
	return &PaperBroker{now: time.Now}
}

// Submit fills the intent at its limit price
func (b *PaperBroker) Submit(ctx context.Context, intent *contracts.OrderIntent) (*Fill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if intent.Qty <= 0 {
		return nil, fmt.Errorf("non-positive quantity %d for %s", intent.Qty, intent.Symbol)
	}
	if intent.LimitPrice <= 0 {
		return nil, fmt.Errorf("paper broker requires a limit price for %s", intent.Symbol)
	}

	b.mu.Lock()
	b.seq++
	id := fmt.Sprintf("PAPER-%06d", b.seq)
	b.mu.Unlock()

	return &Fill{
		OrderID: id,
		Symbol:  intent.Symbol,
		Qty:     intent.Qty,
		Price:   intent.LimitPrice,
		At:      b.now(),
	}, nil
}
