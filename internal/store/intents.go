package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kairos/internal/contracts"
)

// IntentRepository persists order intents
// ⭐ SSOT: intent 영속화는 여기서만
type IntentRepository struct {
	pool *pgxpool.Pool
}

// NewIntentRepository creates an intent repository
func NewIntentRepository(pool *pgxpool.Pool) *IntentRepository {
	return &IntentRepository{pool: pool}
}

// SaveIntents batch-inserts one cycle's order intents.
// 같은 intent ID 재기록은 무시한다 (사이클 재실행 방어)
func (r *IntentRepository) SaveIntents(ctx context.Context, intents []contracts.OrderIntent) error {
	if len(intents) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO trading.order_intents
			(id, cycle_id, symbol, sector, class, structure, side, qty,
			 order_type, limit_price, stop_price, notional, score,
			 result, reason, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO NOTHING`

	for _, in := range intents {
		batch.Queue(query, in.ID, in.CycleID, in.Symbol, in.Sector,
			in.Class, in.Structure, in.Side, in.Qty,
			in.OrderType, in.LimitPrice, in.StopPrice, in.Notional, in.Score,
			in.Result, in.Reason, in.Detail, in.CreatedAt)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range intents {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to save intents: %w", err)
		}
	}

	return nil
}

// IntentsByCycle returns every intent recorded for one cycle
func (r *IntentRepository) IntentsByCycle(ctx context.Context, cycleID string) ([]contracts.OrderIntent, error) {
	query := `
		SELECT id, cycle_id, symbol, sector, class, structure, side, qty,
		       order_type, limit_price, stop_price, notional, score,
		       result, reason, detail, created_at
		FROM trading.order_intents
		WHERE cycle_id = $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query intents: %w", err)
	}
	defer rows.Close()

	var out []contracts.OrderIntent
	for rows.Next() {
		var in contracts.OrderIntent
		if err := rows.Scan(&in.ID, &in.CycleID, &in.Symbol, &in.Sector,
			&in.Class, &in.Structure, &in.Side, &in.Qty,
			&in.OrderType, &in.LimitPrice, &in.StopPrice, &in.Notional, &in.Score,
			&in.Result, &in.Reason, &in.Detail, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan intent: %w", err)
		}
		out = append(out, in)
	}

	return out, rows.Err()
}

// RejectionCounts aggregates rejection reasons over a recent window
func (r *IntentRepository) RejectionCounts(ctx context.Context, cycles int) (map[contracts.RejectReason]int, error) {
	query := `
		SELECT reason, COUNT(*)
		FROM trading.order_intents
		WHERE result = 'REJECTED'
		  AND cycle_id IN (
			SELECT DISTINCT cycle_id FROM trading.order_intents
			ORDER BY cycle_id DESC LIMIT $1)
		GROUP BY reason`

	rows, err := r.pool.Query(ctx, query, cycles)
	if err != nil {
		return nil, fmt.Errorf("failed to query rejections: %w", err)
	}
	defer rows.Close()

	out := make(map[contracts.RejectReason]int)
	for rows.Next() {
		var reason contracts.RejectReason
		var count int
		if err := rows.Scan(&reason, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rejection: %w", err)
		}
		out[reason] = count
	}

	return out, rows.Err()
}
