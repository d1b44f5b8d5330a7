package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kairos/internal/contracts"
)

// EventRepository persists risk events
// ⭐ SSOT: 리스크 이벤트 영속화는 여기서만
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates an event repository
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// SaveEvents batch-inserts risk events
func (r *EventRepository) SaveEvents(ctx context.Context, events []contracts.RiskEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO trading.risk_events
			(type, severity, symbol, message, value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, e := range events {
		batch.Queue(query, e.Type, e.Severity, e.Symbol, e.Message, e.Value, e.At)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to save events: %w", err)
		}
	}

	return nil
}

// EventsSince returns events after the given time, newest first
func (r *EventRepository) EventsSince(ctx context.Context, since time.Time) ([]contracts.RiskEvent, error) {
	query := `
		SELECT type, severity, symbol, message, value, created_at
		FROM trading.risk_events
		WHERE created_at > $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []contracts.RiskEvent
	for rows.Next() {
		var e contracts.RiskEvent
		if err := rows.Scan(&e.Type, &e.Severity, &e.Symbol, &e.Message, &e.Value, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, e)
	}

	return out, rows.Err()
}
