// Package store persists cycle facts to Postgres.
// 모든 기록은 write-once: 코어는 저장된 사실을 다시 읽지 않는다.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kairos/internal/contracts"
)

// SignalRepository persists composite signals
// ⭐ SSOT: 신호 영속화는 여기서만
type SignalRepository struct {
	pool *pgxpool.Pool
}

// NewSignalRepository creates a signal repository
func NewSignalRepository(pool *pgxpool.Pool) *SignalRepository {
	return &SignalRepository{pool: pool}
}

// SaveSignals batch-inserts one cycle's composite signals
func (r *SignalRepository) SaveSignals(ctx context.Context, signals []contracts.CompositeSignal) error {
	if len(signals) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO trading.signals
			(symbol, sector, price, technical, sentiment, model, regime,
			 total, direction, confidence, degraded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, s := range signals {
		batch.Queue(query, s.Symbol, s.Sector, s.Price,
			s.Technical, s.Sentiment, s.Model, s.Regime,
			s.Total, s.Direction, s.Confidence, s.Degraded, s.Timestamp)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range signals {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to save signals: %w", err)
		}
	}

	return nil
}

// RecentSignals returns the latest signals for a symbol, newest first
func (r *SignalRepository) RecentSignals(ctx context.Context, symbol string, limit int) ([]contracts.CompositeSignal, error) {
	query := `
		SELECT symbol, sector, price, technical, sentiment, model, regime,
		       total, direction, confidence, degraded, created_at
		FROM trading.signals
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var out []contracts.CompositeSignal
	for rows.Next() {
		var s contracts.CompositeSignal
		if err := rows.Scan(&s.Symbol, &s.Sector, &s.Price,
			&s.Technical, &s.Sentiment, &s.Model, &s.Regime,
			&s.Total, &s.Direction, &s.Confidence, &s.Degraded, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		out = append(out, s)
	}

	return out, rows.Err()
}
