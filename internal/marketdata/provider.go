// Package marketdata reads upstream research output from Postgres.
// 지표 계산/수집은 이 시스템 밖: 외부 파이프라인이 테이블을 채운다.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/pipeline"
)

// staleAfter bounds how old a sub-score row may be before it counts
// as a degraded source.
const staleAfter = 24 * time.Hour

// Provider implements the pipeline collaborator interfaces on top of
// externally populated research tables.
// ⭐ SSOT: 연구 데이터 조회는 여기서만
type Provider struct {
	pool *pgxpool.Pool
}

// NewProvider creates a research data provider
func NewProvider(pool *pgxpool.Pool) *Provider {
	return &Provider{pool: pool}
}

// Universe returns the active scan universe
func (p *Provider) Universe(ctx context.Context) ([]pipeline.Instrument, error) {
	query := `
		SELECT symbol, sector, asset_class
		FROM trading.universe
		WHERE active
		ORDER BY symbol`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query universe: %w", err)
	}
	defer rows.Close()

	var out []pipeline.Instrument
	for rows.Next() {
		var inst pipeline.Instrument
		if err := rows.Scan(&inst.Symbol, &inst.Sector, &inst.Class); err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		out = append(out, inst)
	}

	return out, rows.Err()
}

// Prices returns the latest known price per symbol.
// 가격이 없는 심볼은 맵에서 빠진다
func (p *Provider) Prices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	query := `
		SELECT DISTINCT ON (symbol) symbol, price
		FROM trading.signal_inputs
		WHERE symbol = ANY($1)
		ORDER BY symbol, as_of DESC`

	rows, err := p.pool.Query(ctx, query, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]float64, len(symbols))
	for rows.Next() {
		var symbol string
		var price float64
		if err := rows.Scan(&symbol, &price); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices[symbol] = price
	}

	return prices, rows.Err()
}

// TechnicalScore returns the 0-40 technical sub-score and its direction
func (p *Provider) TechnicalScore(ctx context.Context, symbol string) (contracts.SubScore, contracts.Direction, error) {
	return p.subScore(ctx, symbol, "tech_score", "tech_direction")
}

// SentimentScore returns the 0-25 sentiment sub-score
func (p *Provider) SentimentScore(ctx context.Context, symbol string) (contracts.SubScore, contracts.Direction, error) {
	return p.subScore(ctx, symbol, "sentiment_score", "sentiment_direction")
}

// ModelScore returns the 0-25 model sub-score
func (p *Provider) ModelScore(ctx context.Context, symbol string) (contracts.SubScore, contracts.Direction, error) {
	return p.subScore(ctx, symbol, "model_score", "model_direction")
}

// RegimeScore returns the latest cycle-wide regime adjustment
func (p *Provider) RegimeScore(ctx context.Context) (contracts.SubScore, error) {
	query := `
		SELECT score, as_of
		FROM trading.regime_scores
		ORDER BY as_of DESC
		LIMIT 1`

	var score float64
	var asOf time.Time
	err := p.pool.QueryRow(ctx, query).Scan(&score, &asOf)
	if err == pgx.ErrNoRows {
		return contracts.SubScore{}, nil
	}
	if err != nil {
		return contracts.SubScore{}, fmt.Errorf("failed to query regime score: %w", err)
	}

	if time.Since(asOf) > staleAfter {
		return contracts.SubScore{}, nil
	}

	return contracts.SubScore{Value: score, Valid: true}, nil
}

// subScore reads one sub-score column from the latest input row.
// 행이 없거나 오래되면 invalid SubScore (degraded 처리)
func (p *Provider) subScore(ctx context.Context, symbol, scoreCol, dirCol string) (contracts.SubScore, contracts.Direction, error) {
	// 컬럼명은 내부 상수에서만 오므로 포맷팅 안전
	query := fmt.Sprintf(`
		SELECT %s, %s, as_of
		FROM trading.signal_inputs
		WHERE symbol = $1
		ORDER BY as_of DESC
		LIMIT 1`, scoreCol, dirCol)

	var score *float64
	var direction *string
	var asOf time.Time
	err := p.pool.QueryRow(ctx, query, symbol).Scan(&score, &direction, &asOf)
	if err == pgx.ErrNoRows {
		return contracts.SubScore{}, contracts.DirectionNeutral, nil
	}
	if err != nil {
		return contracts.SubScore{}, contracts.DirectionNeutral, fmt.Errorf("failed to query %s for %s: %w", scoreCol, symbol, err)
	}

	if score == nil || time.Since(asOf) > staleAfter {
		return contracts.SubScore{}, contracts.DirectionNeutral, nil
	}

	dir := contracts.DirectionNeutral
	if direction != nil {
		dir = contracts.Direction(*direction)
	}

	return contracts.SubScore{Value: *score, Valid: true}, dir, nil
}
