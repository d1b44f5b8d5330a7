package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/strategyconfig"
)

// QuoteProvider selects option legs from the externally refreshed
// chain snapshot in trading.option_chain.
// "best"는 ATM에 가장 가까운 행사가
type QuoteProvider struct {
	pool  *pgxpool.Pool
	rules *strategyconfig.Config
}

// NewQuoteProvider creates an option chain provider
func NewQuoteProvider(pool *pgxpool.Pool, rules *strategyconfig.Config) *QuoteProvider {
	return &QuoteProvider{pool: pool, rules: rules}
}

// BestCall returns the closest-to-ATM call inside the DTE window
func (q *QuoteProvider) BestCall(ctx context.Context, symbol string) (*contracts.OptionLeg, error) {
	return q.bestLeg(ctx, symbol, contracts.OptionCall)
}

// BestPut returns the closest-to-ATM put inside the DTE window
func (q *QuoteProvider) BestPut(ctx context.Context, symbol string) (*contracts.OptionLeg, error) {
	return q.bestLeg(ctx, symbol, contracts.OptionPut)
}

// VerticalSpread builds a defined-risk vertical in the signal direction:
// ATM 매수 + 한 행사가 바깥 매도, 같은 만기
func (q *QuoteProvider) VerticalSpread(ctx context.Context, symbol string, dir contracts.Direction) (*contracts.SpreadLegs, error) {
	optType := contracts.OptionCall
	if dir == contracts.DirectionBearish {
		optType = contracts.OptionPut
	}

	long, err := q.bestLeg(ctx, symbol, optType)
	if err != nil {
		return nil, err
	}

	short, err := q.nextStrikeOut(ctx, symbol, long)
	if err != nil {
		return nil, err
	}

	debit := long.Premium - short.Premium
	if debit <= 0 {
		return nil, fmt.Errorf("no net debit vertical for %s", symbol)
	}

	width := short.Strike - long.Strike
	if width < 0 {
		width = -width
	}
	mult := float64(long.Multiplier)

	return &contracts.SpreadLegs{
		Long:      *long,
		Short:     *short,
		NetDebit:  debit,
		MaxProfit: (width - debit) * mult,
		MaxLoss:   debit * mult,
	}, nil
}

// bestLeg picks the tightest-to-spot strike inside the entry DTE window
func (q *QuoteProvider) bestLeg(ctx context.Context, symbol string, optType contracts.OptionType) (*contracts.OptionLeg, error) {
	query := `
		SELECT c.option_type, c.strike, c.expiry, c.premium, c.multiplier, c.iv
		FROM trading.option_chain c
		JOIN (
			SELECT DISTINCT ON (symbol) symbol, price
			FROM trading.signal_inputs
			WHERE symbol = $1
			ORDER BY symbol, as_of DESC
		) s ON s.symbol = c.symbol
		WHERE c.symbol = $1
		  AND c.option_type = $2
		  AND c.expiry::date - CURRENT_DATE BETWEEN $3 AND $4
		  AND c.premium > 0
		ORDER BY abs(c.strike - s.price), c.expiry
		LIMIT 1`

	leg, err := q.scanLeg(q.pool.QueryRow(ctx, query, symbol, optType,
		q.rules.Options.MinDTE, q.rules.Options.MaxDTE))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("no %s inside DTE window for %s", optType, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query option chain: %w", err)
	}

	return leg, nil
}

// nextStrikeOut returns the adjacent strike away from the money at the
// same expiry, used as the short leg of a vertical.
func (q *QuoteProvider) nextStrikeOut(ctx context.Context, symbol string, long *contracts.OptionLeg) (*contracts.OptionLeg, error) {
	// 콜은 위, 풋은 아래로 한 행사가
	cmp, order := ">", "ASC"
	if long.Type == contracts.OptionPut {
		cmp, order = "<", "DESC"
	}

	query := fmt.Sprintf(`
		SELECT option_type, strike, expiry, premium, multiplier, iv
		FROM trading.option_chain
		WHERE symbol = $1
		  AND option_type = $2
		  AND expiry = $3
		  AND strike %s $4
		  AND premium > 0
		ORDER BY strike %s
		LIMIT 1`, cmp, order)

	leg, err := q.scanLeg(q.pool.QueryRow(ctx, query, symbol, long.Type, long.Expiry, long.Strike))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("no short leg strike for %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query short leg: %w", err)
	}

	return leg, nil
}

func (q *QuoteProvider) scanLeg(row pgx.Row) (*contracts.OptionLeg, error) {
	var leg contracts.OptionLeg
	if err := row.Scan(&leg.Type, &leg.Strike, &leg.Expiry, &leg.Premium, &leg.Multiplier, &leg.IV); err != nil {
		return nil, err
	}

	leg.DTE = int(time.Until(leg.Expiry).Hours() / 24)
	return &leg, nil
}
