package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/marketodds"
	qb "github.com/WarenOdhiambo1/oddsengine/internal/platform/querybuilder"
)

type marketOddsTableModel struct {
	MatchID     string    `db:"match_id"`
	BookmakerID string    `db:"bookmaker_id"`
	MarketType  string    `db:"market_type"`
	Selection   string    `db:"selection"`
	Price       float64   `db:"price"`
	RecordedAt  time.Time `db:"recorded_at"`
}

type MarketOddsRepository struct {
	db *sqlx.DB
}

func NewMarketOddsRepository(db *sqlx.DB) *MarketOddsRepository {
	return &MarketOddsRepository{db: db}
}

func (r *MarketOddsRepository) ListByMatchAndMarket(ctx context.Context, matchID, marketType string) ([]marketodds.Odds, error) {
	query, args, err := qb.Select("match_id", "bookmaker_id", "market_type", "selection", "price", "recorded_at").
		From("market_odds").
		Where(
			qb.Eq("match_id", matchID),
			qb.Eq("market_type", marketType),
		).
		OrderBy("recorded_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build odds query: %w", err)
	}

	var rows []marketOddsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list odds by match: %w", err)
	}

	out := make([]marketodds.Odds, 0, len(rows))
	for _, row := range rows {
		out = append(out, marketodds.Odds{
			MatchID:     row.MatchID,
			BookmakerID: row.BookmakerID,
			MarketType:  row.MarketType,
			Selection:   row.Selection,
			Price:       row.Price,
			RecordedAt:  row.RecordedAt,
		})
	}
	return out, nil
}

func (r *MarketOddsRepository) ListMatchIDsWithMarket(ctx context.Context, marketType string) ([]string, error) {
	query, args, err := qb.Select("match_id").
		From("market_odds").
		Where(qb.Eq("market_type", marketType)).
		GroupBy("match_id").
		OrderBy("match_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build matches with odds query: %w", err)
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list matches with odds: %w", err)
	}
	return ids, nil
}
