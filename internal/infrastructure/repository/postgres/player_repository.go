package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	qb "github.com/WarenOdhiambo1/oddsengine/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) CountInjuredByTeam(ctx context.Context, teamID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").
		From("players").
		Where(
			qb.Eq("team_id", teamID),
			qb.Eq("is_injured", true),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build injured count query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count injured players: %w", err)
	}
	return count, nil
}
