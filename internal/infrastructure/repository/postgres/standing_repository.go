package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/standing"
	qb "github.com/WarenOdhiambo1/oddsengine/internal/platform/querybuilder"
)

type standingTableModel struct {
	TeamID         string    `db:"team_id"`
	Position       int       `db:"position"`
	Points         int       `db:"points"`
	GoalDifference int       `db:"goal_difference"`
	FormLast5      string    `db:"form_last5"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type StandingRepository struct {
	db *sqlx.DB
}

func NewStandingRepository(db *sqlx.DB) *StandingRepository {
	return &StandingRepository{db: db}
}

func (r *StandingRepository) GetLatestByTeam(ctx context.Context, teamID string) (standing.Standing, bool, error) {
	query, args, err := qb.Select("team_id", "position", "points", "goal_difference", "form_last5", "updated_at").
		From("league_standings").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return standing.Standing{}, false, fmt.Errorf("build standing query: %w", err)
	}

	var row standingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return standing.Standing{}, false, nil
		}
		return standing.Standing{}, false, fmt.Errorf("get latest standing: %w", err)
	}

	return standing.Standing{
		TeamID:         row.TeamID,
		Position:       row.Position,
		Points:         row.Points,
		GoalDifference: row.GoalDifference,
		FormLast5:      row.FormLast5,
		UpdatedAt:      row.UpdatedAt,
	}, true, nil
}
