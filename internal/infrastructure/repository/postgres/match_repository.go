package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/match"
	qb "github.com/WarenOdhiambo1/oddsengine/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, id string) (match.Match, bool, error) {
	query, args, err := qb.Select(matchColumns...).
		From("matches").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match by id: %w", err)
	}
	return row.toDomain(), true, nil
}

// finishedConditions keep history queries leakage free: only finished
// matches with a kickoff strictly before the bound are visible.
func finishedConditions(before time.Time) []qb.Condition {
	return []qb.Condition{
		qb.Eq("status", match.StatusFinished),
		qb.Lt("kickoff_at", before),
		qb.IsNotNull("home_score"),
		qb.IsNotNull("away_score"),
	}
}

func (r *MatchRepository) ListFinishedByTeam(ctx context.Context, teamID string, before time.Time, limit int) ([]match.Match, error) {
	conditions := append(finishedConditions(before),
		qb.Expr("(home_team_id = ? OR away_team_id = ?)", teamID, teamID),
	)
	builder := qb.Select(matchColumns...).
		From("matches").
		Where(conditions...).
		OrderBy("kickoff_at DESC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build team history query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list finished matches by team: %w", err)
	}
	return matchRowsToDomain(rows), nil
}

func (r *MatchRepository) ListFinishedBetween(ctx context.Context, teamA, teamB string, before time.Time) ([]match.Match, error) {
	conditions := append(finishedConditions(before),
		qb.Expr("((home_team_id = ? AND away_team_id = ?) OR (home_team_id = ? AND away_team_id = ?))",
			teamA, teamB, teamB, teamA),
	)
	query, args, err := qb.Select(matchColumns...).
		From("matches").
		Where(conditions...).
		OrderBy("kickoff_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build head to head query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list finished matches between teams: %w", err)
	}
	return matchRowsToDomain(rows), nil
}

func (r *MatchRepository) ListFinishedByVenue(ctx context.Context, venueID string, before time.Time) ([]match.Match, error) {
	conditions := append(finishedConditions(before), qb.Eq("venue_id", venueID))
	query, args, err := qb.Select(matchColumns...).
		From("matches").
		Where(conditions...).
		OrderBy("kickoff_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build venue history query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list finished matches by venue: %w", err)
	}
	return matchRowsToDomain(rows), nil
}

func (r *MatchRepository) ListFinishedByReferee(ctx context.Context, refereeID string, before time.Time) ([]match.Match, error) {
	conditions := append(finishedConditions(before), qb.Eq("referee_id", refereeID))
	query, args, err := qb.Select(matchColumns...).
		From("matches").
		Where(conditions...).
		OrderBy("kickoff_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build referee history query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list finished matches by referee: %w", err)
	}
	return matchRowsToDomain(rows), nil
}

func (r *MatchRepository) ListFinishedBefore(ctx context.Context, before time.Time) ([]match.Match, error) {
	query, args, err := qb.Select(matchColumns...).
		From("matches").
		Where(finishedConditions(before)...).
		OrderBy("kickoff_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build finished matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list finished matches: %w", err)
	}
	return matchRowsToDomain(rows), nil
}

func (r *MatchRepository) ListScheduledAfter(ctx context.Context, after time.Time) ([]match.Match, error) {
	query, args, err := qb.Select(matchColumns...).
		From("matches").
		Where(
			qb.Eq("status", match.StatusScheduled),
			qb.Gt("kickoff_at", after),
		).
		OrderBy("kickoff_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build scheduled matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list scheduled matches: %w", err)
	}
	return matchRowsToDomain(rows), nil
}
