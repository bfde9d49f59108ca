package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/opportunity"
	qb "github.com/WarenOdhiambo1/oddsengine/internal/platform/querybuilder"
)

type opportunityTableModel struct {
	ID             string    `db:"id"`
	MatchID        string    `db:"match_id"`
	Selection      string    `db:"selection"`
	ModelProb      float64   `db:"model_prob"`
	BestOdds       float64   `db:"best_odds"`
	ExpectedValue  float64   `db:"expected_value"`
	BookmakerCount int       `db:"bookmaker_count"`
	Status         string    `db:"status"`
	DetectedAt     time.Time `db:"detected_at"`
}

var opportunityColumns = []string{
	"id", "match_id", "selection", "model_prob", "best_odds",
	"expected_value", "bookmaker_count", "status", "detected_at",
}

func (m opportunityTableModel) toDomain() opportunity.Opportunity {
	return opportunity.Opportunity{
		ID:             m.ID,
		MatchID:        m.MatchID,
		Selection:      m.Selection,
		ModelProb:      m.ModelProb,
		BestOdds:       m.BestOdds,
		ExpectedValue:  m.ExpectedValue,
		BookmakerCount: m.BookmakerCount,
		Status:         m.Status,
		DetectedAt:     m.DetectedAt,
	}
}

type OpportunityRepository struct {
	db *sqlx.DB
}

func NewOpportunityRepository(db *sqlx.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

// InsertIfAbsent relies on the unique (match_id, selection) index; a
// conflicting row leaves the table untouched and reports false.
func (r *OpportunityRepository) InsertIfAbsent(ctx context.Context, o opportunity.Opportunity) (bool, error) {
	if err := o.Validate(); err != nil {
		return false, err
	}

	row := opportunityTableModel{
		ID:             o.ID,
		MatchID:        o.MatchID,
		Selection:      o.Selection,
		ModelProb:      o.ModelProb,
		BestOdds:       o.BestOdds,
		ExpectedValue:  o.ExpectedValue,
		BookmakerCount: o.BookmakerCount,
		Status:         o.Status,
		DetectedAt:     o.DetectedAt,
	}
	query, args, err := qb.InsertModel("opportunities", row, "ON CONFLICT (match_id, selection) DO NOTHING")
	if err != nil {
		return false, fmt.Errorf("build insert opportunity query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert opportunity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert opportunity rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *OpportunityRepository) ListByMatch(ctx context.Context, matchID string) ([]opportunity.Opportunity, error) {
	query, args, err := qb.Select(opportunityColumns...).
		From("opportunities").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("detected_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list opportunities query: %w", err)
	}

	var rows []opportunityTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list opportunities by match: %w", err)
	}
	return opportunityRowsToDomain(rows), nil
}

func (r *OpportunityRepository) ListOpen(ctx context.Context) ([]opportunity.Opportunity, error) {
	query, args, err := qb.Select(opportunityColumns...).
		From("opportunities").
		Where(qb.Eq("status", opportunity.StatusOpen)).
		OrderBy("detected_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list open opportunities query: %w", err)
	}

	var rows []opportunityTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list open opportunities: %w", err)
	}
	return opportunityRowsToDomain(rows), nil
}

func opportunityRowsToDomain(rows []opportunityTableModel) []opportunity.Opportunity {
	out := make([]opportunity.Opportunity, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
