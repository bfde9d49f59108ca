package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/prediction"
	qb "github.com/WarenOdhiambo1/oddsengine/internal/platform/querybuilder"
)

type predictionTableModel struct {
	MatchID      string    `db:"match_id"`
	ProbHome     float64   `db:"prob_home"`
	ProbDraw     float64   `db:"prob_draw"`
	ProbAway     float64   `db:"prob_away"`
	XGHome       float64   `db:"xg_home"`
	XGAway       float64   `db:"xg_away"`
	ModelVersion string    `db:"model_version"`
	CreatedAt    time.Time `db:"created_at"`
}

var predictionColumns = []string{
	"match_id", "prob_home", "prob_draw", "prob_away",
	"xg_home", "xg_away", "model_version", "created_at",
}

func (m predictionTableModel) toDomain() prediction.Prediction {
	return prediction.Prediction{
		MatchID:      m.MatchID,
		ProbHome:     m.ProbHome,
		ProbDraw:     m.ProbDraw,
		ProbAway:     m.ProbAway,
		XGHome:       m.XGHome,
		XGAway:       m.XGAway,
		ModelVersion: m.ModelVersion,
		CreatedAt:    m.CreatedAt,
	}
}

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

const predictionUpsertSuffix = `ON CONFLICT (match_id, model_version) DO UPDATE SET
	prob_home = EXCLUDED.prob_home,
	prob_draw = EXCLUDED.prob_draw,
	prob_away = EXCLUDED.prob_away,
	xg_home = EXCLUDED.xg_home,
	xg_away = EXCLUDED.xg_away,
	created_at = EXCLUDED.created_at`

func (r *PredictionRepository) Upsert(ctx context.Context, p prediction.Prediction) error {
	if err := p.Validate(); err != nil {
		return err
	}

	row := predictionTableModel{
		MatchID:      p.MatchID,
		ProbHome:     p.ProbHome,
		ProbDraw:     p.ProbDraw,
		ProbAway:     p.ProbAway,
		XGHome:       p.XGHome,
		XGAway:       p.XGAway,
		ModelVersion: p.ModelVersion,
		CreatedAt:    p.CreatedAt,
	}
	query, args, err := qb.InsertModel("predictions", row, predictionUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert prediction query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert prediction: %w", err)
	}
	return nil
}

func (r *PredictionRepository) GetByMatchAndVersion(ctx context.Context, matchID, modelVersion string) (prediction.Prediction, bool, error) {
	query, args, err := qb.Select(predictionColumns...).
		From("predictions").
		Where(
			qb.Eq("match_id", matchID),
			qb.Eq("model_version", modelVersion),
		).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("build get prediction query: %w", err)
	}

	var row predictionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, fmt.Errorf("get prediction: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *PredictionRepository) ListByMatch(ctx context.Context, matchID string) ([]prediction.Prediction, error) {
	query, args, err := qb.Select(predictionColumns...).
		From("predictions").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("created_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list predictions query: %w", err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
