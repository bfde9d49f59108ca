package memory

import (
	"context"
	"sync"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/prediction"
)

type PredictionRepository struct {
	mu   sync.RWMutex
	rows map[string]prediction.Prediction // keyed by matchID + "|" + version
}

func NewPredictionRepository() *PredictionRepository {
	return &PredictionRepository{rows: make(map[string]prediction.Prediction)}
}

func (r *PredictionRepository) Upsert(_ context.Context, p prediction.Prediction) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.MatchID+"|"+p.ModelVersion] = p
	return nil
}

func (r *PredictionRepository) GetByMatchAndVersion(_ context.Context, matchID, version string) (prediction.Prediction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[matchID+"|"+version]
	return p, ok, nil
}

func (r *PredictionRepository) ListByMatch(_ context.Context, matchID string) ([]prediction.Prediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []prediction.Prediction
	for _, p := range r.rows {
		if p.MatchID == matchID {
			out = append(out, p)
		}
	}
	return out, nil
}
