package prediction

import "context"

// Repository owns the prediction rows written by this engine.
type Repository interface {
	// Upsert overwrites the existing row for (match, model version), if any.
	Upsert(ctx context.Context, p Prediction) error

	GetByMatchAndVersion(ctx context.Context, matchID, modelVersion string) (Prediction, bool, error)
	ListByMatch(ctx context.Context, matchID string) ([]Prediction, error)
}
