package prediction

import (
	"fmt"
	"math"
	"time"
)

// Model version tags. One logical prediction exists per (match, version);
// re-running a model overwrites its own row and never touches the other's.
const (
	VersionDixonColes = "dixon_coles_v1"
	VersionEnsemble   = "ensemble_v1"
)

const probSumTolerance = 1e-6

// Prediction is a probability distribution over the three match outcomes.
type Prediction struct {
	MatchID      string
	ProbHome     float64
	ProbDraw     float64
	ProbAway     float64
	XGHome       float64
	XGAway       float64
	ModelVersion string
	CreatedAt    time.Time
}

func (p Prediction) Validate() error {
	if p.MatchID == "" {
		return fmt.Errorf("prediction match id is required")
	}
	if p.ModelVersion == "" {
		return fmt.Errorf("prediction model version is required")
	}
	for _, prob := range []float64{p.ProbHome, p.ProbDraw, p.ProbAway} {
		if math.IsNaN(prob) || prob < 0 || prob > 1 {
			return fmt.Errorf("prediction probability out of range: %v", prob)
		}
	}
	sum := p.ProbHome + p.ProbDraw + p.ProbAway
	if math.Abs(sum-1.0) > probSumTolerance {
		return fmt.Errorf("prediction probabilities sum to %.8f, want 1", sum)
	}

	return nil
}
