package ensemble

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/WarenOdhiambo1/oddsengine/internal/engine/feature"
)

// FormatVersion is bumped whenever the artifact layout changes in a
// way old readers cannot handle.
const FormatVersion = 1

var (
	// ErrModelUnavailable means no trained artifact is loadable.
	ErrModelUnavailable = errors.New("ensemble: no trained model available")
	// ErrSchemaMismatch means the artifact was trained against a
	// different feature schema than the extractor now produces.
	ErrSchemaMismatch = errors.New("ensemble: feature schema mismatch")
)

const weightSumTolerance = 1e-9

// Member is one trained model plus its holdout evaluation.
type Member struct {
	Name    string  `json:"name"`
	Model   *GBDT   `json:"model"`
	Metrics Metrics `json:"metrics"`
}

// Artifact is the full serializable training output. It carries the
// feature schema it was trained on so prediction can refuse a
// mismatched extractor.
type Artifact struct {
	FormatVersion   int       `json:"format_version"`
	Version         string    `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	Schema          []string  `json:"schema"`
	Members         []Member  `json:"members"`
	Weights         []float64 `json:"weights"`
	TrainingSamples int       `json:"training_samples"`
	HoldoutSamples  int       `json:"holdout_samples"`
	Ensemble        Metrics   `json:"ensemble"`
}

func (a *Artifact) Validate() error {
	if a.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: artifact format %d, reader supports %d", ErrSchemaMismatch, a.FormatVersion, FormatVersion)
	}
	if len(a.Schema) == 0 {
		return fmt.Errorf("%w: artifact has empty schema", ErrSchemaMismatch)
	}
	if len(a.Members) == 0 {
		return errors.New("ensemble: artifact has no members")
	}
	if len(a.Weights) != len(a.Members) {
		return fmt.Errorf("ensemble: %d weights for %d members", len(a.Weights), len(a.Members))
	}
	var sum float64
	for _, w := range a.Weights {
		if w < 0 {
			return errors.New("ensemble: negative blend weight")
		}
		sum += w
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("ensemble: blend weights sum to %v", sum)
	}
	for _, m := range a.Members {
		if m.Model == nil {
			return fmt.Errorf("ensemble: member %s has no model", m.Name)
		}
		if m.Model.NumFeatures != len(a.Schema) {
			return fmt.Errorf("%w: member %s expects %d features, schema has %d",
				ErrSchemaMismatch, m.Name, m.Model.NumFeatures, len(a.Schema))
		}
		if m.Model.NumClasses != NumClasses {
			return fmt.Errorf("ensemble: member %s has %d classes", m.Name, m.Model.NumClasses)
		}
	}
	return nil
}

// Probabilities is a normalized outcome distribution.
type Probabilities struct {
	Home float64
	Draw float64
	Away float64
}

// Predict projects the vector through the artifact's own schema and
// blends the member distributions.
func (a *Artifact) Predict(v feature.Vector) (Probabilities, error) {
	row, err := v.Project(a.Schema)
	if err != nil {
		return Probabilities{}, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	blended := make([]float64, NumClasses)
	for i, m := range a.Members {
		p := m.Model.PredictProba(row)
		for k := range blended {
			blended[k] += a.Weights[i] * p[k]
		}
	}

	// Guard against weight drift before handing the triple out.
	sum := blended[ClassHome] + blended[ClassDraw] + blended[ClassAway]
	if !(sum > 0) || math.IsNaN(sum) {
		return Probabilities{}, errors.New("ensemble: degenerate blended distribution")
	}
	return Probabilities{
		Home: blended[ClassHome] / sum,
		Draw: blended[ClassDraw] / sum,
		Away: blended[ClassAway] / sum,
	}, nil
}
