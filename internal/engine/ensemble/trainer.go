package ensemble

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/match"
)

const (
	// NumClasses covers home win, draw and away win.
	NumClasses = 3

	// MinTrainingSamples guards against training on a window too small
	// to produce a meaningful holdout.
	MinTrainingSamples = 30

	holdoutFraction = 0.2
	logLossEpsilon  = 1e-15
)

// Class indices are fixed: 0 home, 1 draw, 2 away.
const (
	ClassHome = 0
	ClassDraw = 1
	ClassAway = 2
)

// LabelFor maps a match outcome code to its class index.
func LabelFor(outcome string) (int, bool) {
	switch outcome {
	case match.OutcomeHome:
		return ClassHome, true
	case match.OutcomeDraw:
		return ClassDraw, true
	case match.OutcomeAway:
		return ClassAway, true
	default:
		return 0, false
	}
}

// Sample is one training row. Samples handed to Train must already be
// in kickoff order so the holdout split stays chronological.
type Sample struct {
	MatchID  string
	Kickoff  time.Time
	Features []float64
	Label    int
}

// MemberSpec names one ensemble member and its hyperparameters.
type MemberSpec struct {
	Name   string `json:"name"`
	Config Config `json:"config"`
}

// DefaultMembers returns the standard three-member lineup. The members
// deliberately differ in depth, shrinkage and sampling so their errors
// decorrelate.
func DefaultMembers() []MemberSpec {
	return []MemberSpec{
		{
			Name: "gbdt_deep",
			Config: Config{
				Rounds: 120, MaxDepth: 5, LearningRate: 0.05,
				MinLeaf: 8, SubsampleRows: 0.8, SubsampleCols: 0.7, Seed: 17,
			},
		},
		{
			Name: "gbdt_mid",
			Config: Config{
				Rounds: 200, MaxDepth: 3, LearningRate: 0.08,
				MinLeaf: 12, SubsampleRows: 0.9, SubsampleCols: 0.8, Seed: 29,
			},
		},
		{
			Name: "gbdt_shallow",
			Config: Config{
				Rounds: 300, MaxDepth: 2, LearningRate: 0.1,
				MinLeaf: 16, SubsampleRows: 1.0, SubsampleCols: 0.9, Seed: 43,
			},
		},
	}
}

// Metrics are holdout evaluation results.
type Metrics struct {
	LogLoss  float64 `json:"log_loss"`
	Accuracy float64 `json:"accuracy"`
}

// Train fits every member on the chronological front of the sample
// window, evaluates on the tail and derives the blend weights from
// inverse holdout log loss.
func Train(samples []Sample, schema []string, members []MemberSpec, version string, now time.Time) (*Artifact, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("ensemble: at least one member is required")
	}
	if len(samples) < MinTrainingSamples {
		return nil, fmt.Errorf("ensemble: need at least %d samples, have %d", MinTrainingSamples, len(samples))
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Kickoff.Before(samples[i-1].Kickoff) {
			return nil, fmt.Errorf("ensemble: samples must be in kickoff order")
		}
	}
	for _, s := range samples {
		if len(s.Features) != len(schema) {
			return nil, fmt.Errorf("ensemble: sample %s has %d features, schema has %d", s.MatchID, len(s.Features), len(schema))
		}
	}

	split := len(samples) - int(math.Round(holdoutFraction*float64(len(samples))))
	train, holdout := samples[:split], samples[split:]
	if len(train) == 0 || len(holdout) == 0 {
		return nil, fmt.Errorf("ensemble: split produced an empty partition")
	}

	X, y := matrix(train)
	weights, err := classBalancedWeights(y)
	if err != nil {
		return nil, err
	}
	hx, hy := matrix(holdout)

	trained := make([]Member, len(members))
	errs := make([]error, len(members))
	var mu sync.Mutex

	var wg conc.WaitGroup
	for i, spec := range members {
		wg.Go(func() {
			model, err := Fit(X, y, weights, NumClasses, spec.Config)
			if err != nil {
				mu.Lock()
				errs[i] = fmt.Errorf("member %s: %w", spec.Name, err)
				mu.Unlock()
				return
			}
			probs := make([][]float64, len(hx))
			for j, row := range hx {
				probs[j] = model.PredictProba(row)
			}
			mu.Lock()
			trained[i] = Member{
				Name:    spec.Name,
				Model:   model,
				Metrics: Metrics{LogLoss: LogLoss(probs, hy), Accuracy: accuracy(probs, hy)},
			}
			mu.Unlock()
		})
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	logLosses := make([]float64, len(trained))
	for i, m := range trained {
		logLosses[i] = m.Metrics.LogLoss
	}
	blend := BlendWeights(logLosses)

	ensembleProbs := make([][]float64, len(hx))
	for j, row := range hx {
		blended := make([]float64, NumClasses)
		for i, m := range trained {
			p := m.Model.PredictProba(row)
			for k := range blended {
				blended[k] += blend[i] * p[k]
			}
		}
		ensembleProbs[j] = blended
	}

	return &Artifact{
		FormatVersion:   FormatVersion,
		Version:         version,
		CreatedAt:       now,
		Schema:          schema,
		Members:         trained,
		Weights:         blend,
		TrainingSamples: len(train),
		HoldoutSamples:  len(holdout),
		Ensemble:        Metrics{LogLoss: LogLoss(ensembleProbs, hy), Accuracy: accuracy(ensembleProbs, hy)},
	}, nil
}

// BlendWeights converts holdout log losses into normalized inverse
// weights, so better members get proportionally more say.
func BlendWeights(logLosses []float64) []float64 {
	inv := make([]float64, len(logLosses))
	var sum float64
	for i, ll := range logLosses {
		if ll < logLossEpsilon {
			ll = logLossEpsilon
		}
		inv[i] = 1 / ll
		sum += inv[i]
	}
	for i := range inv {
		inv[i] /= sum
	}
	return inv
}

// LogLoss is the mean negative log likelihood with probability
// clamping so a confident miss stays finite.
func LogLoss(probs [][]float64, labels []int) float64 {
	if len(probs) == 0 {
		return 0
	}
	var sum float64
	for i, p := range probs {
		q := p[labels[i]]
		if q < logLossEpsilon {
			q = logLossEpsilon
		}
		sum -= math.Log(q)
	}
	return sum / float64(len(probs))
}

func accuracy(probs [][]float64, labels []int) float64 {
	if len(probs) == 0 {
		return 0
	}
	var hits int
	for i, p := range probs {
		best := 0
		for k := 1; k < len(p); k++ {
			if p[k] > p[best] {
				best = k
			}
		}
		if best == labels[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(probs))
}

func matrix(samples []Sample) ([][]float64, []int) {
	X := make([][]float64, len(samples))
	y := make([]int, len(samples))
	for i, s := range samples {
		X[i] = s.Features
		y[i] = s.Label
	}
	return X, y
}

// classBalancedWeights gives each class the same total weight so the
// frequent home-win class cannot dominate the objective.
func classBalancedWeights(y []int) ([]float64, error) {
	counts := make([]int, NumClasses)
	for _, label := range y {
		if label < 0 || label >= NumClasses {
			return nil, fmt.Errorf("ensemble: label %d out of range", label)
		}
		counts[label]++
	}
	for k, c := range counts {
		if c == 0 {
			return nil, fmt.Errorf("ensemble: training window has no samples of class %d", k)
		}
	}
	n := float64(len(y))
	w := make([]float64, len(y))
	for i, label := range y {
		w[i] = n / (float64(NumClasses) * float64(counts[label]))
	}
	return w, nil
}
