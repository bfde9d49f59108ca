package ensemble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WarenOdhiambo1/oddsengine/internal/engine/feature"
)

// syntheticSamples builds three well-separated clusters, one per
// class, in kickoff order.
func syntheticSamples(n int) []Sample {
	base := time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC)
	out := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		label := i % NumClasses
		jitter := 0.02 * float64(i%5)
		var f0, f1 float64
		switch label {
		case ClassHome:
			f0, f1 = 1.0+jitter, 0.0+jitter
		case ClassDraw:
			f0, f1 = 0.0+jitter, 0.0-jitter
		case ClassAway:
			f0, f1 = -1.0-jitter, 0.5+jitter
		}
		out = append(out, Sample{
			MatchID:  "m" + string(rune('a'+i%26)),
			Kickoff:  base.Add(time.Duration(i) * time.Hour),
			Features: []float64{f0, f1, float64(i % 2), 0.5},
			Label:    label,
		})
	}
	return out
}

func testMembers() []MemberSpec {
	return []MemberSpec{
		{Name: "a", Config: Config{Rounds: 25, MaxDepth: 3, LearningRate: 0.2, MinLeaf: 2, SubsampleRows: 1, SubsampleCols: 1, Seed: 1}},
		{Name: "b", Config: Config{Rounds: 25, MaxDepth: 2, LearningRate: 0.3, MinLeaf: 2, SubsampleRows: 0.9, SubsampleCols: 1, Seed: 2}},
	}
}

func TestFit_LearnsSeparableClasses(t *testing.T) {
	samples := syntheticSamples(90)
	X := make([][]float64, len(samples))
	y := make([]int, len(samples))
	w := make([]float64, len(samples))
	for i, s := range samples {
		X[i], y[i], w[i] = s.Features, s.Label, 1.0
	}

	model, err := Fit(X, y, w, NumClasses, testMembers()[0].Config)
	require.NoError(t, err)

	var hits int
	for i, row := range X {
		p := model.PredictProba(row)
		assert.InDelta(t, 1.0, p[0]+p[1]+p[2], 1e-9)
		best := 0
		for k := 1; k < len(p); k++ {
			if p[k] > p[best] {
				best = k
			}
		}
		if best == y[i] {
			hits++
		}
	}
	assert.GreaterOrEqual(t, float64(hits)/float64(len(X)), 0.95)
}

func TestFit_Deterministic(t *testing.T) {
	samples := syntheticSamples(60)
	X := make([][]float64, len(samples))
	y := make([]int, len(samples))
	w := make([]float64, len(samples))
	for i, s := range samples {
		X[i], y[i], w[i] = s.Features, s.Label, 1.0
	}
	cfg := testMembers()[1].Config

	m1, err := Fit(X, y, w, NumClasses, cfg)
	require.NoError(t, err)
	m2, err := Fit(X, y, w, NumClasses, cfg)
	require.NoError(t, err)

	for _, row := range X[:10] {
		assert.Equal(t, m1.PredictProba(row), m2.PredictProba(row))
	}
}

func TestBlendWeights(t *testing.T) {
	w := BlendWeights([]float64{0.9, 1.0, 1.1})

	assert.InDelta(t, 1.0, w[0]+w[1]+w[2], 1e-9)
	// A lower holdout log loss earns a larger weight.
	assert.Greater(t, w[0], w[1])
	assert.Greater(t, w[1], w[2])
	assert.InDelta(t, (1/0.9)/(1/0.9+1.0+1/1.1), w[0], 1e-12)
}

func TestLogLoss_ClampsConfidentMisses(t *testing.T) {
	ll := LogLoss([][]float64{{1, 0, 0}}, []int{2})
	assert.False(t, ll != ll, "log loss must stay finite")
	assert.Greater(t, ll, 30.0)

	assert.InDelta(t, 0.0, LogLoss([][]float64{{1, 0, 0}}, []int{0}), 1e-9)
}

func TestTrain_ProducesValidArtifact(t *testing.T) {
	now := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	schema := []string{"f0", "f1", "f2", "f3"}

	art, err := Train(syntheticSamples(100), schema, testMembers(), "ensemble_v1_test", now)
	require.NoError(t, err)
	require.NoError(t, art.Validate())

	assert.Equal(t, 80, art.TrainingSamples)
	assert.Equal(t, 20, art.HoldoutSamples)
	assert.Len(t, art.Weights, 2)
	assert.InDelta(t, 1.0, art.Weights[0]+art.Weights[1], 1e-9)
	assert.GreaterOrEqual(t, art.Ensemble.Accuracy, 0.9)

	// A prediction on an artifact-schema vector is a valid triple.
	v := feature.Vector{"f0": 1.0, "f1": 0.0, "f2": 1, "f3": 0.5}
	p, err := art.Predict(v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p.Home+p.Draw+p.Away, 1e-9)
	assert.Greater(t, p.Home, p.Away)
}

func TestTrain_Rejections(t *testing.T) {
	schema := []string{"f0", "f1", "f2", "f3"}

	_, err := Train(syntheticSamples(10), schema, testMembers(), "v", time.Now())
	assert.Error(t, err, "too few samples")

	shuffled := syntheticSamples(60)
	shuffled[0], shuffled[1] = shuffled[1], shuffled[0]
	_, err = Train(shuffled, schema, testMembers(), "v", time.Now())
	assert.Error(t, err, "out of kickoff order")

	oneClass := syntheticSamples(60)
	for i := range oneClass {
		oneClass[i].Label = ClassHome
	}
	_, err = Train(oneClass, schema, testMembers(), "v", time.Now())
	assert.Error(t, err, "single-class window")
}

func TestArtifactPredict_SchemaMismatch(t *testing.T) {
	art, err := Train(syntheticSamples(60), []string{"f0", "f1", "f2", "f3"}, testMembers(), "v", time.Now())
	require.NoError(t, err)

	_, err = art.Predict(feature.Vector{"f0": 1, "f1": 0, "f2": 1})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}
