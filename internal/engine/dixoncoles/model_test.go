package dixoncoles

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome_KnownValues(t *testing.T) {
	m := NewDefault()

	res, err := m.Outcome(1.725, 1.5)
	require.NoError(t, err)

	assert.InDelta(t, 0.422231251347, res.ProbHome, 1e-9)
	assert.InDelta(t, 0.249809803411, res.ProbDraw, 1e-9)
	assert.InDelta(t, 0.327958945242, res.ProbAway, 1e-9)
	assert.InDelta(t, 0.843823365089, res.Over1x5, 1e-9)
	assert.InDelta(t, 0.624119059098, res.Over2x5, 1e-9)
	assert.Equal(t, 1, res.MostLikelyHome)
	assert.Equal(t, 1, res.MostLikelyAway)
}

func TestOutcome_Normalization(t *testing.T) {
	m := NewDefault()

	for _, lh := range []float64{0.1, 0.8, 1.5, 2.7, 4.0} {
		for _, la := range []float64{0.1, 1.0, 2.2, 4.0} {
			res, err := m.Outcome(lh, la)
			require.NoError(t, err)
			sum := res.ProbHome + res.ProbDraw + res.ProbAway
			assert.InDelta(t, 1.0, sum, 1e-9, "lambdas %v/%v", lh, la)
		}
	}
}

func TestOutcome_TauShiftsLowScores(t *testing.T) {
	base := Params{
		LeagueAvgGoals: 1.5, HomeAdvantage: 1.15, Rho: 0,
		MaxGoals: 10, MinExpectedGoals: 0.1, MaxExpectedGoals: 4.0,
	}
	indep, err := New(base)
	require.NoError(t, err)

	base.Rho = -0.13
	corr, err := New(base)
	require.NoError(t, err)

	ri, err := indep.Outcome(1.2, 1.1)
	require.NoError(t, err)
	rc, err := corr.Outcome(1.2, 1.1)
	require.NoError(t, err)

	// Negative rho moves mass away from 0-0 and 1-1 toward 0-1 and 1-0.
	assert.Less(t, rc.ProbDraw, ri.ProbDraw)
}

func TestOutcome_NumericInstability(t *testing.T) {
	m := NewDefault()

	for _, l := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := m.Outcome(l, 1.5)
		assert.ErrorIs(t, err, ErrNumericInstability, "lambda %v", l)
		_, err = m.Outcome(1.5, l)
		assert.ErrorIs(t, err, ErrNumericInstability, "lambda %v", l)
	}
}

func TestExpectedGoals_Clamped(t *testing.T) {
	m := NewDefault()

	lh, la := m.ExpectedGoals(AdjustedRatings{
		HomeAttack: 10, HomeDefense: 0.01, AwayAttack: 0.01, AwayDefense: 10,
	})
	assert.Equal(t, 4.0, lh)
	assert.Equal(t, 0.1, la)
}

func TestExpectedGoals_NeutralRatings(t *testing.T) {
	m := NewDefault()

	lh, la := m.ExpectedGoals(AdjustedRatings{
		HomeAttack: 1, HomeDefense: 1, AwayAttack: 1, AwayDefense: 1,
	})
	assert.InDelta(t, 1.725, lh, 1e-12)
	assert.InDelta(t, 1.5, la, 1e-12)
}

func TestPredict_EndToEnd(t *testing.T) {
	m := NewDefault()

	// Strong home attack against a weak defense, everything else neutral.
	res, err := m.Predict(1.2, 1.0, 1.0, 0.9, NeutralFactors())
	require.NoError(t, err)

	assert.InDelta(t, 1.863, res.LambdaHome, 1e-9)
	assert.InDelta(t, 1.5, res.LambdaAway, 1e-9)
	assert.InDelta(t, 0.454126186737, res.ProbHome, 1e-9)
	assert.Greater(t, res.ProbHome, res.ProbAway)
}

func TestNew_RejectsBadParams(t *testing.T) {
	p := DefaultParams()
	p.Rho = 1.5
	_, err := New(p)
	assert.Error(t, err)

	p = DefaultParams()
	p.MaxGoals = 2
	_, err = New(p)
	assert.Error(t, err)
}
