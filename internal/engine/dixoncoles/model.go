package dixoncoles

import (
	"errors"
	"math"
)

// ErrNumericInstability is returned when the scoreline grid cannot be
// normalized, typically because the expected goals degenerated.
var ErrNumericInstability = errors.New("dixoncoles: numeric instability in probability grid")

const normTolerance = 1e-9

// Model produces match outcome probabilities from a correlated
// double-Poisson scoreline grid with the low-score tau correction.
type Model struct {
	params Params
}

func New(params Params) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Model{params: params}, nil
}

func NewDefault() *Model {
	return &Model{params: DefaultParams()}
}

func (m *Model) Params() Params { return m.params }

// ExpectedGoals derives the per-side scoring rates from adjusted
// ratings. Rates are clamped so a single corrupt rating cannot push
// the grid into a degenerate region.
func (m *Model) ExpectedGoals(r AdjustedRatings) (lambdaHome, lambdaAway float64) {
	lambdaHome = m.params.LeagueAvgGoals * r.HomeAttack * r.AwayDefense * m.params.HomeAdvantage
	lambdaAway = m.params.LeagueAvgGoals * r.AwayAttack * r.HomeDefense
	return m.clamp(lambdaHome), m.clamp(lambdaAway)
}

func (m *Model) clamp(lambda float64) float64 {
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return lambda
	}
	if lambda < m.params.MinExpectedGoals {
		return m.params.MinExpectedGoals
	}
	if lambda > m.params.MaxExpectedGoals {
		return m.params.MaxExpectedGoals
	}
	return lambda
}

// Result is the full outcome distribution for one fixture.
type Result struct {
	ProbHome float64
	ProbDraw float64
	ProbAway float64

	LambdaHome float64
	LambdaAway float64

	// Goal market probabilities over the same grid.
	Over1x5 float64
	Over2x5 float64
	BothScore float64

	// Modal scoreline.
	MostLikelyHome int
	MostLikelyAway int
}

// Outcome evaluates the scoreline grid for the given scoring rates.
func (m *Model) Outcome(lambdaHome, lambdaAway float64) (Result, error) {
	if !validLambda(lambdaHome) || !validLambda(lambdaAway) {
		return Result{}, ErrNumericInstability
	}

	n := m.params.MaxGoals + 1
	grid := make([][]float64, n)
	for h := 0; h < n; h++ {
		grid[h] = make([]float64, n)
		for a := 0; a < n; a++ {
			grid[h][a] = poissonPMF(h, lambdaHome) * poissonPMF(a, lambdaAway)
		}
	}

	// Low scorelines are correlated; the independent product
	// underrates 0-0 and 1-1 and overrates 1-0 and 0-1 for rho < 0.
	rho := m.params.Rho
	grid[0][0] *= 1 - rho
	grid[0][1] *= 1 + rho
	grid[1][0] *= 1 + rho
	grid[1][1] *= 1 - rho

	var total float64
	for h := 0; h < n; h++ {
		for a := 0; a < n; a++ {
			total += grid[h][a]
		}
	}
	if !(total > 0) || math.IsNaN(total) || math.IsInf(total, 0) {
		return Result{}, ErrNumericInstability
	}

	res := Result{LambdaHome: lambdaHome, LambdaAway: lambdaAway}
	bestH, bestA := 0.0, 0.0
	for h := 0; h < n; h++ {
		rowSum := 0.0
		for a := 0; a < n; a++ {
			p := grid[h][a] / total
			rowSum += p
			switch {
			case h > a:
				res.ProbHome += p
			case h == a:
				res.ProbDraw += p
			default:
				res.ProbAway += p
			}
			if h+a >= 2 {
				res.Over1x5 += p
			}
			if h+a >= 3 {
				res.Over2x5 += p
			}
			if h > 0 && a > 0 {
				res.BothScore += p
			}
		}
		if rowSum > bestH {
			bestH = rowSum
			res.MostLikelyHome = h
		}
	}
	for a := 0; a < n; a++ {
		colSum := 0.0
		for h := 0; h < n; h++ {
			colSum += grid[h][a] / total
		}
		if colSum > bestA {
			bestA = colSum
			res.MostLikelyAway = a
		}
	}

	if math.Abs(res.ProbHome+res.ProbDraw+res.ProbAway-1) > normTolerance {
		return Result{}, ErrNumericInstability
	}
	return res, nil
}

// Predict combines rating adjustment, rate derivation and grid
// evaluation in one call.
func (m *Model) Predict(homeAttack, homeDefense, awayAttack, awayDefense float64, f Factors) (Result, error) {
	adj := f.Apply(homeAttack, homeDefense, awayAttack, awayDefense)
	lh, la := m.ExpectedGoals(adj)
	return m.Outcome(lh, la)
}

func validLambda(l float64) bool {
	return l > 0 && !math.IsNaN(l) && !math.IsInf(l, 0)
}

// poissonPMF evaluates in log space to stay stable for large counts.
func poissonPMF(k int, lambda float64) float64 {
	lg, _ := math.Lgamma(float64(k + 1))
	return math.Exp(float64(k)*math.Log(lambda) - lambda - lg)
}
