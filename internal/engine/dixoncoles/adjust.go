package dixoncoles

// Contextual adjustment factors. Each factor multiplies the base team
// ratings before expected goals are derived. All factors default to 1.0
// when the underlying sample is too small to be informative.

const (
	formFloor = 0.7
	formCeil  = 1.3
	formSpan  = 0.6

	venueMinSample   = 3
	venueSwing       = 0.3
	venueDefault     = 1.15
	h2hMinSample     = 3
	h2hHomeBase      = 0.9
	h2hAwayBase      = 1.1
	h2hSwing         = 0.2
	refereeNeutral   = 1.0
	pointsPerWin     = 3.0
)

// FormFactor maps points taken over the last played matches onto a
// multiplier in [0.7, 1.3]. A team with no recent results is neutral.
func FormFactor(points, played int) float64 {
	if played <= 0 {
		return 1.0
	}
	ratio := float64(points) / (float64(played) * pointsPerWin)
	f := formFloor + ratio*formSpan
	if f < formFloor {
		f = formFloor
	}
	if f > formCeil {
		f = formCeil
	}
	return f
}

// VenueFactor rewards a strong home record at the specific ground. With
// fewer than three matches on record the generic boost applies.
func VenueFactor(played, homeWins int) float64 {
	if played < venueMinSample {
		return venueDefault
	}
	wr := float64(homeWins) / float64(played)
	return 1.0 + wr*venueSwing
}

// RefereeFactor is kept as an explicit hook. Card and penalty rates per
// official are not yet folded into expected goals, so it is neutral.
func RefereeFactor(sample int) float64 {
	_ = sample
	return refereeNeutral
}

// H2HFactors nudges both sides based on the historical record between
// the two teams. Fewer than three meetings is treated as no signal.
func H2HFactors(total, homeWins int) (home, away float64) {
	if total < h2hMinSample {
		return 1.0, 1.0
	}
	wr := float64(homeWins) / float64(total)
	return h2hHomeBase + wr*h2hSwing, h2hAwayBase - wr*h2hSwing
}

// InjuryFactor penalizes attack output by squad availability.
func InjuryFactor(injured int) float64 {
	switch {
	case injured <= 0:
		return 1.0
	case injured <= 2:
		return 0.95
	case injured <= 4:
		return 0.90
	default:
		return 0.85
	}
}

// Factors bundles the multipliers for one fixture.
type Factors struct {
	HomeForm   float64
	AwayForm   float64
	Venue      float64
	Referee    float64
	H2HHome    float64
	H2HAway    float64
	HomeInjury float64
	AwayInjury float64
}

// NeutralFactors returns the identity adjustment.
func NeutralFactors() Factors {
	return Factors{
		HomeForm:   1.0,
		AwayForm:   1.0,
		Venue:      1.0,
		Referee:    1.0,
		H2HHome:    1.0,
		H2HAway:    1.0,
		HomeInjury: 1.0,
		AwayInjury: 1.0,
	}
}

// AdjustedRatings are the effective attack and defense strengths after
// contextual adjustment.
type AdjustedRatings struct {
	HomeAttack  float64
	HomeDefense float64
	AwayAttack  float64
	AwayDefense float64
}

// Apply folds the factors into the base ratings. Attack multipliers
// raise the adjusted attack; form and venue confidence also make the
// defense concede less, hence the division.
func (f Factors) Apply(homeAttack, homeDefense, awayAttack, awayDefense float64) AdjustedRatings {
	return AdjustedRatings{
		HomeAttack:  homeAttack * f.HomeForm * f.Venue * f.Referee * f.H2HHome * f.HomeInjury,
		HomeDefense: homeDefense / (f.HomeForm * f.Venue),
		AwayAttack:  awayAttack * f.AwayForm * f.Referee * f.H2HAway * f.AwayInjury,
		AwayDefense: awayDefense / f.AwayForm,
	}
}
