package dixoncoles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormFactor(t *testing.T) {
	assert.Equal(t, 1.0, FormFactor(0, 0))
	assert.InDelta(t, 1.3, FormFactor(15, 5), 1e-12) // perfect form
	assert.InDelta(t, 0.7, FormFactor(0, 5), 1e-12)  // five losses
	assert.InDelta(t, 1.0, FormFactor(7, 5), 0.05)   // mid-table form is near neutral
}

func TestVenueFactor(t *testing.T) {
	assert.Equal(t, 1.15, VenueFactor(0, 0))
	assert.Equal(t, 1.15, VenueFactor(2, 2))
	assert.InDelta(t, 1.3, VenueFactor(10, 10), 1e-12)
	assert.InDelta(t, 1.15, VenueFactor(10, 5), 1e-12)
	assert.InDelta(t, 1.0, VenueFactor(10, 0), 1e-12)
}

func TestH2HFactors(t *testing.T) {
	h, a := H2HFactors(2, 2)
	assert.Equal(t, 1.0, h)
	assert.Equal(t, 1.0, a)

	h, a = H2HFactors(10, 10)
	assert.InDelta(t, 1.1, h, 1e-12)
	assert.InDelta(t, 0.9, a, 1e-12)

	h, a = H2HFactors(10, 0)
	assert.InDelta(t, 0.9, h, 1e-12)
	assert.InDelta(t, 1.1, a, 1e-12)
}

func TestInjuryFactor(t *testing.T) {
	assert.Equal(t, 1.0, InjuryFactor(0))
	assert.Equal(t, 0.95, InjuryFactor(1))
	assert.Equal(t, 0.95, InjuryFactor(2))
	assert.Equal(t, 0.90, InjuryFactor(3))
	assert.Equal(t, 0.90, InjuryFactor(4))
	assert.Equal(t, 0.85, InjuryFactor(5))
	assert.Equal(t, 0.85, InjuryFactor(11))
}

func TestFactorsApply(t *testing.T) {
	f := Factors{
		HomeForm: 1.2, AwayForm: 0.8,
		Venue: 1.15, Referee: 1.0,
		H2HHome: 1.05, H2HAway: 0.95,
		HomeInjury: 0.95, AwayInjury: 1.0,
	}
	adj := f.Apply(1.1, 0.9, 1.0, 1.2)

	assert.InDelta(t, 1.1*1.2*1.15*1.05*0.95, adj.HomeAttack, 1e-12)
	assert.InDelta(t, 0.9/(1.2*1.15), adj.HomeDefense, 1e-12)
	assert.InDelta(t, 1.0*0.8*0.95, adj.AwayAttack, 1e-12)
	assert.InDelta(t, 1.2/0.8, adj.AwayDefense, 1e-12)
}

func TestNeutralFactorsIdentity(t *testing.T) {
	adj := NeutralFactors().Apply(1.1, 0.9, 1.05, 0.95)
	assert.Equal(t, AdjustedRatings{HomeAttack: 1.1, HomeDefense: 0.9, AwayAttack: 1.05, AwayDefense: 0.95}, adj)
}
