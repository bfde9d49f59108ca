package dixoncoles

import (
	"github.com/go-playground/validator/v10"
)

// Params holds the model constants. Defaults reproduce a generic
// European league profile and can be overridden from configuration.
type Params struct {
	// LeagueAvgGoals is the baseline goals per team per match.
	LeagueAvgGoals float64 `validate:"gt=0"`
	// HomeAdvantage multiplies the home expected goals.
	HomeAdvantage float64 `validate:"gt=0"`
	// Rho is the low-score correlation coefficient.
	Rho float64 `validate:"gt=-1,lt=1"`
	// MaxGoals bounds the scoreline grid per side.
	MaxGoals int `validate:"gte=5,lte=15"`
	// MinExpectedGoals and MaxExpectedGoals clamp the derived lambdas.
	MinExpectedGoals float64 `validate:"gt=0"`
	MaxExpectedGoals float64 `validate:"gtfield=MinExpectedGoals"`
}

func DefaultParams() Params {
	return Params{
		LeagueAvgGoals:   1.5,
		HomeAdvantage:    1.15,
		Rho:              -0.13,
		MaxGoals:         10,
		MinExpectedGoals: 0.1,
		MaxExpectedGoals: 4.0,
	}
}

var validate = validator.New()

func (p Params) Validate() error {
	return validate.Struct(p)
}
