package opportunity

import (
	"fmt"
	"time"
)

const (
	StatusOpen    = "OPEN"
	StatusTaken   = "TAKEN"
	StatusExpired = "EXPIRED"
)

// Opportunity is a wager whose best market price pays more than the modeled
// probability justifies. One row exists per (match, selection); a repeated
// detection pass over unchanged inputs must not create a second row.
type Opportunity struct {
	ID             string
	MatchID        string
	Selection      string
	ModelProb      float64
	BestOdds       float64
	ExpectedValue  float64
	BookmakerCount int
	Status         string
	DetectedAt     time.Time
}

func (o Opportunity) Validate() error {
	if o.MatchID == "" {
		return fmt.Errorf("opportunity match id is required")
	}
	if o.Selection == "" {
		return fmt.Errorf("opportunity selection is required")
	}
	if o.ModelProb <= 0 || o.ModelProb > 1 {
		return fmt.Errorf("opportunity model probability out of range: %v", o.ModelProb)
	}
	if o.BestOdds <= 1.0 {
		return fmt.Errorf("opportunity best odds must be greater than 1.0, got %.4f", o.BestOdds)
	}

	return nil
}

// ExpectedValueOf computes odds*prob - 1. Positive values indicate a price
// above the model's fair odds for the selection.
func ExpectedValueOf(odds, prob float64) float64 {
	return odds*prob - 1
}

// FairOdds is the margin-free price implied by the model probability.
func FairOdds(prob float64) float64 {
	if prob <= 0 {
		return 0
	}
	return 1 / prob
}
