package team

import "fmt"

// Bounds for rating fields. Strength-recalculation jobs own the values;
// the engine only clamps on read so a bad row cannot distort a prediction.
const (
	MinStrength = 0.3
	MaxStrength = 3.0
	MinElo      = 1000.0
	MaxElo      = 2500.0

	DefaultStrength = 1.0
	DefaultElo      = 1500.0
)

// Team is a club with model ratings maintained outside this engine.
type Team struct {
	ID              string
	Name            string
	AttackStrength  float64
	DefenseStrength float64
	EloRating       float64
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}

// Attack returns the attack strength clamped to the realistic band,
// falling back to the neutral default when unset.
func (t Team) Attack() float64 {
	return clampOrDefault(t.AttackStrength, MinStrength, MaxStrength, DefaultStrength)
}

func (t Team) Defense() float64 {
	return clampOrDefault(t.DefenseStrength, MinStrength, MaxStrength, DefaultStrength)
}

func (t Team) Elo() float64 {
	return clampOrDefault(t.EloRating, MinElo, MaxElo, DefaultElo)
}

func clampOrDefault(v, min, max, def float64) float64 {
	if v == 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
