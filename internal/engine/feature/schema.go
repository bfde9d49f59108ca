package feature

import (
	"fmt"
	"strconv"
)

// Vector is one extracted feature row keyed by feature name. Every
// extraction emits the exact key set returned by Schema, with neutral
// defaults standing in for missing history.
type Vector map[string]float64

// Project orders the vector by the given schema. A key the vector does
// not carry means the producing and consuming schema versions differ.
func (v Vector) Project(schema []string) ([]float64, error) {
	out := make([]float64, len(schema))
	for i, name := range schema {
		val, ok := v[name]
		if !ok {
			return nil, fmt.Errorf("feature %q missing from vector", name)
		}
		out[i] = val
	}
	return out, nil
}

var formWindows = []int{3, 5, 10}

var schema = buildSchema()

// Schema returns the full ordered feature name list. The order is part
// of the trained-model contract and must stay stable across releases.
func Schema() []string {
	out := make([]string, len(schema))
	copy(out, schema)
	return out
}

func buildSchema() []string {
	var s []string

	for _, side := range []string{"home", "away"} {
		s = append(s,
			side+"_attack",
			side+"_defense",
			side+"_elo",
			side+"_offensive_power",
			side+"_defensive_power",
		)
	}

	for _, side := range []string{"home", "away"} {
		for _, w := range formWindows {
			ws := strconv.Itoa(w)
			s = append(s,
				side+"_form"+ws+"_wr",
				side+"_form"+ws+"_gf",
				side+"_form"+ws+"_ga",
				side+"_form"+ws+"_gd",
			)
		}
	}

	s = append(s,
		"home_home_ppg", "home_home_gf", "home_home_ga",
		"away_away_ppg", "away_away_gf", "away_away_ga",
	)

	s = append(s, "h2h_matches", "h2h_home_wr", "h2h_avg_goals")
	s = append(s, "venue_home_wr", "venue_avg_goals")
	s = append(s, "referee_avg_goals")
	s = append(s, "home_injuries", "away_injuries")

	for _, side := range []string{"home", "away"} {
		s = append(s,
			side+"_position",
			side+"_points",
			side+"_season_gd",
			side+"_form_wins",
			side+"_form_draws",
			side+"_form_losses",
		)
	}

	s = append(s, "home_rest_days", "away_rest_days")
	s = append(s, "month", "day_of_week", "is_weekend")

	for _, side := range []string{"home", "away"} {
		s = append(s,
			side+"_momentum",
			side+"_goal_momentum",
			side+"_recent_win",
			side+"_win_streak",
		)
	}

	for _, side := range []string{"home", "away"} {
		s = append(s,
			side+"_gf_trend",
			side+"_ga_trend",
			side+"_max_gf",
			side+"_gf_consistency",
		)
	}

	s = append(s,
		"strength_diff", "reverse_strength_diff", "elo_diff",
		"form_diff", "gf_diff", "momentum_diff", "goal_momentum_diff",
		"home_attack_x_away_defense", "away_attack_x_home_defense",
		"form_x_strength", "elo_x_form", "momentum_x_strength",
		"xg_home", "xg_away", "xg_diff",
		"position_diff", "points_diff", "season_gd_diff", "rest_diff",
		"home_power_index", "away_power_index", "power_index_diff",
	)

	return s
}
