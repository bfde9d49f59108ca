package feature_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/match"
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/standing"
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/team"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/dixoncoles"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/feature"
	"github.com/WarenOdhiambo1/oddsengine/internal/infrastructure/repository/memory"
)

var kickoff = time.Date(2025, 10, 18, 15, 0, 0, 0, time.UTC) // a Saturday

func finished(id, homeID, awayID string, at time.Time, hs, as int) match.Match {
	return match.Match{
		ID:         id,
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		KickoffAt:  at,
		Status:     match.StatusFinished,
		HomeScore:  &hs,
		AwayScore:  &as,
	}
}

func newExtractor(matches *memory.MatchRepository, standings *memory.StandingRepository) *feature.Extractor {
	teams := memory.NewTeamRepository(
		team.Team{ID: "arsenal", Name: "Arsenal", AttackStrength: 1.2, DefenseStrength: 0.9, EloRating: 1650},
		team.Team{ID: "fulham", Name: "Fulham", AttackStrength: 0.95, DefenseStrength: 1.1, EloRating: 1480},
	)
	if standings == nil {
		standings = memory.NewStandingRepository()
	}
	return feature.NewExtractor(teams, matches, standings, memory.NewPlayerRepository(), dixoncoles.DefaultParams())
}

func TestExtract_NoHistoryDefaults(t *testing.T) {
	e := newExtractor(memory.NewMatchRepository(), nil)

	v, err := e.Extract(context.Background(), feature.Input{
		HomeTeamID: "arsenal", AwayTeamID: "fulham", AsOf: kickoff,
	})
	require.NoError(t, err)

	// Every schema key must be present even with zero history.
	for _, name := range feature.Schema() {
		_, ok := v[name]
		assert.True(t, ok, "missing feature %s", name)
	}
	assert.Len(t, v, len(feature.Schema()))

	assert.Equal(t, 0.5, v["venue_home_wr"])
	assert.Equal(t, 1.5, v["venue_avg_goals"])
	assert.Equal(t, 2.5, v["referee_avg_goals"])
	assert.Equal(t, 2.5, v["h2h_avg_goals"])
	assert.Equal(t, 7.0, v["home_rest_days"])
	assert.Equal(t, 7.0, v["away_rest_days"])
	assert.Equal(t, float64(standing.DefaultPosition), v["home_position"])
	assert.Equal(t, 0.0, v["home_form5_wr"])
	assert.Equal(t, 10.0, v["month"])
	assert.Equal(t, 5.0, v["day_of_week"])
	assert.Equal(t, 1.0, v["is_weekend"])
	// Ratings come through clamped from the team rows.
	assert.Equal(t, 1.2, v["home_attack"])
	assert.Equal(t, 1650.0, v["home_elo"])
	assert.InDelta(t, 170.0, v["elo_diff"], 1e-12)
}

func TestExtract_IgnoresFutureAndUnfinishedMatches(t *testing.T) {
	matches := memory.NewMatchRepository(
		finished("m1", "arsenal", "fulham", kickoff.AddDate(0, -1, 0), 2, 0),
	)
	e := newExtractor(matches, nil)
	in := feature.Input{HomeTeamID: "arsenal", AwayTeamID: "fulham", AsOf: kickoff}

	before, err := e.Extract(context.Background(), in)
	require.NoError(t, err)

	// A result at or after the as-of instant must not leak in.
	matches.Put(finished("m2", "arsenal", "fulham", kickoff, 5, 0))
	matches.Put(finished("m3", "fulham", "arsenal", kickoff.AddDate(0, 0, 7), 4, 0))
	matches.Put(match.Match{
		ID: "m4", HomeTeamID: "arsenal", AwayTeamID: "fulham",
		KickoffAt: kickoff.AddDate(0, 0, -2), Status: match.StatusLive,
	})

	after, err := e.Extract(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestExtract_FormAndMomentum(t *testing.T) {
	// Arsenal, most recent first: W 3-1, W 2-0, L 0-1, D 1-1, W 4-0.
	matches := memory.NewMatchRepository(
		finished("m1", "arsenal", "leeds", kickoff.AddDate(0, 0, -3), 3, 1),
		finished("m2", "wolves", "arsenal", kickoff.AddDate(0, 0, -10), 0, 2),
		finished("m3", "arsenal", "spurs", kickoff.AddDate(0, 0, -17), 0, 1),
		finished("m4", "everton", "arsenal", kickoff.AddDate(0, 0, -24), 1, 1),
		finished("m5", "arsenal", "brighton", kickoff.AddDate(0, 0, -31), 4, 0),
	)
	e := newExtractor(matches, nil)

	v, err := e.Extract(context.Background(), feature.Input{
		HomeTeamID: "arsenal", AwayTeamID: "fulham", AsOf: kickoff,
	})
	require.NoError(t, err)

	assert.InDelta(t, 3.0/5, v["home_form5_wr"], 1e-12)
	assert.InDelta(t, 10.0/5, v["home_form5_gf"], 1e-12)
	assert.InDelta(t, 3.0/5, v["home_form5_ga"], 1e-12)
	assert.InDelta(t, 2.0/3, v["home_form3_wr"], 1e-12)

	// Weighted points: 3*3 + 2*3 + 1*0 = 15 of 18. Weighted goals:
	// 3*3 + 2*2 + 1*0 = 13 of 9 normalizer.
	assert.InDelta(t, 15.0/18, v["home_momentum"], 1e-12)
	assert.InDelta(t, 13.0/9, v["home_goal_momentum"], 1e-12)
	assert.Equal(t, 1.0, v["home_recent_win"])
	assert.Equal(t, 2.0, v["home_win_streak"])
	assert.Equal(t, 3.0, v["home_rest_days"])
	assert.Equal(t, 4.0, v["home_max_gf"])

	// Home-venue split: m1, m3, m5 with 3+0+3 points and 7 goals.
	assert.InDelta(t, 6.0/3, v["home_home_ppg"], 1e-12)
	assert.InDelta(t, 7.0/3, v["home_home_gf"], 1e-12)
}

func TestExtract_HeadToHeadAndVenue(t *testing.T) {
	matches := memory.NewMatchRepository(
		finished("h1", "arsenal", "fulham", kickoff.AddDate(-1, 0, 0), 2, 1),
		finished("h2", "fulham", "arsenal", kickoff.AddDate(-1, -6, 0), 0, 3),
		finished("h3", "arsenal", "fulham", kickoff.AddDate(-2, 0, 0), 1, 1),
	)
	for i, at := range []time.Time{
		kickoff.AddDate(0, 0, -14), kickoff.AddDate(0, 0, -28), kickoff.AddDate(0, 0, -42),
	} {
		m := finished("v"+string(rune('1'+i)), "arsenal", "leeds", at, 2, 0)
		m.VenueID = "emirates"
		matches.Put(m)
	}
	e := newExtractor(matches, nil)

	v, err := e.Extract(context.Background(), feature.Input{
		HomeTeamID: "arsenal", AwayTeamID: "fulham", AsOf: kickoff, VenueID: "emirates",
	})
	require.NoError(t, err)

	assert.Equal(t, 3.0, v["h2h_matches"])
	assert.InDelta(t, 2.0/3, v["h2h_home_wr"], 1e-12)
	assert.InDelta(t, 8.0/3, v["h2h_avg_goals"], 1e-12)
	assert.Equal(t, 1.0, v["venue_home_wr"])
	assert.InDelta(t, 1.0, v["venue_avg_goals"], 1e-12)
}

func TestExtract_MissingTeam(t *testing.T) {
	e := newExtractor(memory.NewMatchRepository(), nil)

	_, err := e.Extract(context.Background(), feature.Input{
		HomeTeamID: "arsenal", AwayTeamID: "ghost", AsOf: kickoff,
	})
	assert.ErrorIs(t, err, feature.ErrDataIncomplete)
}

func TestSchema_StableAndProjectable(t *testing.T) {
	s := feature.Schema()
	seen := make(map[string]struct{}, len(s))
	for _, name := range s {
		_, dup := seen[name]
		require.False(t, dup, "duplicate feature %s", name)
		seen[name] = struct{}{}
	}

	v := feature.Vector{}
	for i, name := range s {
		v[name] = float64(i)
	}
	row, err := v.Project(s)
	require.NoError(t, err)
	assert.Equal(t, float64(len(s)-1), row[len(s)-1])

	delete(v, s[0])
	_, err = v.Project(s)
	assert.Error(t, err)
}
