package feature

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/match"
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/player"
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/standing"
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/team"
	"github.com/WarenOdhiambo1/oddsengine/internal/engine/dixoncoles"
)

// ErrDataIncomplete is returned when a required entity (a team row) is
// absent. Missing history never triggers it; history falls back to
// neutral defaults instead.
var ErrDataIncomplete = errors.New("feature: required data incomplete")

// Neutral defaults for sparse history.
const (
	defaultH2HGoals     = 2.5
	defaultVenueWinRate = 0.5
	defaultVenueGoals   = 1.5
	defaultRefereeGoals = 2.5
	defaultRestDays     = 7
	maxRestDays         = 14
	venueMinSample      = 3

	historyWindow  = 10
	momentumWindow = 5
	trendRecent    = 3
)

// Extractor assembles the model feature vector for one fixture from
// finished-match history strictly before the as-of instant.
type Extractor struct {
	teams     team.Repository
	matches   match.Repository
	standings standing.Repository
	players   player.Repository
	params    dixoncoles.Params
}

func NewExtractor(
	teams team.Repository,
	matches match.Repository,
	standings standing.Repository,
	players player.Repository,
	params dixoncoles.Params,
) *Extractor {
	return &Extractor{
		teams:     teams,
		matches:   matches,
		standings: standings,
		players:   players,
		params:    params,
	}
}

// Input identifies the fixture to featurize. AsOf bounds the visible
// history; for a real fixture it is the kickoff instant.
type Input struct {
	HomeTeamID string
	AwayTeamID string
	AsOf       time.Time
	VenueID    string
	RefereeID  string
}

func InputFromMatch(m match.Match) Input {
	return Input{
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		AsOf:       m.KickoffAt,
		VenueID:    m.VenueID,
		RefereeID:  m.RefereeID,
	}
}

// Extract produces the full feature vector. The result always carries
// the exact key set of Schema.
func (e *Extractor) Extract(ctx context.Context, in Input) (Vector, error) {
	if in.HomeTeamID == "" || in.AwayTeamID == "" || in.AsOf.IsZero() {
		return nil, fmt.Errorf("%w: team ids and as-of instant are required", ErrDataIncomplete)
	}

	home, ok, err := e.teams.GetByID(ctx, in.HomeTeamID)
	if err != nil {
		return nil, fmt.Errorf("load home team: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: home team %s", ErrDataIncomplete, in.HomeTeamID)
	}
	away, ok, err := e.teams.GetByID(ctx, in.AwayTeamID)
	if err != nil {
		return nil, fmt.Errorf("load away team: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: away team %s", ErrDataIncomplete, in.AwayTeamID)
	}

	v := make(Vector, len(schema))

	e.strengthFeatures(v, "home", home)
	e.strengthFeatures(v, "away", away)

	homeHist, err := e.matches.ListFinishedByTeam(ctx, in.HomeTeamID, in.AsOf, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("home history: %w", err)
	}
	awayHist, err := e.matches.ListFinishedByTeam(ctx, in.AwayTeamID, in.AsOf, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("away history: %w", err)
	}

	formFeatures(v, "home", in.HomeTeamID, homeHist)
	formFeatures(v, "away", in.AwayTeamID, awayHist)
	venueSplitFeatures(v, in.HomeTeamID, homeHist, in.AwayTeamID, awayHist)

	if err := e.h2hFeatures(ctx, v, in); err != nil {
		return nil, err
	}
	if err := e.venueFeatures(ctx, v, in); err != nil {
		return nil, err
	}
	if err := e.refereeFeatures(ctx, v, in); err != nil {
		return nil, err
	}
	if err := e.injuryFeatures(ctx, v, in); err != nil {
		return nil, err
	}
	if err := e.standingFeatures(ctx, v, in); err != nil {
		return nil, err
	}

	restFeatures(v, in.AsOf, homeHist, awayHist)
	temporalFeatures(v, in.AsOf)
	momentumFeatures(v, "home", in.HomeTeamID, homeHist)
	momentumFeatures(v, "away", in.AwayTeamID, awayHist)
	trendFeatures(v, "home", in.HomeTeamID, homeHist)
	trendFeatures(v, "away", in.AwayTeamID, awayHist)

	e.derivedFeatures(v)

	return v, nil
}

func (e *Extractor) strengthFeatures(v Vector, side string, t team.Team) {
	attack, defense, elo := t.Attack(), t.Defense(), t.Elo()
	eloNorm := elo / team.DefaultElo
	v[side+"_attack"] = attack
	v[side+"_defense"] = defense
	v[side+"_elo"] = elo
	v[side+"_offensive_power"] = attack * eloNorm
	v[side+"_defensive_power"] = (2.0 - defense) * eloNorm
}

// formFeatures fills the multi-window form block. hist is most recent
// first; windows shorter than available history use what exists.
func formFeatures(v Vector, side, teamID string, hist []match.Match) {
	for _, w := range formWindows {
		ws := strconv.Itoa(w)
		n := min(w, len(hist))
		var wins, gf, ga int
		for _, m := range hist[:n] {
			if m.Points(teamID) == 3 {
				wins++
			}
			s, c := m.GoalsFor(teamID)
			gf += s
			ga += c
		}
		if n == 0 {
			v[side+"_form"+ws+"_wr"] = 0
			v[side+"_form"+ws+"_gf"] = 0
			v[side+"_form"+ws+"_ga"] = 0
			v[side+"_form"+ws+"_gd"] = 0
			continue
		}
		fn := float64(n)
		v[side+"_form"+ws+"_wr"] = float64(wins) / fn
		v[side+"_form"+ws+"_gf"] = float64(gf) / fn
		v[side+"_form"+ws+"_ga"] = float64(ga) / fn
		v[side+"_form"+ws+"_gd"] = float64(gf-ga) / fn
	}
}

// venueSplitFeatures uses only the matches each team played in the same
// venue role it has in this fixture.
func venueSplitFeatures(v Vector, homeID string, homeHist []match.Match, awayID string, awayHist []match.Match) {
	var hp, hgf, hga, hn int
	for _, m := range homeHist {
		if m.HomeTeamID != homeID {
			continue
		}
		hn++
		hp += m.Points(homeID)
		s, c := m.GoalsFor(homeID)
		hgf += s
		hga += c
	}
	v["home_home_ppg"] = ratio(float64(hp), hn)
	v["home_home_gf"] = ratio(float64(hgf), hn)
	v["home_home_ga"] = ratio(float64(hga), hn)

	var ap, agf, aga, an int
	for _, m := range awayHist {
		if m.AwayTeamID != awayID {
			continue
		}
		an++
		ap += m.Points(awayID)
		s, c := m.GoalsFor(awayID)
		agf += s
		aga += c
	}
	v["away_away_ppg"] = ratio(float64(ap), an)
	v["away_away_gf"] = ratio(float64(agf), an)
	v["away_away_ga"] = ratio(float64(aga), an)
}

func (e *Extractor) h2hFeatures(ctx context.Context, v Vector, in Input) error {
	meetings, err := e.matches.ListFinishedBetween(ctx, in.HomeTeamID, in.AwayTeamID, in.AsOf)
	if err != nil {
		return fmt.Errorf("head to head history: %w", err)
	}
	v["h2h_matches"] = float64(len(meetings))
	if len(meetings) == 0 {
		v["h2h_home_wr"] = 0
		v["h2h_avg_goals"] = defaultH2HGoals
		return nil
	}
	var wins, goals int
	for _, m := range meetings {
		if m.Points(in.HomeTeamID) == 3 {
			wins++
		}
		s, c := m.GoalsFor(in.HomeTeamID)
		goals += s + c
	}
	v["h2h_home_wr"] = float64(wins) / float64(len(meetings))
	v["h2h_avg_goals"] = float64(goals) / float64(len(meetings))
	return nil
}

func (e *Extractor) venueFeatures(ctx context.Context, v Vector, in Input) error {
	v["venue_home_wr"] = defaultVenueWinRate
	v["venue_avg_goals"] = defaultVenueGoals
	if in.VenueID == "" {
		return nil
	}
	hist, err := e.matches.ListFinishedByVenue(ctx, in.VenueID, in.AsOf)
	if err != nil {
		return fmt.Errorf("venue history: %w", err)
	}
	if len(hist) < venueMinSample {
		return nil
	}
	var homeWins, goals int
	for _, m := range hist {
		if m.Points(m.HomeTeamID) == 3 {
			homeWins++
		}
		s, c := m.GoalsFor(m.HomeTeamID)
		goals += s + c
	}
	v["venue_home_wr"] = float64(homeWins) / float64(len(hist))
	v["venue_avg_goals"] = float64(goals) / float64(len(hist)) / 2
	return nil
}

func (e *Extractor) refereeFeatures(ctx context.Context, v Vector, in Input) error {
	v["referee_avg_goals"] = defaultRefereeGoals
	if in.RefereeID == "" {
		return nil
	}
	hist, err := e.matches.ListFinishedByReferee(ctx, in.RefereeID, in.AsOf)
	if err != nil {
		return fmt.Errorf("referee history: %w", err)
	}
	if len(hist) == 0 {
		return nil
	}
	var goals int
	for _, m := range hist {
		s, c := m.GoalsFor(m.HomeTeamID)
		goals += s + c
	}
	v["referee_avg_goals"] = float64(goals) / float64(len(hist))
	return nil
}

func (e *Extractor) injuryFeatures(ctx context.Context, v Vector, in Input) error {
	hi, err := e.players.CountInjuredByTeam(ctx, in.HomeTeamID)
	if err != nil {
		return fmt.Errorf("home injuries: %w", err)
	}
	ai, err := e.players.CountInjuredByTeam(ctx, in.AwayTeamID)
	if err != nil {
		return fmt.Errorf("away injuries: %w", err)
	}
	v["home_injuries"] = float64(hi)
	v["away_injuries"] = float64(ai)
	return nil
}

func (e *Extractor) standingFeatures(ctx context.Context, v Vector, in Input) error {
	for side, id := range map[string]string{"home": in.HomeTeamID, "away": in.AwayTeamID} {
		s, ok, err := e.standings.GetLatestByTeam(ctx, id)
		if err != nil {
			return fmt.Errorf("%s standing: %w", side, err)
		}
		if !ok {
			v[side+"_position"] = standing.DefaultPosition
			v[side+"_points"] = 0
			v[side+"_season_gd"] = 0
			v[side+"_form_wins"] = 0
			v[side+"_form_draws"] = 0
			v[side+"_form_losses"] = 0
			continue
		}
		w, d, l := s.FormCounts()
		v[side+"_position"] = float64(s.Position)
		v[side+"_points"] = float64(s.Points)
		v[side+"_season_gd"] = float64(s.GoalDifference)
		v[side+"_form_wins"] = float64(w)
		v[side+"_form_draws"] = float64(d)
		v[side+"_form_losses"] = float64(l)
	}
	return nil
}

func restFeatures(v Vector, asOf time.Time, homeHist, awayHist []match.Match) {
	v["home_rest_days"] = restDays(asOf, homeHist)
	v["away_rest_days"] = restDays(asOf, awayHist)
}

func restDays(asOf time.Time, hist []match.Match) float64 {
	if len(hist) == 0 {
		return defaultRestDays
	}
	days := int(asOf.Sub(hist[0].KickoffAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	if days > maxRestDays {
		days = maxRestDays
	}
	return float64(days)
}

func temporalFeatures(v Vector, asOf time.Time) {
	v["month"] = float64(asOf.Month())
	dow := (int(asOf.Weekday()) + 6) % 7 // Monday = 0
	v["day_of_week"] = float64(dow)
	if dow >= 5 {
		v["is_weekend"] = 1
	} else {
		v["is_weekend"] = 0
	}
}

// momentumFeatures weighs the last three of the last five results with
// linear weights 3, 2, 1 most recent first, normalized to [0, 1].
func momentumFeatures(v Vector, side, teamID string, hist []match.Match) {
	n := min(momentumWindow, len(hist))
	var wpts, wgf float64
	recentWin, streak, streakDone := 0.0, 0, false
	for i, m := range hist[:n] {
		pts := m.Points(teamID)
		if i < trendRecent {
			w := float64(trendRecent - i)
			wpts += w * float64(pts)
			s, _ := m.GoalsFor(teamID)
			wgf += w * float64(s)
		}
		if pts == 3 {
			recentWin = 1
			if !streakDone {
				streak++
			}
		} else {
			streakDone = true
		}
	}
	v[side+"_momentum"] = wpts / 18   // 3+2+1 weights, 3 points max each
	v[side+"_goal_momentum"] = wgf / 9
	v[side+"_recent_win"] = recentWin
	v[side+"_win_streak"] = float64(streak)
}

// trendFeatures compares the last three matches against the seven
// before them.
func trendFeatures(v Vector, side, teamID string, hist []match.Match) {
	n := min(historyWindow, len(hist))
	var gfAll []float64
	var gfRecent, gaRecent, gfPrev, gaPrev float64
	var nRecent, nPrev int
	maxGF := 0.0
	for i, m := range hist[:n] {
		s, c := m.GoalsFor(teamID)
		gfAll = append(gfAll, float64(s))
		if float64(s) > maxGF {
			maxGF = float64(s)
		}
		if i < trendRecent {
			gfRecent += float64(s)
			gaRecent += float64(c)
			nRecent++
		} else {
			gfPrev += float64(s)
			gaPrev += float64(c)
			nPrev++
		}
	}
	gfTrend, gaTrend := 0.0, 0.0
	if nRecent > 0 && nPrev > 0 {
		gfTrend = gfRecent/float64(nRecent) - gfPrev/float64(nPrev)
		gaTrend = gaRecent/float64(nRecent) - gaPrev/float64(nPrev)
	}
	v[side+"_gf_trend"] = gfTrend
	v[side+"_ga_trend"] = gaTrend
	v[side+"_max_gf"] = maxGF
	v[side+"_gf_consistency"] = 1.0 / (sampleStdDev(gfAll) + 0.1)
}

func (e *Extractor) derivedFeatures(v Vector) {
	v["strength_diff"] = v["home_attack"] - v["away_defense"]
	v["reverse_strength_diff"] = v["away_attack"] - v["home_defense"]
	v["elo_diff"] = v["home_elo"] - v["away_elo"]
	v["form_diff"] = v["home_form5_wr"] - v["away_form5_wr"]
	v["gf_diff"] = v["home_form5_gf"] - v["away_form5_gf"]
	v["momentum_diff"] = v["home_momentum"] - v["away_momentum"]
	v["goal_momentum_diff"] = v["home_goal_momentum"] - v["away_goal_momentum"]
	v["home_attack_x_away_defense"] = v["home_attack"] * v["away_defense"]
	v["away_attack_x_home_defense"] = v["away_attack"] * v["home_defense"]
	v["form_x_strength"] = v["form_diff"] * v["strength_diff"]
	v["elo_x_form"] = v["elo_diff"] / 400 * v["form_diff"]
	v["momentum_x_strength"] = v["momentum_diff"] * v["strength_diff"]

	v["xg_home"] = e.params.LeagueAvgGoals * v["home_attack"] * v["away_defense"] * e.params.HomeAdvantage
	v["xg_away"] = e.params.LeagueAvgGoals * v["away_attack"] * v["home_defense"]
	v["xg_diff"] = v["xg_home"] - v["xg_away"]

	v["position_diff"] = v["away_position"] - v["home_position"]
	v["points_diff"] = v["home_points"] - v["away_points"]
	v["season_gd_diff"] = v["home_season_gd"] - v["away_season_gd"]
	v["rest_diff"] = v["home_rest_days"] - v["away_rest_days"]

	v["home_power_index"] = powerIndex(v, "home")
	v["away_power_index"] = powerIndex(v, "away")
	v["power_index_diff"] = v["home_power_index"] - v["away_power_index"]
}

func powerIndex(v Vector, side string) float64 {
	return 0.3*v[side+"_offensive_power"] +
		0.2*v[side+"_form5_wr"] +
		0.2*v[side+"_momentum"] +
		0.3*(20-v[side+"_position"])/20
}

func ratio(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// sampleStdDev returns 1.0 for fewer than two observations so the
// consistency score stays finite and neutral.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 1.0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
