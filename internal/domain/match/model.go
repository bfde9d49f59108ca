package match

import (
	"fmt"
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
	StatusCancelled = "CANCELLED"
)

// Outcome labels used for both training targets and probability keys.
const (
	OutcomeHome = "H"
	OutcomeDraw = "D"
	OutcomeAway = "A"
)

// Match is one fixture. Scores are pointers because they only exist once
// the match has finished.
type Match struct {
	ID         string
	HomeTeamID string
	AwayTeamID string
	KickoffAt  time.Time
	Status     string
	HomeScore  *int
	AwayScore  *int
	VenueID    string
	RefereeID  string
}

func (m Match) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("match id is required")
	}
	if m.HomeTeamID == "" || m.AwayTeamID == "" {
		return fmt.Errorf("match team ids are required")
	}
	if m.HomeTeamID == m.AwayTeamID {
		return fmt.Errorf("match home and away team must differ")
	}
	if m.KickoffAt.IsZero() {
		return fmt.Errorf("match kickoff time is required")
	}
	if m.Status == StatusFinished && (m.HomeScore == nil || m.AwayScore == nil) {
		return fmt.Errorf("finished match %s is missing scores", m.ID)
	}

	return nil
}

func (m Match) IsFinished() bool {
	return NormalizeStatus(m.Status) == StatusFinished && m.HomeScore != nil && m.AwayScore != nil
}

// Result returns the outcome label. ok is false until the match finishes.
func (m Match) Result() (string, bool) {
	if !m.IsFinished() {
		return "", false
	}
	switch {
	case *m.HomeScore > *m.AwayScore:
		return OutcomeHome, true
	case *m.HomeScore < *m.AwayScore:
		return OutcomeAway, true
	default:
		return OutcomeDraw, true
	}
}

// Points returns the league points teamID took from this match.
func (m Match) Points(teamID string) int {
	result, ok := m.Result()
	if !ok {
		return 0
	}
	switch {
	case result == OutcomeDraw:
		return 1
	case result == OutcomeHome && m.HomeTeamID == teamID:
		return 3
	case result == OutcomeAway && m.AwayTeamID == teamID:
		return 3
	default:
		return 0
	}
}

// GoalsFor returns goals scored and conceded from teamID's perspective.
func (m Match) GoalsFor(teamID string) (scored, conceded int) {
	if m.HomeScore == nil || m.AwayScore == nil {
		return 0, 0
	}
	if m.HomeTeamID == teamID {
		return *m.HomeScore, *m.AwayScore
	}
	return *m.AwayScore, *m.HomeScore
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}
