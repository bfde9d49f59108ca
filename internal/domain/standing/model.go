package standing

import "time"

// Neutral defaults used when a team has no standings row yet.
const (
	DefaultPosition = 10
)

// Standing is the latest league table row for one team.
type Standing struct {
	TeamID         string
	Position       int
	Points         int
	GoalDifference int
	FormLast5      string
	UpdatedAt      time.Time
}

// FormCounts decomposes the form string ("WWDLW") into result counts.
func (s Standing) FormCounts() (wins, draws, losses int) {
	for _, r := range s.FormLast5 {
		switch r {
		case 'W', 'w':
			wins++
		case 'D', 'd':
			draws++
		case 'L', 'l':
			losses++
		}
	}
	return wins, draws, losses
}
