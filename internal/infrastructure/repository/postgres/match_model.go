package postgres

import (
	"database/sql"
	"time"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/match"
)

type matchTableModel struct {
	ID         string         `db:"id"`
	HomeTeamID string         `db:"home_team_id"`
	AwayTeamID string         `db:"away_team_id"`
	KickoffAt  time.Time      `db:"kickoff_at"`
	Status     string         `db:"status"`
	HomeScore  sql.NullInt64  `db:"home_score"`
	AwayScore  sql.NullInt64  `db:"away_score"`
	VenueID    sql.NullString `db:"venue_id"`
	RefereeID  sql.NullString `db:"referee_id"`
}

var matchColumns = []string{
	"id", "home_team_id", "away_team_id", "kickoff_at", "status",
	"home_score", "away_score", "venue_id", "referee_id",
}

func (m matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:         m.ID,
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		KickoffAt:  m.KickoffAt,
		Status:     match.NormalizeStatus(m.Status),
		HomeScore:  nullIntToPtr(m.HomeScore),
		AwayScore:  nullIntToPtr(m.AwayScore),
		VenueID:    nullStringToString(m.VenueID),
		RefereeID:  nullStringToString(m.RefereeID),
	}
}

func matchRowsToDomain(rows []matchTableModel) []match.Match {
	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
