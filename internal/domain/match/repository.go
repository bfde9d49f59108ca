package match

import (
	"context"
	"time"
)

// Repository exposes match history reads. Every listing method that takes a
// `before` bound must only return FINISHED matches with kickoff strictly
// earlier than the bound, so feature extraction can never see the future.
type Repository interface {
	GetByID(ctx context.Context, id string) (Match, bool, error)

	// ListFinishedByTeam returns the team's finished matches before the bound,
	// most recent first. limit <= 0 means no limit.
	ListFinishedByTeam(ctx context.Context, teamID string, before time.Time, limit int) ([]Match, error)

	// ListFinishedBetween returns prior meetings of the two teams in either
	// venue role, most recent first.
	ListFinishedBetween(ctx context.Context, teamA, teamB string, before time.Time) ([]Match, error)

	ListFinishedByVenue(ctx context.Context, venueID string, before time.Time) ([]Match, error)
	ListFinishedByReferee(ctx context.Context, refereeID string, before time.Time) ([]Match, error)

	// ListFinishedBefore returns all finished matches before the bound in
	// chronological order. Used to assemble training sets.
	ListFinishedBefore(ctx context.Context, before time.Time) ([]Match, error)

	// ListScheduledAfter returns upcoming fixtures, earliest first.
	ListScheduledAfter(ctx context.Context, after time.Time) ([]Match, error)
}
