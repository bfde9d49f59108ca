package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/match"
)

// MatchRepository is an in-memory match.Repository with the same
// visibility semantics as the SQL implementation: `before` bounds are
// strict and only FINISHED matches count as history.
type MatchRepository struct {
	mu      sync.RWMutex
	matches []match.Match
}

func NewMatchRepository(matches ...match.Match) *MatchRepository {
	r := &MatchRepository{}
	r.matches = append(r.matches, matches...)
	return r
}

func (r *MatchRepository) Put(m match.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.matches {
		if r.matches[i].ID == m.ID {
			r.matches[i] = m
			return
		}
	}
	r.matches = append(r.matches, m)
}

func (r *MatchRepository) GetByID(_ context.Context, id string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.matches {
		if m.ID == id {
			return m, true, nil
		}
	}
	return match.Match{}, false, nil
}

func (r *MatchRepository) ListFinishedByTeam(_ context.Context, teamID string, before time.Time, limit int) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.filter(func(m match.Match) bool {
		return (m.HomeTeamID == teamID || m.AwayTeamID == teamID) && visible(m, before)
	})
	sortDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MatchRepository) ListFinishedBetween(_ context.Context, teamA, teamB string, before time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.filter(func(m match.Match) bool {
		pair := (m.HomeTeamID == teamA && m.AwayTeamID == teamB) ||
			(m.HomeTeamID == teamB && m.AwayTeamID == teamA)
		return pair && visible(m, before)
	})
	sortDesc(out)
	return out, nil
}

func (r *MatchRepository) ListFinishedByVenue(_ context.Context, venueID string, before time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.filter(func(m match.Match) bool {
		return m.VenueID == venueID && visible(m, before)
	})
	sortDesc(out)
	return out, nil
}

func (r *MatchRepository) ListFinishedByReferee(_ context.Context, refereeID string, before time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.filter(func(m match.Match) bool {
		return m.RefereeID == refereeID && visible(m, before)
	})
	sortDesc(out)
	return out, nil
}

func (r *MatchRepository) ListFinishedBefore(_ context.Context, before time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.filter(func(m match.Match) bool {
		return visible(m, before)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].KickoffAt.Before(out[j].KickoffAt) })
	return out, nil
}

func (r *MatchRepository) ListScheduledAfter(_ context.Context, after time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.filter(func(m match.Match) bool {
		return m.Status == match.StatusScheduled && m.KickoffAt.After(after)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].KickoffAt.Before(out[j].KickoffAt) })
	return out, nil
}

func (r *MatchRepository) filter(keep func(match.Match) bool) []match.Match {
	var out []match.Match
	for _, m := range r.matches {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func visible(m match.Match, before time.Time) bool {
	return m.IsFinished() && m.KickoffAt.Before(before)
}

func sortDesc(ms []match.Match) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].KickoffAt.After(ms[j].KickoffAt) })
}
