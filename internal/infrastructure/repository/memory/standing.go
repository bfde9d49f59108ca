package memory

import (
	"context"
	"sync"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/standing"
)

type StandingRepository struct {
	mu   sync.RWMutex
	rows map[string]standing.Standing
}

func NewStandingRepository(rows ...standing.Standing) *StandingRepository {
	r := &StandingRepository{rows: make(map[string]standing.Standing, len(rows))}
	for _, s := range rows {
		r.rows[s.TeamID] = s
	}
	return r
}

func (r *StandingRepository) Put(s standing.Standing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.TeamID] = s
}

func (r *StandingRepository) GetLatestByTeam(_ context.Context, teamID string) (standing.Standing, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.rows[teamID]
	return s, ok, nil
}
