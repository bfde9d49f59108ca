package memory

import (
	"context"
	"sync"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/team"
)

// TeamRepository is an in-memory team.Repository used in tests and
// offline runs.
type TeamRepository struct {
	mu    sync.RWMutex
	teams map[string]team.Team
}

func NewTeamRepository(teams ...team.Team) *TeamRepository {
	r := &TeamRepository{teams: make(map[string]team.Team, len(teams))}
	for _, t := range teams {
		r.teams[t.ID] = t
	}
	return r
}

func (r *TeamRepository) GetByID(_ context.Context, id string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.teams[id]
	return t, ok, nil
}

func (r *TeamRepository) Put(t team.Team) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teams[t.ID] = t
}
