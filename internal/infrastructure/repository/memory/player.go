package memory

import (
	"context"
	"sync"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/player"
)

type PlayerRepository struct {
	mu      sync.RWMutex
	players []player.Player
}

func NewPlayerRepository(players ...player.Player) *PlayerRepository {
	r := &PlayerRepository{}
	r.players = append(r.players, players...)
	return r
}

func (r *PlayerRepository) Put(p player.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = append(r.players, p)
}

func (r *PlayerRepository) CountInjuredByTeam(_ context.Context, teamID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int
	for _, p := range r.players {
		if p.TeamID == teamID && p.IsInjured {
			n++
		}
	}
	return n, nil
}
