package memory

import (
	"context"
	"sync"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/marketodds"
)

type MarketOddsRepository struct {
	mu   sync.RWMutex
	rows []marketodds.Odds
}

func NewMarketOddsRepository(rows ...marketodds.Odds) *MarketOddsRepository {
	r := &MarketOddsRepository{}
	r.rows = append(r.rows, rows...)
	return r
}

func (r *MarketOddsRepository) Put(o marketodds.Odds) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, o)
}

func (r *MarketOddsRepository) ListByMatchAndMarket(_ context.Context, matchID, marketType string) ([]marketodds.Odds, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []marketodds.Odds
	for _, o := range r.rows {
		if o.MatchID == matchID && o.MarketType == marketType {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *MarketOddsRepository) ListMatchIDsWithMarket(_ context.Context, marketType string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, o := range r.rows {
		if o.MarketType != marketType {
			continue
		}
		if _, ok := seen[o.MatchID]; ok {
			continue
		}
		seen[o.MatchID] = struct{}{}
		out = append(out, o.MatchID)
	}
	return out, nil
}
