package memory

import (
	"context"
	"sync"

	"github.com/WarenOdhiambo1/oddsengine/internal/domain/opportunity"
)

type OpportunityRepository struct {
	mu   sync.RWMutex
	rows []opportunity.Opportunity
}

func NewOpportunityRepository() *OpportunityRepository {
	return &OpportunityRepository{}
}

// InsertIfAbsent mirrors the SQL ON CONFLICT DO NOTHING semantics on
// the (match, selection) pair.
func (r *OpportunityRepository) InsertIfAbsent(_ context.Context, o opportunity.Opportunity) (bool, error) {
	if err := o.Validate(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.MatchID == o.MatchID && existing.Selection == o.Selection {
			return false, nil
		}
	}
	r.rows = append(r.rows, o)
	return true, nil
}

func (r *OpportunityRepository) ListByMatch(_ context.Context, matchID string) ([]opportunity.Opportunity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []opportunity.Opportunity
	for _, o := range r.rows {
		if o.MatchID == matchID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *OpportunityRepository) ListOpen(_ context.Context) ([]opportunity.Opportunity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []opportunity.Opportunity
	for _, o := range r.rows {
		if o.Status == opportunity.StatusOpen {
			out = append(out, o)
		}
	}
	return out, nil
}
