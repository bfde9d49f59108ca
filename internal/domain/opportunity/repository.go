package opportunity

import "context"

// Repository owns the opportunity rows written by this engine.
type Repository interface {
	// InsertIfAbsent writes the opportunity unless a row already exists for
	// (match, selection). Returns true when a new row was created.
	InsertIfAbsent(ctx context.Context, o Opportunity) (bool, error)

	ListByMatch(ctx context.Context, matchID string) ([]Opportunity, error)
	ListOpen(ctx context.Context) ([]Opportunity, error)
}
