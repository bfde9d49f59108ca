package marketodds

import "context"

// Repository exposes read-only market price queries.
type Repository interface {
	ListByMatchAndMarket(ctx context.Context, matchID, marketType string) ([]Odds, error)

	// ListMatchIDsWithMarket returns the ids of matches that have at least one
	// price row for the market, for bulk detection passes.
	ListMatchIDsWithMarket(ctx context.Context, marketType string) ([]string, error)
}
