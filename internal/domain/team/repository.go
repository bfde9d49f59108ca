package team

import "context"

// Repository exposes read-only team lookups. The engine never writes teams.
type Repository interface {
	GetByID(ctx context.Context, id string) (Team, bool, error)
}
