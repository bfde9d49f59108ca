package player

import "context"

type Repository interface {
	CountInjuredByTeam(ctx context.Context, teamID string) (int, error)
}
