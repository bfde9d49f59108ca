package standing

import "context"

type Repository interface {
	GetLatestByTeam(ctx context.Context, teamID string) (Standing, bool, error)
}
