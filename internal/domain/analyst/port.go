package analyst

import "context"

// Repository port for persisting and querying raw completions
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	LatestByScan(ctx context.Context, owner string, scanID string) (*Analysis, error)
}
