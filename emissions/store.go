package emissions

import "context"

// ActivityStore persists activity amounts per source.
type ActivityStore interface {
	ListActivities(ctx context.Context) ([]Activity, error)
	SaveActivity(ctx context.Context, a Activity) error
}
