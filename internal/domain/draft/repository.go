package draft

import "context"

// Repository describes draft persistence needs from use cases. One durable
// record per draft id; implementations must not alias returned values with
// stored state.
type Repository interface {
	GetByID(ctx context.Context, draftID string) (Draft, bool, error)
	List(ctx context.Context) ([]Draft, error)
	Save(ctx context.Context, d Draft) error
	Delete(ctx context.Context, draftID string) error
}
