package consumption

import "context"

type StoreAPI interface {
	Create(ctx context.Context, r Record) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Update(ctx context.Context, r Record) (Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f Filter) ([]Record, error)
}

var _ StoreAPI = (*Store)(nil)
