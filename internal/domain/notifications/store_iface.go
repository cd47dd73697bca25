package notifications

import "context"

type StoreAPI interface {
	Create(ctx context.Context, userID, message string) (Notification, error)
	Get(ctx context.Context, id string) (Notification, error)
	ListForUser(ctx context.Context, userID string, f ListFilter) ([]Notification, error)
	Update(ctx context.Context, id string, p Patch) (Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id string) error
	UserEmail(ctx context.Context, userID string) (string, error)
}

var _ StoreAPI = (*Store)(nil)
