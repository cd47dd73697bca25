package users

import "context"

type StoreAPI interface {
	Create(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Update(ctx context.Context, u User) (User, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]User, error)
	Count(ctx context.Context, f Filter) (int, error)
	Departments(ctx context.Context) ([]DepartmentCount, error)
	ListIDs(ctx context.Context) ([]string, error)
}

var _ StoreAPI = (*Store)(nil)
