package leave

import (
	"context"
	"time"

	"leavemgmt/internal/domain/users"
)

type StoreAPI interface {
	CreateRequest(ctx context.Context, r LeaveRequest) (LeaveRequest, error)
	GetRequest(ctx context.Context, requestNo string) (LeaveRequest, error)
	// UpdateRequestDetails and DecideRequest are conditional writes: they
	// return ErrNotPending when the stored status no longer matches.
	UpdateRequestDetails(ctx context.Context, r LeaveRequest, expectedStatus string) (LeaveRequest, error)
	DecideRequest(ctx context.Context, requestNo string, d Decision) (LeaveRequest, error)
	DeleteRequest(ctx context.Context, requestNo string) error
	ListRequests(ctx context.Context, f RequestFilter, limit, offset int) ([]LeaveRequest, error)
	CountRequests(ctx context.Context, f RequestFilter) (int, error)
}

type TypeStoreAPI interface {
	CreateType(ctx context.Context, t LeaveType) (LeaveType, error)
	GetType(ctx context.Context, id string) (LeaveType, error)
	FindType(ctx context.Context, idOrName string) (LeaveType, error)
	UpdateType(ctx context.Context, t LeaveType) (LeaveType, error)
	DeleteType(ctx context.Context, id string) error
	ListTypes(ctx context.Context) ([]LeaveType, error)
}

type AccrualStore interface {
	ListMonthlyTypes(ctx context.Context) ([]accrualType, error)
	LastAccruedOn(ctx context.Context, leaveTypeID string) (time.Time, error)
	InTx(ctx context.Context, fn func(AccrualTx) error) error
}

type AccrualTx interface {
	UserBalances(ctx context.Context) (map[string][]users.LeaveBalance, error)
	SaveUserBalances(ctx context.Context, userID string, balances []users.LeaveBalance) error
	RecordRun(ctx context.Context, leaveTypeID string, periodStart time.Time, usersCredited int) error
}

var (
	_ StoreAPI     = (*Store)(nil)
	_ TypeStoreAPI = (*Store)(nil)
	_ AccrualStore = (*Store)(nil)
)
