package reports

import (
	"context"
	"time"

	"leavemgmt/internal/domain/users"
)

type StoreAPI interface {
	UserBalances(ctx context.Context, userID string) ([]users.LeaveBalance, error)
	CountRequests(ctx context.Context, userID, status string) (int, error)
	ApprovedDaysSince(ctx context.Context, userID string, since time.Time) (int, error)
	UnreadNotifications(ctx context.Context, userID string) (int, error)
	HolidaysStartingBetween(ctx context.Context, from, to time.Time) (int, error)
	RequestsByStatus(ctx context.Context) (map[string]int, error)
	PendingByDepartment(ctx context.Context) ([]DepartmentCount, error)
	CountUsers(ctx context.Context) (int, error)
	CountLeaveTypes(ctx context.Context) (int, error)
	ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error)
	CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error)
	JobRunByID(ctx context.Context, runID string) (JobRun, error)
}

var _ StoreAPI = (*Store)(nil)
