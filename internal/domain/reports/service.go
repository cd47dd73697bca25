package reports

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"leavemgmt/internal/domain/leave"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrJobRunNotFound = errors.New("job run not found")
)

// upcomingWindow is how far ahead dashboards look for official holidays.
const upcomingWindow = 30 * 24 * time.Hour

type Service struct {
	store StoreAPI
	now   func() time.Time
	log   *zap.Logger
}

func NewService(store StoreAPI, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, now: time.Now, log: logger.Named("reports")}
}

func (s *Service) EmployeeDashboard(ctx context.Context, userID string) (EmployeeDashboard, error) {
	now := s.now().UTC()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	var out EmployeeDashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balances, err := s.store.UserBalances(gctx, userID)
		out.LeaveBalances = balances
		return err
	})
	g.Go(func() (err error) {
		out.PendingRequests, err = s.store.CountRequests(gctx, userID, leave.StatusPending)
		return err
	})
	g.Go(func() (err error) {
		out.ApprovedDaysThisYear, err = s.store.ApprovedDaysSince(gctx, userID, yearStart)
		return err
	})
	g.Go(func() (err error) {
		out.UnreadNotifications, err = s.store.UnreadNotifications(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.UpcomingHolidays, err = s.store.HolidaysStartingBetween(gctx, now, now.Add(upcomingWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return EmployeeDashboard{}, err
	}
	return out, nil
}

func (s *Service) ManagerDashboard(ctx context.Context) (ManagerDashboard, error) {
	var out ManagerDashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.ByStatus, err = s.store.RequestsByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.ByDepartment, err = s.store.PendingByDepartment(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return ManagerDashboard{}, err
	}
	out.PendingApprovals = out.ByStatus[leave.StatusPending]
	return out, nil
}

func (s *Service) AdminDashboard(ctx context.Context) (AdminDashboard, error) {
	now := s.now().UTC()
	since := now.Add(-24 * time.Hour)

	var out AdminDashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Users, err = s.store.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.LeaveTypes, err = s.store.CountLeaveTypes(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.UpcomingHolidays, err = s.store.HolidaysStartingBetween(gctx, now, now.Add(upcomingWindow))
		return err
	})
	g.Go(func() (err error) {
		out.FailedJobs, err = s.store.CountJobRuns(gctx, JobRunFilter{Status: "failed", StartedFrom: &since})
		return err
	})
	if err := g.Wait(); err != nil {
		return AdminDashboard{}, err
	}
	return out, nil
}

func (s *Service) JobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) (JobRunList, error) {
	var out JobRunList
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Items, err = s.store.ListJobRuns(gctx, filter, limit, offset)
		return err
	})
	g.Go(func() (err error) {
		out.Total, err = s.store.CountJobRuns(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("job run listing failed", zap.Error(err))
		return JobRunList{}, err
	}
	return out, nil
}

func (s *Service) JobRun(ctx context.Context, id string) (JobRun, error) {
	return s.store.JobRunByID(ctx, id)
}
