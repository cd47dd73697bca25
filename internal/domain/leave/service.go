package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"leavemgmt/internal/domain/auth"
	"leavemgmt/internal/domain/calendar"
	"leavemgmt/internal/domain/notifications"
)

var (
	ErrNotFound           = errors.New("leave request not found")
	ErrTypeNotFound       = errors.New("leave type not found")
	ErrForbidden          = errors.New("forbidden")
	ErrNotPending         = errors.New("leave request already processed")
	ErrDuplicateRequestNo = errors.New("duplicate request number")
	ErrLeaveTypeRequired  = errors.New("leave_type is required")
)

// Directory supplies the employee name and department stamped on new
// requests when the caller leaves them blank.
type Directory interface {
	DisplayInfo(ctx context.Context, userID string) (name, department string, err error)
}

type ConsumptionRecorder interface {
	RecordConsumption(ctx context.Context, userID, leaveRequestID, leaveTypeID string, days int) error
}

type DecisionNotifier interface {
	NotifyLeaveDecision(ctx context.Context, d notifications.LeaveDecision) error
}

type Deps struct {
	Store       StoreAPI
	Types       TypeStoreAPI
	Resolver    *calendar.Resolver
	Directory   Directory
	Consumption ConsumptionRecorder
	Notifier    DecisionNotifier
	Logger      *zap.Logger
}

type Service struct {
	store       StoreAPI
	types       TypeStoreAPI
	resolver    *calendar.Resolver
	directory   Directory
	consumption ConsumptionRecorder
	notifier    DecisionNotifier
	now         func() time.Time
	log         *zap.Logger
}

func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       d.Store,
		types:       d.Types,
		resolver:    d.Resolver,
		directory:   d.Directory,
		consumption: d.Consumption,
		notifier:    d.Notifier,
		now:         time.Now,
		log:         logger.Named("leave.service"),
	}
}

func canAccess(actor auth.UserContext, r LeaveRequest) bool {
	return auth.CanManage(actor.Role) || r.UserID == actor.UserID
}

// List scopes employees to their own requests regardless of the filter.
func (s *Service) List(ctx context.Context, actor auth.UserContext, f RequestFilter, limit, offset int) (RequestListResult, error) {
	if !auth.CanManage(actor.Role) {
		f.UserID = actor.UserID
	}

	var res RequestListResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.store.ListRequests(gctx, f, limit, offset)
		res.Items = items
		return err
	})
	g.Go(func() error {
		total, err := s.store.CountRequests(gctx, f)
		res.Total = total
		return err
	})
	if err := g.Wait(); err != nil {
		return RequestListResult{}, err
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, actor auth.UserContext, requestNo string) (LeaveRequest, error) {
	r, err := s.store.GetRequest(ctx, requestNo)
	if err != nil {
		return LeaveRequest{}, err
	}
	if !canAccess(actor, r) {
		return LeaveRequest{}, ErrForbidden
	}
	return r, nil
}

func (s *Service) Create(ctx context.Context, actor auth.UserContext, in NewRequest) (LeaveRequest, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" || !auth.CanManage(actor.Role) {
		userID = actor.UserID
	}
	leaveType := strings.TrimSpace(in.LeaveType)
	if leaveType == "" {
		return LeaveRequest{}, ErrLeaveTypeRequired
	}

	name, dept := strings.TrimSpace(in.EmployeeName), strings.TrimSpace(in.Department)
	if (name == "" || dept == "") && s.directory != nil {
		dirName, dirDept, err := s.directory.DisplayInfo(ctx, userID)
		if err != nil {
			return LeaveRequest{}, fmt.Errorf("load employee info: %w", err)
		}
		if name == "" {
			name = dirName
		}
		if dept == "" {
			dept = dirDept
		}
	}

	now := s.now().UTC()
	req := LeaveRequest{
		RequestDate:     now,
		EmployeeName:    name,
		Department:      dept,
		LeaveType:       leaveType,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		Reason:          strings.TrimSpace(in.Reason),
		SpareEmployeeID: strings.TrimSpace(in.SpareEmployeeID),
		Status:          StatusPending,
		UserID:          userID,
	}

	for attempt := 0; attempt < 3; attempt++ {
		no, err := GenerateRequestNo(now)
		if err != nil {
			return LeaveRequest{}, err
		}
		req.RequestNo = no

		days, err := DeriveDays(req.StartDate, req.EndDate)
		if err != nil {
			return LeaveRequest{}, err
		}
		req.NumberOfDays = days

		created, err := s.store.CreateRequest(ctx, req)
		if errors.Is(err, ErrDuplicateRequestNo) {
			continue
		}
		if err != nil {
			return LeaveRequest{}, err
		}
		s.log.Info("leave request created",
			zap.String("request_no", created.RequestNo),
			zap.String("user_id", created.UserID),
			zap.Int("days", created.NumberOfDays))
		return created, nil
	}
	return LeaveRequest{}, ErrDuplicateRequestNo
}

// Update merges patch into a request. The day count is re-derived from the
// merged boundaries whenever either of them changes.
func (s *Service) Update(ctx context.Context, actor auth.UserContext, requestNo string, patch RequestPatch) (before, after LeaveRequest, err error) {
	before, err = s.store.GetRequest(ctx, requestNo)
	if err != nil {
		return LeaveRequest{}, LeaveRequest{}, err
	}
	if !canAccess(actor, before) {
		return LeaveRequest{}, LeaveRequest{}, ErrForbidden
	}
	if !auth.CanManage(actor.Role) && before.Status != StatusPending {
		return LeaveRequest{}, LeaveRequest{}, ErrNotPending
	}

	next := before
	if patch.Apply(&next) {
		days, err := DeriveDays(next.StartDate, next.EndDate)
		if err != nil {
			return LeaveRequest{}, LeaveRequest{}, err
		}
		next.NumberOfDays = days
	}
	if strings.TrimSpace(next.LeaveType) == "" {
		return LeaveRequest{}, LeaveRequest{}, ErrLeaveTypeRequired
	}

	after, err = s.store.UpdateRequestDetails(ctx, next, before.Status)
	if err != nil {
		return LeaveRequest{}, LeaveRequest{}, err
	}
	return before, after, nil
}

// Process approves or rejects a pending request. Approval books the days
// as consumed; either decision notifies the requester. Both side effects
// are best effort once the decision is stored.
func (s *Service) Process(ctx context.Context, actor auth.UserContext, requestNo string, in ProcessInput) (LeaveRequest, error) {
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if !ValidDecision(status) {
		return LeaveRequest{}, ErrInvalidStatus
	}
	if !auth.CanManage(actor.Role) {
		return LeaveRequest{}, ErrForbidden
	}

	current, err := s.store.GetRequest(ctx, requestNo)
	if err != nil {
		return LeaveRequest{}, err
	}
	if current.Status != StatusPending {
		return LeaveRequest{}, ErrNotPending
	}

	d := Decision{
		Status:         status,
		ProcessingDate: s.now().UTC(),
		ProcessedBy:    strings.TrimSpace(in.ProcessedBy),
	}
	if d.ProcessedBy == "" {
		d.ProcessedBy = actor.Username
	}
	if status == StatusRejected {
		d.ReasonForRejection = strings.TrimSpace(in.ReasonForRejection)
	}

	// The pending check above is advisory; DecideRequest enforces it.
	updated, err := s.store.DecideRequest(ctx, requestNo, d)
	if err != nil {
		return LeaveRequest{}, err
	}

	if status == StatusApproved {
		s.recordConsumption(ctx, updated)
	}
	s.notifyDecision(ctx, updated)
	return updated, nil
}

func (s *Service) recordConsumption(ctx context.Context, r LeaveRequest) {
	if s.consumption == nil {
		return
	}
	typeID := r.LeaveType
	if s.types != nil {
		if lt, err := s.types.FindType(ctx, r.LeaveType); err == nil {
			typeID = lt.ID
		}
	}
	if err := s.consumption.RecordConsumption(ctx, r.UserID, r.RequestNo, typeID, r.NumberOfDays); err != nil {
		s.log.Warn("leave consumption record failed", zap.String("request_no", r.RequestNo), zap.Error(err))
	}
}

func (s *Service) notifyDecision(ctx context.Context, r LeaveRequest) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.NotifyLeaveDecision(ctx, notifications.LeaveDecision{
		UserID:    r.UserID,
		RequestNo: r.RequestNo,
		LeaveType: r.LeaveType,
		Start:     r.StartDate,
		End:       r.EndDate,
		Approved:  r.Status == StatusApproved,
		Reason:    r.ReasonForRejection,
	})
	if err != nil {
		s.log.Warn("leave decision notification failed", zap.String("request_no", r.RequestNo), zap.Error(err))
	}
}

func (s *Service) Delete(ctx context.Context, actor auth.UserContext, requestNo string) (LeaveRequest, error) {
	existing, err := s.store.GetRequest(ctx, requestNo)
	if err != nil {
		return LeaveRequest{}, err
	}
	if !canAccess(actor, existing) {
		return LeaveRequest{}, ErrForbidden
	}
	if !auth.CanManage(actor.Role) && existing.Status != StatusPending {
		return LeaveRequest{}, ErrNotPending
	}
	if err := s.store.DeleteRequest(ctx, requestNo); err != nil {
		return LeaveRequest{}, err
	}
	return existing, nil
}

// HolidayDays reports which days of a request fall on a holiday.
func (s *Service) HolidayDays(ctx context.Context, actor auth.UserContext, requestNo string) (HolidayBreakdown, error) {
	r, err := s.Get(ctx, actor, requestNo)
	if err != nil {
		return HolidayBreakdown{}, err
	}
	days, err := s.resolver.HolidaysIn(ctx, calendar.DateRange{Start: r.StartDate, End: r.EndDate})
	if err != nil {
		return HolidayBreakdown{}, err
	}
	if days == nil {
		days = []time.Time{}
	}
	working := r.NumberOfDays - len(days)
	if working < 0 {
		working = 0
	}
	return HolidayBreakdown{
		RequestNo:    r.RequestNo,
		NumberOfDays: r.NumberOfDays,
		HolidayDays:  len(days),
		WorkingDays:  working,
		Holidays:     days,
	}, nil
}
