package consumption

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("leave consumption record not found")
	ErrInvalidDays  = errors.New("days_consumed must be at least 1")
	ErrMissingField = errors.New("user_id, leave_request_id and leave_type_id are required")
)

type Service struct {
	store StoreAPI
	now   func() time.Time
	log   *zap.Logger
}

func NewService(store StoreAPI, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, now: time.Now, log: logger.Named("consumption.service")}
}

func (s *Service) Create(ctx context.Context, r Record) (Record, error) {
	r.UserID = strings.TrimSpace(r.UserID)
	r.LeaveRequestID = strings.TrimSpace(r.LeaveRequestID)
	r.LeaveTypeID = strings.TrimSpace(r.LeaveTypeID)
	if r.UserID == "" || r.LeaveRequestID == "" || r.LeaveTypeID == "" {
		return Record{}, ErrMissingField
	}
	if r.DaysConsumed < 1 {
		return Record{}, ErrInvalidDays
	}
	if r.DateRecorded.IsZero() {
		r.DateRecorded = s.now().UTC()
	}
	return s.store.Create(ctx, r)
}

// RecordConsumption books the days of an approved leave request.
func (s *Service) RecordConsumption(ctx context.Context, userID, leaveRequestID, leaveTypeID string, days int) error {
	rec, err := s.Create(ctx, Record{
		UserID:         userID,
		LeaveRequestID: leaveRequestID,
		LeaveTypeID:    leaveTypeID,
		DaysConsumed:   days,
	})
	if err != nil {
		return err
	}
	s.log.Info("leave consumption recorded",
		zap.String("record_id", rec.ID),
		zap.String("leave_request_id", leaveRequestID),
		zap.Int("days", days))
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Record, error) {
	return s.store.List(ctx, f)
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (Record, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	p.Apply(&current)
	if current.DaysConsumed < 1 {
		return Record{}, ErrInvalidDays
	}
	return s.store.Update(ctx, current)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
