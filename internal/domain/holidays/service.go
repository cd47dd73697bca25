package holidays

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"leavemgmt/internal/domain/calendar"
)

var (
	ErrNotFound     = errors.New("holiday not found")
	ErrNameRequired = errors.New("name is required")
)

// CheckRecorder receives the outcome of every holiday check.
type CheckRecorder interface {
	RecordHolidayCheck(holiday bool, err error)
}

type Service struct {
	store    StoreAPI
	resolver *calendar.Resolver
	recorder CheckRecorder
	log      *zap.Logger
}

func NewService(store StoreAPI, resolver *calendar.Resolver, recorder CheckRecorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, resolver: resolver, recorder: recorder, log: logger.Named("holidays.service")}
}

func (s *Service) List(ctx context.Context) ([]Holiday, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Holiday, error) {
	return s.store.Get(ctx, id)
}

func validate(h Holiday) error {
	if strings.TrimSpace(h.Name) == "" {
		return ErrNameRequired
	}
	return h.Range().Validate()
}

func (s *Service) Create(ctx context.Context, h Holiday) (Holiday, error) {
	h.Name = strings.TrimSpace(h.Name)
	if err := validate(h); err != nil {
		return Holiday{}, err
	}
	created, err := s.store.Create(ctx, h)
	if err != nil {
		return Holiday{}, err
	}
	s.log.Info("official holiday created",
		zap.String("holiday_id", created.ID),
		zap.Time("start", created.StartDate),
		zap.Time("end", created.EndDate))
	return created, nil
}

// Update merges patch into the stored holiday and re-validates the
// resulting range before writing.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (before, after Holiday, err error) {
	before, err = s.store.Get(ctx, id)
	if err != nil {
		return Holiday{}, Holiday{}, err
	}
	next := before
	patch.Apply(&next)
	next.Name = strings.TrimSpace(next.Name)
	if err := validate(next); err != nil {
		return Holiday{}, Holiday{}, err
	}
	after, err = s.store.Update(ctx, next)
	if err != nil {
		return Holiday{}, Holiday{}, err
	}
	return before, after, nil
}

func (s *Service) Delete(ctx context.Context, id string) (Holiday, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return Holiday{}, err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return Holiday{}, err
	}
	return existing, nil
}

// Check reports both holiday reasons for a single day.
func (s *Service) Check(ctx context.Context, date time.Time) (CheckResponse, error) {
	res, err := s.resolver.Check(ctx, date)
	if s.recorder != nil {
		s.recorder.RecordHolidayCheck(res.IsHoliday, err)
	}
	if err != nil {
		s.log.Warn("holiday check failed", zap.Time("date", date), zap.Error(err))
		return CheckResponse{}, err
	}
	return CheckResponse{
		Date:      date.Format("2006-01-02"),
		IsHoliday: res.IsHoliday,
		Reasons: Reasons{
			FixedWeeklyThuFri: res.FixedWeekly,
			OfficialRange:     res.OfficialRange,
		},
	}, nil
}

// StartingOn lists holidays whose first day is the UTC calendar day of t.
func (s *Service) StartingOn(ctx context.Context, t time.Time) ([]Holiday, error) {
	from, to := calendar.DayBounds(t)
	return s.store.StartingBetween(ctx, from, to)
}
