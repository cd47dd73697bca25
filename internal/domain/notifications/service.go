package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("notification not found")
	ErrEmptyMessage = errors.New("message is required")
	ErrUserNotFound = errors.New("notification recipient not found")
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
	log         *zap.Logger
}

func New(store StoreAPI, mailer Mailer, from string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if from == "" {
		from = "no-reply@example.com"
	}
	return &Service{store: store, Mailer: mailer, DefaultFrom: from, log: logger.Named("notifications")}
}

func (s *Service) Create(ctx context.Context, userID, message string) (Notification, error) {
	return s.create(ctx, userID, "", message)
}

func (s *Service) create(ctx context.Context, userID, subject, message string) (Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Notification{}, ErrEmptyMessage
	}
	n, err := s.store.Create(ctx, userID, message)
	if err != nil {
		return Notification{}, err
	}
	s.mail(ctx, userID, subject, message)
	return n, nil
}

// mail is best effort: the stored notification is the source of truth.
func (s *Service) mail(ctx context.Context, userID, subject, body string) {
	if s.Mailer == nil {
		return
	}
	if subject == "" {
		subject = "Notification"
	}
	to, err := s.store.UserEmail(ctx, userID)
	if err != nil {
		s.log.Warn("notification email lookup failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if to == "" {
		return
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, to, subject, body); err != nil {
		s.log.Warn("notification email send failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *Service) Get(ctx context.Context, id string) (Notification, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListForUser(ctx context.Context, userID string, f ListFilter) ([]Notification, error) {
	return s.store.ListForUser(ctx, userID, f)
}

func (s *Service) MarkRead(ctx context.Context, id string) (Notification, error) {
	read := true
	return s.store.Update(ctx, id, Patch{IsRead: &read})
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (Notification, error) {
	if p.Message != nil {
		trimmed := strings.TrimSpace(*p.Message)
		if trimmed == "" {
			return Notification{}, ErrEmptyMessage
		}
		p.Message = &trimmed
	}
	return s.store.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

type LeaveDecision struct {
	UserID    string
	RequestNo string
	LeaveType string
	Start     time.Time
	End       time.Time
	Approved  bool
	Reason    string
}

func (s *Service) NotifyLeaveDecision(ctx context.Context, d LeaveDecision) error {
	format := msgLeaveRejected
	if d.Approved {
		format = msgLeaveApproved
	}
	msg := fmt.Sprintf(format, d.LeaveType, d.RequestNo, d.Start.Format(dateLayout), d.End.Format(dateLayout))
	if !d.Approved && strings.TrimSpace(d.Reason) != "" {
		msg += fmt.Sprintf(msgRejectionReason, strings.TrimSpace(d.Reason))
	}
	_, err := s.create(ctx, d.UserID, subjectLeaveDecision, msg)
	return err
}

// NotifyHoliday tells userIDs about a holiday. A custom message replaces
// the generated text. It returns how many notifications were stored.
func (s *Service) NotifyHoliday(ctx context.Context, userIDs []string, name, message string, start, end time.Time) (int, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = fmt.Sprintf(msgHolidayAnnounced, name, start.Format(dateLayout), end.Format(dateLayout))
	}
	sent := 0
	for _, id := range userIDs {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if _, err := s.create(ctx, id, subjectHoliday, msg); err != nil {
			return sent, fmt.Errorf("notify %s: %w", id, err)
		}
		sent++
	}
	return sent, nil
}
