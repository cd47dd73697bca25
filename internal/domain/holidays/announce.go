package holidays

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"leavemgmt/internal/domain/calendar"
)

type UserDirectory interface {
	AllIDs(ctx context.Context) ([]string, error)
}

type HolidayNotifier interface {
	NotifyHoliday(ctx context.Context, userIDs []string, name, message string, start, end time.Time) (int, error)
}

// AnnouncementLedger remembers which holiday was announced for which day,
// so repeated runs on the same day send nothing new.
type AnnouncementLedger interface {
	// ClaimAnnouncement reports false when the pair was already claimed.
	ClaimAnnouncement(ctx context.Context, holidayID string, day time.Time) (bool, error)
	ReleaseAnnouncement(ctx context.Context, holidayID string, day time.Time) error
}

// Announcer notifies every user about official holidays that start the
// day after the run.
type Announcer struct {
	holidays *Service
	ledger   AnnouncementLedger
	users    UserDirectory
	notifier HolidayNotifier
	log      *zap.Logger
}

func NewAnnouncer(holidays *Service, ledger AnnouncementLedger, users UserDirectory, notifier HolidayNotifier, logger *zap.Logger) *Announcer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Announcer{holidays: holidays, ledger: ledger, users: users, notifier: notifier, log: logger.Named("holidays.announcer")}
}

type AnnounceReport struct {
	Day           string   `json:"day"`
	Holidays      []string `json:"holidays"`
	Skipped       []string `json:"skipped"`
	Notifications int      `json:"notifications"`
}

func (a *Announcer) Run(ctx context.Context, now time.Time) (AnnounceReport, error) {
	tomorrow := now.UTC().AddDate(0, 0, 1)
	report := AnnounceReport{Day: tomorrow.Format("2006-01-02"), Holidays: []string{}, Skipped: []string{}}
	day, _ := calendar.DayBounds(tomorrow)

	upcoming, err := a.holidays.StartingOn(ctx, tomorrow)
	if err != nil {
		return report, fmt.Errorf("load upcoming holidays: %w", err)
	}
	if len(upcoming) == 0 {
		return report, nil
	}

	ids, err := a.users.AllIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("load users: %w", err)
	}

	for _, h := range upcoming {
		claimed, err := a.ledger.ClaimAnnouncement(ctx, h.ID, day)
		if err != nil {
			return report, fmt.Errorf("claim announcement: %w", err)
		}
		if !claimed {
			report.Skipped = append(report.Skipped, h.ID)
			continue
		}
		sent, err := a.notifier.NotifyHoliday(ctx, ids, h.Name, h.Message, h.StartDate, h.EndDate)
		report.Notifications += sent
		if err != nil {
			if sent == 0 {
				if rerr := a.ledger.ReleaseAnnouncement(ctx, h.ID, day); rerr != nil {
					a.log.Warn("announcement release failed", zap.String("holiday_id", h.ID), zap.Error(rerr))
				}
			}
			return report, err
		}
		report.Holidays = append(report.Holidays, h.ID)
	}
	a.log.Info("holiday announcements sent",
		zap.String("day", report.Day),
		zap.Int("holidays", len(report.Holidays)),
		zap.Int("notifications", report.Notifications))
	return report, nil
}
