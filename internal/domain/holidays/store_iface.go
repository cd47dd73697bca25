package holidays

import (
	"context"
	"time"

	"leavemgmt/internal/domain/calendar"
)

type StoreAPI interface {
	calendar.HolidayLookup
	Create(ctx context.Context, h Holiday) (Holiday, error)
	Get(ctx context.Context, id string) (Holiday, error)
	Update(ctx context.Context, h Holiday) (Holiday, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Holiday, error)
	StartingBetween(ctx context.Context, from, to time.Time) ([]Holiday, error)
}

var (
	_ StoreAPI             = (*Store)(nil)
	_ calendar.RangeLookup = (*Store)(nil)
	_ AnnouncementLedger   = (*Store)(nil)
)
