package calendar

import (
	"context"
	"errors"
	"time"
)

// HolidayLookup is the read-only query surface over stored holiday ranges.
// ExistsOverlapping reports whether any range satisfies
// start_date <= to AND end_date >= from.
type HolidayLookup interface {
	ExistsOverlapping(ctx context.Context, from, to time.Time) (bool, error)
}

// RangeLookup is optionally implemented by a HolidayLookup that can return
// every stored range overlapping [from, to] in one query.
type RangeLookup interface {
	OverlappingRanges(ctx context.Context, from, to time.Time) ([]DateRange, error)
}

type Result struct {
	Date          time.Time `json:"date"`
	IsHoliday     bool      `json:"isHoliday"`
	FixedWeekly   bool      `json:"fixedWeekly"`
	OfficialRange bool      `json:"officialRange"`
}

type Resolver struct {
	weekly  WeeklyRule
	lookup  HolidayLookup
	timeout time.Duration
}

type Option func(*Resolver)

// WithLookupTimeout bounds every storage lookup. Zero leaves the caller's
// context as the only deadline.
func WithLookupTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewResolver(lookup HolidayLookup, weekly WeeklyRule, opts ...Option) *Resolver {
	r := &Resolver{weekly: weekly, lookup: lookup}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Weekly() WeeklyRule {
	return r.weekly
}

func (r *Resolver) IsFixedWeeklyHoliday(date time.Time) bool {
	return r.weekly.IsFixedWeeklyHoliday(date)
}

// IsOfficialHoliday checks date's UTC day against the stored ranges. Any
// lookup failure, cancellation included, surfaces as StorageUnavailable and
// never as false.
func (r *Resolver) IsOfficialHoliday(ctx context.Context, date time.Time) (bool, error) {
	if date.IsZero() {
		return false, nil
	}
	from, to := DayBounds(date)
	var found bool
	err := r.withLookup(ctx, func(ctx context.Context) error {
		var err error
		found, err = r.lookup.ExistsOverlapping(ctx, from, to)
		return err
	})
	return found, err
}

// withLookup runs fn under the lookup timeout and classifies every failure
// as StorageUnavailable.
func (r *Resolver) withLookup(ctx context.Context, fn func(context.Context) error) error {
	if r.lookup == nil {
		return storageUnavailable(errors.New("no holiday lookup configured"))
	}
	if err := ctx.Err(); err != nil {
		return storageUnavailable(err)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if err := fn(ctx); err != nil {
		return storageUnavailable(err)
	}
	if err := ctx.Err(); err != nil {
		return storageUnavailable(err)
	}
	return nil
}

// IsHoliday runs the weekly rule first so weekday hits never reach storage.
func (r *Resolver) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	if r.IsFixedWeeklyHoliday(date) {
		return true, nil
	}
	return r.IsOfficialHoliday(ctx, date)
}

// Check evaluates both rules and keeps the individual reasons.
func (r *Resolver) Check(ctx context.Context, date time.Time) (Result, error) {
	res := Result{Date: date, FixedWeekly: r.IsFixedWeeklyHoliday(date)}
	official, err := r.IsOfficialHoliday(ctx, date)
	if err != nil {
		return Result{}, err
	}
	res.OfficialRange = official
	res.IsHoliday = res.FixedWeekly || res.OfficialRange
	return res, nil
}

// HolidaysIn returns the days of rng that are holidays for either reason.
// Ranges longer than MaxSpanDays fail with ErrSpanTooLong. When the lookup
// implements RangeLookup the stored ranges are read once for the whole span.
func (r *Resolver) HolidaysIn(ctx context.Context, rng DateRange) ([]time.Time, error) {
	if _, err := rng.CheckSpan(MaxSpanDays); err != nil {
		return nil, err
	}
	days := rng.Days()

	lister, ok := r.lookup.(RangeLookup)
	if !ok {
		var out []time.Time
		for _, day := range days {
			holiday, err := r.IsHoliday(ctx, day)
			if err != nil {
				return nil, err
			}
			if holiday {
				out = append(out, day)
			}
		}
		return out, nil
	}

	from, _ := DayBounds(days[0])
	_, to := DayBounds(days[len(days)-1])
	var stored []DateRange
	err := r.withLookup(ctx, func(ctx context.Context) error {
		var err error
		stored, err = lister.OverlappingRanges(ctx, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	var out []time.Time
	for _, day := range days {
		if r.IsFixedWeeklyHoliday(day) || coveredBy(stored, day) {
			out = append(out, day)
		}
	}
	return out, nil
}

func coveredBy(ranges []DateRange, day time.Time) bool {
	start, end := DayBounds(day)
	whole := DateRange{Start: start, End: end}
	for _, rng := range ranges {
		if rng.Overlaps(whole) {
			return true
		}
	}
	return false
}
