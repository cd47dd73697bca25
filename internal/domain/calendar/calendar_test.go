package calendar

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLookup struct {
	mu     sync.Mutex
	ranges []DateRange
	err    error
	calls  int
	block  bool
}

func (m *memoryLookup) ExistsOverlapping(ctx context.Context, from, to time.Time) (bool, error) {
	m.mu.Lock()
	m.calls++
	ranges, err, block := m.ranges, m.err, m.block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return false, ctx.Err()
	}
	if err != nil {
		return false, err
	}
	for _, rng := range ranges {
		if !rng.Start.After(to) && !rng.End.Before(from) {
			return true, nil
		}
	}
	return false, nil
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestInclusiveDayCount(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"single day", day(2025, 9, 15), day(2025, 9, 15), 1},
		{"three days", day(2025, 9, 15), day(2025, 9, 17), 3},
		{"partial day rounds up", day(2025, 9, 15), day(2025, 9, 15).Add(2 * time.Hour), 2},
		{"month boundary", day(2025, 1, 30), day(2025, 2, 2), 4},
		{"sub-second past midnight", day(2025, 9, 15), day(2025, 9, 16).Add(time.Millisecond), 3},
		{"whole calendar", day(1, 1, 1), day(9999, 12, 31), 3652059},
		{"past duration range", day(1700, 1, 1), day(2025, 1, 1), 118705},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InclusiveDayCount(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInclusiveDayCountInvalidRange(t *testing.T) {
	days, err := InclusiveDayCount(day(2025, 9, 17), day(2025, 9, 15))
	require.Error(t, err)
	assert.Zero(t, days)
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Equal(t, KindInvalidRange, KindOf(err))
	assert.Equal(t, "End date must be after start date", err.Error())
}

func TestInclusiveDayCountIsAtLeastOne(t *testing.T) {
	start := day(2024, 12, 20)
	for offset := 0; offset < 60; offset++ {
		days, err := InclusiveDayCount(start, start.AddDate(0, 0, offset))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, days, 1)
		assert.Equal(t, offset+1, days)
	}
}

func TestCheckSpan(t *testing.T) {
	days, err := DateRange{Start: day(2024, 1, 1), End: day(2024, 12, 31)}.CheckSpan(MaxSpanDays)
	require.NoError(t, err)
	assert.Equal(t, 366, days)

	_, err = DateRange{Start: day(2025, 1, 1), End: day(2026, 1, 2)}.CheckSpan(MaxSpanDays)
	assert.ErrorIs(t, err, ErrSpanTooLong)
	assert.Equal(t, KindSpanTooLong, KindOf(err))

	_, err = DateRange{Start: day(2025, 1, 2), End: day(2025, 1, 1)}.CheckSpan(MaxSpanDays)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	from, to := DayBounds(time.Date(2025, 3, 31, 1, 30, 0, 0, loc))

	assert.Equal(t, time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 3, 30, 23, 59, 59, 999000000, time.UTC), to)
}

func TestDateRangeDays(t *testing.T) {
	days := DateRange{Start: day(2025, 3, 30), End: day(2025, 4, 2)}.Days()
	require.Len(t, days, 4)
	assert.Equal(t, day(2025, 3, 30), days[0])
	assert.Equal(t, day(2025, 4, 2), days[3])

	assert.Nil(t, DateRange{Start: day(2025, 4, 2), End: day(2025, 3, 30)}.Days())
}

func TestWeeklyRuleDefault(t *testing.T) {
	rule := DefaultWeeklyRule()
	start := day(2025, 9, 14) // Sunday
	for i := 0; i < 14; i++ {
		d := start.AddDate(0, 0, i)
		want := d.Weekday() == time.Thursday || d.Weekday() == time.Friday
		assert.Equal(t, want, rule.IsFixedWeeklyHoliday(d), d.Weekday().String())
	}
	assert.False(t, rule.IsFixedWeeklyHoliday(time.Time{}))
}

func TestParseWeeklyRule(t *testing.T) {
	rule, err := ParseWeeklyRule("4, 5")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Thursday, time.Friday}, rule.Weekdays())
	assert.Equal(t, "4,5", rule.String())

	rule, err = ParseWeeklyRule("sat,Sunday")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, rule.Weekdays())

	rule, err = ParseWeeklyRule("")
	require.NoError(t, err)
	assert.Empty(t, rule.Weekdays())

	_, err = ParseWeeklyRule("7")
	assert.Error(t, err)
	_, err = ParseWeeklyRule("funday")
	assert.Error(t, err)
}

func TestResolverThursdayWithoutStoredHoliday(t *testing.T) {
	lookup := &memoryLookup{}
	resolver := NewResolver(lookup, DefaultWeeklyRule())
	ctx := context.Background()
	thursday := day(2025, 9, 18)

	assert.True(t, resolver.IsFixedWeeklyHoliday(thursday))

	official, err := resolver.IsOfficialHoliday(ctx, thursday)
	require.NoError(t, err)
	assert.False(t, official)

	holiday, err := resolver.IsHoliday(ctx, thursday)
	require.NoError(t, err)
	assert.True(t, holiday)
}

func TestResolverIsHolidayShortCircuitsWeeklyRule(t *testing.T) {
	lookup := &memoryLookup{err: errors.New("db down")}
	resolver := NewResolver(lookup, DefaultWeeklyRule())

	holiday, err := resolver.IsHoliday(context.Background(), day(2025, 9, 19))
	require.NoError(t, err)
	assert.True(t, holiday)
	assert.Zero(t, lookup.calls)
}

func TestResolverOfficialRangeInclusive(t *testing.T) {
	lookup := &memoryLookup{ranges: []DateRange{{Start: day(2025, 3, 30), End: day(2025, 4, 2)}}}
	resolver := NewResolver(lookup, DefaultWeeklyRule())
	ctx := context.Background()

	for _, d := range []time.Time{day(2025, 3, 30), day(2025, 3, 31), day(2025, 4, 2), day(2025, 4, 2).Add(23 * time.Hour)} {
		official, err := resolver.IsOfficialHoliday(ctx, d)
		require.NoError(t, err)
		assert.True(t, official, d.String())
	}

	for _, d := range []time.Time{day(2025, 3, 29), day(2025, 4, 3)} {
		official, err := resolver.IsOfficialHoliday(ctx, d)
		require.NoError(t, err)
		assert.False(t, official, d.String())
	}
}

func TestResolverMondayOutsideRanges(t *testing.T) {
	resolver := NewResolver(&memoryLookup{}, DefaultWeeklyRule())
	monday := day(2025, 3, 31)

	holiday, err := resolver.IsHoliday(context.Background(), monday)
	require.NoError(t, err)
	assert.False(t, holiday)
}

func TestResolverCheckKeepsReasons(t *testing.T) {
	lookup := &memoryLookup{ranges: []DateRange{{Start: day(2025, 3, 30), End: day(2025, 4, 2)}}}
	resolver := NewResolver(lookup, DefaultWeeklyRule())

	res, err := resolver.Check(context.Background(), day(2025, 3, 31))
	require.NoError(t, err)
	assert.True(t, res.IsHoliday)
	assert.False(t, res.FixedWeekly)
	assert.True(t, res.OfficialRange)

	res, err = resolver.Check(context.Background(), day(2025, 9, 18))
	require.NoError(t, err)
	assert.True(t, res.IsHoliday)
	assert.True(t, res.FixedWeekly)
	assert.False(t, res.OfficialRange)
}

func TestResolverStorageErrorIsNotFalse(t *testing.T) {
	lookup := &memoryLookup{err: errors.New("connection refused")}
	resolver := NewResolver(lookup, DefaultWeeklyRule())

	_, err := resolver.IsOfficialHoliday(context.Background(), day(2025, 3, 31))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = resolver.Check(context.Background(), day(2025, 3, 31))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestResolverCancellationIsStorageUnavailable(t *testing.T) {
	resolver := NewResolver(&memoryLookup{}, DefaultWeeklyRule())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := resolver.IsOfficialHoliday(ctx, day(2025, 3, 31))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolverLookupTimeout(t *testing.T) {
	resolver := NewResolver(&memoryLookup{block: true}, DefaultWeeklyRule(), WithLookupTimeout(20*time.Millisecond))

	_, err := resolver.IsOfficialHoliday(context.Background(), day(2025, 3, 31))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolverInvalidDateIsNotHoliday(t *testing.T) {
	lookup := &memoryLookup{err: errors.New("must not be called")}
	resolver := NewResolver(lookup, DefaultWeeklyRule())

	official, err := resolver.IsOfficialHoliday(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.False(t, official)
	assert.False(t, resolver.IsFixedWeeklyHoliday(time.Time{}))
	assert.Zero(t, lookup.calls)
}

func TestResolverWithoutLookup(t *testing.T) {
	resolver := NewResolver(nil, DefaultWeeklyRule())
	_, err := resolver.IsOfficialHoliday(context.Background(), day(2025, 3, 31))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestResolverIsIdempotent(t *testing.T) {
	lookup := &memoryLookup{ranges: []DateRange{{Start: day(2025, 3, 30), End: day(2025, 4, 2)}}}
	resolver := NewResolver(lookup, DefaultWeeklyRule())
	ctx := context.Background()

	first, err := resolver.IsHoliday(ctx, day(2025, 4, 1))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := resolver.IsHoliday(ctx, day(2025, 4, 1))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolverCustomWeeklyRule(t *testing.T) {
	resolver := NewResolver(&memoryLookup{}, NewWeeklyRule(time.Saturday, time.Sunday))

	assert.False(t, resolver.IsFixedWeeklyHoliday(day(2025, 9, 18)))
	assert.True(t, resolver.IsFixedWeeklyHoliday(day(2025, 9, 20)))
}

func TestResolverHolidaysIn(t *testing.T) {
	lookup := &memoryLookup{ranges: []DateRange{{Start: day(2025, 3, 30), End: day(2025, 4, 1)}}}
	resolver := NewResolver(lookup, DefaultWeeklyRule())

	// 2025-03-29 Sat .. 2025-04-04 Fri: official 30,31,1 plus Thu 3 and Fri 4.
	days, err := resolver.HolidaysIn(context.Background(), DateRange{Start: day(2025, 3, 29), End: day(2025, 4, 4)})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2025, 3, 30), day(2025, 3, 31), day(2025, 4, 1), day(2025, 4, 3), day(2025, 4, 4)}, days)

	_, err = resolver.HolidaysIn(context.Background(), DateRange{Start: day(2025, 4, 4), End: day(2025, 3, 29)})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

type listingLookup struct {
	memoryLookup
	listCalls int
}

func (l *listingLookup) OverlappingRanges(ctx context.Context, from, to time.Time) ([]DateRange, error) {
	l.mu.Lock()
	l.listCalls++
	ranges, err := l.ranges, l.err
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []DateRange
	for _, rng := range ranges {
		if rng.Overlaps(DateRange{Start: from, End: to}) {
			out = append(out, rng)
		}
	}
	return out, nil
}

func TestResolverHolidaysInReadsRangesOnce(t *testing.T) {
	lookup := &listingLookup{memoryLookup: memoryLookup{ranges: []DateRange{{Start: day(2025, 3, 30), End: day(2025, 4, 1)}}}}
	resolver := NewResolver(lookup, DefaultWeeklyRule())

	days, err := resolver.HolidaysIn(context.Background(), DateRange{Start: day(2025, 3, 29), End: day(2025, 4, 4)})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2025, 3, 30), day(2025, 3, 31), day(2025, 4, 1), day(2025, 4, 3), day(2025, 4, 4)}, days)
	assert.Equal(t, 1, lookup.listCalls)
	assert.Zero(t, lookup.calls)

	lookup.err = errors.New("connection refused")
	_, err = resolver.HolidaysIn(context.Background(), DateRange{Start: day(2025, 3, 29), End: day(2025, 4, 4)})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestResolverHolidaysInRejectsLongSpans(t *testing.T) {
	lookup := &listingLookup{}
	resolver := NewResolver(lookup, DefaultWeeklyRule())

	_, err := resolver.HolidaysIn(context.Background(), DateRange{Start: day(1, 1, 1), End: day(9999, 12, 31)})
	assert.ErrorIs(t, err, ErrSpanTooLong)
	assert.Zero(t, lookup.listCalls)

	_, err = resolver.HolidaysIn(context.Background(), DateRange{Start: day(2024, 1, 1), End: day(2024, 12, 31)})
	assert.NoError(t, err)
}

func TestResolverConcurrentCalls(t *testing.T) {
	lookup := &memoryLookup{ranges: []DateRange{{Start: day(2025, 3, 30), End: day(2025, 4, 2)}}}
	resolver := NewResolver(lookup, DefaultWeeklyRule())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			holiday, err := resolver.IsHoliday(context.Background(), day(2025, 3, 31))
			assert.NoError(t, err)
			assert.True(t, holiday)
		}()
	}
	wg.Wait()
}
