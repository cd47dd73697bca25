package holidays

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavemgmt/internal/domain/calendar"
)

type memoryStore struct {
	mu        sync.Mutex
	items     map[string]Holiday
	seq       int
	lookupErr error
	announced map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: map[string]Holiday{}, announced: map[string]bool{}}
}

func announceKey(id string, day time.Time) string {
	return id + "@" + day.UTC().Format("2006-01-02")
}

func (m *memoryStore) ClaimAnnouncement(_ context.Context, id string, day time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := announceKey(id, day)
	if m.announced[key] {
		return false, nil
	}
	m.announced[key] = true
	return true, nil
}

func (m *memoryStore) ReleaseAnnouncement(_ context.Context, id string, day time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.announced, announceKey(id, day))
	return nil
}

func (m *memoryStore) ExistsOverlapping(_ context.Context, from, to time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	for _, h := range m.items {
		if !h.StartDate.After(to) && !h.EndDate.Before(from) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) Create(_ context.Context, h Holiday) (Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	h.ID = fmt.Sprintf("h%d", m.seq)
	m.items[h.ID] = h
	return h, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.items[id]
	if !ok {
		return Holiday{}, ErrNotFound
	}
	return h, nil
}

func (m *memoryStore) Update(_ context.Context, h Holiday) (Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[h.ID] = h
	return h, nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memoryStore) List(context.Context) ([]Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Holiday, 0, len(m.items))
	for _, h := range m.items {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (m *memoryStore) StartingBetween(_ context.Context, from, to time.Time) ([]Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Holiday
	for _, h := range m.items {
		if !h.StartDate.Before(from) && !h.StartDate.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

type countingRecorder struct {
	checks, failures int
}

func (c *countingRecorder) RecordHolidayCheck(_ bool, err error) {
	c.checks++
	if err != nil {
		c.failures++
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newService(store *memoryStore, rec CheckRecorder) *Service {
	resolver := calendar.NewResolver(store, calendar.DefaultWeeklyRule())
	return NewService(store, resolver, rec, nil)
}

func TestCreateValidatesRange(t *testing.T) {
	svc := newService(newMemoryStore(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, Holiday{Name: "Backwards", StartDate: day(2025, 10, 7), EndDate: day(2025, 10, 6)})
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)

	_, err = svc.Create(ctx, Holiday{Name: "  ", StartDate: day(2025, 10, 6), EndDate: day(2025, 10, 6)})
	assert.ErrorIs(t, err, ErrNameRequired)

	h, err := svc.Create(ctx, Holiday{Name: " Armed Forces Day ", StartDate: day(2025, 10, 6), EndDate: day(2025, 10, 6)})
	require.NoError(t, err)
	assert.Equal(t, "Armed Forces Day", h.Name)
}

func TestUpdateRevalidatesMergedRange(t *testing.T) {
	svc := newService(newMemoryStore(), nil)
	ctx := context.Background()
	h, err := svc.Create(ctx, Holiday{Name: "Eid", StartDate: day(2025, 6, 5), EndDate: day(2025, 6, 8)})
	require.NoError(t, err)

	early := day(2025, 6, 1)
	_, _, err = svc.Update(ctx, h.ID, Patch{EndDate: &early})
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)

	later := day(2025, 6, 9)
	before, after, err := svc.Update(ctx, h.ID, Patch{EndDate: &later})
	require.NoError(t, err)
	assert.Equal(t, day(2025, 6, 8), before.EndDate)
	assert.Equal(t, later, after.EndDate)

	_, _, err = svc.Update(ctx, "missing", Patch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckReasons(t *testing.T) {
	store := newMemoryStore()
	rec := &countingRecorder{}
	svc := newService(store, rec)
	ctx := context.Background()
	_, err := svc.Create(ctx, Holiday{Name: "Armed Forces Day", StartDate: day(2025, 10, 6), EndDate: day(2025, 10, 6)})
	require.NoError(t, err)

	res, err := svc.Check(ctx, day(2025, 10, 6))
	require.NoError(t, err)
	assert.Equal(t, CheckResponse{Date: "2025-10-06", IsHoliday: true, Reasons: Reasons{OfficialRange: true}}, res)

	res, err = svc.Check(ctx, day(2025, 9, 18))
	require.NoError(t, err)
	assert.True(t, res.IsHoliday)
	assert.True(t, res.Reasons.FixedWeeklyThuFri)
	assert.False(t, res.Reasons.OfficialRange)

	res, err = svc.Check(ctx, day(2025, 10, 13))
	require.NoError(t, err)
	assert.False(t, res.IsHoliday)

	assert.Equal(t, 3, rec.checks)
}

func TestCheckStorageFailure(t *testing.T) {
	store := newMemoryStore()
	store.lookupErr = errors.New("connection refused")
	rec := &countingRecorder{}
	svc := newService(store, rec)

	_, err := svc.Check(context.Background(), day(2025, 10, 13))
	assert.ErrorIs(t, err, calendar.ErrStorageUnavailable)
	assert.Equal(t, 1, rec.failures)
}

func TestDeleteReturnsRemoved(t *testing.T) {
	svc := newService(newMemoryStore(), nil)
	ctx := context.Background()
	h, err := svc.Create(ctx, Holiday{Name: "Eid", StartDate: day(2025, 6, 5), EndDate: day(2025, 6, 8)})
	require.NoError(t, err)

	removed, err := svc.Delete(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Eid", removed.Name)

	_, err = svc.Delete(ctx, h.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

type staticUsers []string

func (s staticUsers) AllIDs(context.Context) ([]string, error) { return s, nil }

type recordingNotifier struct {
	calls []string
	err   error
}

func (r *recordingNotifier) NotifyHoliday(_ context.Context, ids []string, name, _ string, _, _ time.Time) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.calls = append(r.calls, name)
	return len(ids), nil
}

func TestAnnouncerNotifiesTomorrowsHolidays(t *testing.T) {
	store := newMemoryStore()
	svc := newService(store, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, Holiday{Name: "Armed Forces Day", StartDate: day(2025, 10, 6), EndDate: day(2025, 10, 6)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Holiday{Name: "Later", StartDate: day(2025, 10, 20), EndDate: day(2025, 10, 21)})
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	a := NewAnnouncer(svc, store, staticUsers{"u1", "u2", "u3"}, notifier, nil)

	report, err := a.Run(ctx, time.Date(2025, 10, 5, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-10-06", report.Day)
	assert.Equal(t, 3, report.Notifications)
	assert.Equal(t, []string{"Armed Forces Day"}, notifier.calls)

	report, err = a.Run(ctx, time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, report.Notifications)
	assert.Empty(t, report.Holidays)
}

func TestAnnouncerSendsOncePerDay(t *testing.T) {
	store := newMemoryStore()
	svc := newService(store, nil)
	ctx := context.Background()
	h, err := svc.Create(ctx, Holiday{Name: "Armed Forces Day", StartDate: day(2025, 10, 6), EndDate: day(2025, 10, 6)})
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	a := NewAnnouncer(svc, store, staticUsers{"u1", "u2"}, notifier, nil)
	now := time.Date(2025, 10, 5, 9, 0, 0, 0, time.UTC)

	first, err := a.Run(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Notifications)
	assert.Equal(t, []string{h.ID}, first.Holidays)

	// A restart later the same day must not announce again.
	second, err := a.Run(ctx, now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, second.Notifications)
	assert.Empty(t, second.Holidays)
	assert.Equal(t, []string{h.ID}, second.Skipped)
	assert.Equal(t, []string{"Armed Forces Day"}, notifier.calls)
}

func TestAnnouncerRetriesAfterFailedSend(t *testing.T) {
	store := newMemoryStore()
	svc := newService(store, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, Holiday{Name: "Armed Forces Day", StartDate: day(2025, 10, 6), EndDate: day(2025, 10, 6)})
	require.NoError(t, err)

	notifier := &recordingNotifier{err: errors.New("smtp down")}
	a := NewAnnouncer(svc, store, staticUsers{"u1"}, notifier, nil)
	now := time.Date(2025, 10, 5, 9, 0, 0, 0, time.UTC)

	_, err = a.Run(ctx, now)
	require.Error(t, err)

	notifier.err = nil
	report, err := a.Run(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Notifications)
	assert.Equal(t, []string{"Armed Forces Day"}, notifier.calls)
}
