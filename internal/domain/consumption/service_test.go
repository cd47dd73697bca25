package consumption

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	records map[string]Record
	seq     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]Record{}}
}

func (f *fakeStore) Create(_ context.Context, r Record) (Record, error) {
	f.seq++
	r.ID = fmt.Sprintf("c%d", f.seq)
	f.records[r.ID] = r
	return r, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (Record, error) {
	r, ok := f.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) Update(_ context.Context, r Record) (Record, error) {
	f.records[r.ID] = r
	return r, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStore) List(_ context.Context, filter Filter) ([]Record, error) {
	var out []Record
	for _, r := range f.records {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, Record{UserID: "u1", LeaveRequestID: "LR-1", LeaveTypeID: "annual", DaysConsumed: 0})
	assert.ErrorIs(t, err, ErrInvalidDays)

	_, err = svc.Create(ctx, Record{UserID: "u1", DaysConsumed: 2})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestCreateDefaultsDateRecorded(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	fixed := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	r, err := svc.Create(context.Background(), Record{UserID: "u1", LeaveRequestID: "LR-1", LeaveTypeID: "annual", DaysConsumed: 3})
	require.NoError(t, err)
	assert.Equal(t, fixed, r.DateRecorded)
}

func TestRecordConsumptionAndUpdate(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	require.NoError(t, svc.RecordConsumption(ctx, "u1", "LR-1", "annual", 4))
	list, err := svc.List(ctx, Filter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 4, list[0].DaysConsumed)

	zero := 0
	_, err = svc.Update(ctx, list[0].ID, Patch{DaysConsumed: &zero})
	assert.ErrorIs(t, err, ErrInvalidDays)

	five := 5
	updated, err := svc.Update(ctx, list[0].ID, Patch{DaysConsumed: &five})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.DaysConsumed)

	require.NoError(t, svc.Delete(ctx, list[0].ID))
	assert.ErrorIs(t, svc.Delete(ctx, list[0].ID), ErrNotFound)
}
