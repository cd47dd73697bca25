package leave

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"leavemgmt/internal/domain/notifications"
	"leavemgmt/internal/domain/users"
)

type memoryStore struct {
	mu        sync.Mutex
	requests  map[string]LeaveRequest
	types     map[string]LeaveType
	creates   int
	dupFirst  int
	createErr error
	// afterGet runs once, outside the lock, after the next GetRequest.
	afterGet func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{requests: map[string]LeaveRequest{}, types: map[string]LeaveType{}}
}

func (m *memoryStore) CreateRequest(_ context.Context, r LeaveRequest) (LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return LeaveRequest{}, m.createErr
	}
	if m.dupFirst > 0 {
		m.dupFirst--
		return LeaveRequest{}, ErrDuplicateRequestNo
	}
	m.requests[r.RequestNo] = r
	return r, nil
}

func (m *memoryStore) GetRequest(_ context.Context, no string) (LeaveRequest, error) {
	m.mu.Lock()
	r, ok := m.requests[no]
	hook := m.afterGet
	m.afterGet = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !ok {
		return LeaveRequest{}, ErrNotFound
	}
	return r, nil
}

func (m *memoryStore) UpdateRequestDetails(_ context.Context, r LeaveRequest, expectedStatus string) (LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.requests[r.RequestNo]
	if !ok {
		return LeaveRequest{}, ErrNotFound
	}
	if cur.Status != expectedStatus {
		return LeaveRequest{}, ErrNotPending
	}
	r.Status, r.ProcessingDate, r.ProcessedBy, r.ReasonForRejection = cur.Status, cur.ProcessingDate, cur.ProcessedBy, cur.ReasonForRejection
	m.requests[r.RequestNo] = r
	return r, nil
}

func (m *memoryStore) DecideRequest(_ context.Context, no string, d Decision) (LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[no]
	if !ok {
		return LeaveRequest{}, ErrNotFound
	}
	if r.Status != StatusPending {
		return LeaveRequest{}, ErrNotPending
	}
	at := d.ProcessingDate
	r.Status, r.ProcessingDate, r.ProcessedBy, r.ReasonForRejection = d.Status, &at, d.ProcessedBy, d.ReasonForRejection
	m.requests[no] = r
	return r, nil
}

func (m *memoryStore) DeleteRequest(_ context.Context, no string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[no]; !ok {
		return ErrNotFound
	}
	delete(m.requests, no)
	return nil
}

func (m *memoryStore) filtered(f RequestFilter) []LeaveRequest {
	var out []LeaveRequest
	for _, r := range m.requests {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.Department != "" && !strings.EqualFold(r.Department, f.Department) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestDate.After(out[j].RequestDate) })
	return out
}

func (m *memoryStore) ListRequests(_ context.Context, f RequestFilter, limit, offset int) ([]LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.filtered(f)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *memoryStore) CountRequests(_ context.Context, f RequestFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.filtered(f)), nil
}

func (m *memoryStore) CreateType(_ context.Context, t LeaveType) (LeaveType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = "lt-" + strings.ToLower(strings.ReplaceAll(t.Name, " ", "-"))
	m.types[t.ID] = t
	return t, nil
}

func (m *memoryStore) GetType(_ context.Context, id string) (LeaveType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.types[id]
	if !ok {
		return LeaveType{}, ErrTypeNotFound
	}
	return t, nil
}

func (m *memoryStore) FindType(_ context.Context, idOrName string) (LeaveType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.types[idOrName]; ok {
		return t, nil
	}
	for _, t := range m.types {
		if strings.EqualFold(t.Name, idOrName) {
			return t, nil
		}
	}
	return LeaveType{}, ErrTypeNotFound
}

func (m *memoryStore) UpdateType(_ context.Context, t LeaveType) (LeaveType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[t.ID] = t
	return t, nil
}

func (m *memoryStore) DeleteType(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.types[id]; !ok {
		return ErrTypeNotFound
	}
	delete(m.types, id)
	return nil
}

func (m *memoryStore) ListTypes(context.Context) ([]LeaveType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LeaveType, 0, len(m.types))
	for _, t := range m.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type staticDirectory map[string][2]string

func (d staticDirectory) DisplayInfo(_ context.Context, userID string) (string, string, error) {
	info, ok := d[userID]
	if !ok {
		return "", "", users.ErrNotFound
	}
	return info[0], info[1], nil
}

type consumptionCall struct {
	userID, requestNo, typeID string
	days                      int
}

type recordingConsumption struct {
	calls []consumptionCall
	err   error
}

func (r *recordingConsumption) RecordConsumption(_ context.Context, userID, requestNo, typeID string, days int) error {
	r.calls = append(r.calls, consumptionCall{userID, requestNo, typeID, days})
	return r.err
}

type recordingNotifier struct {
	decisions []notifications.LeaveDecision
}

func (r *recordingNotifier) NotifyLeaveDecision(_ context.Context, d notifications.LeaveDecision) error {
	r.decisions = append(r.decisions, d)
	return nil
}

type rangeLookup struct {
	ranges [][2]time.Time
}

func (l rangeLookup) ExistsOverlapping(_ context.Context, from, to time.Time) (bool, error) {
	for _, r := range l.ranges {
		if !r[0].After(to) && !r[1].Before(from) {
			return true, nil
		}
	}
	return false, nil
}
