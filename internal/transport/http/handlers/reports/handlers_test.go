package reportshandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavemgmt/internal/domain/auth"
	"leavemgmt/internal/domain/leave"
	"leavemgmt/internal/domain/reports"
	"leavemgmt/internal/domain/users"
	"leavemgmt/internal/transport/http/middleware"
)

type stubStore struct {
	mu          sync.Mutex
	balanceUser string
	known       map[string]bool
	runs        []reports.JobRun
	jobFilter   reports.JobRunFilter
}

func (s *stubStore) UserBalances(_ context.Context, userID string) ([]users.LeaveBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balanceUser = userID
	if !s.known[userID] {
		return nil, reports.ErrUserNotFound
	}
	return []users.LeaveBalance{{LeaveTypeID: "annual", AvailableDays: 10}}, nil
}

func (s *stubStore) CountRequests(context.Context, string, string) (int, error) { return 1, nil }

func (s *stubStore) ApprovedDaysSince(context.Context, string, time.Time) (int, error) {
	return 4, nil
}

func (s *stubStore) UnreadNotifications(context.Context, string) (int, error) { return 2, nil }

func (s *stubStore) HolidaysStartingBetween(context.Context, time.Time, time.Time) (int, error) {
	return 1, nil
}

func (s *stubStore) RequestsByStatus(context.Context) (map[string]int, error) {
	return map[string]int{leave.StatusPending: 3, leave.StatusApproved: 5}, nil
}

func (s *stubStore) PendingByDepartment(context.Context) ([]reports.DepartmentCount, error) {
	return []reports.DepartmentCount{{Department: "Finance", Pending: 3}}, nil
}

func (s *stubStore) CountUsers(context.Context) (int, error)      { return 12, nil }
func (s *stubStore) CountLeaveTypes(context.Context) (int, error) { return 4, nil }

func (s *stubStore) ListJobRuns(_ context.Context, _ reports.JobRunFilter, limit, offset int) ([]reports.JobRun, error) {
	end := min(offset+limit, len(s.runs))
	if offset > end {
		return []reports.JobRun{}, nil
	}
	return s.runs[offset:end], nil
}

func (s *stubStore) CountJobRuns(_ context.Context, f reports.JobRunFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.Status != "failed" {
		s.jobFilter = f
	}
	return len(s.runs), nil
}

func (s *stubStore) JobRunByID(_ context.Context, id string) (reports.JobRun, error) {
	for _, r := range s.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return reports.JobRun{}, reports.ErrJobRunNotFound
}

var (
	admin    = auth.UserContext{UserID: "u-1", Username: "root", Role: auth.RoleAdmin}
	manager  = auth.UserContext{UserID: "u-9", Username: "omar", Role: auth.RoleManager}
	employee = auth.UserContext{UserID: "u-2", Username: "sara", Role: auth.RoleEmployee}
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newStub() *stubStore {
	started := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	return &stubStore{
		known: map[string]bool{employee.UserID: true, manager.UserID: true, admin.UserID: true},
		runs: []reports.JobRun{
			{ID: "run-1", JobType: "leave_accrual", Status: "completed", StartedAt: started},
			{ID: "run-2", JobType: "holiday_announce", Status: "failed", StartedAt: started.Add(time.Hour)},
		},
	}
}

func newRouter(t *testing.T, store *stubStore) http.Handler {
	t.Helper()
	perms, err := auth.NewEnforcer()
	require.NoError(t, err)
	r := chi.NewRouter()
	NewHandler(reports.NewService(store, nil), perms).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, user *auth.UserContext, method, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), *user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestDashboardAccessByRole(t *testing.T) {
	h := newRouter(t, newStub())

	cases := []struct {
		path     string
		employee int
		manager  int
		admin    int
	}{
		{path: "/reports/dashboard/employee", employee: http.StatusOK, manager: http.StatusOK, admin: http.StatusOK},
		{path: "/reports/dashboard/manager", employee: http.StatusForbidden, manager: http.StatusOK, admin: http.StatusOK},
		{path: "/reports/dashboard/admin", employee: http.StatusForbidden, manager: http.StatusForbidden, admin: http.StatusOK},
		{path: "/reports/jobs", employee: http.StatusForbidden, manager: http.StatusForbidden, admin: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(strings.TrimPrefix(tc.path, "/reports/"), func(t *testing.T) {
			rec, _ := do(t, h, &employee, http.MethodGet, tc.path)
			assert.Equal(t, tc.employee, rec.Code, "employee")
			rec, _ = do(t, h, &manager, http.MethodGet, tc.path)
			assert.Equal(t, tc.manager, rec.Code, "manager")
			rec, _ = do(t, h, &admin, http.MethodGet, tc.path)
			assert.Equal(t, tc.admin, rec.Code, "admin")
		})
	}

	rec, _ := do(t, h, nil, http.MethodGet, "/reports/dashboard/employee")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEmployeeDashboardUsesCaller(t *testing.T) {
	store := newStub()
	h := newRouter(t, store)

	rec, env := do(t, h, &employee, http.MethodGet, "/reports/dashboard/employee?user_id="+admin.UserID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, employee.UserID, store.balanceUser)
	var out reports.EmployeeDashboard
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 4, out.ApprovedDaysThisYear)

	ghost := auth.UserContext{UserID: "u-404", Username: "gone", Role: auth.RoleEmployee}
	rec, env = do(t, h, &ghost, http.MethodGet, "/reports/dashboard/employee")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user_not_found", env.Error.Code)
}

func TestManagerDashboard(t *testing.T) {
	h := newRouter(t, newStub())
	rec, env := do(t, h, &manager, http.MethodGet, "/reports/dashboard/manager")
	require.Equal(t, http.StatusOK, rec.Code)
	var out reports.ManagerDashboard
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 3, out.PendingApprovals)
	require.Len(t, out.ByDepartment, 1)
}

func TestJobRunListing(t *testing.T) {
	store := newStub()
	h := newRouter(t, store)

	rec, env := do(t, h, &admin, http.MethodGet, "/reports/jobs?job_type=leave_accrual&started_from=2025-09-01&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	var runs []reports.JobRun
	require.NoError(t, json.Unmarshal(env.Data, &runs))
	assert.Len(t, runs, 1)
	assert.Equal(t, "leave_accrual", store.jobFilter.JobType)
	require.NotNil(t, store.jobFilter.StartedFrom)
	assert.Equal(t, "2025-09-01", store.jobFilter.StartedFrom.Format("2006-01-02"))

	rec, env = do(t, h, &admin, http.MethodGet, "/reports/jobs?started_to=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error.Code)

	rec, env = do(t, h, &admin, http.MethodGet, "/reports/jobs/run-2")
	require.Equal(t, http.StatusOK, rec.Code)
	var run reports.JobRun
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Equal(t, "failed", run.Status)

	rec, env = do(t, h, &admin, http.MethodGet, "/reports/jobs/run-404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "job_run_not_found", env.Error.Code)
}
