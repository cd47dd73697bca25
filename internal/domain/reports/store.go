package reports

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"leavemgmt/internal/domain/leave"
	"leavemgmt/internal/domain/users"
	"leavemgmt/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) UserBalances(ctx context.Context, userID string) ([]users.LeaveBalance, error) {
	var raw []byte
	err := s.DB.QueryRow(ctx, "SELECT leave_balances FROM users WHERE id = $1", userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	out := []users.LeaveBalance{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) CountRequests(ctx context.Context, userID, status string) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM leave_requests WHERE user_id = $1 AND status = $2", userID, status)
}

func (s *Store) ApprovedDaysSince(ctx context.Context, userID string, since time.Time) (int, error) {
	return s.count(ctx, `
    SELECT COALESCE(SUM(number_of_days), 0)
    FROM leave_requests
    WHERE user_id = $1 AND status = $2 AND start_date >= $3
  `, userID, leave.StatusApproved, since)
}

func (s *Store) UnreadNotifications(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM notifications WHERE user_id = $1 AND is_read = false", userID)
}

func (s *Store) HolidaysStartingBetween(ctx context.Context, from, to time.Time) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM official_holidays WHERE start_date BETWEEN $1 AND $2", from, to)
}

func (s *Store) RequestsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, "SELECT status, COUNT(1) FROM leave_requests GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{leave.StatusPending: 0, leave.StatusApproved: 0, leave.StatusRejected: 0}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (s *Store) PendingByDepartment(ctx context.Context) ([]DepartmentCount, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT department, COUNT(1)
    FROM leave_requests
    WHERE status = $1
    GROUP BY department
    ORDER BY COUNT(1) DESC, department
  `, leave.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DepartmentCount{}
	for rows.Next() {
		var dc DepartmentCount
		if err := rows.Scan(&dc.Department, &dc.Pending); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM users")
}

func (s *Store) CountLeaveTypes(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM leave_types")
}

const jobRunColumns = "id, job_type, status, COALESCE(error, ''), COALESCE(details_json, '{}'::jsonb), started_at, completed_at"

func scanJobRun(row pgx.Row) (JobRun, error) {
	var run JobRun
	var detailsRaw []byte
	if err := row.Scan(&run.ID, &run.JobType, &run.Status, &run.Error, &detailsRaw, &run.StartedAt, &run.CompletedAt); err != nil {
		return JobRun{}, err
	}
	run.Details = decodeDetails(detailsRaw)
	return run, nil
}

func (s *Store) ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	where, args := jobRunsWhere(filter)
	query := "SELECT " + jobRunColumns + " FROM job_runs" + where +
		" ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []JobRun{}
	for rows.Next() {
		run, err := scanJobRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error) {
	where, args := jobRunsWhere(filter)
	return s.count(ctx, "SELECT COUNT(1) FROM job_runs"+where, args...)
}

func (s *Store) JobRunByID(ctx context.Context, runID string) (JobRun, error) {
	run, err := scanJobRun(s.DB.QueryRow(ctx, "SELECT "+jobRunColumns+" FROM job_runs WHERE id = $1", runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return JobRun{}, ErrJobRunNotFound
	}
	return run, err
}

func jobRunsWhere(filter JobRunFilter) (string, []any) {
	var conds []string
	var args []any

	if value := strings.TrimSpace(filter.JobType); value != "" {
		args = append(args, value)
		conds = append(conds, "job_type = $"+strconv.Itoa(len(args)))
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		args = append(args, value)
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.StartedFrom != nil && !filter.StartedFrom.IsZero() {
		args = append(args, *filter.StartedFrom)
		conds = append(conds, "started_at >= $"+strconv.Itoa(len(args)))
	}
	if filter.StartedTo != nil && !filter.StartedTo.IsZero() {
		args = append(args, *filter.StartedTo)
		conds = append(conds, "started_at <= $"+strconv.Itoa(len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func decodeDetails(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	details := map[string]any{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return details
}
