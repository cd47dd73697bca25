package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const requestColumns = `
    request_no, request_date, employee_name, department, leave_type, start_date, end_date,
    number_of_days, COALESCE(reason, ''), COALESCE(spare_employee_id, ''), status, processing_date,
    COALESCE(processed_by, ''), COALESCE(reason_for_rejection, ''), user_id, created_at, updated_at`

func scanRequest(row pgx.Row) (LeaveRequest, error) {
	var r LeaveRequest
	err := row.Scan(&r.RequestNo, &r.RequestDate, &r.EmployeeName, &r.Department, &r.LeaveType,
		&r.StartDate, &r.EndDate, &r.NumberOfDays, &r.Reason, &r.SpareEmployeeID, &r.Status,
		&r.ProcessingDate, &r.ProcessedBy, &r.ReasonForRejection, &r.UserID, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, ErrNotFound
	}
	return r, err
}

func (s *Store) CreateRequest(ctx context.Context, r LeaveRequest) (LeaveRequest, error) {
	out, err := scanRequest(s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (request_no, request_date, employee_name, department, leave_type,
                                start_date, end_date, number_of_days, reason, spare_employee_id, status, user_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),NULLIF($10,''),$11,$12)
    RETURNING`+requestColumns,
		r.RequestNo, r.RequestDate, r.EmployeeName, r.Department, r.LeaveType,
		r.StartDate, r.EndDate, r.NumberOfDays, r.Reason, r.SpareEmployeeID, r.Status, r.UserID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return LeaveRequest{}, ErrDuplicateRequestNo
		}
		return LeaveRequest{}, err
	}
	return out, nil
}

func (s *Store) GetRequest(ctx context.Context, requestNo string) (LeaveRequest, error) {
	return scanRequest(s.DB.QueryRow(ctx, "SELECT"+requestColumns+" FROM leave_requests WHERE request_no = $1", requestNo))
}

// UpdateRequestDetails writes the editable columns of r while the stored
// status still equals expectedStatus. Status and processing columns are
// never touched here.
func (s *Store) UpdateRequestDetails(ctx context.Context, r LeaveRequest, expectedStatus string) (LeaveRequest, error) {
	out, err := scanRequest(s.DB.QueryRow(ctx, `
    UPDATE leave_requests
    SET employee_name = $3, department = $4, leave_type = $5, start_date = $6, end_date = $7,
        number_of_days = $8, reason = NULLIF($9,''), spare_employee_id = NULLIF($10,''),
        updated_at = now()
    WHERE request_no = $1 AND status = $2
    RETURNING`+requestColumns,
		r.RequestNo, expectedStatus, r.EmployeeName, r.Department, r.LeaveType, r.StartDate, r.EndDate,
		r.NumberOfDays, r.Reason, r.SpareEmployeeID))
	if errors.Is(err, ErrNotFound) {
		return LeaveRequest{}, s.missedPrecondition(ctx, r.RequestNo)
	}
	return out, err
}

// DecideRequest moves a request out of pending. Only one caller can win:
// the row is matched on status = 'pending'.
func (s *Store) DecideRequest(ctx context.Context, requestNo string, d Decision) (LeaveRequest, error) {
	out, err := scanRequest(s.DB.QueryRow(ctx, `
    UPDATE leave_requests
    SET status = $2, processing_date = $3, processed_by = NULLIF($4,''),
        reason_for_rejection = NULLIF($5,''), updated_at = now()
    WHERE request_no = $1 AND status = $6
    RETURNING`+requestColumns,
		requestNo, d.Status, d.ProcessingDate, d.ProcessedBy, d.ReasonForRejection, StatusPending))
	if errors.Is(err, ErrNotFound) {
		return LeaveRequest{}, s.missedPrecondition(ctx, requestNo)
	}
	return out, err
}

// missedPrecondition tells a vanished row from one whose status moved on.
func (s *Store) missedPrecondition(ctx context.Context, requestNo string) error {
	var exists bool
	if err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM leave_requests WHERE request_no = $1)", requestNo).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrNotPending
	}
	return ErrNotFound
}

func (s *Store) DeleteRequest(ctx context.Context, requestNo string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM leave_requests WHERE request_no = $1", requestNo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func requestWhere(f RequestFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.Department != "" {
		args = append(args, f.Department)
		where += fmt.Sprintf(" AND lower(department) = lower($%d)", len(args))
	}
	return where, args
}

func (s *Store) ListRequests(ctx context.Context, f RequestFilter, limit, offset int) ([]LeaveRequest, error) {
	where, args := requestWhere(f)
	query := "SELECT" + requestColumns + " FROM leave_requests" + where + " ORDER BY request_date DESC"
	if limit > 0 {
		args = append(args, limit, offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LeaveRequest, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CountRequests(ctx context.Context, f RequestFilter) (int, error) {
	where, args := requestWhere(f)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests"+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
