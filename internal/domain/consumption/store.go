package consumption

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"leavemgmt/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const recordColumns = "id, user_id, leave_request_id, leave_type_id, days_consumed, date_recorded, created_at, updated_at"

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.UserID, &r.LeaveRequestID, &r.LeaveTypeID, &r.DaysConsumed, &r.DateRecorded, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

func (s *Store) Create(ctx context.Context, r Record) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO leave_consumption_records (user_id, leave_request_id, leave_type_id, days_consumed, date_recorded)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING `+recordColumns, r.UserID, r.LeaveRequestID, r.LeaveTypeID, r.DaysConsumed, r.DateRecorded))
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM leave_consumption_records WHERE id = $1", id))
}

func (s *Store) Update(ctx context.Context, r Record) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    UPDATE leave_consumption_records
    SET leave_type_id = $2, days_consumed = $3, date_recorded = $4, updated_at = now()
    WHERE id = $1
    RETURNING `+recordColumns, r.ID, r.LeaveTypeID, r.DaysConsumed, r.DateRecorded))
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM leave_consumption_records WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, f Filter) ([]Record, error) {
	query := "SELECT " + recordColumns + " FROM leave_consumption_records WHERE 1=1"
	var args []any
	add := func(col, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		query += fmt.Sprintf(" AND %s = $%d", col, len(args))
	}
	add("user_id::text", f.UserID)
	add("leave_type_id", f.LeaveTypeID)
	add("leave_request_id", f.LeaveRequestID)
	query += " ORDER BY date_recorded DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
