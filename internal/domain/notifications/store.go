package notifications

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"leavemgmt/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const (
	foreignKeyViolation = "23503"
	invalidTextRepr     = "22P02"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

const notificationColumns = "id, user_id, message, timestamp, is_read, created_at, updated_at"

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Message, &n.Timestamp, &n.IsRead, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == invalidTextRepr {
		return Notification{}, ErrNotFound
	}
	return n, err
}

func (s *Store) Create(ctx context.Context, userID, message string) (Notification, error) {
	var n Notification
	err := s.DB.QueryRow(ctx, `
    INSERT INTO notifications (user_id, message)
    VALUES ($1,$2)
    RETURNING `+notificationColumns, userID, message).
		Scan(&n.ID, &n.UserID, &n.Message, &n.Timestamp, &n.IsRead, &n.CreatedAt, &n.UpdatedAt)
	switch pgCode(err) {
	case foreignKeyViolation, invalidTextRepr:
		return Notification{}, ErrUserNotFound
	}
	return n, err
}

func (s *Store) Get(ctx context.Context, id string) (Notification, error) {
	return scanNotification(s.DB.QueryRow(ctx, "SELECT "+notificationColumns+" FROM notifications WHERE id = $1", id))
}

func (s *Store) ListForUser(ctx context.Context, userID string, f ListFilter) ([]Notification, error) {
	query := "SELECT " + notificationColumns + " FROM notifications WHERE user_id = $1"
	args := []any{userID}
	if f.IsRead != nil {
		query += " AND is_read = $2"
		args = append(args, *f.IsRead)
	}
	query += " ORDER BY timestamp DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, id string, p Patch) (Notification, error) {
	return scanNotification(s.DB.QueryRow(ctx, `
    UPDATE notifications
    SET message = COALESCE($2, message),
        is_read = COALESCE($3, is_read),
        updated_at = now()
    WHERE id = $1
    RETURNING `+notificationColumns, id, p.Message, p.IsRead))
}

func (s *Store) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET is_read = true, updated_at = now()
    WHERE user_id = $1 AND is_read = false
  `, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM notifications WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UserEmail(ctx context.Context, userID string) (string, error) {
	var email string
	err := s.DB.QueryRow(ctx, "SELECT COALESCE(email, '') FROM users WHERE id = $1", userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return email, err
}
