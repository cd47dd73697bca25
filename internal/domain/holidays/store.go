package holidays

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"leavemgmt/internal/domain/calendar"
	"leavemgmt/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

var _ calendar.HolidayLookup = (*Store)(nil)

const holidayColumns = "id, name, start_date, end_date, image_urls, COALESCE(message, ''), created_at, updated_at"

func scanHoliday(row pgx.Row) (Holiday, error) {
	var h Holiday
	err := row.Scan(&h.ID, &h.Name, &h.StartDate, &h.EndDate, &h.ImageURLs, &h.Message, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Holiday{}, ErrNotFound
	}
	if h.ImageURLs == nil {
		h.ImageURLs = []string{}
	}
	return h, err
}

// ExistsOverlapping reports whether any stored range touches [from, to].
func (s *Store) ExistsOverlapping(ctx context.Context, from, to time.Time) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM official_holidays
      WHERE start_date <= $1 AND end_date >= $2
    )
  `, to, from).Scan(&exists)
	return exists, err
}

// OverlappingRanges returns the stored ranges touching [from, to], so a
// multi-day breakdown costs one query.
func (s *Store) OverlappingRanges(ctx context.Context, from, to time.Time) ([]calendar.DateRange, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT start_date, end_date FROM official_holidays
    WHERE start_date <= $1 AND end_date >= $2
    ORDER BY start_date
  `, to, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []calendar.DateRange
	for rows.Next() {
		var rng calendar.DateRange
		if err := rows.Scan(&rng.Start, &rng.End); err != nil {
			return nil, err
		}
		out = append(out, rng)
	}
	return out, rows.Err()
}

func (s *Store) ClaimAnnouncement(ctx context.Context, holidayID string, day time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO holiday_announcements (holiday_id, announce_day)
    VALUES ($1, $2)
    ON CONFLICT (holiday_id, announce_day) DO NOTHING
  `, holidayID, day)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ReleaseAnnouncement(ctx context.Context, holidayID string, day time.Time) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM holiday_announcements WHERE holiday_id = $1 AND announce_day = $2", holidayID, day)
	return err
}

func (s *Store) Create(ctx context.Context, h Holiday) (Holiday, error) {
	return scanHoliday(s.DB.QueryRow(ctx, `
    INSERT INTO official_holidays (name, start_date, end_date, image_urls, message)
    VALUES ($1,$2,$3,$4,NULLIF($5,''))
    RETURNING `+holidayColumns, h.Name, h.StartDate, h.EndDate, imageURLs(h.ImageURLs), h.Message))
}

func (s *Store) Get(ctx context.Context, id string) (Holiday, error) {
	return scanHoliday(s.DB.QueryRow(ctx, "SELECT "+holidayColumns+" FROM official_holidays WHERE id = $1", id))
}

func (s *Store) Update(ctx context.Context, h Holiday) (Holiday, error) {
	return scanHoliday(s.DB.QueryRow(ctx, `
    UPDATE official_holidays
    SET name = $2, start_date = $3, end_date = $4, image_urls = $5, message = NULLIF($6,''), updated_at = now()
    WHERE id = $1
    RETURNING `+holidayColumns, h.ID, h.Name, h.StartDate, h.EndDate, imageURLs(h.ImageURLs), h.Message))
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM official_holidays WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]Holiday, error) {
	return s.query(ctx, "SELECT "+holidayColumns+" FROM official_holidays ORDER BY start_date")
}

// StartingBetween lists holidays whose first day falls inside [from, to].
func (s *Store) StartingBetween(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	return s.query(ctx, "SELECT "+holidayColumns+" FROM official_holidays WHERE start_date BETWEEN $1 AND $2 ORDER BY start_date", from, to)
}

func (s *Store) query(ctx context.Context, sql string, args ...any) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Holiday, 0)
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func imageURLs(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}
