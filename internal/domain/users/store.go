package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"leavemgmt/internal/platform/querier"
)

const uniqueViolation = "23505"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const userColumns = `
    id, username, password_hash, full_name, COALESCE(email, ''), COALESCE(phone, ''),
    COALESCE(college, ''), COALESCE(department, ''), COALESCE(administrative_position, ''),
    COALESCE(degree, ''), COALESCE(gender, ''), role, leave_balances, mfa_enabled,
    last_login, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	var balances []byte
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.Phone,
		&u.College, &u.Department, &u.AdministrativePosition, &u.Degree, &u.Gender, &u.Role,
		&balances, &u.MFAEnabled, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	if len(balances) > 0 {
		if err := json.Unmarshal(balances, &u.LeaveBalances); err != nil {
			return User{}, fmt.Errorf("decode leave balances: %w", err)
		}
	}
	return u, nil
}

func encodeBalances(b []LeaveBalance) ([]byte, error) {
	if b == nil {
		b = []LeaveBalance{}
	}
	return json.Marshal(b)
}

func nullable(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func (s *Store) Create(ctx context.Context, u User) (User, error) {
	balances, err := encodeBalances(u.LeaveBalances)
	if err != nil {
		return User{}, err
	}
	row := s.DB.QueryRow(ctx, `
    INSERT INTO users (username, password_hash, full_name, email, phone, college, department,
                       administrative_position, degree, gender, role, leave_balances)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12::jsonb)
    RETURNING`+userColumns,
		u.Username, u.PasswordHash, u.FullName, nullable(u.Email), nullable(u.Phone), nullable(u.College),
		nullable(u.Department), nullable(u.AdministrativePosition), nullable(u.Degree), nullable(u.Gender),
		u.Role, balances)
	out, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, "SELECT"+userColumns+" FROM users WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) GetByUsername(ctx context.Context, username string) (User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, "SELECT"+userColumns+" FROM users WHERE username = $1", username))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) Update(ctx context.Context, u User) (User, error) {
	balances, err := encodeBalances(u.LeaveBalances)
	if err != nil {
		return User{}, err
	}
	out, err := scanUser(s.DB.QueryRow(ctx, `
    UPDATE users
    SET full_name = $2, email = $3, phone = $4, college = $5, department = $6,
        administrative_position = $7, degree = $8, gender = $9, role = $10,
        leave_balances = $11::jsonb, updated_at = now()
    WHERE id = $1
    RETURNING`+userColumns,
		u.ID, u.FullName, nullable(u.Email), nullable(u.Phone), nullable(u.College), nullable(u.Department),
		nullable(u.AdministrativePosition), nullable(u.Degree), nullable(u.Gender), u.Role, balances))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return out, err
}

func filterClause(f Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond, value string) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Department != "" {
		add("lower(department) = lower($%d)", f.Department)
	}
	if f.Role != "" {
		add("role = $%d", f.Role)
	}
	if f.College != "" {
		add("lower(college) = lower($%d)", f.College)
	}
	if f.Gender != "" {
		add("gender = $%d", f.Gender)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) List(ctx context.Context, f Filter, limit, offset int) ([]User, error) {
	where, args := filterClause(f)
	args = append(args, limit, offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(
		"SELECT%s FROM users%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		userColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context, f Filter) (int, error) {
	where, args := filterClause(f)
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users"+where, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) Departments(ctx context.Context) ([]DepartmentCount, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT department, COUNT(1)
    FROM users
    WHERE department IS NOT NULL AND department <> ''
    GROUP BY department
    ORDER BY department
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DepartmentCount, 0)
	for rows.Next() {
		var d DepartmentCount
		if err := rows.Scan(&d.Department, &d.UserCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
