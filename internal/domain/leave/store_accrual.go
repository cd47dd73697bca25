package leave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"leavemgmt/internal/domain/users"
)

func (s *Store) ListMonthlyTypes(ctx context.Context) ([]accrualType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, COALESCE((frequency->>'days_per_period')::numeric, 0)::float8,
           COALESCE((balance_rules->>'is_accumulative')::boolean, false)
    FROM leave_types
    WHERE frequency->>'type' = 'monthly'
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]accrualType, 0)
	for rows.Next() {
		var t accrualType
		if err := rows.Scan(&t.ID, &t.DaysPerPeriod, &t.IsAccumulative); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) LastAccruedOn(ctx context.Context, leaveTypeID string) (time.Time, error) {
	var last time.Time
	err := s.DB.QueryRow(ctx, "SELECT last_accrued_on FROM leave_accrual_runs WHERE leave_type_id = $1", leaveTypeID).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	return last, err
}

func (s *Store) InTx(ctx context.Context, fn func(AccrualTx) error) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(pgAccrualTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgAccrualTx struct {
	tx pgx.Tx
}

func (p pgAccrualTx) UserBalances(ctx context.Context) (map[string][]users.LeaveBalance, error) {
	rows, err := p.tx.Query(ctx, "SELECT id, leave_balances FROM users FOR UPDATE")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]users.LeaveBalance)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var balances []users.LeaveBalance
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &balances); err != nil {
				return nil, fmt.Errorf("decode balances of %s: %w", id, err)
			}
		}
		out[id] = balances
	}
	return out, rows.Err()
}

func (p pgAccrualTx) SaveUserBalances(ctx context.Context, userID string, balances []users.LeaveBalance) error {
	raw, err := json.Marshal(balances)
	if err != nil {
		return err
	}
	_, err = p.tx.Exec(ctx, "UPDATE users SET leave_balances = $1::jsonb, updated_at = now() WHERE id = $2", raw, userID)
	return err
}

func (p pgAccrualTx) RecordRun(ctx context.Context, leaveTypeID string, periodStart time.Time, usersCredited int) error {
	_, err := p.tx.Exec(ctx, `
    INSERT INTO leave_accrual_runs (leave_type_id, last_accrued_on, users_credited)
    VALUES ($1,$2,$3)
    ON CONFLICT (leave_type_id)
      DO UPDATE SET last_accrued_on = EXCLUDED.last_accrued_on,
                    users_credited = EXCLUDED.users_credited,
                    updated_at = now()
  `, leaveTypeID, periodStart, usersCredited)
	return err
}
