package leave

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
)

const typeColumns = `
    id, name, COALESCE(description, ''), payment_status, duration_rules, frequency, balance_rules,
    COALESCE(required_balance_id, ''), requires_proof, created_at, updated_at`

func scanType(row pgx.Row) (LeaveType, error) {
	var t LeaveType
	var rules, freq, balance []byte
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.PaymentStatus, &rules, &freq, &balance,
		&t.RequiredBalanceID, &t.RequiresProof, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveType{}, ErrTypeNotFound
	}
	if err != nil {
		return LeaveType{}, err
	}
	if err := unmarshalIfPresent(rules, &t.DurationRules); err != nil {
		return LeaveType{}, err
	}
	if err := unmarshalIfPresent(freq, &t.Frequency); err != nil {
		return LeaveType{}, err
	}
	if err := unmarshalIfPresent(balance, &t.BalanceRules); err != nil {
		return LeaveType{}, err
	}
	if t.DurationRules == nil {
		t.DurationRules = []DurationRule{}
	}
	return t, nil
}

func unmarshalIfPresent(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

type typeJSON struct {
	rules, freq, balance []byte
}

func encodeType(t LeaveType) (typeJSON, error) {
	var out typeJSON
	var err error
	rules := t.DurationRules
	if rules == nil {
		rules = []DurationRule{}
	}
	if out.rules, err = json.Marshal(rules); err != nil {
		return out, err
	}
	if out.freq, err = json.Marshal(t.Frequency); err != nil {
		return out, err
	}
	if out.balance, err = json.Marshal(t.BalanceRules); err != nil {
		return out, err
	}
	return out, nil
}

func (s *Store) CreateType(ctx context.Context, t LeaveType) (LeaveType, error) {
	enc, err := encodeType(t)
	if err != nil {
		return LeaveType{}, err
	}
	return scanType(s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (name, description, payment_status, duration_rules, frequency, balance_rules,
                             required_balance_id, requires_proof)
    VALUES ($1,NULLIF($2,''),$3,$4::jsonb,$5::jsonb,$6::jsonb,NULLIF($7,''),$8)
    RETURNING`+typeColumns,
		t.Name, t.Description, t.PaymentStatus, enc.rules, enc.freq, enc.balance, t.RequiredBalanceID, t.RequiresProof))
}

func (s *Store) GetType(ctx context.Context, id string) (LeaveType, error) {
	return scanType(s.DB.QueryRow(ctx, "SELECT"+typeColumns+" FROM leave_types WHERE id::text = $1", id))
}

// FindType resolves a leave type by id or, failing that, by name.
func (s *Store) FindType(ctx context.Context, idOrName string) (LeaveType, error) {
	return scanType(s.DB.QueryRow(ctx, `
    SELECT`+typeColumns+`
    FROM leave_types
    WHERE id::text = $1 OR lower(name) = lower($1)
    ORDER BY (id::text = $1) DESC
    LIMIT 1
  `, idOrName))
}

func (s *Store) UpdateType(ctx context.Context, t LeaveType) (LeaveType, error) {
	enc, err := encodeType(t)
	if err != nil {
		return LeaveType{}, err
	}
	return scanType(s.DB.QueryRow(ctx, `
    UPDATE leave_types
    SET name = $2, description = NULLIF($3,''), payment_status = $4, duration_rules = $5::jsonb,
        frequency = $6::jsonb, balance_rules = $7::jsonb, required_balance_id = NULLIF($8,''),
        requires_proof = $9, updated_at = now()
    WHERE id::text = $1
    RETURNING`+typeColumns,
		t.ID, t.Name, t.Description, t.PaymentStatus, enc.rules, enc.freq, enc.balance, t.RequiredBalanceID, t.RequiresProof))
}

func (s *Store) DeleteType(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM leave_types WHERE id::text = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTypeNotFound
	}
	return nil
}

func (s *Store) ListTypes(ctx context.Context) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, "SELECT"+typeColumns+" FROM leave_types ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LeaveType, 0)
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
