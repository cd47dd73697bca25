package leave

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"leavemgmt/internal/domain/users"
)

type AccrualSummary struct {
	TypesProcessed int `json:"typesProcessed"`
	UsersCredited  int `json:"usersCredited"`
}

type accrualType struct {
	ID             string
	DaysPerPeriod  float64
	IsAccumulative bool
}

// ApplyMonthlyAccruals credits days_per_period of every monthly leave type
// to each user's balance, at most once per calendar month per type.
// Accumulative types add to the existing balance; the rest reset to the
// period allowance.
func ApplyMonthlyAccruals(ctx context.Context, store AccrualStore, now time.Time, logger *zap.Logger) (AccrualSummary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var summary AccrualSummary
	periodStart := accrualPeriodStart(now)

	types, err := store.ListMonthlyTypes(ctx)
	if err != nil {
		return summary, err
	}

	for _, lt := range types {
		if lt.DaysPerPeriod <= 0 {
			continue
		}
		last, err := store.LastAccruedOn(ctx, lt.ID)
		if err != nil {
			return summary, err
		}
		if !last.IsZero() && !last.Before(periodStart) {
			continue
		}

		credited := 0
		err = store.InTx(ctx, func(tx AccrualTx) error {
			balances, err := tx.UserBalances(ctx)
			if err != nil {
				return err
			}
			for userID, current := range balances {
				next := creditBalance(current, lt.ID, lt.DaysPerPeriod, lt.IsAccumulative)
				if err := tx.SaveUserBalances(ctx, userID, next); err != nil {
					return fmt.Errorf("save balances for %s: %w", userID, err)
				}
				credited++
			}
			return tx.RecordRun(ctx, lt.ID, periodStart, credited)
		})
		if err != nil {
			logger.Warn("leave accrual failed", zap.String("leave_type_id", lt.ID), zap.Error(err))
			return summary, err
		}
		summary.TypesProcessed++
		summary.UsersCredited += credited
	}
	return summary, nil
}

func accrualPeriodStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func creditBalance(current []users.LeaveBalance, leaveTypeID string, days float64, accumulate bool) []users.LeaveBalance {
	out := make([]users.LeaveBalance, len(current), len(current)+1)
	copy(out, current)
	for i := range out {
		if out[i].LeaveTypeID != leaveTypeID {
			continue
		}
		if accumulate {
			out[i].AvailableDays += days
		} else {
			out[i].AvailableDays = days
		}
		return out
	}
	return append(out, users.LeaveBalance{LeaveTypeID: leaveTypeID, AvailableDays: days})
}
