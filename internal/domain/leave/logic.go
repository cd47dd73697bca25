package leave

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"leavemgmt/internal/domain/calendar"
)

var (
	ErrInvalidStatus    = errors.New("status must be either approved or rejected")
	ErrInvalidLeaveType = errors.New("invalid leave type")
)

// DeriveDays validates the range and returns its inclusive day count. It
// is the only source of number_of_days. Requests longer than
// calendar.MaxSpanDays are rejected.
func DeriveDays(start, end time.Time) (int, error) {
	return calendar.DateRange{Start: start, End: end}.CheckSpan(calendar.MaxSpanDays)
}

const requestNoAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateRequestNo builds "LR-<unix millis>-<9 base36 chars>".
func GenerateRequestNo(now time.Time) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(requestNoAlphabet)))
	for i := 0; i < 9; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(requestNoAlphabet[n.Int64()])
	}
	return "LR-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + b.String(), nil
}

func ValidDecision(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

func ValidStatus(status string) bool {
	return status == StatusPending || ValidDecision(status)
}

func ValidateLeaveType(t LeaveType) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidLeaveType)
	}
	if strings.TrimSpace(t.PaymentStatus) == "" {
		return fmt.Errorf("%w: payment_status is required", ErrInvalidLeaveType)
	}
	for i, rule := range t.DurationRules {
		if rule.MinDays < 0 || rule.MaxDays < 1 {
			return fmt.Errorf("%w: duration_rules[%d] needs min_days >= 0 and max_days >= 1", ErrInvalidLeaveType, i)
		}
		if rule.MaxDays < rule.MinDays {
			return fmt.Errorf("%w: duration_rules[%d] max_days below min_days", ErrInvalidLeaveType, i)
		}
		if strings.TrimSpace(rule.PaymentStatus) == "" {
			return fmt.Errorf("%w: duration_rules[%d] payment_status is required", ErrInvalidLeaveType, i)
		}
	}
	switch t.Frequency.Type {
	case FrequencyMonthly, FrequencyOncePerLifetime, FrequencyLimitedPerLifetime:
	default:
		return fmt.Errorf("%w: frequency.type must be monthly, once_per_lifetime or limited_per_lifetime", ErrInvalidLeaveType)
	}
	if t.Frequency.Limit < 0 || t.Frequency.DaysPerPeriod < 0 {
		return fmt.Errorf("%w: frequency values must not be negative", ErrInvalidLeaveType)
	}
	return nil
}

// PaymentStatusFor picks the duration rule covering days, falling back to
// the type's own payment status.
func (t LeaveType) PaymentStatusFor(days int) string {
	for _, rule := range t.DurationRules {
		if days >= rule.MinDays && days <= rule.MaxDays {
			return rule.PaymentStatus
		}
	}
	return t.PaymentStatus
}
