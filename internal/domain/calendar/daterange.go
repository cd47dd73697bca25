package calendar

import "time"

const oneDay = 24 * time.Hour

// DateRange is an inclusive pair of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

// MaxSpanDays bounds ranges that are expanded day by day, such as a leave
// request or a holiday breakdown.
const MaxSpanDays = 366

const secondsPerDay = 86400

// InclusiveDayCount returns ceil((end-start)/24h)+1, so a range whose start
// equals its end counts as one day. It works on Unix seconds, so spans
// beyond time.Duration's ~292 years stay exact.
func (r DateRange) InclusiveDayCount() (int, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	secs := r.End.Unix() - r.Start.Unix()
	days := secs / secondsPerDay
	rem := (secs%secondsPerDay)*int64(time.Second) + int64(r.End.Nanosecond()-r.Start.Nanosecond())
	if rem > 0 {
		days++
	}
	return int(days) + 1, nil
}

// CheckSpan is InclusiveDayCount plus an upper bound: ranges longer than
// maxDays fail with ErrSpanTooLong.
func (r DateRange) CheckSpan(maxDays int) (int, error) {
	days, err := r.InclusiveDayCount()
	if err != nil {
		return 0, err
	}
	if days > maxDays {
		return 0, ErrSpanTooLong
	}
	return days, nil
}

func InclusiveDayCount(start, end time.Time) (int, error) {
	return DateRange{Start: start, End: end}.InclusiveDayCount()
}

// Overlaps reports whether both inclusive ranges share at least one instant.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !r.End.Before(other.Start)
}

// Days lists the UTC calendar days touched by the range, start first.
func (r DateRange) Days() []time.Time {
	if r.Validate() != nil {
		return nil
	}
	first, _ := DayBounds(r.Start)
	last, _ := DayBounds(r.End)
	var out []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// DayBounds returns 00:00:00.000 and 23:59:59.999 UTC of t's UTC calendar day.
func DayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
	return start, end
}
