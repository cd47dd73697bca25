package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WeeklyRule is the set of weekdays that are always non-working.
type WeeklyRule struct {
	days [7]bool
}

func NewWeeklyRule(days ...time.Weekday) WeeklyRule {
	var w WeeklyRule
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			w.days[d] = true
		}
	}
	return w
}

// DefaultWeeklyRule is Thursday and Friday.
func DefaultWeeklyRule() WeeklyRule {
	return NewWeeklyRule(time.Thursday, time.Friday)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeeklyRule reads a comma separated list of weekday indices
// (0=Sunday) or three-letter English names, e.g. "4,5" or "thu,fri".
func ParseWeeklyRule(raw string) (WeeklyRule, error) {
	var days []time.Weekday
	for _, part := range strings.Split(raw, ",") {
		token := strings.ToLower(strings.TrimSpace(part))
		if token == "" {
			continue
		}
		if len(token) > 3 {
			token = token[:3]
		}
		if d, ok := weekdayNames[token]; ok {
			days = append(days, d)
			continue
		}
		idx, err := strconv.Atoi(token)
		if err != nil || idx < 0 || idx > 6 {
			return WeeklyRule{}, fmt.Errorf("invalid weekday %q", part)
		}
		days = append(days, time.Weekday(idx))
	}
	return NewWeeklyRule(days...), nil
}

// IsFixedWeeklyHoliday evaluates t's weekday in t's own location. The zero
// time is treated as an invalid date and never matches.
func (w WeeklyRule) IsFixedWeeklyHoliday(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return w.days[t.Weekday()]
}

func (w WeeklyRule) Weekdays() []time.Weekday {
	var out []time.Weekday
	for i, on := range w.days {
		if on {
			out = append(out, time.Weekday(i))
		}
	}
	return out
}

func (w WeeklyRule) String() string {
	parts := make([]string, 0, 2)
	for _, d := range w.Weekdays() {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}
