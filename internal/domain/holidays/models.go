package holidays

import (
	"time"

	"leavemgmt/internal/domain/calendar"
)

type Holiday struct {
	ID        string    `json:"holiday_id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	ImageURLs []string  `json:"image_urls"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h Holiday) Range() calendar.DateRange {
	return calendar.DateRange{Start: h.StartDate, End: h.EndDate}
}

type Patch struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
	ImageURLs *[]string
	Message   *string
}

func (p Patch) Apply(h *Holiday) {
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.StartDate != nil {
		h.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		h.EndDate = *p.EndDate
	}
	if p.ImageURLs != nil {
		h.ImageURLs = *p.ImageURLs
	}
	if p.Message != nil {
		h.Message = *p.Message
	}
}

// CheckResponse is the public shape of a single-day holiday check.
type CheckResponse struct {
	Date      string  `json:"date"`
	IsHoliday bool    `json:"isHoliday"`
	Reasons   Reasons `json:"reasons"`
}

type Reasons struct {
	FixedWeeklyThuFri bool `json:"fixedWeeklyThuFri"`
	OfficialRange     bool `json:"officialRange"`
}
