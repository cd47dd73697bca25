package consumption

import "time"

type Record struct {
	ID             string    `json:"record_id"`
	UserID         string    `json:"user_id"`
	LeaveRequestID string    `json:"leave_request_id"`
	LeaveTypeID    string    `json:"leave_type_id"`
	DaysConsumed   int       `json:"days_consumed"`
	DateRecorded   time.Time `json:"date_recorded"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Filter struct {
	UserID         string
	LeaveTypeID    string
	LeaveRequestID string
}

type Patch struct {
	LeaveTypeID  *string
	DaysConsumed *int
	DateRecorded *time.Time
}

func (p Patch) Apply(r *Record) {
	if p.LeaveTypeID != nil {
		r.LeaveTypeID = *p.LeaveTypeID
	}
	if p.DaysConsumed != nil {
		r.DaysConsumed = *p.DaysConsumed
	}
	if p.DateRecorded != nil {
		r.DateRecorded = *p.DateRecorded
	}
}
