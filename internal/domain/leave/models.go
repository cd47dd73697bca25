package leave

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type LeaveRequest struct {
	RequestNo          string     `json:"request_no"`
	RequestDate        time.Time  `json:"request_date"`
	EmployeeName       string     `json:"employee_name"`
	Department         string     `json:"department"`
	LeaveType          string     `json:"leave_type"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            time.Time  `json:"end_date"`
	NumberOfDays       int        `json:"number_of_days"`
	Reason             string     `json:"reason,omitempty"`
	SpareEmployeeID    string     `json:"spare_employee_id,omitempty"`
	Status             string     `json:"status"`
	ProcessingDate     *time.Time `json:"processing_date,omitempty"`
	ProcessedBy        string     `json:"processed_by,omitempty"`
	ReasonForRejection string     `json:"reason_for_rejection,omitempty"`
	UserID             string     `json:"user_id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type NewRequest struct {
	UserID          string
	EmployeeName    string
	Department      string
	LeaveType       string
	StartDate       time.Time
	EndDate         time.Time
	Reason          string
	SpareEmployeeID string
}

// RequestPatch is a partial update. Status changes go through Process.
type RequestPatch struct {
	EmployeeName    *string
	Department      *string
	LeaveType       *string
	StartDate       *time.Time
	EndDate         *time.Time
	Reason          *string
	SpareEmployeeID *string
}

func (p RequestPatch) Apply(r *LeaveRequest) (datesChanged bool) {
	if p.EmployeeName != nil {
		r.EmployeeName = *p.EmployeeName
	}
	if p.Department != nil {
		r.Department = *p.Department
	}
	if p.LeaveType != nil {
		r.LeaveType = *p.LeaveType
	}
	if p.StartDate != nil {
		datesChanged = datesChanged || !p.StartDate.Equal(r.StartDate)
		r.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		datesChanged = datesChanged || !p.EndDate.Equal(r.EndDate)
		r.EndDate = *p.EndDate
	}
	if p.Reason != nil {
		r.Reason = *p.Reason
	}
	if p.SpareEmployeeID != nil {
		r.SpareEmployeeID = *p.SpareEmployeeID
	}
	return datesChanged
}

// Decision is the stored outcome of processing a pending request.
type Decision struct {
	Status             string
	ProcessingDate     time.Time
	ProcessedBy        string
	ReasonForRejection string
}

type ProcessInput struct {
	Status             string
	ProcessedBy        string
	ReasonForRejection string
}

type RequestFilter struct {
	Status     string
	UserID     string
	Department string
}

type RequestListResult struct {
	Items []LeaveRequest
	Total int
}

type HolidayBreakdown struct {
	RequestNo    string      `json:"request_no"`
	NumberOfDays int         `json:"number_of_days"`
	HolidayDays  int         `json:"holiday_days"`
	WorkingDays  int         `json:"working_days"`
	Holidays     []time.Time `json:"holidays"`
}

const (
	FrequencyMonthly            = "monthly"
	FrequencyOncePerLifetime    = "once_per_lifetime"
	FrequencyLimitedPerLifetime = "limited_per_lifetime"
)

type DurationRule struct {
	MinDays       int    `json:"min_days"`
	MaxDays       int    `json:"max_days"`
	PaymentStatus string `json:"payment_status"`
}

type Frequency struct {
	Type          string  `json:"type"`
	Limit         int     `json:"limit,omitempty"`
	DaysPerPeriod float64 `json:"days_per_period,omitempty"`
}

type BalanceRules struct {
	IsAccumulative bool `json:"is_accumulative"`
	Expires        bool `json:"expires"`
}

type LeaveType struct {
	ID                string         `json:"leave_type_id"`
	Name              string         `json:"name"`
	Description       string         `json:"description,omitempty"`
	PaymentStatus     string         `json:"payment_status"`
	DurationRules     []DurationRule `json:"duration_rules"`
	Frequency         Frequency      `json:"frequency"`
	BalanceRules      BalanceRules   `json:"balance_rules"`
	RequiredBalanceID string         `json:"required_balance_id,omitempty"`
	RequiresProof     bool           `json:"requires_proof"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
