package reports

import (
	"time"

	"leavemgmt/internal/domain/users"
)

type EmployeeDashboard struct {
	LeaveBalances        []users.LeaveBalance `json:"leaveBalances"`
	PendingRequests      int                  `json:"pendingRequests"`
	ApprovedDaysThisYear int                  `json:"approvedDaysThisYear"`
	UnreadNotifications  int                  `json:"unreadNotifications"`
	UpcomingHolidays     int                  `json:"upcomingHolidays"`
}

type ManagerDashboard struct {
	PendingApprovals int               `json:"pendingApprovals"`
	ByStatus         map[string]int    `json:"byStatus"`
	ByDepartment     []DepartmentCount `json:"byDepartment"`
}

type AdminDashboard struct {
	Users            int `json:"users"`
	LeaveTypes       int `json:"leaveTypes"`
	UpcomingHolidays int `json:"upcomingHolidays"`
	FailedJobs       int `json:"failedJobsLast24h"`
}

// DepartmentCount is the number of pending requests per department.
type DepartmentCount struct {
	Department string `json:"department"`
	Pending    int    `json:"pending"`
}

type JobRun struct {
	ID          string         `json:"id"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Error       string         `json:"error,omitempty"`
	Details     map[string]any `json:"details"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt"`
}

type JobRunFilter struct {
	JobType     string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
}

type JobRunList struct {
	Items []JobRun
	Total int
}
