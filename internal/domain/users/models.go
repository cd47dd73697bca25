package users

import "time"

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

type LeaveBalance struct {
	LeaveTypeID   string  `json:"leave_type_id"`
	AvailableDays float64 `json:"available_days"`
	OneTimeUsed   bool    `json:"one_time_used"`
}

type User struct {
	ID                     string         `json:"user_id"`
	Username               string         `json:"username"`
	PasswordHash           string         `json:"-"`
	FullName               string         `json:"full_name"`
	Email                  string         `json:"email,omitempty"`
	Phone                  string         `json:"phone,omitempty"`
	College                string         `json:"college,omitempty"`
	Department             string         `json:"department,omitempty"`
	AdministrativePosition string         `json:"administrative_position,omitempty"`
	Degree                 string         `json:"degree,omitempty"`
	Gender                 string         `json:"gender,omitempty"`
	Role                   string         `json:"role"`
	LeaveBalances          []LeaveBalance `json:"leave_balances,omitempty"`
	MFAEnabled             bool           `json:"mfa_enabled"`
	LastLogin              *time.Time     `json:"last_login,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

type NewUser struct {
	Username               string
	Password               string
	FullName               string
	Email                  string
	Phone                  string
	College                string
	Department             string
	AdministrativePosition string
	Degree                 string
	Gender                 string
	Role                   string
	LeaveBalances          []LeaveBalance
}

// Patch holds a partial profile update; nil fields are left untouched.
type Patch struct {
	FullName               *string
	Email                  *string
	Phone                  *string
	College                *string
	Department             *string
	AdministrativePosition *string
	Degree                 *string
	Gender                 *string
	Role                   *string
	LeaveBalances          *[]LeaveBalance
}

func (p Patch) Apply(u *User) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.College != nil {
		u.College = *p.College
	}
	if p.Department != nil {
		u.Department = *p.Department
	}
	if p.AdministrativePosition != nil {
		u.AdministrativePosition = *p.AdministrativePosition
	}
	if p.Degree != nil {
		u.Degree = *p.Degree
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.LeaveBalances != nil {
		u.LeaveBalances = *p.LeaveBalances
	}
}

type Filter struct {
	Department string
	Role       string
	College    string
	Gender     string
}

type Page struct {
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	TotalUsers   int  `json:"total_users"`
	UsersPerPage int  `json:"users_per_page"`
	HasNextPage  bool `json:"has_next_page"`
	HasPrevPage  bool `json:"has_prev_page"`
}

func NewPage(page, perPage, total int) Page {
	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return Page{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalUsers:   total,
		UsersPerPage: perPage,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}

type DepartmentCount struct {
	Department string `json:"department"`
	UserCount  int    `json:"user_count"`
}
