package notifications

import "time"

type Notification struct {
	ID        string    `json:"notification_id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Patch struct {
	Message *string
	IsRead  *bool
}

type ListFilter struct {
	IsRead *bool
}
