package calendar

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidRange       Kind = "invalid_range"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindSpanTooLong        Kind = "span_too_long"
)

// Error is a calendar failure classified by Kind. Two Errors match under
// errors.Is when their kinds are equal, so callers compare against the
// ErrInvalidRange and ErrStorageUnavailable sentinels.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

var (
	ErrInvalidRange       = &Error{Kind: KindInvalidRange, Message: "End date must be after start date"}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable, Message: "holiday storage unavailable"}
	ErrSpanTooLong        = &Error{Kind: KindSpanTooLong, Message: fmt.Sprintf("Date range cannot exceed %d days", MaxSpanDays)}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the calendar kind carried by err, or "" when err is not a
// calendar error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func storageUnavailable(err error) error {
	return &Error{Kind: KindStorageUnavailable, Message: ErrStorageUnavailable.Message, Err: err}
}
