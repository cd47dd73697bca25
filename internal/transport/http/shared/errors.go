package shared

import (
	"errors"
	"net/http"

	"leavemgmt/internal/domain/calendar"
	"leavemgmt/internal/transport/http/api"
)

// FailCalendar writes the response for calendar errors and reports whether
// err was one. Invalid ranges are client errors; storage failures are 503
// so callers never read them as "not a holiday".
func FailCalendar(w http.ResponseWriter, err error, requestID string) bool {
	switch {
	case errors.Is(err, calendar.ErrInvalidRange):
		api.Fail(w, http.StatusBadRequest, string(calendar.KindInvalidRange), calendar.ErrInvalidRange.Message, requestID)
		return true
	case errors.Is(err, calendar.ErrSpanTooLong):
		api.Fail(w, http.StatusBadRequest, string(calendar.KindSpanTooLong), calendar.ErrSpanTooLong.Message, requestID)
		return true
	case errors.Is(err, calendar.ErrStorageUnavailable):
		api.Fail(w, http.StatusServiceUnavailable, string(calendar.KindStorageUnavailable), "holiday information is temporarily unavailable", requestID)
		return true
	}
	return false
}

func Unauthorized(w http.ResponseWriter, requestID string) {
	api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
}

func InvalidPayload(w http.ResponseWriter, requestID string) {
	api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
}

func Forbidden(w http.ResponseWriter, requestID string) {
	api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
}
