package shared

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavemgmt/internal/domain/calendar"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-09-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2025-09-15T03:00:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("15/09/2025")
	assert.Error(t, err)
}

type registerPayload struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female"`
}

func TestValidatorStruct(t *testing.T) {
	v := NewValidator()
	v.Struct(registerPayload{Username: "sa", Password: "123", Phone: "abc", Gender: "x"})
	require.True(t, v.HasIssues())

	byField := map[string]string{}
	for _, issue := range v.Issues() {
		byField[issue.Field] = issue.Reason
	}
	assert.Equal(t, "Username must be 3-30 letters, digits or underscores", byField["username"])
	assert.Equal(t, "Password must be at least 6 characters", byField["password"])
	assert.Equal(t, "Full Name is required", byField["full_name"])
	assert.Equal(t, "Phone must be a valid phone number", byField["phone"])
	assert.Equal(t, "Gender must be one of: male, female", byField["gender"])

	ok := NewValidator()
	ok.Struct(registerPayload{Username: "sara_1", Password: "secret", FullName: "Sara Ali", Phone: "+20 100 000 0000"})
	assert.False(t, ok.HasIssues())
}

func TestRejectWritesValidationEnvelope(t *testing.T) {
	v := NewValidator()
	v.Required("name", " ", "name is required")
	rec := httptest.NewRecorder()
	require.True(t, v.Reject(rec, "req-9"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, []ValidationIssue{{Field: "name", Reason: "name is required"}}, body.Error.Details.Fields)
}

func TestFailCalendar(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.True(t, FailCalendar(rec, fmt.Errorf("create: %w", calendar.ErrInvalidRange), ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "End date must be after start date")

	rec = httptest.NewRecorder()
	assert.True(t, FailCalendar(rec, &calendar.Error{Kind: calendar.KindStorageUnavailable, Message: "down"}, ""))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	assert.True(t, FailCalendar(rec, calendar.ErrSpanTooLong, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "span_too_long")

	assert.False(t, FailCalendar(httptest.NewRecorder(), fmt.Errorf("other"), ""))
}

func TestParsePage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/users?page=3&limit=500", nil)
	page, per := ParsePage(r, 10, 100)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, per)

	r = httptest.NewRequest(http.MethodGet, "/users?page=-1", nil)
	page, per = ParsePage(r, 10, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, per)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", ClientIP(r))
	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ClientIP(r))
}
