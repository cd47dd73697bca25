package leave

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPDF(t *testing.T) {
	out, err := RenderPDF([]LeaveRequest{{
		RequestNo:    "LR-1726272000000-abcdefghi",
		EmployeeName: "Sara Ali",
		Department:   "Finance",
		LeaveType:    "Annual",
		StartDate:    date(2025, 9, 14),
		EndDate:      date(2025, 9, 16),
		NumberOfDays: 3,
		Status:       StatusPending,
	}}, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestExportPDFUsesScopedList(t *testing.T) {
	h := newHarness(nil)
	_, err := h.svc.Create(context.Background(), employee, NewRequest{LeaveType: "Annual", StartDate: date(2025, 9, 14), EndDate: date(2025, 9, 16)})
	require.NoError(t, err)

	out, err := h.svc.ExportPDF(context.Background(), manager, RequestFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
