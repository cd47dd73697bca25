package leave

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"leavemgmt/internal/domain/auth"
)

const exportLimit = 1000

var exportColumns = []struct {
	title string
	width float64
}{
	{"Request No", 52},
	{"Employee", 45},
	{"Department", 35},
	{"Type", 30},
	{"Start", 24},
	{"End", 24},
	{"Days", 14},
	{"Status", 24},
}

// ExportPDF renders the requests visible to actor under f as an A4
// landscape table.
func (s *Service) ExportPDF(ctx context.Context, actor auth.UserContext, f RequestFilter) ([]byte, error) {
	res, err := s.List(ctx, actor, f, exportLimit, 0)
	if err != nil {
		return nil, err
	}
	return RenderPDF(res.Items, s.now().UTC())
}

func RenderPDF(requests []LeaveRequest, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Leave requests", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Leave requests")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s - %d request(s)", generatedAt.Format("2006-01-02 15:04 MST"), len(requests)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range exportColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	total := 0
	for _, r := range requests {
		values := []string{
			r.RequestNo,
			r.EmployeeName,
			r.Department,
			r.LeaveType,
			r.StartDate.Format("2006-01-02"),
			r.EndDate.Format("2006-01-02"),
			strconv.Itoa(r.NumberOfDays),
			r.Status,
		}
		for i, col := range exportColumns {
			pdf.CellFormat(col.width, 6, truncate(values[i], int(col.width/2)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		total += r.NumberOfDays
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total days: %d", total))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max < 4 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
