// package formatter renders backend entities for terminal output (tables, JSON, plain text)
package formatter

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/testivid/testivid/internal/models"
	"github.com/testivid/testivid/internal/shared"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// QuestionsTable renders a company's question list in position order.
func QuestionsTable(questions []models.Question) string {
	rows := make([][]string, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, []string{strconv.Itoa(q.Position + 1), q.ID, q.Text})
	}
	return renderTable(
		[]string{"#", "ID", "Question"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	)
}

// RequestsTable renders testimonial requests with their delivery status.
func RequestsTable(requests []models.TestimonialRequest) string {
	rows := make([][]string, 0, len(requests))
	for _, req := range requests {
		rows = append(rows, []string{
			req.ID,
			req.CustomerName,
			req.CustomerEmail,
			req.Status,
			req.CreatedAt.Format("2006-01-02"),
		})
	}
	return renderTable(
		[]string{"ID", "Customer", "Email", "Status", "Sent"},
		rows,
		nil,
	)
}

// TestimonialsTable renders collected testimonials with their video counts.
func TestimonialsTable(testimonials []models.Testimonial) string {
	rows := make([][]string, 0, len(testimonials))
	for _, tm := range testimonials {
		merged := ""
		if tm.MergedURL != "" {
			merged = "yes"
		}
		rows = append(rows, []string{
			tm.ID,
			tm.CustomerName,
			tm.CustomerTitle,
			strconv.Itoa(len(tm.Videos)),
			merged,
		})
	}
	return renderTable(
		[]string{"ID", "Customer", "Title", "Videos", "Merged"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

// StatsTable renders the dashboard counters.
func StatsTable(stats models.Stats) string {
	rows := [][]string{
		{"Total requests", strconv.Itoa(stats.TotalRequests)},
		{"Pending requests", strconv.Itoa(stats.PendingRequests)},
		{"Completed requests", strconv.Itoa(stats.CompletedRequests)},
		{"Total videos", strconv.Itoa(stats.TotalVideos)},
	}
	return renderTable(
		[]string{"Metric", "Count"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	)
}

// SubmissionsTable renders the local submission history.
func SubmissionsTable(records []models.SubmissionRecord) string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Sequence),
			record.TestimonialID,
			record.CustomerName,
			strconv.Itoa(record.VideoCount),
			record.SubmittedAt.Format(time.RFC3339),
		})
	}
	return renderTable(
		[]string{"#", "Testimonial", "Customer", "Videos", "Submitted"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

// TestimonialText renders one testimonial with its per-question videos as plain text.
func TestimonialText(tm *models.Testimonial) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Testimonial: %s\n", tm.ID))
	buf.WriteString(fmt.Sprintf("Customer: %s", tm.CustomerName))
	if tm.CustomerTitle != "" {
		buf.WriteString(fmt.Sprintf(" (%s)", tm.CustomerTitle))
	}
	buf.WriteString("\n")
	if tm.Company != nil {
		buf.WriteString(fmt.Sprintf("Company: %s\n", tm.Company.Name))
	}
	if tm.MergedURL != "" {
		buf.WriteString(fmt.Sprintf("Merged video: %s\n", tm.MergedURL))
	}

	buf.WriteString(fmt.Sprintf("Videos: %d\n\n", len(tm.Videos)))
	for i, video := range tm.Videos {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, video.URL))
	}

	return buf.Bytes()
}

// ToJSON generates a pretty JSON representation of any renderable entity.
func ToJSON(v any) ([]byte, error) {
	return shared.MarshalJSON(v, true)
}
