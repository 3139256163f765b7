package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/insightdelivered/tutor-portal/internal/models"
)

// missingValue is written for null fields, as in the portal's spreadsheet export.
const missingValue = "-"

// CSVWriter writes eligibility reports to CSV format, one row per student.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the report to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, report *models.ExtractionReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, report); err != nil {
		return err
	}
	return f.Close()
}

// Write writes the report in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, report *models.ExtractionReport) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		meta := report.Metadata
		if meta.University != "" {
			writer.Write([]string{"# University", meta.University})
		}
		if meta.ReportTitle != "" {
			writer.Write([]string{"# Report", meta.ReportTitle})
		}
		if meta.GenerationDate != "" {
			writer.Write([]string{"# Generated", meta.GenerationDate})
		}
	}

	header := []string{"Register No", "Name"}
	for _, s := range report.Subjects {
		header = append(header,
			s.Code+" Attendance",
			s.Code+" Internal",
			s.Code+" Eligibility",
		)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, student := range report.Students {
		row := []string{student.RegisterNo, student.Name}
		for _, s := range report.Subjects {
			r := student.Subjects[s.Code]
			row = append(row, formatValue(r.A), formatValue(r.I), formatValue(r.E))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", student.RegisterNo, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatValue(v *string) string {
	if v == nil {
		return missingValue
	}
	return *v
}
