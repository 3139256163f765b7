package parser

import (
	"regexp"
	"strings"
)

// Line patterns found in exam-eligibility reports.
var (
	// Register number followed by the student's name, e.g.
	// "CS20CS001 JOHN DOE". The name stops at the first character that is
	// not a letter or whitespace.
	studentHeaderPattern = regexp.MustCompile(`^([A-Z]{2,}\d{2}[A-Z]{2}\d{3})\s+([A-Z][A-Za-z\s]+)`)
	// One value per line in sequential reports: "A: 85", "E: Yes", "I: NA".
	valueLinePattern = regexp.MustCompile(`^([A-Z]):\s*([\d.]+|Yes|No|NA)`)

	// Column cells of pipe-delimited reports.
	attendanceCellPattern  = regexp.MustCompile(`A:\s*([\d.]+|NA)`)
	internalCellPattern    = regexp.MustCompile(`I:\s*([\d.]+|NA)`)
	eligibilityCellPattern = regexp.MustCompile(`E:\s*(Yes|No|NA)`)

	whitespaceRun = regexp.MustCompile(`\s+`)
)

// generatedOnMarker identifies the report's generation timestamp line.
const generatedOnMarker = "Generated on"

// notAvailable is the source's placeholder for a missing value.
const notAvailable = "NA"

// normalizeName trims a captured name and collapses internal whitespace.
func normalizeName(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

// valueOrNull maps the "NA" placeholder to nil and keeps anything else
// verbatim.
func valueOrNull(raw string) *string {
	if raw == notAvailable {
		return nil
	}
	v := raw
	return &v
}

// findGenerationDate returns the first line containing the generation
// marker, trimmed, or "".
func findGenerationDate(lines []string) string {
	for _, line := range lines {
		if strings.Contains(line, generatedOnMarker) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// splitColumns splits a pipe-delimited line and drops the leading row
// label. Lines without a pipe carry no columns.
func splitColumns(line string) []string {
	if !strings.Contains(line, "|") {
		return nil
	}
	return strings.Split(line, "|")[1:]
}
