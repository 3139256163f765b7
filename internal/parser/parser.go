package parser

import (
	"strings"

	"github.com/insightdelivered/tutor-portal/internal/models"
)

// Parser turns the text layer of a report into structured data.
type Parser interface {
	// Parse takes the full text of a document and returns the extracted report.
	Parse(text string) *models.ExtractionReport
	// ReportName returns the human-readable report name.
	ReportName() string
}

var _ Parser = (*EligibilityParser)(nil)

// DetectLayout reports which row layout the student blocks of text use.
// Documents with no student header are LayoutUnknown.
func DetectLayout(text string) models.Layout {
	var piped, sequential bool
	for _, line := range strings.Split(text, "\n") {
		cl := classifyLine(strings.TrimSpace(line))
		if cl.Kind != lineStudentHeader {
			continue
		}
		if cl.Piped {
			piped = true
		} else {
			sequential = true
		}
	}

	switch {
	case piped && sequential:
		return models.LayoutMixed
	case piped:
		return models.LayoutPipe
	case sequential:
		return models.LayoutSequential
	}
	return models.LayoutUnknown
}

// LooksLikeEligibilityReport reports whether text contains at least one
// student header line.
func LooksLikeEligibilityReport(text string) bool {
	return DetectLayout(text) != models.LayoutUnknown
}
