package parser

import (
	"testing"

	"github.com/insightdelivered/tutor-portal/internal/models"
)

func TestDetectLayout(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected models.Layout
	}{
		{
			name:     "pipe-delimited rows",
			text:     "Generated on 01/01/2024\nCS20CS001 JOHN DOE |A: 85\n |I: 40\n |E: Yes",
			expected: models.LayoutPipe,
		},
		{
			name:     "sequential rows",
			text:     "CS20CS001 JOHN DOE\nA: 85\nI: 40",
			expected: models.LayoutSequential,
		},
		{
			name:     "both layouts",
			text:     "CS20CS001 JOHN DOE |A: 85\nCS20CS002 JANE DOE\nA: 70",
			expected: models.LayoutMixed,
		},
		{
			name:     "no students",
			text:     "Some unrelated document\nPage 1",
			expected: models.LayoutUnknown,
		},
		{
			name:     "empty",
			text:     "",
			expected: models.LayoutUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectLayout(tt.text)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestLooksLikeEligibilityReport(t *testing.T) {
	if !LooksLikeEligibilityReport("CS20CS001 JOHN DOE") {
		t.Error("expected a student header to be recognised")
	}
	if LooksLikeEligibilityReport("Bank statement\n15/01/2024 CARD PAYMENT 25.99") {
		t.Error("expected unrelated text to be rejected")
	}
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		input  string
		kind   lineKind
		regNo  string
		name   string
		piped  bool
		letter byte
		value  string
	}{
		{input: "CS20CS001 JOHN DOE", kind: lineStudentHeader, regNo: "CS20CS001", name: "JOHN DOE"},
		{input: "CS20CS001 JOHN DOE |A: 85", kind: lineStudentHeader, regNo: "CS20CS001", name: "JOHN DOE", piped: true},
		{input: "TVE20CS101 ANU K", kind: lineStudentHeader, regNo: "TVE20CS101", name: "ANU K"},
		{input: "A: 85", kind: lineSequentialValue, letter: 'A', value: "85"},
		{input: "I:12.5", kind: lineSequentialValue, letter: 'I', value: "12.5"},
		{input: "E: Yes", kind: lineSequentialValue, letter: 'E', value: "Yes"},
		{input: "E: NA", kind: lineSequentialValue, letter: 'E', value: "NA"},
		{input: "|A: 85", kind: lineUnrecognized},
		{input: "A: 85 | I: 40", kind: lineUnrecognized},
		{input: "A: absent", kind: lineUnrecognized},
		{input: "C20CS001 TOO SHORT", kind: lineUnrecognized},
		{input: "CS20CS001 lowercase", kind: lineUnrecognized},
		{input: "", kind: lineUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := classifyLine(tt.input)
			if got.Kind != tt.kind {
				t.Fatalf("kind: got %s, want %s", got.Kind, tt.kind)
			}
			if got.RegisterNo != tt.regNo || got.Name != tt.name || got.Piped != tt.piped {
				t.Errorf("header: got (%q, %q, %v), want (%q, %q, %v)",
					got.RegisterNo, got.Name, got.Piped, tt.regNo, tt.name, tt.piped)
			}
			if got.Letter != tt.letter || got.Value != tt.value {
				t.Errorf("value: got (%q, %q), want (%q, %q)", got.Letter, got.Value, tt.letter, tt.value)
			}
		})
	}
}

func TestValueOrNull(t *testing.T) {
	if v := valueOrNull("NA"); v != nil {
		t.Errorf("NA: got %q, want nil", *v)
	}
	if v := valueOrNull("85.0"); v == nil || *v != "85.0" {
		t.Errorf("85.0: got %v", v)
	}
}

func TestSplitColumns(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"label|a|b", []string{"a", "b"}},
		{"|a|", []string{"a", ""}},
		{"no pipes", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := splitColumns(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %q, want %q", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("col %d: got %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestFindGenerationDate(t *testing.T) {
	lines := []string{"Report", "  Generated on 05/05/2024 09:00  ", "Generated on later"}
	if got := findGenerationDate(lines); got != "Generated on 05/05/2024 09:00" {
		t.Errorf("got %q", got)
	}
	if got := findGenerationDate([]string{"nothing"}); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
