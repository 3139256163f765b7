package parser

import "strings"

// lineKind is the classification of a single trimmed report line.
type lineKind int

const (
	lineUnrecognized lineKind = iota
	lineStudentHeader
	lineSequentialValue
)

func (k lineKind) String() string {
	switch k {
	case lineStudentHeader:
		return "student-header"
	case lineSequentialValue:
		return "sequential-value"
	}
	return "unrecognized"
}

// classifiedLine is the result of matching one line against the report
// rules. Only the fields belonging to Kind are set.
type classifiedLine struct {
	Kind lineKind

	// student header
	RegisterNo string
	Name       string
	Piped      bool

	// sequential value
	Letter byte
	Value  string
}

// classifyLine applies the line rules in order: a student header wins over
// everything else, and a value line is only recognised when it carries no
// pipe.
func classifyLine(line string) classifiedLine {
	if m := studentHeaderPattern.FindStringSubmatch(line); m != nil {
		return classifiedLine{
			Kind:       lineStudentHeader,
			RegisterNo: m[1],
			Name:       normalizeName(m[2]),
			Piped:      strings.Contains(line, "|"),
		}
	}
	if strings.Contains(line, "|") {
		return classifiedLine{Kind: lineUnrecognized}
	}
	if m := valueLinePattern.FindStringSubmatch(line); m != nil {
		return classifiedLine{
			Kind:   lineSequentialValue,
			Letter: m[1][0],
			Value:  m[2],
		}
	}
	return classifiedLine{Kind: lineUnrecognized}
}
