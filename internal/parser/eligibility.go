package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/tutor-portal/internal/models"
)

// EligibilityParser extracts per-student subject results from the text
// layer of a semester exam-eligibility report.
//
// Reports come in two layouts, decided per student by the header line:
//
//	CS20CS001 JOHN DOE |A: 85 |A: NA |...     pipe-delimited: the header and
//	                   |I: 40 |I: 38 |...     the next two lines hold the A, I
//	                   |E: Yes|E: No |...     and E cells, column k = subject k
//
//	CS20CS002 JANE DOE                        sequential: one value per line,
//	A: 70                                     filling subjects in catalog order
//	A: 65
//
// The parser never fails; anything it cannot match is left null.
type EligibilityParser struct {
	Catalog     models.Catalog
	University  string
	ReportTitle string
}

// NewEligibilityParser returns a parser for the default report format.
func NewEligibilityParser() *EligibilityParser {
	return &EligibilityParser{
		Catalog:     models.DefaultCatalog(),
		University:  models.DefaultUniversity,
		ReportTitle: models.DefaultReportTitle,
	}
}

// Extract parses text with the default report format.
func Extract(text string) *models.ExtractionReport {
	return NewEligibilityParser().Parse(text)
}

// ReportName returns the human-readable report name.
func (p *EligibilityParser) ReportName() string {
	if p.ReportTitle != "" {
		return p.ReportTitle
	}
	return models.DefaultReportTitle
}

// ParsePages joins page texts and parses them as one document.
func (p *EligibilityParser) ParsePages(pages []string) *models.ExtractionReport {
	return p.Parse(strings.Join(pages, "\n"))
}

// Parse extracts the report from the full text of a document.
func (p *EligibilityParser) Parse(text string) *models.ExtractionReport {
	report, _ := p.parse(text, false)
	return report
}

// ParseWithTrace is Parse plus a record of what happened to every line.
func (p *EligibilityParser) ParseWithTrace(text string) (*models.ExtractionReport, []models.DebugLine) {
	return p.parse(text, true)
}

func (p *EligibilityParser) parse(text string, trace bool) (*models.ExtractionReport, []models.DebugLine) {
	catalog := p.catalog()
	lines := strings.Split(text, "\n")

	var debug []models.DebugLine
	note := func(i int, line, result, registerNo string) {
		if trace {
			debug = append(debug, models.DebugLine{
				LineNum:    i + 1,
				Text:       line,
				Result:     result,
				RegisterNo: registerNo,
			})
		}
	}

	students := []models.StudentRecord{}
	var current *studentState

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		cl := classifyLine(line)

		switch cl.Kind {
		case lineStudentHeader:
			if current != nil {
				students = append(students, current.record)
			}
			current = newStudentState(catalog, cl.RegisterNo, cl.Name)

			if !cl.Piped {
				note(i, line, "header", cl.RegisterNo)
				continue
			}
			iLine := lineAt(lines, i+1)
			eLine := lineAt(lines, i+2)
			current.applyPipeBlock(line, iLine, eLine)
			note(i, line, "header+pipe", cl.RegisterNo)
			if i+1 < len(lines) {
				note(i+1, iLine, "pipe-lookahead", cl.RegisterNo)
			}
			if i+2 < len(lines) {
				note(i+2, eLine, "pipe-lookahead", cl.RegisterNo)
			}
			i += 2

		case lineSequentialValue:
			if current == nil {
				note(i, line, "skipped", "")
				continue
			}
			if current.applySequential(cl.Letter, cl.Value) {
				note(i, line, "value", current.record.RegisterNo)
			} else {
				note(i, line, "unassigned", current.record.RegisterNo)
			}

		default:
			note(i, line, "skipped", "")
		}
	}

	if current != nil {
		students = append(students, current.record)
	}

	university := p.University
	if university == "" {
		university = models.DefaultUniversity
	}

	return &models.ExtractionReport{
		Metadata: models.ReportMetadata{
			University:     university,
			ReportTitle:    p.ReportName(),
			GenerationDate: findGenerationDate(lines),
		},
		Subjects: catalog.Subjects(),
		Students: students,
	}, debug
}

func (p *EligibilityParser) catalog() models.Catalog {
	if p.Catalog.Len() == 0 {
		return models.DefaultCatalog()
	}
	return p.Catalog
}

// lineAt returns the trimmed line at i, or "" past the end.
func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return strings.TrimSpace(lines[i])
	}
	return ""
}

// slots of the per-student cursor, one per value letter.
var letterSlots = map[byte]int{'A': 0, 'I': 1, 'E': 2}

// studentState accumulates one student's record while the scan is inside
// their block. claimed marks subject slots that have received a value
// (including "NA") and next is the first slot per letter that may still be
// unclaimed; claims only ever grow, so next only moves forward.
type studentState struct {
	catalog models.Catalog
	record  models.StudentRecord
	claimed [3][]bool
	next    [3]int
}

func newStudentState(catalog models.Catalog, registerNo, name string) *studentState {
	s := &studentState{
		catalog: catalog,
		record: models.StudentRecord{
			RegisterNo: registerNo,
			Name:       name,
			Subjects:   make(map[string]models.SubjectResult, catalog.Len()),
		},
	}
	for k := 0; k < catalog.Len(); k++ {
		subj := catalog.At(k)
		s.record.Subjects[subj.Code] = models.SubjectResult{Name: subj.Name}
	}
	for slot := range s.claimed {
		s.claimed[slot] = make([]bool, catalog.Len())
	}
	return s
}

// set stores raw into subject k's field for letter and claims the slot.
func (s *studentState) set(k int, letter byte, raw string) {
	code := s.catalog.At(k).Code
	result := s.record.Subjects[code]
	*result.Field(letter) = valueOrNull(raw)
	s.record.Subjects[code] = result
	s.claimed[letterSlots[letter]][k] = true
}

// nextFree returns the first unclaimed subject index for letter, or -1.
func (s *studentState) nextFree(letter byte) int {
	slot := letterSlots[letter]
	for s.next[slot] < len(s.claimed[slot]) && s.claimed[slot][s.next[slot]] {
		s.next[slot]++
	}
	if s.next[slot] == len(s.claimed[slot]) {
		return -1
	}
	return s.next[slot]
}

// applySequential assigns a one-per-line value to the first subject whose
// slot for that letter is still free. It reports whether a slot was found.
//
// Assignment is by position only: a missing or out-of-order line shifts
// every later value onto the wrong subject.
func (s *studentState) applySequential(letter byte, raw string) bool {
	if _, ok := letterSlots[letter]; !ok {
		return false
	}
	k := s.nextFree(letter)
	if k < 0 {
		return false
	}
	s.set(k, letter, raw)
	return true
}

var pipeCells = []struct {
	letter  byte
	pattern *regexp.Regexp
}{
	{'A', attendanceCellPattern},
	{'I', internalCellPattern},
	{'E', eligibilityCellPattern},
}

// applyPipeBlock reads the A, I and E rows of a pipe-delimited student
// block. Column k maps to catalog subject k; extra columns are ignored and
// missing ones stay null. An NA cell leaves its field null and unclaimed,
// so a later sequential value for that letter can still fill it.
func (s *studentState) applyPipeBlock(aLine, iLine, eLine string) {
	rows := [3]string{aLine, iLine, eLine}
	for r, cell := range pipeCells {
		cols := splitColumns(rows[r])
		for k := 0; k < s.catalog.Len() && k < len(cols); k++ {
			m := cell.pattern.FindStringSubmatch(strings.TrimSpace(cols[k]))
			if m == nil || m[1] == notAvailable {
				continue
			}
			s.set(k, cell.letter, m[1])
		}
	}
}
