package models

// Subject is one entry of a report's subject catalog.
type Subject struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Catalog is the ordered, fixed list of subjects a report covers.
// The order of codes is the column order of pipe-delimited reports.
// A Catalog is never mutated after construction.
type Catalog struct {
	subjects []Subject
	index    map[string]int
}

// NewCatalog builds a catalog from subjects in column order.
func NewCatalog(subjects ...Subject) Catalog {
	c := Catalog{
		subjects: make([]Subject, len(subjects)),
		index:    make(map[string]int, len(subjects)),
	}
	copy(c.subjects, subjects)
	for i, s := range subjects {
		c.index[s.Code] = i
	}
	return c
}

// DefaultCatalog returns the S5 CSE subject list the eligibility reports use.
func DefaultCatalog() Catalog {
	return NewCatalog(
		Subject{"MCN301", "Disaster Management"},
		Subject{"CST301", "Formal Languages and Automata Theory"},
		Subject{"CST303", "Computer Networks"},
		Subject{"CST305", "System Software"},
		Subject{"CST307", "Microprocessors and Microcontrollers"},
		Subject{"CST309", "Management of Software Systems"},
		Subject{"CSL331", "System Software and Microprocessors Lab"},
		Subject{"CSL333", "Database Management Systems Lab"},
		Subject{"CST395", "Neural Networks and Deep Learning"},
	)
}

// Len returns the number of subjects.
func (c Catalog) Len() int { return len(c.subjects) }

// At returns the k-th subject in column order.
func (c Catalog) At(k int) Subject { return c.subjects[k] }

// Subjects returns a copy of the subjects in column order.
func (c Catalog) Subjects() []Subject {
	out := make([]Subject, len(c.subjects))
	copy(out, c.subjects)
	return out
}

// Codes returns the subject codes in column order.
func (c Catalog) Codes() []string {
	codes := make([]string, len(c.subjects))
	for i, s := range c.subjects {
		codes[i] = s.Code
	}
	return codes
}

// Name returns the display name for code, or "" if unknown.
func (c Catalog) Name(code string) string {
	if i, ok := c.index[code]; ok {
		return c.subjects[i].Name
	}
	return ""
}

// SubjectResult holds the extracted values of one subject for one student.
// A nil field means the value was missing or "NA" in the source.
type SubjectResult struct {
	Name string  `json:"name"`
	A    *string `json:"A"` // attendance
	I    *string `json:"I"` // internal mark
	E    *string `json:"E"` // eligibility: Yes / No
}

// Field returns a pointer to the value slot for letter A, I or E.
func (r *SubjectResult) Field(letter byte) **string {
	switch letter {
	case 'A':
		return &r.A
	case 'I':
		return &r.I
	case 'E':
		return &r.E
	}
	return nil
}

// StudentRecord is one student's row of an eligibility report.
type StudentRecord struct {
	RegisterNo string                   `json:"registerNo"`
	Name       string                   `json:"name"`
	Subjects   map[string]SubjectResult `json:"subjects"`
}

// ReportMetadata describes the document an ExtractionReport came from.
type ReportMetadata struct {
	University     string `json:"university"`
	ReportTitle    string `json:"reportTitle"`
	GenerationDate string `json:"generationDate"`
}

// ExtractionReport is the structured result of parsing an eligibility report.
type ExtractionReport struct {
	Metadata ReportMetadata  `json:"metadata"`
	Subjects []Subject       `json:"subjects"`
	Students []StudentRecord `json:"students"`
}

// Layout names the formatting convention of student rows in a report.
type Layout string

const (
	LayoutPipe       Layout = "pipe"
	LayoutSequential Layout = "sequential"
	LayoutMixed      Layout = "mixed"
	LayoutUnknown    Layout = "unknown"
)

const (
	DefaultUniversity  = "APJ Abdul Kalam Technological University"
	DefaultReportTitle = "Student Exam Eligibility Report"
)

// DebugLine captures what the parser did with one input line.
type DebugLine struct {
	LineNum    int    `json:"lineNum"`
	Text       string `json:"text"`
	Result     string `json:"result"` // header, header+pipe, pipe-lookahead, value, unassigned, skipped
	RegisterNo string `json:"registerNo,omitempty"`
}
