package portal

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/insightdelivered/tutor-portal/internal/models"
)

// NotAvailable is the placeholder name for semesters where a searched
// student does not appear.
const NotAvailable = "Not Available"

// SemesterMatch is one semester's entry in a cross-semester student search.
type SemesterMatch struct {
	Semester    string               `json:"semester"`
	Found       bool                 `json:"found"`
	StudentData models.StudentRecord `json:"studentData"`
}

func matchesStudent(s models.StudentRecord, query string) bool {
	return strings.Contains(strings.ToLower(s.Name), query) ||
		strings.Contains(strings.ToLower(s.RegisterNo), query)
}

// SearchStudent finds the first student matching query (name or register
// number, case-insensitive) in every semester of a class. Semesters
// without a match get a placeholder record. Results are ordered by
// semester number.
func (s *Service) SearchStudent(classID, query string) ([]SemesterMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewValidationError(errors.New("search query is required"),
			FieldError{Field: "q", Error: requiredText})
	}
	class, err := s.GetClass(classID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	results := make([]SemesterMatch, 0, len(class.Internals))
	for _, internal := range class.Internals {
		match := SemesterMatch{
			Semester: internal.Semester,
			StudentData: models.StudentRecord{
				RegisterNo: query,
				Name:       NotAvailable,
				Subjects:   map[string]models.SubjectResult{},
			},
		}
		if internal.ExtractedData != nil {
			for _, st := range internal.ExtractedData.Students {
				if matchesStudent(st, needle) {
					match.Found = true
					match.StudentData = st
					break
				}
			}
		}
		results = append(results, match)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return semesterLess(results[i].Semester, results[j].Semester)
	})
	return results, nil
}

// SearchSemester returns every student of one semester matching query.
// An unknown semester yields no results.
func (s *Service) SearchSemester(classID, semester, query string) ([]models.StudentRecord, error) {
	class, err := s.GetClass(classID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	out := []models.StudentRecord{}
	for _, internal := range class.Internals {
		if internal.Semester != semester || internal.ExtractedData == nil {
			continue
		}
		for _, st := range internal.ExtractedData.Students {
			if matchesStudent(st, needle) {
				out = append(out, st)
			}
		}
		break
	}
	return out, nil
}

// semesterLess orders numeric semesters numerically, before any
// non-numeric labels, which sort lexically.
func semesterLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}
