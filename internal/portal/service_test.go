package portal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/tutor-portal/internal/models"
	"github.com/insightdelivered/tutor-portal/internal/parser"
	"github.com/insightdelivered/tutor-portal/internal/store"
)

var fixedNow = time.Date(2024, 3, 30, 10, 6, 2, 391e6, time.UTC)

func setup(t *testing.T) (*Service, *store.FileStore) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	require.NoError(t, st.Save(&models.Database{
		Classes: []models.Class{{
			ID:        "cse-a",
			Name:      "S5 CSE A",
			Semesters: 8,
			Students: []models.ClassStudent{
				{ID: "stu-1", Name: "JOHN DOE", RegisterNo: "CS20CS001"},
				{ID: "stu-2", Name: "JANE DOE", RegisterNo: "CS20CS002", Requests: []models.Request{
					{ID: "app-1", Category: "scholarship", Status: models.StatusPending},
				}},
			},
			ScholarshipApplications: []models.ScholarshipApplication{
				{ID: "app-1", StudentID: "stu-2", Status: models.StatusPending},
			},
		}},
		Tutors: []models.Account{{ID: "t1", Username: "tutor1", PasswordHash: "$2a$hash"}},
	}))

	svc := NewService(st)
	svc.now = func() time.Time { return fixedNow }
	return svc, st
}

func TestMaxPoints(t *testing.T) {
	tests := []struct {
		activity string
		level    string
		want     int
	}{
		{"Internship", "I", 10},
		{"Internship", "V", 50},
		{"NSS", "III", 15},
		{"NCC", "IV", 28},
		{"Technical Event", "II", 16},
		{"Sports", "V", 30},
		{"Sports", "VI", 0},
		{"Hackathon", "I", 0},
		{"NSS", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.activity+"/"+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, MaxPoints(tt.activity, tt.level))
		})
	}
}

func TestCreateClass(t *testing.T) {
	svc, _ := setup(t)

	class, err := svc.CreateClass(ClassInput{Name: "  S7 CSE B ", Semesters: 8})
	require.NoError(t, err)
	assert.NotEmpty(t, class.ID)
	assert.Equal(t, "S7 CSE B", class.Name)

	got, err := svc.GetClass(class.ID)
	require.NoError(t, err)
	assert.Equal(t, class.Name, got.Name)
	assert.NotNil(t, got.Internals)

	classes, err := svc.ListClasses()
	require.NoError(t, err)
	assert.Len(t, classes, 2)
}

func TestCreateClass_Validation(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.CreateClass(ClassInput{Semesters: 20})
	require.Error(t, err)
	ve, ok := AsValidationError(err)
	require.True(t, ok)

	fields := map[string]string{}
	for _, f := range ve.Fields {
		fields[f.Field] = f.Error
	}
	assert.Equal(t, requiredText, fields["name"])
	assert.Contains(t, fields, "semesters")
}

func TestGetClass_NotFound(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.GetClass("missing")
	assert.True(t, IsNotFound(err))
}

func TestAddInternals(t *testing.T) {
	svc, _ := setup(t)
	report := parser.Extract("CS20CS001 JOHN DOE\nA: 70")

	rec, err := svc.AddInternals("cse-a", "5", "/internals-pdfs/cse-a/semester-5.pdf", report, models.LayoutSequential)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-30T10:06:02.391Z", rec.UploadDate)

	class, err := svc.GetClass("cse-a")
	require.NoError(t, err)
	require.Len(t, class.Internals, 1)
	assert.Equal(t, models.LayoutSequential, class.Internals[0].Layout)
	assert.Equal(t, "CS20CS001", class.Internals[0].ExtractedData.Students[0].RegisterNo)

	// same semester again replaces the record
	_, err = svc.AddInternals("cse-a", "5", "/internals-pdfs/cse-a/semester-5.pdf", parser.Extract(""), models.LayoutUnknown)
	require.NoError(t, err)
	class, _ = svc.GetClass("cse-a")
	require.Len(t, class.Internals, 1)
	assert.Empty(t, class.Internals[0].ExtractedData.Students)
}

func TestAddInternals_Errors(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.AddInternals("missing", "5", "", parser.Extract(""), models.LayoutUnknown)
	assert.True(t, IsNotFound(err))

	_, err = svc.AddInternals("cse-a", " ", "", parser.Extract(""), models.LayoutUnknown)
	_, ok := AsValidationError(err)
	assert.True(t, ok)
}

func TestDeleteInternals(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.AddInternals("cse-a", "4", "", parser.Extract(""), models.LayoutUnknown)
	require.NoError(t, err)
	_, err = svc.AddInternals("cse-a", "5", "", parser.Extract(""), models.LayoutUnknown)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteInternals("cse-a", "4"))

	class, _ := svc.GetClass("cse-a")
	require.Len(t, class.Internals, 1)
	assert.Equal(t, "5", class.Internals[0].Semester)

	assert.True(t, IsNotFound(svc.DeleteInternals("cse-a", "4")))
	assert.True(t, IsNotFound(svc.DeleteInternals("missing", "5")))
}

func TestSearchStudent(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.AddInternals("cse-a", "5", "", parser.Extract("CS20CS001 JOHN DOE\nA: 70\nCS20CS002 JANE DOE"), models.LayoutSequential)
	require.NoError(t, err)
	_, err = svc.AddInternals("cse-a", "3", "", parser.Extract("CS20CS002 JANE DOE\nA: 90"), models.LayoutSequential)
	require.NoError(t, err)

	results, err := svc.SearchStudent("cse-a", "cs20cs001")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "3", results[0].Semester)
	assert.False(t, results[0].Found)
	assert.Equal(t, NotAvailable, results[0].StudentData.Name)
	assert.Equal(t, "cs20cs001", results[0].StudentData.RegisterNo)

	assert.Equal(t, "5", results[1].Semester)
	assert.True(t, results[1].Found)
	assert.Equal(t, "JOHN DOE", results[1].StudentData.Name)

	byName, err := svc.SearchStudent("cse-a", "jane")
	require.NoError(t, err)
	for _, r := range byName {
		assert.True(t, r.Found, "semester %s", r.Semester)
	}

	_, err = svc.SearchStudent("cse-a", "  ")
	_, ok := AsValidationError(err)
	assert.True(t, ok)
}

func TestSearchSemester(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.AddInternals("cse-a", "5", "", parser.Extract("CS20CS001 JOHN DOE\nCS20CS002 JANE DOE\nCS20CS003 ALAN TURING"), models.LayoutSequential)
	require.NoError(t, err)

	got, err := svc.SearchSemester("cse-a", "5", "doe")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.SearchSemester("cse-a", "6", "doe")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSemesterLess(t *testing.T) {
	assert.True(t, semesterLess("2", "10"))
	assert.False(t, semesterLess("10", "2"))
	assert.True(t, semesterLess("8", "supplementary"))
	assert.True(t, semesterLess("a", "b"))
}

func TestSaveActivity(t *testing.T) {
	svc, _ := setup(t)

	act, err := svc.SaveActivity(ActivityInput{
		StudentID:    "stu-1",
		StudentName:  "JOHN DOE",
		ClassID:      "cse-a",
		ActivityType: "NCC",
		Level:        "III",
		ProofURL:     "/activity-uploads/1711793162391-ncc.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "act-1711793162391", act.ID)
	assert.Equal(t, 21, act.MaxPoints)
	assert.Equal(t, models.StatusPending, act.Status)

	class, _ := svc.GetClass("cse-a")
	reqs := class.Students[0].Requests
	require.Len(t, reqs, 1)
	assert.Equal(t, act.ID, reqs[0].ID)
	assert.Equal(t, "certificate", reqs[0].Category)
	assert.Equal(t, "1711793162391-ncc.pdf", reqs[0].FileName)
	assert.Equal(t, 21, reqs[0].MaxPoints)
}

func TestSaveActivity_DefaultsAndUnknownStudent(t *testing.T) {
	svc, _ := setup(t)

	act, err := svc.SaveActivity(ActivityInput{
		StudentID:    "stranger",
		ClassID:      "cse-a",
		ActivityType: "Sports",
		ProofURL:     "/activity-uploads/x.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "I", act.Level)
	assert.Equal(t, 6, act.MaxPoints)

	all, err := svc.ListActivities("")
	require.NoError(t, err)
	assert.Len(t, all, 1)
	none, err := svc.ListActivities("other-class")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveActivity_MissingFields(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.SaveActivity(ActivityInput{StudentID: "stu-1"})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Missing required fields", ve.Error())
	assert.Len(t, ve.Fields, 3)
}

func TestUpdateActivity(t *testing.T) {
	svc, _ := setup(t)
	act, err := svc.SaveActivity(ActivityInput{
		StudentID: "stu-1", ClassID: "cse-a", ActivityType: "Internship", Level: "II", ProofURL: "/activity-uploads/i.pdf",
	})
	require.NoError(t, err)

	points := 15
	updated, err := svc.UpdateActivity(act.ID, ActivityDecision{Status: models.StatusApproved, PointsAwarded: &points})
	require.NoError(t, err)
	assert.Equal(t, 15, updated.PointsAwarded)
	assert.Equal(t, "2024-03-30T10:06:02.391Z", updated.DecisionDate)

	class, _ := svc.GetClass("cse-a")
	req := class.Students[0].Requests[0]
	assert.Equal(t, models.StatusApproved, req.Status)
	assert.Equal(t, 15, req.AwardedPoints)

	rejected, err := svc.UpdateActivity(act.ID, ActivityDecision{Status: models.StatusRejected, PointsAwarded: &points})
	require.NoError(t, err)
	assert.Equal(t, 0, rejected.PointsAwarded)
}

func TestUpdateActivity_Limits(t *testing.T) {
	svc, _ := setup(t)
	act, err := svc.SaveActivity(ActivityInput{
		StudentID: "stu-1", ClassID: "cse-a", ActivityType: "NSS", Level: "I", ProofURL: "/activity-uploads/n.pdf",
	})
	require.NoError(t, err)

	tooMany := 6
	_, err = svc.UpdateActivity(act.ID, ActivityDecision{Status: models.StatusApproved, PointsAwarded: &tooMany})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Points cannot exceed 5", ve.Error())

	negative := -1
	_, err = svc.UpdateActivity(act.ID, ActivityDecision{Status: models.StatusApproved, PointsAwarded: &negative})
	_, ok = AsValidationError(err)
	assert.True(t, ok)

	_, err = svc.UpdateActivity(act.ID, ActivityDecision{Status: models.StatusApproved})
	_, ok = AsValidationError(err)
	assert.True(t, ok)

	_, err = svc.UpdateActivity(act.ID, ActivityDecision{})
	_, ok = AsValidationError(err)
	assert.True(t, ok)

	_, err = svc.UpdateActivity("act-0", ActivityDecision{Status: models.StatusRejected})
	assert.True(t, IsNotFound(err))

	// nothing was persisted by the failed approvals
	acts, _ := svc.ListActivities("cse-a")
	assert.Equal(t, models.StatusPending, acts[0].Status)
}

func TestUpdateApplicationStatus(t *testing.T) {
	svc, _ := setup(t)

	err := svc.UpdateApplicationStatus("cse-a", ApplicationDecision{AppID: "app-1", Status: models.StatusApproved})
	require.NoError(t, err)

	class, _ := svc.GetClass("cse-a")
	assert.Equal(t, models.StatusApproved, class.ScholarshipApplications[0].Status)
	assert.Equal(t, models.StatusApproved, class.Students[1].Requests[0].Status)

	err = svc.UpdateApplicationStatus("cse-a", ApplicationDecision{AppID: "app-9", Status: models.StatusApproved})
	assert.True(t, IsNotFound(err))
	err = svc.UpdateApplicationStatus("nope", ApplicationDecision{AppID: "app-1", Status: models.StatusApproved})
	assert.True(t, IsNotFound(err))
}

func TestPasswordHash(t *testing.T) {
	svc, _ := setup(t)

	hash, found, err := svc.PasswordHash("tutor1", "tutor")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "$2a$hash", hash)

	_, found, err = svc.PasswordHash("CS20CS001", "student")
	require.NoError(t, err)
	assert.True(t, found)

	_, found, err = svc.PasswordHash("tutor1", "student")
	require.NoError(t, err)
	assert.False(t, found)
}
