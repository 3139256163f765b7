package portal

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/insightdelivered/tutor-portal/internal/models"
)

// timestampLayout matches JavaScript's Date.toISOString, which the
// existing stored documents use.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Store is the persistence the service needs.
type Store interface {
	Load() (*models.Database, error)
	Update(fn func(db *models.Database) error) error
}

// Service implements the tutor portal workflows over a Store.
type Service struct {
	store    Store
	validate *inputValidator
	now      func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store:    store,
		validate: newInputValidator(),
		now:      time.Now,
	}
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

func findClass(db *models.Database, id string) (*models.Class, error) {
	for i := range db.Classes {
		if db.Classes[i].ID == id {
			return &db.Classes[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "class %q", id)
}

func findStudent(c *models.Class, id string) *models.ClassStudent {
	for i := range c.Students {
		if c.Students[i].ID == id {
			return &c.Students[i]
		}
	}
	return nil
}

func findRequest(st *models.ClassStudent, id string) *models.Request {
	for i := range st.Requests {
		if st.Requests[i].ID == id {
			return &st.Requests[i]
		}
	}
	return nil
}

// ListClasses returns every class.
func (s *Service) ListClasses() ([]models.Class, error) {
	db, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return db.Classes, nil
}

// GetClass returns the class with id.
func (s *Service) GetClass(id string) (*models.Class, error) {
	db, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return findClass(db, id)
}

// ClassInput is the payload for creating a class.
type ClassInput struct {
	Name      string                `json:"name" validate:"required"`
	Semesters int                   `json:"semesters" validate:"gte=0,lte=12"`
	Students  []models.ClassStudent `json:"students"`
}

// CreateClass adds a new, empty class.
func (s *Service) CreateClass(in ClassInput) (*models.Class, error) {
	if err := s.validate.check(in, "invalid class"); err != nil {
		return nil, err
	}

	class := models.Class{
		ID:                      uuid.NewString(),
		Name:                    strings.TrimSpace(in.Name),
		Semesters:               in.Semesters,
		Students:                in.Students,
		ScholarshipApplications: []models.ScholarshipApplication{},
		Internals:               []models.InternalRecord{},
	}
	if class.Students == nil {
		class.Students = []models.ClassStudent{}
	}
	for i := range class.Students {
		if class.Students[i].Requests == nil {
			class.Students[i].Requests = []models.Request{}
		}
	}

	err := s.store.Update(func(db *models.Database) error {
		db.Classes = append(db.Classes, class)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// AddInternals stores an extracted eligibility report for a class
// semester. A previous upload for the same semester is replaced.
func (s *Service) AddInternals(classID, semester, fileURL string, report *models.ExtractionReport, layout models.Layout) (*models.InternalRecord, error) {
	if strings.TrimSpace(semester) == "" {
		return nil, NewValidationError(errors.New("semester is required"),
			FieldError{Field: "semester", Error: requiredText})
	}

	record := models.InternalRecord{
		Semester:      semester,
		FileURL:       fileURL,
		ExtractedData: report,
		UploadDate:    s.timestamp(),
		Layout:        layout,
	}

	err := s.store.Update(func(db *models.Database) error {
		class, err := findClass(db, classID)
		if err != nil {
			return err
		}
		for i := range class.Internals {
			if class.Internals[i].Semester == semester {
				log.Infof("replacing semester %s internals of class %s", semester, classID)
				class.Internals[i] = record
				return nil
			}
		}
		class.Internals = append(class.Internals, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteInternals removes the internals record of a class semester.
func (s *Service) DeleteInternals(classID, semester string) error {
	return s.store.Update(func(db *models.Database) error {
		class, err := findClass(db, classID)
		if err != nil {
			return err
		}
		for i := range class.Internals {
			if class.Internals[i].Semester == semester {
				class.Internals = append(class.Internals[:i], class.Internals[i+1:]...)
				return nil
			}
		}
		return errors.Wrapf(ErrNotFound, "internal record for semester %q", semester)
	})
}

// ActivityInput is a student's activity certificate submission.
type ActivityInput struct {
	StudentID    string `json:"studentId" validate:"required"`
	StudentName  string `json:"studentName"`
	ClassID      string `json:"classId" validate:"required"`
	ActivityType string `json:"activityType" validate:"required"`
	Level        string `json:"level"`
	ProofURL     string `json:"proofUrl" validate:"required"`
}

// SaveActivity records a pending activity and mirrors it as a certificate
// request on the student, when the student is enrolled in the class.
func (s *Service) SaveActivity(in ActivityInput) (*models.Activity, error) {
	if err := s.validate.check(in, "Missing required fields"); err != nil {
		return nil, err
	}

	level := in.Level
	if level == "" {
		level = DefaultLevel
	}
	now := s.now()
	activity := models.Activity{
		ID:           fmt.Sprintf("act-%d", now.UnixMilli()),
		StudentID:    in.StudentID,
		StudentName:  in.StudentName,
		ClassID:      in.ClassID,
		ActivityType: in.ActivityType,
		Level:        level,
		MaxPoints:    MaxPoints(in.ActivityType, level),
		ProofURL:     in.ProofURL,
		Status:       models.StatusPending,
		Date:         now.UTC().Format(timestampLayout),
	}

	err := s.store.Update(func(db *models.Database) error {
		db.ActivityPoints = append(db.ActivityPoints, activity)

		class, err := findClass(db, in.ClassID)
		if err != nil {
			log.Warnf("activity %s: %v", activity.ID, err)
			return nil
		}
		student := findStudent(class, in.StudentID)
		if student == nil {
			log.Warnf("activity %s: student %q not in class %q", activity.ID, in.StudentID, in.ClassID)
			return nil
		}
		student.Requests = append(student.Requests, models.Request{
			ID:           activity.ID,
			Category:     "certificate",
			Status:       models.StatusPending,
			FileName:     proofFileName(in.ProofURL),
			Date:         activity.Date,
			ActivityType: activity.ActivityType,
			Level:        activity.Level,
			MaxPoints:    activity.MaxPoints,
			ProofURL:     activity.ProofURL,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func proofFileName(proofURL string) string {
	if i := strings.LastIndex(proofURL, "/"); i >= 0 {
		return proofURL[i+1:]
	}
	return proofURL
}

// ListActivities returns all activities, or those of one class when
// classID is set.
func (s *Service) ListActivities(classID string) ([]models.Activity, error) {
	db, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if classID == "" {
		return db.ActivityPoints, nil
	}
	out := []models.Activity{}
	for _, a := range db.ActivityPoints {
		if a.ClassID == classID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ActivityDecision is a tutor's review of an activity.
type ActivityDecision struct {
	Status        string `json:"status" validate:"required"`
	PointsAwarded *int   `json:"pointsAwarded"`
}

// UpdateActivity applies a tutor's decision. Approval needs a points
// value between 0 and the activity's maximum; any other status awards 0.
func (s *Service) UpdateActivity(activityID string, in ActivityDecision) (*models.Activity, error) {
	if err := s.validate.check(in, "Invalid request data"); err != nil {
		return nil, err
	}
	approved := in.Status == models.StatusApproved
	if approved && (in.PointsAwarded == nil || *in.PointsAwarded < 0) {
		return nil, NewValidationError(errors.New("Invalid request data"),
			FieldError{Field: "pointsAwarded", Error: "must be a number of at least 0"})
	}

	var updated models.Activity
	err := s.store.Update(func(db *models.Database) error {
		var activity *models.Activity
		for i := range db.ActivityPoints {
			if db.ActivityPoints[i].ID == activityID {
				activity = &db.ActivityPoints[i]
				break
			}
		}
		if activity == nil {
			return errors.Wrapf(ErrNotFound, "activity %q", activityID)
		}

		points := 0
		if approved {
			points = *in.PointsAwarded
			if points > activity.MaxPoints {
				return NewValidationError(
					errors.Errorf("Points cannot exceed %d", activity.MaxPoints),
					FieldError{Field: "pointsAwarded", Error: fmt.Sprintf("must be at most %d", activity.MaxPoints)},
				)
			}
		}

		activity.Status = in.Status
		activity.PointsAwarded = points
		activity.DecisionDate = s.timestamp()
		updated = *activity

		class, err := findClass(db, activity.ClassID)
		if err != nil {
			return nil
		}
		if student := findStudent(class, activity.StudentID); student != nil {
			if req := findRequest(student, activityID); req != nil {
				req.Status = in.Status
				if approved && points != 0 {
					req.AwardedPoints = points
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ApplicationDecision sets the status of a scholarship application.
type ApplicationDecision struct {
	AppID  string `json:"appId" validate:"required"`
	Status string `json:"status" validate:"required"`
}

// UpdateApplicationStatus updates a class's scholarship application and
// the student's mirrored request.
func (s *Service) UpdateApplicationStatus(classID string, in ApplicationDecision) error {
	if err := s.validate.check(in, "invalid application update"); err != nil {
		return err
	}
	return s.store.Update(func(db *models.Database) error {
		class, err := findClass(db, classID)
		if err != nil {
			return err
		}
		var app *models.ScholarshipApplication
		for i := range class.ScholarshipApplications {
			if class.ScholarshipApplications[i].ID == in.AppID {
				app = &class.ScholarshipApplications[i]
				break
			}
		}
		if app == nil {
			return errors.Wrapf(ErrNotFound, "application %q", in.AppID)
		}
		app.Status = in.Status

		if student := findStudent(class, app.StudentID); student != nil {
			if req := findRequest(student, in.AppID); req != nil {
				req.Status = in.Status
			}
		}
		return nil
	})
}

// PasswordHash returns the stored bcrypt hash for a login, searching
// tutors by username and students by id or register number. found is
// false when no account exists.
func (s *Service) PasswordHash(username, role string) (hash string, found bool, err error) {
	db, err := s.store.Load()
	if err != nil {
		return "", false, err
	}
	switch role {
	case "tutor":
		for _, t := range db.Tutors {
			if t.Username == username {
				return t.PasswordHash, true, nil
			}
		}
	case "student":
		match := func(st models.ClassStudent) bool {
			return st.ID == username || (st.RegisterNo != "" && st.RegisterNo == username)
		}
		for _, st := range db.Students {
			if match(st) {
				return st.PasswordHash, true, nil
			}
		}
		for _, c := range db.Classes {
			for _, st := range c.Students {
				if match(st) {
					return st.PasswordHash, true, nil
				}
			}
		}
	}
	return "", false, nil
}
