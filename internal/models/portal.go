package models

// Request and activity statuses.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Database is the whole document persisted by the JSON store.
type Database struct {
	Classes        []Class                  `json:"classes"`
	Students       []ClassStudent           `json:"students"`
	Tutors         []Account                `json:"tutors"`
	Scholarships   []ScholarshipApplication `json:"scholarships"`
	ActivityPoints []Activity               `json:"activityPoints"`
}

// Account is a login identity. PasswordHash is a bcrypt hash; accounts
// without one accept any password.
type Account struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// Class is a tutor's class with its students, applications and
// uploaded internals.
type Class struct {
	ID                      string                   `json:"id"`
	Name                    string                   `json:"name"`
	Semesters               int                      `json:"semesters"`
	Archived                bool                     `json:"archived"`
	Students                []ClassStudent           `json:"students"`
	ScholarshipApplications []ScholarshipApplication `json:"scholarshipApplications"`
	Internals               []InternalRecord         `json:"internals"`
}

// ClassStudent is a student enrolled in a class.
type ClassStudent struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	RegisterNo   string    `json:"registerNo,omitempty"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Requests     []Request `json:"requests"`
}

// Request mirrors a student's submission (certificate or scholarship)
// so the student dashboard can show its status.
type Request struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Status        string `json:"status"`
	FileName      string `json:"fileName,omitempty"`
	Date          string `json:"date"`
	ActivityType  string `json:"activityType,omitempty"`
	Level         string `json:"level,omitempty"`
	MaxPoints     int    `json:"maxPoints,omitempty"`
	AwardedPoints int    `json:"awardedPoints"`
	ProofURL      string `json:"proofUrl,omitempty"`
}

// ScholarshipApplication is a scholarship request awaiting a tutor's decision.
type ScholarshipApplication struct {
	ID          string `json:"id"`
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName,omitempty"`
	Scholarship string `json:"scholarship,omitempty"`
	ProofURL    string `json:"proofUrl,omitempty"`
	Status      string `json:"status"`
	Date        string `json:"date,omitempty"`
}

// Activity is a submitted activity certificate and its review outcome.
type Activity struct {
	ID            string `json:"id"`
	StudentID     string `json:"studentId"`
	StudentName   string `json:"studentName"`
	ClassID       string `json:"classId"`
	ActivityType  string `json:"activityType"`
	Level         string `json:"level"`
	MaxPoints     int    `json:"maxPoints"`
	ProofURL      string `json:"proofUrl"`
	PointsAwarded int    `json:"pointsAwarded"`
	Status        string `json:"status"`
	Date          string `json:"date"`
	DecisionDate  string `json:"decisionDate,omitempty"`
}

// InternalRecord is an uploaded semester eligibility report and the data
// extracted from it.
type InternalRecord struct {
	Semester      string            `json:"semester"`
	FileURL       string            `json:"fileUrl"`
	ExtractedData *ExtractionReport `json:"extractedData"`
	UploadDate    string            `json:"uploadDate"`
	Layout        Layout            `json:"layout,omitempty"`
}
