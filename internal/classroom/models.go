package classroom

import "time"

// Role is the caller's role in a course. The zero value means the role
// could not be resolved.
type Role string

const (
	RoleUnknown Role = ""
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

const (
	CourseStateActive = "ACTIVE"

	StateTurnedIn = "TURNED_IN"
	StateReturned = "RETURNED"
	StateCreated  = "CREATED"
	StateNew      = "NEW"
	StateReclaim  = "RECLAIMED_BY_STUDENT"
)

type Course struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

type CourseWork struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
}

type Student struct {
	UserID     string `json:"user_id"`
	CourseID   string `json:"course_id"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	FullName   string `json:"full_name,omitempty"`
}

// DisplayName prefers "given family" and falls back to the full name, then the id.
func (s Student) DisplayName() string {
	switch {
	case s.GivenName != "" || s.FamilyName != "":
		if s.GivenName == "" {
			return s.FamilyName
		}
		if s.FamilyName == "" {
			return s.GivenName
		}
		return s.GivenName + " " + s.FamilyName
	case s.FullName != "":
		return s.FullName
	default:
		return s.UserID
	}
}

type Attachment struct {
	Title      string    `json:"title"`
	UpdateTime time.Time `json:"update_time"`
}

type Submission struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	CourseWorkID string       `json:"course_work_id"`
	State        string       `json:"state"`
	UpdateTime   time.Time    `json:"update_time"`
	Attachments  []Attachment `json:"attachments,omitempty"`
}

func (s Submission) TurnedIn() bool { return s.State == StateTurnedIn }
