package classroom

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	gclassroom "google.golang.org/api/classroom/v1"
	"google.golang.org/api/option"
)

// Scopes are the read-only scopes the facade needs.
var Scopes = []string{
	gclassroom.ClassroomCoursesReadonlyScope,
	gclassroom.ClassroomRostersReadonlyScope,
	gclassroom.ClassroomCourseworkStudentsReadonlyScope,
}

type googleAPI struct {
	svc *gclassroom.Service
	log *log.Logger
}

// NewAPI wraps the Classroom v1 service around an authenticated client.
// Extra options (e.g. option.WithEndpoint) are applied after the client.
// A nil logger falls back to the std logger.
func NewAPI(ctx context.Context, hc *http.Client, logger *log.Logger, opts ...option.ClientOption) (API, error) {
	all := append([]option.ClientOption{option.WithHTTPClient(hc)}, opts...)
	svc, err := gclassroom.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("classroom: new service: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &googleAPI{svc: svc, log: logger}, nil
}

func (g *googleAPI) ListCourses(ctx context.Context, state string) ([]Course, error) {
	call := g.svc.Courses.List().Context(ctx)
	if state != "" {
		call = call.CourseStates(state)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, err
	}
	out := make([]Course, 0, len(resp.Courses))
	for _, c := range resp.Courses {
		out = append(out, Course{ID: c.Id, Name: c.Name, State: c.CourseState})
	}
	return out, nil
}

func (g *googleAPI) ListCourseWork(ctx context.Context, courseID string) ([]CourseWork, error) {
	resp, err := g.svc.Courses.CourseWork.List(courseID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([]CourseWork, 0, len(resp.CourseWork))
	for _, w := range resp.CourseWork {
		out = append(out, CourseWork{ID: w.Id, CourseID: w.CourseId, Title: w.Title})
	}
	return out, nil
}

func (g *googleAPI) CallerID(ctx context.Context) (string, error) {
	p, err := g.svc.UserProfiles.Get("me").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return p.Id, nil
}

func (g *googleAPI) GetTeacher(ctx context.Context, courseID, userID string) error {
	_, err := g.svc.Courses.Teachers.Get(courseID, userID).Context(ctx).Do()
	return err
}

func (g *googleAPI) ListStudents(ctx context.Context, courseID string) ([]Student, error) {
	resp, err := g.svc.Courses.Students.List(courseID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([]Student, 0, len(resp.Students))
	for _, s := range resp.Students {
		st := Student{UserID: s.UserId, CourseID: s.CourseId}
		if s.Profile != nil && s.Profile.Name != nil {
			st.GivenName = s.Profile.Name.GivenName
			st.FamilyName = s.Profile.Name.FamilyName
			st.FullName = s.Profile.Name.FullName
		}
		out = append(out, st)
	}
	return out, nil
}

func (g *googleAPI) ListSubmissions(ctx context.Context, courseID, courseWorkID string) ([]Submission, error) {
	resp, err := g.svc.Courses.CourseWork.StudentSubmissions.List(courseID, courseWorkID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([]Submission, 0, len(resp.StudentSubmissions))
	for _, s := range resp.StudentSubmissions {
		out = append(out, g.submissionFromAPI(s))
	}
	return out, nil
}

// Drive attachments have no timestamp of their own, so each one carries the
// submission's updateTime. Without a usable updateTime they carry none.
func (g *googleAPI) submissionFromAPI(s *gclassroom.StudentSubmission) Submission {
	sub := Submission{
		ID:           s.Id,
		UserID:       s.UserId,
		CourseWorkID: s.CourseWorkId,
		State:        s.State,
	}
	if ts, ok := parseTime(s.UpdateTime); ok {
		sub.UpdateTime = ts
	} else if s.UpdateTime != "" {
		g.log.Printf("An error occurred reading updateTime %q of submission %s", s.UpdateTime, s.Id)
	}
	if s.AssignmentSubmission == nil {
		return sub
	}
	for _, a := range s.AssignmentSubmission.Attachments {
		if a == nil || a.DriveFile == nil {
			continue
		}
		sub.Attachments = append(sub.Attachments, Attachment{
			Title:      a.DriveFile.Title,
			UpdateTime: sub.UpdateTime,
		})
	}
	return sub
}

// parseTime reads an RFC 3339 timestamp; ok is false for empty or malformed input.
func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
