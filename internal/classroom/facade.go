package classroom

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"google.golang.org/api/googleapi"
)

// API is the slice of the Classroom service the facade reads from.
type API interface {
	ListCourses(ctx context.Context, state string) ([]Course, error)
	ListCourseWork(ctx context.Context, courseID string) ([]CourseWork, error)
	CallerID(ctx context.Context) (string, error)
	GetTeacher(ctx context.Context, courseID, userID string) error
	ListStudents(ctx context.Context, courseID string) ([]Student, error)
	ListSubmissions(ctx context.Context, courseID, courseWorkID string) ([]Submission, error)
}

// Dialer returns a freshly authenticated API. Errors from a Dialer are
// credential failures and are never swallowed by the Facade.
type Dialer func(ctx context.Context) (API, error)

// Facade runs one remote read per call. Remote errors are logged and
// degrade to an empty result; dial errors are returned.
type Facade struct {
	Dial Dialer
	Log  *log.Logger
}

func NewFacade(dial Dialer, logger *log.Logger) *Facade {
	if logger == nil {
		logger = log.Default()
	}
	return &Facade{Dial: dial, Log: logger}
}

func (f *Facade) ListCourses(ctx context.Context) ([]Course, error) {
	api, err := f.dial(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := api.ListCourses(ctx, CourseStateActive)
	if err != nil {
		f.logf("An error occurred listing courses: %v", err)
		return []Course{}, nil
	}
	return courses, nil
}

func (f *Facade) ListCourseWork(ctx context.Context, courseID string) ([]CourseWork, error) {
	api, err := f.dial(ctx)
	if err != nil {
		return nil, err
	}
	work, err := api.ListCourseWork(ctx, courseID)
	if err != nil {
		f.logf("An error occurred listing course work for %s: %v", courseID, err)
		return []CourseWork{}, nil
	}
	return work, nil
}

// CourseRole reports TEACHER when the caller is on the course's teacher
// list, STUDENT when either the profile or the teacher lookup is a 404, and
// RoleUnknown for any other remote failure.
func (f *Facade) CourseRole(ctx context.Context, courseID string) (Role, error) {
	api, err := f.dial(ctx)
	if err != nil {
		return RoleUnknown, err
	}
	me, err := api.CallerID(ctx)
	if err != nil {
		if IsNotFound(err) {
			return RoleStudent, nil
		}
		f.logf("An error occurred resolving the current user: %v", err)
		return RoleUnknown, nil
	}
	if err := api.GetTeacher(ctx, courseID, me); err != nil {
		if IsNotFound(err) {
			return RoleStudent, nil
		}
		f.logf("An error occurred resolving role in %s: %v", courseID, err)
		return RoleUnknown, nil
	}
	return RoleTeacher, nil
}

func (f *Facade) ListStudents(ctx context.Context, courseID string) ([]Student, error) {
	api, err := f.dial(ctx)
	if err != nil {
		return nil, err
	}
	students, err := api.ListStudents(ctx, courseID)
	if err != nil {
		f.logf("An error occurred listing students for %s: %v", courseID, err)
		return []Student{}, nil
	}
	return students, nil
}

func (f *Facade) ListSubmissions(ctx context.Context, courseID, courseWorkID string) ([]Submission, error) {
	api, err := f.dial(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := api.ListSubmissions(ctx, courseID, courseWorkID)
	if err != nil {
		f.logf("An error occurred listing submissions for %s/%s: %v", courseID, courseWorkID, err)
		return []Submission{}, nil
	}
	return subs, nil
}

func (f *Facade) dial(ctx context.Context) (API, error) {
	if f == nil || f.Dial == nil {
		return nil, errors.New("classroom: no dialer configured")
	}
	api, err := f.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("classroom: connect: %w", err)
	}
	return api, nil
}

// IsNotFound reports whether err is a Google API 404.
func IsNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

func (f *Facade) logf(format string, args ...any) {
	if f.Log == nil {
		log.Printf(format, args...)
		return
	}
	f.Log.Printf(format, args...)
}
