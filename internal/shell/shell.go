// Package shell is the interactive prompt loop: pick a course, pick an
// assignment, see who turned it in, repeat.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/et0and/ocular/internal/cache"
	"github.com/et0and/ocular/internal/classroom"
	"github.com/et0and/ocular/internal/history"
	"github.com/et0and/ocular/internal/report"
	"github.com/et0and/ocular/internal/spinner"
)

const timeLayout = "2006-01-02 15:04:05"

// Querier is satisfied by *classroom.Facade.
type Querier interface {
	ListCourses(ctx context.Context) ([]classroom.Course, error)
	CourseRole(ctx context.Context, courseID string) (classroom.Role, error)
	ListCourseWork(ctx context.Context, courseID string) ([]classroom.CourseWork, error)
	ListStudents(ctx context.Context, courseID string) ([]classroom.Student, error)
	ListSubmissions(ctx context.Context, courseID, courseWorkID string) ([]classroom.Submission, error)
}

// History is satisfied by *history.Store.
type History interface {
	Last(ctx context.Context, courseID, courseWorkID string) (history.Summary, bool, error)
}

type Shell struct {
	Q     Querier
	Cache cache.CourseWork
	In    io.Reader
	Out   io.Writer
	Log   *log.Logger

	Sinks   []report.Sink
	History History

	Marker      string
	ShowMissing bool
	Color       bool
	Now         func() time.Time
	SpinnerOpts []spinner.Option
}

type state int

const (
	stateListCourses state = iota
	stateAwaitCourse
	stateShowAssignments
	stateAwaitAssignment
	stateShowStatus
	stateAwaitContinue
	stateDone
)

func (s state) String() string {
	return [...]string{
		"ListCourses", "AwaitCourseSelection", "ShowAssignments",
		"AwaitAssignmentSelection", "ShowSubmissionStatus", "AwaitContinue", "Done",
	}[s]
}

// session holds what one Run learns along the way.
type session struct {
	*Shell
	in *bufio.Scanner
	p  palette

	courses []classroom.Course // teacher courses, API order
	names   map[string]string

	courseID     string
	courseWorkID string
	work         []classroom.CourseWork
}

// Run drives the state machine until the operator says "no" or input ends.
// Only credential failures are returned as errors.
func (s *Shell) Run(ctx context.Context) error {
	if s.Cache == nil {
		s.Cache = cache.NewMemory(0)
	}
	ss := &session{
		Shell: s,
		in:    bufio.NewScanner(s.In),
		p:     newPalette(s.Color),
		names: map[string]string{},
	}
	st := stateListCourses
	for st != stateDone {
		next, err := ss.step(ctx, st)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.Out)
			return nil
		}
		if err != nil {
			return err
		}
		st = next
	}
	return nil
}

func (ss *session) step(ctx context.Context, st state) (state, error) {
	switch st {
	case stateListCourses:
		if err := ss.loadCourses(ctx); err != nil {
			return st, err
		}
		fmt.Fprintln(ss.Out, ss.p.prompt.Sprint("Here are your classes ↴"))
		if len(ss.courses) == 0 {
			fmt.Fprintln(ss.Out, "You are not a teacher in any active class.")
		}
		for _, c := range ss.courses {
			fmt.Fprintf(ss.Out, "%s ID: %s\n", c.Name, ss.p.bold.Sprint(c.ID))
		}
		return stateAwaitCourse, nil

	case stateAwaitCourse:
		id, err := ss.prompt("Enter course ID: ")
		if err != nil {
			return st, err
		}
		if _, ok := ss.names[id]; !ok {
			fmt.Fprintln(ss.Out, "Invalid course ID. Try again.")
			return stateAwaitCourse, nil
		}
		ss.courseID = id
		return stateShowAssignments, nil

	case stateShowAssignments:
		work, err := ss.courseWork(ctx, ss.courseID)
		if err != nil {
			return st, err
		}
		ss.work = work
		for _, w := range work {
			fmt.Fprintf(ss.Out, "  %s ID: %s\n", w.Title, ss.p.bold.Sprint(w.ID))
		}
		fmt.Fprintln(ss.Out)
		return stateAwaitAssignment, nil

	case stateAwaitAssignment:
		id, err := ss.prompt("Enter assignment ID: ")
		if err != nil {
			return st, err
		}
		ss.courseWorkID = id
		return stateShowStatus, nil

	case stateShowStatus:
		if err := ss.showStatus(ctx); err != nil {
			return st, err
		}
		return stateAwaitContinue, nil

	case stateAwaitContinue:
		ans, err := ss.prompt("Do you want to look at another class? (Yes/No): ")
		if err != nil {
			return st, err
		}
		if strings.EqualFold(ans, "no") {
			fmt.Fprintln(ss.Out, ss.p.prompt.Sprint("Bye!"))
			return stateDone, nil
		}
		fmt.Fprintln(ss.Out, ss.p.prompt.Sprint("Returning to class lists..."))
		for _, c := range ss.courses {
			fmt.Fprintf(ss.Out, "%s: %s\n", c.Name, c.ID)
		}
		return stateAwaitCourse, nil
	}
	return stateDone, fmt.Errorf("shell: unknown state %d", st)
}

// loadCourses keeps active courses where the caller teaches, under the spinner.
func (ss *session) loadCourses(ctx context.Context) error {
	return spinner.With(ctx, ss.Out, ss.p.prompt.Sprint("Ocular is thinking... "), func(ctx context.Context) error {
		courses, err := ss.Q.ListCourses(ctx)
		if err != nil {
			return err
		}
		for _, c := range courses {
			role, err := ss.Q.CourseRole(ctx, c.ID)
			if err != nil {
				return err
			}
			if role != classroom.RoleTeacher {
				continue
			}
			ss.courses = append(ss.courses, c)
			ss.names[c.ID] = c.Name
		}
		return nil
	}, ss.SpinnerOpts...)
}

func (ss *session) courseWork(ctx context.Context, courseID string) ([]classroom.CourseWork, error) {
	if work, ok := ss.Cache.Get(ctx, courseID); ok {
		return work, nil
	}
	work, err := ss.Q.ListCourseWork(ctx, courseID)
	if err != nil {
		return nil, err
	}
	ss.Cache.Set(ctx, courseID, work)
	return work, nil
}

func (ss *session) showStatus(ctx context.Context) error {
	students, err := ss.Q.ListStudents(ctx, ss.courseID)
	if err != nil {
		return err
	}
	subs, err := ss.Q.ListSubmissions(ctx, ss.courseID, ss.courseWorkID)
	if err != nil {
		return err
	}

	if ss.History != nil {
		if sum, ok, err := ss.History.Last(ctx, ss.courseID, ss.courseWorkID); err != nil {
			ss.logf("ocular: history lookup: %v", err)
		} else if ok {
			fmt.Fprintf(ss.Out, "  Last checked %s: %d of %d turned in\n",
				sum.GeneratedAt.Local().Format(timeLayout), sum.TurnedIn, sum.Total)
		}
	}

	rows := report.Build(students, subs, ss.Marker, ss.ShowMissing)
	for _, row := range rows {
		fmt.Fprintln(ss.Out, ss.statusLine(row))
	}

	r := report.Report{
		CourseID:        ss.courseID,
		CourseName:      ss.names[ss.courseID],
		CourseWorkID:    ss.courseWorkID,
		CourseWorkTitle: ss.workTitle(ss.courseWorkID),
		GeneratedAt:     ss.now(),
		Rows:            rows,
	}
	for _, sink := range ss.Sinks {
		if err := sink.Record(ctx, r); err != nil {
			ss.logf("ocular: record report: %v", err)
		}
	}
	return nil
}

func (ss *session) statusLine(row report.Row) string {
	name := ss.p.student.Sprint(row.StudentName)
	if row.Missing {
		return fmt.Sprintf("    %s has %s for this assignment 💀", name, ss.p.bold.Sprint("no submission"))
	}
	status, glyph := "not turned in", "💀"
	if row.TurnedIn {
		status, glyph = "turned in", "😀"
	}
	line := fmt.Sprintf("    %s has %s this assignment %s", name, ss.p.bold.Sprint(status), glyph)
	if row.LastUpdate != nil {
		line += fmt.Sprintf(" (last edited %s)", row.LastUpdate.Format(timeLayout))
	}
	return line
}

func (ss *session) workTitle(id string) string {
	for _, w := range ss.work {
		if w.ID == id {
			return w.Title
		}
	}
	return ""
}

// prompt prints label and reads one line as typed. io.EOF ends the session.
func (ss *session) prompt(label string) (string, error) {
	fmt.Fprint(ss.Out, ss.p.prompt.Sprint(label))
	if !ss.in.Scan() {
		if err := ss.in.Err(); err != nil {
			return "", fmt.Errorf("shell: read input: %w", err)
		}
		return "", io.EOF
	}
	return ss.in.Text(), nil
}

func (ss *session) now() time.Time {
	if ss.Now != nil {
		return ss.Now()
	}
	return time.Now()
}

func (ss *session) logf(format string, args ...any) {
	if ss.Log == nil {
		log.Printf(format, args...)
		return
	}
	ss.Log.Printf(format, args...)
}
