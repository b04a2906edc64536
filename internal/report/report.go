// Package report builds the per-assignment turn-in report and fans it out
// to sinks (spreadsheet export, history).
package report

import (
	"context"
	"time"

	"github.com/et0and/ocular/internal/classroom"
)

type Row struct {
	StudentID   string
	StudentName string
	State       string
	TurnedIn    bool
	LastUpdate  *time.Time
	Missing     bool // on the roster without a submission
}

type Report struct {
	CourseID        string
	CourseName      string
	CourseWorkID    string
	CourseWorkTitle string
	GeneratedAt     time.Time
	Rows            []Row
}

// TurnedIn counts rows whose submission is turned in.
func (r Report) TurnedIn() int {
	n := 0
	for _, row := range r.Rows {
		if row.TurnedIn {
			n++
		}
	}
	return n
}

type Sink interface {
	Record(ctx context.Context, r Report) error
}

// Build joins the roster with submissions by user id, in roster order.
// Students without a submission are included only when includeMissing is set.
func Build(students []classroom.Student, subs []classroom.Submission, marker string, includeMissing bool) []Row {
	byUser := make(map[string]classroom.Submission, len(subs))
	for _, s := range subs {
		byUser[s.UserID] = s
	}
	rows := make([]Row, 0, len(students))
	for _, st := range students {
		sub, ok := byUser[st.UserID]
		if !ok {
			if includeMissing {
				rows = append(rows, Row{StudentID: st.UserID, StudentName: st.DisplayName(), Missing: true})
			}
			continue
		}
		row := Row{StudentID: st.UserID, StudentName: st.DisplayName(), State: sub.State}
		last, has, turnedIn := classroom.LastUpdate(sub, marker)
		row.TurnedIn = turnedIn
		if has {
			row.LastUpdate = &last
		}
		rows = append(rows, row)
	}
	return rows
}
