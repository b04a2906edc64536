// Package history keeps past turn-in reports so a teacher can see how an
// assignment progressed between checks.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/et0and/ocular/internal/db"
	"github.com/et0and/ocular/internal/report"
)

// Summary is the headline of a stored report.
type Summary struct {
	ID          string
	GeneratedAt time.Time
	TurnedIn    int
	Total       int
}

type Store struct {
	db *sql.DB
}

func NewStore(h *sql.DB) *Store { return &Store{db: h} }

// Record implements report.Sink.
func (s *Store) Record(ctx context.Context, r report.Report) error {
	id := uuid.NewString()
	return db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO status_reports
		  (id, course_id, course_name, coursework_id, coursework_title, turned_in, total, generated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			id, r.CourseID, r.CourseName, r.CourseWorkID, r.CourseWorkTitle,
			r.TurnedIn(), len(r.Rows), r.GeneratedAt.Unix()); err != nil {
			return fmt.Errorf("history: insert report: %w", err)
		}
		for _, row := range r.Rows {
			var last sql.NullInt64
			if row.LastUpdate != nil {
				last = sql.NullInt64{Int64: row.LastUpdate.Unix(), Valid: true}
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO status_rows
			  (report_id, student_id, student_name, state, turned_in, missing, last_update)
			  VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				id, row.StudentID, row.StudentName, row.State, row.TurnedIn, row.Missing, last); err != nil {
				return fmt.Errorf("history: insert row %s: %w", row.StudentID, err)
			}
		}
		return nil
	})
}

// Last returns the newest report for an assignment; ok is false if none exist.
func (s *Store) Last(ctx context.Context, courseID, courseWorkID string) (Summary, bool, error) {
	var (
		sum Summary
		ts  int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, turned_in, total, generated_at
	  FROM status_reports WHERE course_id=$1 AND coursework_id=$2
	  ORDER BY generated_at DESC LIMIT 1`, courseID, courseWorkID).
		Scan(&sum.ID, &sum.TurnedIn, &sum.Total, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, fmt.Errorf("history: last report: %w", err)
	}
	sum.GeneratedAt = time.Unix(ts, 0)
	return sum, true, nil
}

// Rows loads the rows of a stored report in insertion order.
func (s *Store) Rows(ctx context.Context, reportID string) ([]report.Row, error) {
	rs, err := s.db.QueryContext(ctx, `SELECT student_id, student_name, state, turned_in, missing, last_update
	  FROM status_rows WHERE report_id=$1`, reportID)
	if err != nil {
		return nil, fmt.Errorf("history: rows: %w", err)
	}
	defer rs.Close()

	var out []report.Row
	for rs.Next() {
		var (
			row  report.Row
			last sql.NullInt64
		)
		if err := rs.Scan(&row.StudentID, &row.StudentName, &row.State, &row.TurnedIn, &row.Missing, &last); err != nil {
			return nil, err
		}
		if last.Valid {
			t := time.Unix(last.Int64, 0).UTC()
			row.LastUpdate = &t
		}
		out = append(out, row)
	}
	return out, rs.Err()
}
