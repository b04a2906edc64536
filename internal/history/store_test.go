package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/et0and/ocular/internal/db"
	"github.com/et0and/ocular/internal/history"
	"github.com/et0and/ocular/internal/report"
)

func newStore(t *testing.T) *history.Store {
	t.Helper()
	h, err := db.Open(context.Background(), db.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return history.NewStore(h)
}

func TestStore_LastOnEmpty(t *testing.T) {
	s := newStore(t)
	if _, ok, err := s.Last(context.Background(), "c1", "w1"); ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestStore_RecordThenLast(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	edited := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	older := report.Report{
		CourseID: "c1", CourseName: "Math", CourseWorkID: "w1", CourseWorkTitle: "Essay",
		GeneratedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Rows:        []report.Row{{StudentID: "a", StudentName: "Ada", State: "CREATED"}},
	}
	newer := older
	newer.GeneratedAt = older.GeneratedAt.Add(24 * time.Hour)
	newer.Rows = []report.Row{
		{StudentID: "a", StudentName: "Ada", State: "TURNED_IN", TurnedIn: true, LastUpdate: &edited},
		{StudentID: "b", StudentName: "Bob", Missing: true},
	}

	for _, r := range []report.Report{older, newer} {
		if err := s.Record(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	sum, ok, err := s.Last(ctx, "c1", "w1")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if sum.TurnedIn != 1 || sum.Total != 2 || !sum.GeneratedAt.Equal(newer.GeneratedAt) {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	rows, err := s.Rows(ctx, sum.ID)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %+v", rows)
	}
	byID := map[string]report.Row{}
	for _, r := range rows {
		byID[r.StudentID] = r
	}
	if a := byID["a"]; !a.TurnedIn || a.LastUpdate == nil || !a.LastUpdate.Equal(edited) {
		t.Fatalf("unexpected row a: %+v", a)
	}
	if b := byID["b"]; !b.Missing || b.LastUpdate != nil {
		t.Fatalf("unexpected row b: %+v", b)
	}

	if _, ok, _ := s.Last(ctx, "c1", "other"); ok {
		t.Fatalf("reports must be scoped by assignment")
	}
}
