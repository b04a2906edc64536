package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/xuri/excelize/v2"

	"github.com/et0and/ocular/internal/storage"
)

const (
	sheetName  = "Submissions"
	timeLayout = "2006-01-02 15:04:05"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// XLSXExporter writes each report as a spreadsheet into a BlobStore.
type XLSXExporter struct {
	Store storage.BlobStore
	Out   io.Writer // optional: where to announce the written file
}

// Key names the export "<course>/<coursework>-<YYYYMMDD-HHMMSS>.xlsx".
func Key(r Report) string {
	return fmt.Sprintf("%s/%s-%s.xlsx",
		safe(r.CourseID), safe(r.CourseWorkID), r.GeneratedAt.UTC().Format("20060102-150405"))
}

func safe(s string) string {
	s = unsafeKeyChars.ReplaceAllString(s, "_")
	if s == "" {
		return "_"
	}
	return s
}

func (x *XLSXExporter) Record(_ context.Context, r Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return fmt.Errorf("report: encode xlsx: %w", err)
	}
	key, err := x.Store.Put(Key(r), &buf)
	if err != nil {
		return fmt.Errorf("report: store xlsx: %w", err)
	}
	if x.Out != nil {
		if u, err := x.Store.URL(key); err == nil {
			fmt.Fprintf(x.Out, "Saved report to %s\n", u)
		}
	}
	return nil
}

// Workbook renders r as a single-sheet workbook.
func Workbook(r Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, err
	}

	meta := [][]any{
		{"Course", r.CourseName, r.CourseID},
		{"Assignment", r.CourseWorkTitle, r.CourseWorkID},
		{"Generated", r.GeneratedAt.UTC().Format(timeLayout)},
		{"Turned in", fmt.Sprintf("%d of %d", r.TurnedIn(), len(r.Rows))},
	}
	for i, row := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}

	const headerRow = 6
	header := []any{"Student ID", "Student", "State", "Turned in", "Last edited"}
	cell, _ := excelize.CoordinatesToCellName(1, headerRow)
	if err := f.SetSheetRow(sheetName, cell, &header); err != nil {
		f.Close()
		return nil, err
	}
	for i, row := range r.Rows {
		state := row.State
		if row.Missing {
			state = "NO_SUBMISSION"
		}
		last := ""
		if row.LastUpdate != nil {
			last = row.LastUpdate.Format(timeLayout)
		}
		values := []any{row.StudentID, row.StudentName, state, yesNo(row.TurnedIn), last}
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
