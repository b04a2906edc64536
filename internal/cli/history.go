package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/et0and/ocular/internal/db"
	"github.com/et0and/ocular/internal/history"
	"github.com/et0and/ocular/internal/report"
)

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <course-id> <assignment-id>",
		Short: "Print the last recorded turn-in report for an assignment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			driver, err := db.ParseDriver(a.cfg.HistoryDriver)
			if err != nil {
				return err
			}
			if driver == db.DriverNone {
				return errors.New("history is disabled; set OCULAR_HISTORY_DRIVER")
			}
			h, err := db.Open(ctx, driver, a.cfg.HistoryDSN)
			if err != nil {
				return fmt.Errorf("history db: %w", err)
			}
			defer h.Close()

			st := history.NewStore(h)
			sum, ok, err := st.Last(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(a.out, "No reports recorded for this assignment.")
				return nil
			}
			rows, err := st.Rows(ctx, sum.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Last checked %s: %d of %d turned in\n",
				sum.GeneratedAt.Local().Format(timeLayout), sum.TurnedIn, sum.Total)
			for _, row := range rows {
				fmt.Fprintln(a.out, historyLine(row))
			}
			return nil
		},
	}
}

func historyLine(row report.Row) string {
	if row.Missing {
		return fmt.Sprintf("    %s has no submission for this assignment", row.StudentName)
	}
	status := "not turned in"
	if row.TurnedIn {
		status = "turned in"
	}
	line := fmt.Sprintf("    %s has %s this assignment", row.StudentName, status)
	if row.LastUpdate != nil {
		line += fmt.Sprintf(" (last edited %s)", row.LastUpdate.Format(timeLayout))
	}
	return line
}
