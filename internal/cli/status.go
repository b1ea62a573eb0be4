// status.go implements the "intake status" command showing interview progress.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/berth-dev/intake/internal/report"
	"github.com/berth-dev/intake/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show interview progress",
	Long: `Display the saved interview: each topic with its status, score and
the answers given so far. With --all, list recent sessions (sqlite store only).`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var (
	allFlag   bool
	limitFlag int
)

func init() {
	statusCmd.Flags().BoolVar(&allFlag, "all", false, "List recent sessions instead of the latest one")
	statusCmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum sessions to list with --all")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if allFlag {
		db, ok := ws.store.(*session.SQLiteStore)
		if !ok {
			return errors.New("--all requires the sqlite store backend (store.backend: sqlite)")
		}
		sessions, err := db.ListSessions(ctx, limitFlag)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No saved interviews.")
			return nil
		}
		for _, s := range sessions {
			fmt.Fprintf(out, "  %s  %d/%d  %-26s  %s\n",
				s.ID, s.Completed, s.Total, s.CurrentTopic, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	}

	s, err := ws.loadSession(ctx)
	if err != nil {
		return err
	}

	r := report.Build(s, ws.catalog)
	events, err := ws.logger.ReadAll()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not read event log: %v\n", err)
	} else {
		r.AddEvents(events)
	}

	fmt.Fprint(out, report.FormatReport(r))
	return nil
}
