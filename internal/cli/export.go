// export.go implements the "intake export" command.
package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/berth-dev/intake/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the interview state as JSON",
	Long: `Write the saved interview as an interview-state JSON document: the
combined answer, satisfaction score and status of every topic.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var outputFlag string

func init() {
	exportCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file (default interview_state_<timestamp>.json)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	s, err := ws.loadSession(cmd.Context())
	if err != nil {
		return err
	}

	now := time.Now()
	path := outputFlag
	if path == "" {
		path = filepath.Join(ws.root, report.DefaultExportName(now))
	}

	if err := report.WriteExport(path, report.BuildExport(s, ws.catalog, now)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Interview state written to %s\n", path)
	return nil
}
