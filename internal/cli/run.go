// run.go implements the "intake run" command which drives one interview
// session from the first unanswered topic to completion.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/berth-dev/intake/internal/console"
	"github.com/berth-dev/intake/internal/interview"
	"github.com/berth-dev/intake/internal/report"
	"github.com/berth-dev/intake/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start or resume the interview",
	Long: `Start the interview, or resume the saved one. Uses the chat UI when
stdin and stdout are terminals and a line-oriented console otherwise.
Type 'exit' in the console to stop; progress is saved after every answer.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	freshFlag   bool
	consoleFlag bool
)

func init() {
	addRunFlags(runCmd)
}

// addRunFlags registers the run flags on cmd. The root command shares them
// because running with no subcommand starts the interview.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&freshFlag, "fresh", false, "Discard any saved interview and start over")
	cmd.Flags().BoolVar(&consoleFlag, "console", false, "Use the line-oriented console even on a terminal")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	ctl, err := ws.controller(ctx)
	if err != nil {
		return err
	}

	s, err := startSession(ctx, ws, ctl, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if s.Complete() {
		fmt.Fprintln(out, "The saved interview is already complete. Use 'intake run --fresh' to start over.")
		fmt.Fprint(out, report.FormatReport(report.Build(s, ws.catalog)))
		return nil
	}

	if consoleFlag || !tui.IsTTY() {
		r := console.New(ctl, cmd.InOrStdin(), out, console.WithVerbose(verbose))
		if err := r.Run(ctx, s); err != nil && ctx.Err() == nil {
			return err
		}
	} else {
		m := tui.NewModel(ctx, ctl, s)
		err := tui.Run(m)
		m.Close()
		if err != nil {
			return fmt.Errorf("running interview UI: %w", err)
		}
	}

	fmt.Fprint(out, "\n"+report.FormatReport(report.Build(s, ws.catalog)))
	return nil
}

// startSession resumes the saved session unless --fresh is set, and starts
// a new one otherwise. A new session is saved before the first question so
// that status and export see it immediately.
func startSession(ctx context.Context, ws *workspace, ctl *interview.Controller, warn io.Writer) (*interview.Session, error) {
	if !freshFlag {
		s, err := ws.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading session: %w", err)
		}
		if s != nil {
			if err := ctl.Resume(s); err != nil {
				return nil, fmt.Errorf("resuming session: %w", err)
			}
			return s, nil
		}
	}

	s := ctl.NewSession()
	if err := ws.store.Save(ctx, s); err != nil {
		fmt.Fprintf(warn, "Warning: could not save session: %v\n", err)
	}
	return s, nil
}
