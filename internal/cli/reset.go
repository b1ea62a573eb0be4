// reset.go implements the "intake reset" command which discards the saved
// interview.
package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the saved interview",
	Long: `Delete the saved interview so the next run starts from the first topic.
With the sqlite store this removes every recorded session.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var yesFlag bool

func init() {
	resetCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Do not ask for confirmation")
}

func runReset(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !yesFlag {
		fmt.Fprint(out, "Delete the saved interview? [y/N]: ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := ws.store.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("resetting session: %w", err)
	}
	fmt.Fprintln(out, "Saved interview removed.")
	return nil
}
