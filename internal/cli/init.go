// init.go implements the "intake init" command.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/berth-dev/intake/internal/config"
	"github.com/berth-dev/intake/internal/topic"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize intake in the current project",
	Long: `Create .intake/ with a default config.yaml and an editable topics.yaml
holding the built-in interview agenda.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	forceFlag    bool
	storeFlag    string
	providerFlag string
)

func init() {
	initCmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing configuration without asking")
	initCmd.Flags().StringVar(&storeFlag, "store", config.BackendFile, "Session store backend: file or sqlite")
	initCmd.Flags().StringVar(&providerFlag, "provider", config.ProviderClaude, "Judge provider: claude, openai or gemini")
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("resolving project directory: %w", err)
	}
	out := cmd.OutOrStdout()

	configPath := filepath.Join(root, config.Dir, "config.yaml")
	if _, statErr := os.Stat(configPath); statErr == nil && !forceFlag {
		fmt.Fprintf(out, "Warning: %s already exists.\n", configPath)
		fmt.Fprint(out, "Reinitialize? [y/N]: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	cfg.Judge.Provider = providerFlag
	cfg.Store.Backend = storeFlag
	if storeFlag == config.BackendSQLite {
		cfg.Store.Path = "intake.db"
	}
	cfg.Catalog = "topics.yaml"
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.WriteConfig(root, cfg); err != nil {
		return err
	}
	if err := topic.Write(cfg.CatalogPath(root), topic.Default()); err != nil {
		return err
	}

	fmt.Fprintf(out, "Initialized %s\n", filepath.Join(root, config.Dir))
	fmt.Fprintf(out, "  config:  %s\n", configPath)
	fmt.Fprintf(out, "  topics:  %s\n", cfg.CatalogPath(root))
	fmt.Fprintf(out, "  store:   %s (%s)\n", cfg.StorePath(root), cfg.Store.Backend)
	fmt.Fprintln(out, "\nStart the interview with: intake run")
	return nil
}
