// Package cli defines Cobra command definitions for the intake CLI.
// This file contains the root command, version flag, and help output.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	projectDir string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Conversational candidate intake interview",
	Long: `Intake walks a candidate through a fixed list of topics, one question
at a time. Each answer is scored by a language-model judge; a topic is
complete once the combined answers score 7 or more, and declined topics
are skipped. Progress is saved after every turn.`,
	Version:           version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnv,
	// With no subcommand, run the interview.
	RunE: runRun,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Verbose returns true if --verbose flag is set.
func Verbose() bool {
	return verbose
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Print the judge's notes after each answer (console mode)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory holding .intake/")

	addRunFlags(rootCmd)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)
}

// loadEnv reads API keys from a .env file in the project directory. A
// missing file is not an error.
func loadEnv(cmd *cobra.Command, args []string) error {
	path := filepath.Join(projectDir, ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not read %s: %v\n", path, err)
	}
	return nil
}
