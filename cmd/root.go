// Package cmd wires the llmpc command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "llmpc",
	Short: "LLM planning and control loop for a file workspace",
	Long: `llmpc drives an LLM through repeated plan-then-execute iterations
against a workspace of text files. Each iteration asks the model for the next
few steps toward the goal, then asks it to carry them out as file changes,
which are parsed, previewed and applied.

Available commands:
  run      - Run the full plan/execute loop toward a goal
  exec     - Execute a single instruction without planning
  version  - Print the version`,
}

// Execute runs the root command. Called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(versionCmd)
}
