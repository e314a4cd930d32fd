package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llmpc/llmpc/pkg/agent"
	"github.com/llmpc/llmpc/pkg/changetracker"
	"github.com/llmpc/llmpc/pkg/config"
	"github.com/llmpc/llmpc/pkg/llm"
	"github.com/llmpc/llmpc/pkg/utils"
	"github.com/llmpc/llmpc/pkg/workspace"
)

var (
	execWorkspaceDir string
	execModel        string
)

var execCmd = &cobra.Command{
	Use:   "exec [instruction]",
	Short: "Execute a single instruction without planning",
	Long: `Sends one request with the tool-protocol system prompt and applies
whatever tool calls come back. No planning loop, no action history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instruction := args[0]
		logger := utils.GetLogger(false)

		cfg, err := config.LoadOrInit(execWorkspaceDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cmd.Flags().Changed("model") {
			cfg.Model = execModel
		}

		ws, err := workspace.Open(execWorkspaceDir)
		if err != nil {
			return err
		}
		client, err := llm.NewClient(cfg)
		if err != nil {
			return err
		}

		tracker := changetracker.NewTracker(ws.Root())
		// The one-shot flow always speaks the tagged-JSON tool protocol.
		executor := agent.NewExecutor(ws, client, config.ModeTools, tracker, nil, logger)

		result, err := agent.OneShot(cmd.Context(), instruction, executor, client)
		if err != nil {
			return err
		}
		logger.LogProcessStep(fmt.Sprintf("Applied %d change(s), skipped %d", len(result.Applied), len(result.Failures)))
		return nil
	},
}

func init() {
	execCmd.Flags().StringVarP(&execWorkspaceDir, "workspace", "w", "files", "Workspace directory the agent operates on")
	execCmd.Flags().StringVarP(&execModel, "model", "m", "", "Model name to use with the LLM")
}
