package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/llmpc/llmpc/pkg/agent"
	"github.com/llmpc/llmpc/pkg/changetracker"
	"github.com/llmpc/llmpc/pkg/config"
	"github.com/llmpc/llmpc/pkg/events"
	"github.com/llmpc/llmpc/pkg/llm"
	"github.com/llmpc/llmpc/pkg/utils"
	"github.com/llmpc/llmpc/pkg/webui"
	"github.com/llmpc/llmpc/pkg/workspace"
)

var (
	workspaceDir string
	iterations   int
	planSteps    int
	mode         string
	model        string
	provider     string
	skipPrompt   bool
	webEnabled   bool
	numbered     bool
)

var runCmd = &cobra.Command{
	Use:   "run [goal]",
	Short: "Run the plan/execute loop toward a goal",
	Long: `Runs the full loop: each iteration asks the LLM to plan the next steps,
then to execute them as file changes against the workspace. The loop runs a
fixed number of iterations and pauses between them when attached to a
terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal := args[0]
		logger := utils.GetLogger(false)

		cfg, err := config.LoadOrInit(workspaceDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyFlagOverrides(cmd, cfg)

		ws, err := workspace.Open(workspaceDir)
		if err != nil {
			return err
		}
		client, err := llm.NewClient(cfg)
		if err != nil {
			return err
		}

		bus := events.NewBus()
		if webEnabled {
			monitor := webui.NewServer(bus, logger)
			monitor.SetGoal(goal)
			if err := monitor.Start(cfg.WebPort); err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				monitor.Shutdown(shutdownCtx)
			}()
		}

		tracker := changetracker.NewTracker(ws.Root())
		executor := agent.NewExecutor(ws, client, cfg.Mode, tracker, bus, logger)
		session := agent.NewSession(goal, ws, client, cfg, executor, bus, logger)
		session.Confirm = pauseBetweenIterations(cfg)

		startTime := time.Now()
		if err := session.Run(cmd.Context()); err != nil {
			return err
		}
		logger.LogProcessStep(fmt.Sprintf("Session finished in %s (%d steps executed)", time.Since(startTime).Round(time.Second), len(session.History())))
		return nil
	},
}

// applyFlagOverrides copies explicitly set flags over the loaded config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if flags.Changed("steps") {
		cfg.PlanSteps = planSteps
	}
	if flags.Changed("mode") {
		cfg.Mode = config.Mode(mode)
	}
	if flags.Changed("model") {
		cfg.Model = model
	}
	if flags.Changed("provider") {
		cfg.Provider = provider
	}
	if flags.Changed("numbered-context") {
		cfg.NumberedContext = numbered
	}
	cfg.SkipPrompt = skipPrompt
}

// pauseBetweenIterations returns the confirmation gate: a "press enter"
// prompt when attached to a terminal, a no-op otherwise.
func pauseBetweenIterations(cfg *config.Config) func(int) error {
	return func(iteration int) error {
		if cfg.SkipPrompt || !term.IsTerminal(int(os.Stdin.Fd())) {
			return nil
		}
		fmt.Print("\nPress Enter to continue to next iteration...")
		if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
			return fmt.Errorf("could not read confirmation: %w", err)
		}
		return nil
	}
}

func init() {
	runCmd.Flags().StringVarP(&workspaceDir, "workspace", "w", "files", "Workspace directory the agent operates on")
	runCmd.Flags().IntVarP(&iterations, "iterations", "n", 3, "Number of plan/execute iterations")
	runCmd.Flags().IntVarP(&planSteps, "steps", "k", 3, "Steps to request per plan")
	runCmd.Flags().StringVar(&mode, "mode", string(config.ModeBlocks), "Execution mode: tools or blocks")
	runCmd.Flags().StringVarP(&model, "model", "m", "", "Model name to use with the LLM")
	runCmd.Flags().StringVar(&provider, "provider", "", "LLM provider: openai or ollama")
	runCmd.Flags().BoolVar(&skipPrompt, "skip-prompt", false, "Skip the pause between iterations")
	runCmd.Flags().BoolVar(&webEnabled, "web", false, "Serve the web session monitor")
	runCmd.Flags().BoolVar(&numbered, "numbered-context", false, "Prefix context lines with 0-based indices")
}
