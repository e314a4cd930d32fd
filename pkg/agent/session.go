package agent

import (
	"context"
	"fmt"

	"github.com/llmpc/llmpc/pkg/config"
	"github.com/llmpc/llmpc/pkg/events"
	"github.com/llmpc/llmpc/pkg/llm"
	"github.com/llmpc/llmpc/pkg/prompts"
	"github.com/llmpc/llmpc/pkg/utils"
	"github.com/llmpc/llmpc/pkg/workspace"
)

// State is the session loop's current phase.
type State int

const (
	StateIdle State = iota
	StatePlanning
	StateExecuting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlanning:
		return "planning"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Session drives the plan/execute loop for a single goal. The goal is fixed
// at construction; the action history grows by one plan per iteration and is
// never reordered.
type Session struct {
	goal    string
	history []string
	state   State

	ws       *workspace.Workspace
	planner  *Planner
	executor *Executor
	cfg      *config.Config
	bus      *events.Bus
	logger   *utils.Logger

	// Confirm gates the transition into the next iteration. nil means no
	// pause. The default CLI wiring prompts on a terminal and is a no-op
	// otherwise, keeping the loop testable without interactive input.
	Confirm func(iteration int) error
}

// NewSession assembles a session from its collaborators.
func NewSession(goal string, ws *workspace.Workspace, client llm.Client, cfg *config.Config, executor *Executor, bus *events.Bus, logger *utils.Logger) *Session {
	return &Session{
		goal:     goal,
		state:    StateIdle,
		ws:       ws,
		planner:  NewPlanner(client),
		executor: executor,
		cfg:      cfg,
		bus:      bus,
		logger:   logger,
	}
}

// State returns the loop's current phase.
func (s *Session) State() State {
	return s.state
}

// History returns the executed step descriptions, oldest first.
func (s *Session) History() []string {
	return s.history
}

// Run executes the configured number of plan/execute iterations. Any planner
// or executor error stops the loop and is returned annotated with the
// 1-based iteration that failed; the loop never proceeds past a failed
// iteration.
func (s *Session) Run(ctx context.Context) error {
	s.publish(events.TypeSessionStarted, s.goal)
	s.logger.LogProcessStep(fmt.Sprintf("Goal: %s", s.goal))

	for iteration := 1; iteration <= s.cfg.Iterations; iteration++ {
		s.publish(events.TypeIterationStarted, iteration)
		s.logger.LogProcessStep(fmt.Sprintf("Iteration %d", iteration))

		if err := s.runIteration(ctx, iteration); err != nil {
			s.state = StateDone
			s.publish(events.TypeError, err.Error())
			return fmt.Errorf("iteration %d: %w", iteration, err)
		}

		s.publish(events.TypeIterationFinished, iteration)

		if iteration < s.cfg.Iterations && s.Confirm != nil {
			if err := s.Confirm(iteration); err != nil {
				s.state = StateDone
				return fmt.Errorf("stopped after iteration %d: %w", iteration, err)
			}
		}
	}

	s.state = StateDone
	s.publish(events.TypeSessionFinished, len(s.history))
	return nil
}

// runIteration performs one Planning -> Executing pass and appends the
// executed plan to the action history.
func (s *Session) runIteration(ctx context.Context, iteration int) error {
	s.state = StatePlanning
	data, err := s.promptData()
	if err != nil {
		return err
	}

	plan, err := s.planner.Plan(ctx, data, s.cfg.PlanSteps)
	if err != nil {
		return err
	}
	s.publish(events.TypePlanProduced, plan)
	s.logger.LogProcessStep("Plan:\n" + prompts.NumberSteps(plan))

	s.state = StateExecuting
	// The workspace may have changed since planning in a prior iteration;
	// rebuild the context rather than reusing the planning snapshot. The
	// executor sees the same state the plan was made against within one
	// iteration, but this keeps the recompute-before-every-prompt contract
	// explicit.
	data, err = s.promptData()
	if err != nil {
		return err
	}

	result, err := s.executor.Execute(ctx, data, plan)
	if err != nil {
		return err
	}
	for _, failure := range result.Failures {
		s.logger.Logf("Iteration %d skipped invocation: %v", iteration, failure)
	}
	s.logger.LogProcessStep(fmt.Sprintf("Applied %d change(s), skipped %d", len(result.Applied), len(result.Failures)))

	s.history = append(s.history, plan...)
	return nil
}

// promptData recomputes the context snapshot; it is never cached across
// mutations.
func (s *Session) promptData() (prompts.PromptData, error) {
	snapshot, err := s.ws.Snapshot(s.cfg.NumberedContext)
	if err != nil {
		return prompts.PromptData{}, fmt.Errorf("could not build workspace context: %w", err)
	}
	return prompts.PromptData{Goal: s.goal, Actions: s.history, Context: snapshot}, nil
}

func (s *Session) publish(eventType string, data any) {
	if s.bus != nil {
		s.bus.Publish(eventType, data)
	}
}

// OneShot performs the single-request flow: one chat call with the tool
// catalog system prompt, then parse and apply whatever tool calls come back.
// No planning and no history are involved.
func OneShot(ctx context.Context, instruction string, executor *Executor, client llm.Client) (*ExecResult, error) {
	messages := []prompts.Message{
		{Role: "system", Content: prompts.OneShotSystemPrompt()},
		{Role: "user", Content: instruction},
	}
	response, err := client.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("execution request failed: %w", err)
	}
	return executor.applyResponse(response, instruction)
}
