package engine

import (
	"context"
	"fmt"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/grimerr"
	"github.com/wyrdbound/grimoire/internal/ports"
)

// Executor is implemented once per step kind (spec.md §4.5); the Flow
// Engine never knows which kind it is talking to.
type Executor interface {
	Execute(step *definition.Step, ctx *Context, sys *definition.System) definition.StepResult
	// ProcessInput resumes an interactive step (player_choice,
	// player_input, and any sub-flow that itself paused) with the
	// host-supplied value.
	ProcessInput(step *definition.Step, userValue any, ctx *Context, sys *definition.System) definition.StepResult
}

// ActionStrategy applies one post-step action (spec.md §4.6). It
// returns the StepResult later actions in the same list should see,
// so call_flow can thread an updated "result" binding
// forward without a stateful overlay on Context (spec.md §4.6's
// "result is bound ... for subsequent actions in the same list").
// Strategies that don't change it just return lastResult unchanged.
type ActionStrategy interface {
	Apply(action *definition.Action, ctx *Context, sys *definition.System, lastResult definition.StepResult) (definition.StepResult, error)
}

// Registry is the Executor Registry/Factories component (I): a simple
// lookup from step/action type name to implementation, built once at
// wiring time and shared read-only across executions.
type Registry struct {
	executors map[string]Executor
	actions   map[string]ActionStrategy
}

func NewRegistry() *Registry {
	return &Registry{executors: map[string]Executor{}, actions: map[string]ActionStrategy{}}
}

func (r *Registry) RegisterExecutor(stepType string, e Executor) { r.executors[stepType] = e }
func (r *Registry) RegisterAction(actionType string, a ActionStrategy) { r.actions[actionType] = a }

func (r *Registry) Executor(stepType string) (Executor, bool) {
	e, ok := r.executors[stepType]
	return e, ok
}

func (r *Registry) Action(actionType string) (ActionStrategy, bool) {
	a, ok := r.actions[actionType]
	return a, ok
}

// Apply runs every action in order against the registry's strategies,
// per spec.md §4.6. Exported so step kinds whose own actions aren't
// driven by the generic step.actions list (conditional's then/else
// branches) can apply a chosen action list
// directly from within Execute.
func (r *Registry) Apply(actions []definition.Action, ctx *Context, sys *definition.System, lastResult definition.StepResult) error {
	cur := lastResult
	for i := range actions {
		action := &actions[i]
		strategy, ok := r.Action(action.Type)
		if !ok {
			ctx.Logger.Log(ports.LevelWarn, "unknown action type, skipping", map[string]any{"type": action.Type})
			continue
		}
		next, err := strategy.Apply(action, ctx, sys, cur)
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// Pending describes a paused flow awaiting host-supplied input
// (spec.md §4.7's execute_flow "Pending" outcome).
type Pending struct {
	FlowID    string
	ExecID    string
	StepIndex int
	StepID    string
	Prompt    string
	Choices   []definition.ChoiceOption
	InputType string
}

// Engine is the Flow Engine (H): it owns no state of its own beyond
// the Registry and drives a Context through a System's flows.
type Engine struct {
	Registry *Registry
}

func NewEngine(registry *Registry) *Engine {
	return &Engine{Registry: registry}
}

// Execute runs flowID to completion or until it pauses for input
// (spec.md §4.7's execute_flow). goCtx governs the whole run: it is
// checked at every step boundary, and each external service call made
// by a step executor derives its own per-call timeout from it
// (spec.md §5).
func (e *Engine) Execute(goCtx context.Context, flowID string, ctx *Context, sys *definition.System, inputs map[string]any) (definition.FlowResult, *Pending, error) {
	ctx.setGoContext(goCtx)

	flow, ok := sys.Flows[flowID]
	if !ok {
		return definition.FlowResult{}, nil, grimerr.New(grimerr.KindFlow, fmt.Sprintf("flow %q not found", flowID), nil)
	}

	execID := ctx.PushFrame(flowID)
	for k, v := range inputs {
		ctx.SetInput(k, v)
	}
	for k, v := range flow.Variables {
		ctx.SetVariable(k, v)
	}

	return e.run(flow, ctx, sys, 0, execID)
}

// run drives the step-dispatch loop starting at idx, per spec.md
// §4.7's execute_flow pseudocode. execID identifies the frame this
// run is operating on: it is captured once by the caller (Execute or
// Resume) rather than read from ctx.CurrentFrame(), which would
// return the wrong, innermost frame once a nested sub-flow has paused
// without popping.
func (e *Engine) run(flow *definition.Flow, ctx *Context, sys *definition.System, idx int, execID string) (definition.FlowResult, *Pending, error) {
	var stepResults []definition.StepResult

	for idx < len(flow.Steps) {
		if err := ctx.GoContext().Err(); err != nil {
			ctx.PopFrame()
			return definition.FlowResult{Cancelled: true, FlowID: flow.ID}, nil, nil
		}

		step := &flow.Steps[idx]

		if step.Condition != "" {
			ok, err := evalCondition(ctx, step.Condition)
			if err != nil {
				ctx.Logger.Log(ports.LevelWarn, "condition evaluation failed, treating as false", map[string]any{"step": step.ID, "error": err.Error()})
			}
			if !ok {
				idx = e.nextIndex(flow, idx)
				continue
			}
		}

		executor, ok := e.Registry.Executor(step.Type)
		if !ok {
			ctx.PopFrame()
			return definition.FlowResult{Success: false, FlowID: flow.ID, Error: fmt.Sprintf("no executor registered for step type %q", step.Type)}, nil, nil
		}

		res := executor.Execute(step, ctx, sys)
		stepResults = append(stepResults, res)

		if !res.Success {
			ctx.PopFrame()
			return definition.FlowResult{Success: false, FlowID: flow.ID, StepResults: stepResults, CompletedAtStep: step.ID, Error: res.Error}, nil, nil
		}

		if res.RequiresInput {
			return definition.FlowResult{}, &Pending{
				FlowID:    flow.ID,
				ExecID:    execID,
				StepIndex: idx,
				StepID:    step.ID,
				Prompt:    res.Prompt,
				Choices:   res.Choices,
				InputType: res.InputType,
			}, nil
		}

		if err := e.applyActions(step.Actions, ctx, sys, res); err != nil {
			ctx.PopFrame()
			return definition.FlowResult{Success: false, FlowID: flow.ID, StepResults: stepResults, CompletedAtStep: step.ID, Error: err.Error()}, nil, nil
		}

		if step.Type == definition.StepCompletion {
			break
		}

		idx = e.nextIndex(flow, idx)
	}

	frame := ctx.PopFrame()
	return definition.FlowResult{
		Success:     true,
		FlowID:      flow.ID,
		Outputs:     frame.Outputs,
		Variables:   frame.Variables,
		StepResults: stepResults,
	}, nil, nil
}

func (e *Engine) nextIndex(flow *definition.Flow, idx int) int {
	step := &flow.Steps[idx]
	if step.NextStep == "" {
		return idx + 1
	}
	for i, s := range flow.Steps {
		if s.ID == step.NextStep {
			return i
		}
	}
	return len(flow.Steps) // unresolved next_step ends the flow
}

// Resume continues a Pending flow with a host-supplied value (spec.md
// §4.7's resume). Nested pauses are unwound inside-out: the innermost
// pending sub-flow resumes first; once it completes, the containing
// flow_call step's own actions replay before its parent's loop
// continues.
func (e *Engine) Resume(goCtx context.Context, pending *Pending, userValue any, ctx *Context, sys *definition.System) (definition.FlowResult, *Pending, error) {
	ctx.setGoContext(goCtx)

	flow, ok := sys.Flows[pending.FlowID]
	if !ok {
		return definition.FlowResult{}, nil, grimerr.New(grimerr.KindFlow, fmt.Sprintf("flow %q not found", pending.FlowID), nil)
	}

	if err := ctx.GoContext().Err(); err != nil {
		ctx.PopFrame()
		return definition.FlowResult{Cancelled: true, FlowID: flow.ID}, nil, nil
	}

	step := &flow.Steps[pending.StepIndex]
	executor, ok := e.Registry.Executor(step.Type)
	if !ok {
		return definition.FlowResult{}, nil, grimerr.New(grimerr.KindFlow, fmt.Sprintf("no executor registered for step type %q", step.Type), nil)
	}

	ctx.PushResumeExecID(pending.ExecID)
	res := executor.ProcessInput(step, userValue, ctx, sys)
	ctx.PopResumeExecID()

	if !res.Success {
		ctx.PopFrame()
		return definition.FlowResult{Success: false, FlowID: flow.ID, Error: res.Error, CompletedAtStep: step.ID}, nil, nil
	}
	if err := e.applyActions(step.Actions, ctx, sys, res); err != nil {
		ctx.PopFrame()
		return definition.FlowResult{Success: false, FlowID: flow.ID, Error: err.Error(), CompletedAtStep: step.ID}, nil, nil
	}

	if step.Type == definition.StepCompletion {
		frame := ctx.PopFrame()
		return definition.FlowResult{Success: true, FlowID: flow.ID, Outputs: frame.Outputs, Variables: frame.Variables}, nil, nil
	}

	idx := e.nextIndex(flow, pending.StepIndex)
	return e.run(flow, ctx, sys, idx, pending.ExecID)
}

// Cancel aborts exec, discarding any pending state. Per spec.md
// §4.7/§8 invariant 5, no partial mutation of outputs is visible for
// the cancelled step: the caller is expected to have not yet applied
// the interactive step's actions (Resume is what applies them), so
// simply popping the frame without doing so satisfies the invariant.
func (e *Engine) Cancel(pending *Pending, ctx *Context) definition.FlowResult {
	ctx.PopFrame()
	return definition.FlowResult{Cancelled: true, FlowID: pending.FlowID}
}

func (e *Engine) applyActions(actions []definition.Action, ctx *Context, sys *definition.System, res definition.StepResult) error {
	return e.Registry.Apply(actions, ctx, sys, res)
}
