package executor

import (
	"fmt"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
)

// FlowCallExecutor implements the flow_call step kind (spec.md
// §4.5.8). It holds a reference to the owning Engine so a nested
// sub-flow can be invoked without a global singleton (spec.md §9's
// factory design note); a sub-flow's own pause is tracked on Context
// via SetContinuation, keyed by the calling frame's exec id plus this
// step's id, so two flow_call steps sharing a step id at different
// levels of a call chain (recursion, or sibling flows both naming
// their sub-call step the same thing) never clobber each other, and
// Resume can find its way back into the right in-flight sub-flow.
type FlowCallExecutor struct {
	Engine *engine.Engine
}

func (e *FlowCallExecutor) Execute(step *definition.Step, ctx *engine.Context, sys *definition.System) definition.StepResult {
	inputs := make(map[string]any, len(step.CallInputs))
	for k, v := range step.CallInputs {
		rendered, err := renderCallInput(ctx, v)
		if err != nil {
			return fail(step.ID, "flow call failed", err)
		}
		inputs[k] = rendered
	}

	// Read before Engine.Execute pushes the sub-flow's own frame: this
	// is the only point CurrentFrame is guaranteed to be the caller's.
	callerExecID := ctx.CurrentFrame().ExecID

	result, pending, err := e.Engine.Execute(ctx.GoContext(), step.Flow, ctx, sys, inputs)
	if err != nil {
		return fail(step.ID, "flow call failed", err)
	}
	if pending != nil {
		ctx.SetContinuation(callerExecID, step.ID, pending)
		return definition.StepResult{
			StepID:        step.ID,
			Success:       true,
			RequiresInput: true,
			Prompt:        pending.Prompt,
			Choices:       pending.Choices,
			InputType:     pending.InputType,
		}
	}
	if !result.Success {
		return fail(step.ID, "flow call failed", fmt.Errorf("%s", result.Error))
	}

	return definition.StepResult{
		StepID:  step.ID,
		Success: true,
		Data:    map[string]any{"result": result.Outputs},
	}
}

func (e *FlowCallExecutor) ProcessInput(step *definition.Step, userValue any, ctx *engine.Context, sys *definition.System) definition.StepResult {
	// Engine.Resume pushes the owning frame's exec id onto Context
	// before dispatching here: CurrentFrame no longer points at the
	// caller once nested sub-flow frames are stacked on top of it.
	callerExecID := ctx.CurrentResumeExecID()

	pending := ctx.PopContinuation(callerExecID, step.ID)
	if pending == nil {
		return fail(step.ID, "flow call failed", fmt.Errorf("no pending sub-flow to resume"))
	}

	result, subPending, err := e.Engine.Resume(ctx.GoContext(), pending, userValue, ctx, sys)
	if err != nil {
		return fail(step.ID, "flow call failed", err)
	}
	if subPending != nil {
		ctx.SetContinuation(callerExecID, step.ID, subPending)
		return definition.StepResult{
			StepID:        step.ID,
			Success:       true,
			RequiresInput: true,
			Prompt:        subPending.Prompt,
			Choices:       subPending.Choices,
			InputType:     subPending.InputType,
		}
	}
	if !result.Success {
		return fail(step.ID, "flow call failed", fmt.Errorf("%s", result.Error))
	}

	return definition.StepResult{
		StepID:  step.ID,
		Success: true,
		Data:    map[string]any{"result": result.Outputs},
	}
}
