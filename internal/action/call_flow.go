package action

import (
	"fmt"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
)

// CallFlow implements the call_flow action (spec.md §4.6): equivalent
// to an inline flow_call step, with its result bound as "result" for
// later actions in the same list. It holds the same *engine.Engine
// reference a FlowCallExecutor does, since invoking a sub-flow from an
// action needs the engine's step-dispatch loop, not just the registry.
//
// call_flow never pauses: a sub-flow reached this way that itself
// requires input has no step of its own to attach a Pending to, so it
// is run to completion and any pause it returns is reported as an
// action error instead of propagating — matching spec.md §4.6's
// "equivalent to an inline flow_call step" only for the run-to-
// completion path, since only Step-level flow_call has a step id to
// park a continuation against.
type CallFlow struct {
	Engine *engine.Engine
}

func (c CallFlow) Apply(act *definition.Action, ctx *engine.Context, sys *definition.System, lastResult definition.StepResult) (definition.StepResult, error) {
	inputs := make(map[string]any, len(act.Inputs))
	for k, v := range act.Inputs {
		rendered, err := renderValue(ctx, v, lastResult)
		if err != nil {
			return lastResult, err
		}
		inputs[k] = rendered
	}

	result, pending, err := c.Engine.Execute(ctx.GoContext(), act.FlowID, ctx, sys, inputs)
	if err != nil {
		return lastResult, err
	}
	if pending != nil {
		return lastResult, fmt.Errorf("call_flow %q paused for input, which call_flow cannot support", act.FlowID)
	}
	if !result.Success {
		return lastResult, fmt.Errorf("call_flow %q failed: %s", act.FlowID, result.Error)
	}

	next := lastResult
	next.Data = map[string]any{"result": result.Outputs}
	return next, nil
}

func renderValue(ctx *engine.Context, v any, lastResult definition.StepResult) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	return ctx.ResolveTemplate(s, resultExtra(lastResult))
}
