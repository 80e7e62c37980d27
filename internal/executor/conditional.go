package executor

import (
	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
	"github.com/wyrdbound/grimoire/internal/ports"
)

// ConditionalExecutor implements the conditional step kind (spec.md
// §4.5.7): evaluate if_condition and apply then_actions or the
// resolved else_actions/elif chain directly, since the Flow Engine's
// own post-step action application only ever sees step.actions, not
// these branch-specific lists.
type ConditionalExecutor struct {
	Registry *engine.Registry
}

func (e *ConditionalExecutor) Execute(step *definition.Step, ctx *engine.Context, sys *definition.System) definition.StepResult {
	ok, err := engine.EvalCondition(ctx, step.IfCondition)
	if err != nil {
		ctx.Logger.Log(ports.LevelWarn, "conditional evaluation failed, treating as false", map[string]any{"step": step.ID, "error": err.Error()})
	}

	if ok {
		if applyErr := e.Registry.Apply(step.ThenActions, ctx, sys, definition.StepResult{StepID: step.ID, Success: true}); applyErr != nil {
			return fail(step.ID, "conditional action failed", applyErr)
		}
		return definition.StepResult{StepID: step.ID, Success: true}
	}

	if applyErr := e.applyElse(step.ElseActions, ctx, sys); applyErr != nil {
		return fail(step.ID, "conditional action failed", applyErr)
	}
	return definition.StepResult{StepID: step.ID, Success: true}
}

func (e *ConditionalExecutor) applyElse(branch *definition.ElseBranch, ctx *engine.Context, sys *definition.System) error {
	if branch == nil {
		return nil
	}
	if branch.Elif != nil {
		ok, err := engine.EvalCondition(ctx, branch.Elif.If)
		if err != nil {
			ok = false
		}
		if ok {
			return e.Registry.Apply(branch.Elif.Then, ctx, sys, definition.StepResult{Success: true})
		}
		return e.applyElse(branch.Elif.Else, ctx, sys)
	}
	return e.Registry.Apply(branch.Actions, ctx, sys, definition.StepResult{Success: true})
}

func (e *ConditionalExecutor) ProcessInput(step *definition.Step, userValue any, ctx *engine.Context, sys *definition.System) definition.StepResult {
	return notInteractive(step)
}
