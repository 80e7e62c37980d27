package executor

import (
	"context"
	"fmt"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
	"github.com/wyrdbound/grimoire/internal/ports"
)

// DiceSequenceExecutor implements the dice_sequence step kind
// (spec.md §4.5.2): roll once per named item, each resolved in a
// context augmented with {item: name}.
type DiceSequenceExecutor struct {
	Dice ports.DiceService
}

func (e *DiceSequenceExecutor) Execute(step *definition.Step, ctx *engine.Context, sys *definition.System) definition.StepResult {
	if step.Sequence == nil {
		return fail(step.ID, "dice sequence failed", fmt.Errorf("missing sequence"))
	}

	results := make([]map[string]any, 0, len(step.Sequence.Items))
	for _, item := range step.Sequence.Items {
		rendered, err := ctx.ResolveTemplate(step.Sequence.Roll, map[string]any{"item": item})
		if err != nil {
			return fail(step.ID, "dice sequence failed", err)
		}
		callCtx, cancel := context.WithTimeout(ctx.GoContext(), ServiceTimeout)
		roll, err := e.Dice.Roll(callCtx, fmt.Sprint(rendered))
		cancel()
		if err != nil {
			return fail(step.ID, "dice sequence failed", err)
		}
		results = append(results, map[string]any{"item": item, "result": roll.Total})
	}

	return definition.StepResult{
		StepID:  step.ID,
		Success: true,
		Data:    map[string]any{"results": results},
	}
}

func (e *DiceSequenceExecutor) ProcessInput(step *definition.Step, userValue any, ctx *engine.Context, sys *definition.System) definition.StepResult {
	return notInteractive(step)
}
