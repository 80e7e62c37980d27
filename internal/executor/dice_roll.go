package executor

import (
	"context"
	"fmt"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
	"github.com/wyrdbound/grimoire/internal/ports"
)

// DiceRollExecutor implements the dice_roll step kind (spec.md §4.5.1).
type DiceRollExecutor struct {
	Dice ports.DiceService
}

func (e *DiceRollExecutor) Execute(step *definition.Step, ctx *engine.Context, sys *definition.System) definition.StepResult {
	rendered, err := ctx.ResolveTemplate(step.Roll, nil)
	if err != nil {
		return fail(step.ID, "dice roll failed", err)
	}
	callCtx, cancel := context.WithTimeout(ctx.GoContext(), ServiceTimeout)
	defer cancel()
	roll, err := e.Dice.Roll(callCtx, fmt.Sprint(rendered))
	if err != nil {
		return fail(step.ID, "dice roll failed", err)
	}
	return definition.StepResult{
		StepID:  step.ID,
		Success: true,
		Data: map[string]any{
			"result":     roll.Total,
			"breakdown":  roll.Rolls,
			"expression": roll.Expression,
		},
	}
}

func (e *DiceRollExecutor) ProcessInput(step *definition.Step, userValue any, ctx *engine.Context, sys *definition.System) definition.StepResult {
	return notInteractive(step)
}
