package executor

import (
	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
)

// CompletionExecutor implements the completion step kind (spec.md
// §4.5.9): a terminal step with an optional display prompt.
type CompletionExecutor struct{}

func (e *CompletionExecutor) Execute(step *definition.Step, ctx *engine.Context, sys *definition.System) definition.StepResult {
	data := map[string]any{}
	if step.Prompt != "" {
		if rendered, err := ctx.ResolveTemplate(step.Prompt, nil); err == nil {
			data["prompt"] = rendered
		}
	}
	return definition.StepResult{StepID: step.ID, Success: true, Data: data}
}

func (e *CompletionExecutor) ProcessInput(step *definition.Step, userValue any, ctx *engine.Context, sys *definition.System) definition.StepResult {
	return notInteractive(step)
}
