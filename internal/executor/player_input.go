package executor

import (
	"fmt"
	"regexp"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
)

// PlayerInputExecutor implements the player_input step kind (spec.md
// §4.5.4): emit a free-form prompt, then validate and store whatever
// the host supplies on resume.
type PlayerInputExecutor struct{}

func (e *PlayerInputExecutor) Execute(step *definition.Step, ctx *engine.Context, sys *definition.System) definition.StepResult {
	prompt := step.Prompt
	if rendered, err := ctx.ResolveTemplate(prompt, nil); err == nil {
		prompt = fmt.Sprint(rendered)
	}
	return definition.StepResult{
		StepID:        step.ID,
		Success:       true,
		RequiresInput: true,
		Prompt:        prompt,
		InputType:     step.InputType,
	}
}

func (e *PlayerInputExecutor) ProcessInput(step *definition.Step, userValue any, ctx *engine.Context, sys *definition.System) definition.StepResult {
	if step.Validation != nil {
		if err := validateInput(step.Validation, userValue); err != nil {
			return fail(step.ID, "Invalid input", err)
		}
	}
	return definition.StepResult{StepID: step.ID, Success: true, Data: map[string]any{"result": userValue}}
}

func validateInput(v *definition.InputValidation, value any) error {
	s, isString := value.(string)
	if v.MinLength > 0 && isString && len(s) < v.MinLength {
		return fmt.Errorf("value is shorter than the minimum length of %d", v.MinLength)
	}
	if v.MaxLength > 0 && isString && len(s) > v.MaxLength {
		return fmt.Errorf("value is longer than the maximum length of %d", v.MaxLength)
	}
	if v.Pattern != "" && isString {
		re, err := regexp.Compile(v.Pattern)
		if err != nil {
			return fmt.Errorf("invalid validation pattern: %w", err)
		}
		if !re.MatchString(s) {
			return fmt.Errorf("value does not match the required pattern")
		}
	}
	return nil
}
