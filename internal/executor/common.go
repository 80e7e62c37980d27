// Package executor implements GRIMOIRE's Step Executors (spec.md
// §4.5): one type per step kind, each satisfying engine.Executor.
package executor

import (
	"fmt"
	"time"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
)

// ServiceTimeout bounds a single external service call (dice, name
// generation, LLM generation) made during step execution, per spec.md
// §5's "each external service call has a per-call timeout". It is
// applied on top of whatever cancellation the caller's own
// context.Context already carries, never in place of it.
var ServiceTimeout = 30 * time.Second

// renderCallInput resolves one flow_call input (or llm_generation
// prompt_data) value: a
// string is a template rendered against the caller's frame (spec.md
// §4.5.8 step 1); any other YAML-decoded literal passes through as-is.
func renderCallInput(ctx *engine.Context, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	return ctx.ResolveTemplate(s, nil)
}

// fail builds a failed, non-interactive StepResult with a
// spec.md-style prefixed message.
func fail(stepID, prefix string, err error) definition.StepResult {
	return definition.StepResult{StepID: stepID, Success: false, Error: fmt.Sprintf("%s: %v", prefix, err)}
}

// notInteractive is the ProcessInput body for step kinds that never
// pause (dice_roll, dice_sequence, table_roll, llm_generation,
// conditional, completion): resuming one is a caller error.
func notInteractive(step *definition.Step) definition.StepResult {
	return definition.StepResult{
		StepID:  step.ID,
		Success: false,
		Error:   fmt.Sprintf("step %q (%s) does not accept input", step.ID, step.Type),
	}
}
