package action

import (
	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
)

// SetValue implements the set_value action (spec.md §4.6): the value
// is always rendered through the runtime Template Service first
// (producing a Go value that may already be structured), then applied
// with derived-field cascade.
type SetValue struct{}

func (SetValue) Apply(act *definition.Action, ctx *engine.Context, sys *definition.System, lastResult definition.StepResult) (definition.StepResult, error) {
	var rendered any
	if s, ok := act.Value.(string); ok {
		v, err := ctx.ResolveTemplate(s, resultExtra(lastResult))
		if err != nil {
			return lastResult, err
		}
		rendered = v
	} else {
		rendered = act.Value
	}
	return lastResult, ctx.ApplySetWithCascade(act.Path, rendered)
}
