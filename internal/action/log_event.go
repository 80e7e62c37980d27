package action

import (
	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
	"github.com/wyrdbound/grimoire/internal/ports"
)

// LogEvent implements the log_event action (spec.md §4.6): a string
// data payload is rendered as a template; anything else is attached
// verbatim for structured telemetry.
type LogEvent struct{}

func (LogEvent) Apply(act *definition.Action, ctx *engine.Context, sys *definition.System, lastResult definition.StepResult) (definition.StepResult, error) {
	data := act.Data
	if s, ok := act.Data.(string); ok {
		rendered, err := ctx.ResolveTemplate(s, resultExtra(lastResult))
		if err != nil {
			return lastResult, err
		}
		data = rendered
	}
	ctx.Logger.Log(ports.LevelEvent, act.EventType, map[string]any{"data": data})
	return lastResult, nil
}
