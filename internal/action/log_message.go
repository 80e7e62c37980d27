package action

import (
	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
)

// LogMessage implements the log_message action (spec.md §4.6): render
// the template and append "📝 " + rendered to the action message
// buffer. Never parsed as structured data, so a line like "Rolled: 14"
// stays exactly that string.
type LogMessage struct{}

func (LogMessage) Apply(act *definition.Action, ctx *engine.Context, sys *definition.System, lastResult definition.StepResult) (definition.StepResult, error) {
	rendered, err := ctx.ResolveTemplateString(act.Message, resultExtra(lastResult))
	if err != nil {
		return lastResult, err
	}
	ctx.RecordActionMessage("📝 " + rendered)
	return lastResult, nil
}
