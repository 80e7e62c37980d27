// Package action implements GRIMOIRE's Action Strategies (spec.md
// §4.6): one post-step effect type per file, each satisfying
// engine.ActionStrategy.
package action

import (
	"github.com/wyrdbound/grimoire/internal/definition"
)

// resultExtra builds the {result: ...} overlay a flow_call/call_flow
// step's own actions see, scoped to just this Apply call so it never
// leaks into later steps (spec.md §9's "transient binding" note).
func resultExtra(lastResult definition.StepResult) map[string]any {
	if r, ok := lastResult.Data["result"]; ok {
		return map[string]any{"result": r}
	}
	return nil
}
