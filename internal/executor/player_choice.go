package executor

import (
	"context"
	"fmt"
	"sort"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
	"github.com/wyrdbound/grimoire/internal/ports"
)

// PlayerChoiceExecutor implements the player_choice step kind
// (spec.md §4.5.3).
type PlayerChoiceExecutor struct {
	Names ports.NameGenerator
}

func (e *PlayerChoiceExecutor) Execute(step *definition.Step, ctx *engine.Context, sys *definition.System) definition.StepResult {
	choices, err := e.buildChoices(step, ctx, sys)
	if err != nil {
		return fail(step.ID, "player choice failed", err)
	}
	return definition.StepResult{
		StepID:        step.ID,
		Success:       true,
		RequiresInput: true,
		Prompt:        step.Prompt,
		Choices:       choices,
		InputType:     "choice",
	}
}

func (e *PlayerChoiceExecutor) ProcessInput(step *definition.Step, userValue any, ctx *engine.Context, sys *definition.System) definition.StepResult {
	choices, err := e.buildChoices(step, ctx, sys)
	if err != nil {
		return fail(step.ID, "player choice failed", err)
	}

	var selected []any
	for _, id := range selectedIDs(userValue) {
		var match *definition.ChoiceOption
		for i := range choices {
			if choices[i].ID == id {
				match = &choices[i]
				break
			}
		}
		if match == nil {
			return fail(step.ID, "Invalid choice", fmt.Errorf("%q is not a valid option", id))
		}
		selected = append(selected, match.Value)
	}

	data := map[string]any{"selected_items": selected}
	if len(selected) == 1 {
		data["result"] = selected[0]
		data["selected_item"] = selected[0]
	} else {
		data["result"] = selected
	}
	return definition.StepResult{StepID: step.ID, Success: true, Data: data}
}

// selectedIDs normalizes a single id or a slice of ids/any into a
// []string for comparison against the built choice set.
func selectedIDs(userValue any) []string {
	switch v := userValue.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		ids := make([]string, 0, len(v))
		for _, e := range v {
			ids = append(ids, fmt.Sprint(e))
		}
		return ids
	default:
		return []string{fmt.Sprint(v)}
	}
}

func (e *PlayerChoiceExecutor) buildChoices(step *definition.Step, ctx *engine.Context, sys *definition.System) ([]definition.ChoiceOption, error) {
	if len(step.Choices) > 0 {
		choices := make([]definition.ChoiceOption, 0, len(step.Choices))
		for _, c := range step.Choices {
			choices = append(choices, definition.ChoiceOption{ID: c.ID, Label: c.Label, Value: c.Value})
		}
		return choices, nil
	}

	src := step.ChoiceSource
	if src == nil {
		return nil, fmt.Errorf("player_choice requires 'choices' or 'choice_source'")
	}

	switch {
	case src.TableFromValues != "":
		return e.choicesFromValues(src, ctx)
	case src.Compendium != "":
		return e.choicesFromCompendium(src, sys, ctx)
	case src.Table != "":
		return e.choicesFromTable(src, sys, ctx)
	default:
		return nil, fmt.Errorf("choice_source must set one of table_from_values, compendium, or table")
	}
}

func (e *PlayerChoiceExecutor) choicesFromValues(src *definition.ChoiceSource, ctx *engine.Context) ([]definition.ChoiceOption, error) {
	raw, ok := ctx.Lookup(src.TableFromValues)
	if !ok {
		return nil, fmt.Errorf("table_from_values path %q not found", src.TableFromValues)
	}
	values, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("table_from_values path %q is not a mapping", src.TableFromValues)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	format := src.DisplayFormat
	if format == "" {
		format = "{{ key }}"
	}

	choices := make([]definition.ChoiceOption, 0, len(keys))
	for _, k := range keys {
		v := values[k]
		label, err := ctx.ResolveTemplate(format, map[string]any{"key": k, "value": v})
		if err != nil {
			return nil, err
		}
		choices = append(choices, definition.ChoiceOption{ID: k, Label: fmt.Sprint(label), Value: v})
	}
	return choices, nil
}

func (e *PlayerChoiceExecutor) choicesFromCompendium(src *definition.ChoiceSource, sys *definition.System, ctx *engine.Context) ([]definition.ChoiceOption, error) {
	comp, ok := sys.Compendiums[src.Compendium]
	if !ok {
		return nil, fmt.Errorf("compendium %q not found", src.Compendium)
	}

	ids := make([]string, 0, len(comp.Entries))
	for id := range comp.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	choices := make([]definition.ChoiceOption, 0, len(ids))
	for _, id := range ids {
		entry := comp.Entries[id]
		if src.Filter != "" && !matchesFilter(src.Filter, id, entry, ctx) {
			continue
		}
		label := id
		if name, ok := entry["name"].(string); ok {
			label = name
		}
		choices = append(choices, definition.ChoiceOption{ID: id, Label: label, Value: entry})
	}
	return choices, nil
}

// matchesFilter evaluates a compendium choice_source's filter
// expression against one entry's attributes. Filters here are plain
// attribute comparisons pongo2 itself evaluates via the Template
// Service (e.g. "{{ rarity == 'common' }}"), so the rendered result is
// already a Go bool by the time it reaches us; any render error or
// non-boolean result excludes the entry rather than failing the step.
func matchesFilter(filter, id string, entry map[string]any, ctx *engine.Context) bool {
	extra := map[string]any{"id": id, "entry": entry}
	for k, v := range entry {
		extra[k] = v
	}
	rendered, err := ctx.ResolveTemplate(filter, extra)
	if err != nil {
		return false
	}
	if b, ok := rendered.(bool); ok {
		return b
	}
	return fmt.Sprint(rendered) == "true"
}

func (e *PlayerChoiceExecutor) choicesFromTable(src *definition.ChoiceSource, sys *definition.System, ctx *engine.Context) ([]definition.ChoiceOption, error) {
	table, ok := sys.Tables[src.Table]
	if !ok {
		return nil, fmt.Errorf("table %q not found", src.Table)
	}

	keys := make([]string, 0, len(table.Entries))
	for k := range table.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	choices := make([]definition.ChoiceOption, 0, len(keys))
	for _, k := range keys {
		callCtx, cancel := context.WithTimeout(ctx.GoContext(), ServiceTimeout)
		resolved, err := resolveTableEntry(callCtx, table.Entries[k], sys, e.Names)
		cancel()
		if err != nil {
			return nil, err
		}
		choices = append(choices, definition.ChoiceOption{ID: k, Label: fmt.Sprint(resolved), Value: resolved})
	}
	return choices, nil
}
