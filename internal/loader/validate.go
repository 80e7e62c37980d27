package loader

import (
	"regexp"
	"strings"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/grimerr"
)

var diceExprRegexp = regexp.MustCompile(`^\s*\d+d\d+(\s*[+-]\s*\d+)?\s*$`)

// crossValidate runs the cross-reference checks spec.md §4.1 step 6-7
// requires once every declaration file has been parsed: every id a
// compendium/table/flow references by name must actually exist.
func crossValidate(sys *definition.System, ve *grimerr.ValidationError) error {
	validateModels(sys, ve)
	validateCompendiums(sys, ve)
	validateTables(sys, ve)
	validateFlows(sys, ve)
	return nil
}

// validateModels checks each model's extends entries resolve to a
// real model id and that no extends chain cycles back on itself.
// Attribute merging itself already happened in resolveModelExtends;
// this only reports what that pass had to silently skip over.
func validateModels(sys *definition.System, ve *grimerr.ValidationError) {
	for _, m := range sys.Models {
		for _, parentID := range m.Extends {
			if _, ok := sys.Models[parentID]; !ok {
				ve.Add("model %q: extends unknown model %q", m.ID, parentID)
			}
		}
		if chain, ok := findExtendsCycle(sys, m.ID); ok {
			ve.Add("model %q: extends cycle detected: %s", m.ID, strings.Join(chain, " -> "))
		}
	}
}

// findExtendsCycle walks id's extends chain depth-first, reporting the
// first cycle it finds as the path of model ids that make it up.
// onPath tracks only the current chain of ancestors being explored, so
// a model reachable by two different extends paths (diamond
// inheritance, not a cycle) isn't mistaken for one.
func findExtendsCycle(sys *definition.System, id string) ([]string, bool) {
	onPath := map[string]bool{}
	var path []string

	var walk func(id string) ([]string, bool)
	walk = func(id string) ([]string, bool) {
		if onPath[id] {
			return append(append([]string{}, path...), id), true
		}
		onPath[id] = true
		path = append(path, id)
		defer func() {
			path = path[:len(path)-1]
			delete(onPath, id)
		}()

		m, ok := sys.Models[id]
		if !ok {
			return nil, false
		}
		for _, parentID := range m.Extends {
			if chain, found := walk(parentID); found {
				return chain, true
			}
		}
		return nil, false
	}

	return walk(id)
}

func isKnownType(sys *definition.System, t string) bool {
	switch t {
	case definition.AttrTypeInt, definition.AttrTypeFloat, definition.AttrTypeStr,
		definition.AttrTypeBool, definition.AttrTypeList:
		return true
	}
	_, ok := sys.Models[t]
	return ok
}

func validateCompendiums(sys *definition.System, ve *grimerr.ValidationError) {
	for _, c := range sys.Compendiums {
		model, ok := sys.Models[c.Model]
		if !ok {
			ve.Add("compendium %q: model %q not found", c.ID, c.Model)
			continue
		}
		for entryID, entry := range c.Entries {
			for attrName, attrDef := range model.Attributes {
				if !attrDef.IsRequired() {
					continue
				}
				if _, present := entry[attrName]; !present {
					ve.Add("compendium %q entry %q: missing required attribute %q from model %q",
						c.ID, entryID, attrName, c.Model)
				}
			}
		}
	}
}

func validateTables(sys *definition.System, ve *grimerr.ValidationError) {
	for _, t := range sys.Tables {
		if t.EntryType != "" && t.EntryType != "str" && !isKnownType(sys, t.EntryType) {
			ve.Add("table %q: entry_type %q is not \"str\" or a known model id", t.ID, t.EntryType)
		}
		for key, entry := range t.Entries {
			switch entry.Kind {
			case definition.TableEntryCompendiumRef:
				comp := findCompendiumByModel(sys, entry.Type)
				if comp == nil {
					ve.Add("table %q entry %q: no compendium found for type %q", t.ID, key, entry.Type)
					continue
				}
				if _, ok := comp.Entries[entry.ID]; !ok {
					ve.Add("table %q entry %q: id %q not found in compendium %q", t.ID, key, entry.ID, comp.ID)
				}
			case definition.TableEntryRandom, definition.TableEntryGenerate:
				if entry.Type != "" && !isKnownType(sys, entry.Type) {
					ve.Add("table %q entry %q: type %q is not known", t.ID, key, entry.Type)
				}
			}
		}
	}
}

func findCompendiumByModel(sys *definition.System, model string) *definition.Compendium {
	for _, c := range sys.Compendiums {
		if c.Model == model {
			return c
		}
	}
	return nil
}

func validateFlows(sys *definition.System, ve *grimerr.ValidationError) {
	for _, f := range sys.Flows {
		for _, out := range f.Outputs {
			if out.Type != "" && !isKnownType(sys, out.Type) {
				ve.Add("flow %q: output %q has unknown type %q", f.ID, out.Name, out.Type)
			}
		}
		for _, step := range f.Steps {
			validateStep(sys, f.ID, &step, ve)
		}
	}
}

func validateStep(sys *definition.System, flowID string, step *definition.Step, ve *grimerr.ValidationError) {
	switch step.Type {
	case definition.StepDiceRoll:
		validateDiceExpr(flowID, step.ID, step.Roll, ve)
	case definition.StepDiceSequence:
		if step.Sequence != nil {
			validateDiceExpr(flowID, step.ID, step.Sequence.Roll, ve)
		}
	case definition.StepTableRoll:
		for _, ref := range step.Tables {
			if _, ok := sys.Tables[ref.Table]; !ok {
				ve.Add("flow %q step %q: references unknown table %q", flowID, step.ID, ref.Table)
			}
			validateDiceExpr(flowID, step.ID, ref.Roll, ve)
		}
	case definition.StepPlayerChoice:
		if step.ChoiceSource != nil && step.ChoiceSource.Compendium != "" {
			if _, ok := sys.Compendiums[step.ChoiceSource.Compendium]; !ok {
				ve.Add("flow %q step %q: references unknown compendium %q", flowID, step.ID, step.ChoiceSource.Compendium)
			}
		}
		if step.ChoiceSource != nil && step.ChoiceSource.Table != "" {
			if _, ok := sys.Tables[step.ChoiceSource.Table]; !ok {
				ve.Add("flow %q step %q: references unknown table %q", flowID, step.ID, step.ChoiceSource.Table)
			}
		}
	case definition.StepLLMGeneration:
		if step.PromptRef != "" {
			if _, ok := sys.Prompts[step.PromptRef]; !ok {
				ve.Add("flow %q step %q: references unknown prompt %q", flowID, step.ID, step.PromptRef)
			}
		}
		if step.Validation != nil && step.Validation.Schema != nil {
			if _, ok := step.Validation.Schema.(map[string]any); !ok {
				ve.Add("flow %q step %q: validation.schema must be a mapping", flowID, step.ID)
			}
		}
	case definition.StepFlowCall:
		if _, ok := sys.Flows[step.Flow]; !ok {
			ve.Add("flow %q step %q: calls unknown flow %q", flowID, step.ID, step.Flow)
		}
	}

	for i := range step.Actions {
		validateAction(sys, flowID, step.ID, &step.Actions[i], ve)
	}
	for i := range step.ThenActions {
		validateAction(sys, flowID, step.ID, &step.ThenActions[i], ve)
	}
}

func validateAction(sys *definition.System, flowID, stepID string, action *definition.Action, ve *grimerr.ValidationError) {
	if action.Type == definition.ActionCallFlow {
		if _, ok := sys.Flows[action.FlowID]; !ok {
			ve.Add("flow %q step %q: call_flow action references unknown flow %q", flowID, stepID, action.FlowID)
		}
	}
}

func validateDiceExpr(flowID, stepID, expr string, ve *grimerr.ValidationError) {
	if expr == "" || strings.Contains(expr, "{{") {
		return
	}
	if !diceExprRegexp.MatchString(expr) {
		ve.Add("flow %q step %q: invalid dice expression %q", flowID, stepID, expr)
	}
}
