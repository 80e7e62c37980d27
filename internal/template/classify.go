package template

import "strings"

// runTimeIdentifiers is the fixed set of roots that only exist once a
// flow is executing (spec.md §4.1 step 5): step results, loop
// variables bound by table_roll/player_choice, and the llm_generation
// step's parsed response. A template referencing any of these can only
// be resolved at run time, never at load time.
var runTimeIdentifiers = map[string]bool{
	"result":         true,
	"results":        true,
	"variables":      true,
	"inputs":         true,
	"outputs":        true,
	"item":           true,
	"selected_item":  true,
	"selected_items": true,
	"key":            true,
	"value":          true,
	"llm_result":     true,
}

// IsRunTime reports whether tmpl references anything that is only
// available once a flow is executing: a run-time identifier root, or
// a call to the get_value(...) runtime lookup function.
func IsRunTime(tmpl string) bool {
	if strings.Contains(tmpl, "get_value(") {
		return true
	}
	for _, id := range ExtractIdentifiers(tmpl) {
		if runTimeIdentifiers[Root(id)] {
			return true
		}
	}
	return false
}
