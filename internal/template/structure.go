package template

import "strings"

// ParseStructured implements the run-time template's "structured
// return" rule: a rendered string that is actually YAML-shaped data
// (a mapping, a sequence, or a bare int/float/bool scalar) comes back
// as that data instead of text, so a single {{ ... }} step output can
// populate a whole sub-tree of variables.
//
// The one carve-out is a single "Label: value" line — the kind of
// thing a log_message template renders all the time ("Rolled: 14").
// Treating every line containing ": " as a one-key mapping would turn
// ordinary log text into structured data, so a single-line string with
// exactly one ": " separator is left alone unless it already looks
// like an explicit block ("{...}", "[...]", or a "- " list item).
func ParseStructured(s string) (any, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s, false
	}

	looksExplicitlyStructural := strings.HasPrefix(trimmed, "{") ||
		strings.HasPrefix(trimmed, "[") ||
		strings.HasPrefix(trimmed, "- ")

	isSingleLineKV := !strings.Contains(trimmed, "\n") &&
		strings.Count(trimmed, ": ") == 1 &&
		!looksExplicitlyStructural

	var out any
	if err := yamlUnmarshal(trimmed, &out); err != nil {
		return s, false
	}

	switch v := out.(type) {
	case map[string]any:
		if isSingleLineKV {
			return s, false
		}
		return v, true
	case []any:
		return v, true
	case int, int64, float64, bool:
		return v, true
	default:
		return s, false
	}
}
