package template

import "regexp"

// blockRegexp pulls the body out of every {{ ... }} expression and
// {% ... %} tag in a template, mirroring how the teacher's own
// exprRegex (piper/internal/engine/context.go) isolates ${{ ... }}
// bodies before resolving them — generalized to full Jinja delimiters
// since pongo2 doesn't expose its parsed AST for identifier extraction.
var blockRegexp = regexp.MustCompile(`\{\{\s*(.*?)\s*\}\}|\{%\s*(.*?)\s*%\}`)

// identifierRegexp matches a dotted or $-prefixed identifier path:
// "armor_class_base", "input.name", "$.armor_class_base", "$knave.x".
var identifierRegexp = regexp.MustCompile(`\$?\.?[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*`)

// reservedWords excludes Jinja keywords, operators-as-words, and literals
// that identifierRegexp would otherwise mistake for variable references.
var reservedWords = map[string]bool{
	"if": true, "else": true, "elif": true, "endif": true,
	"for": true, "endfor": true, "in": true, "not": true,
	"and": true, "or": true, "is": true, "true": true, "false": true,
	"none": true, "None": true, "True": true, "False": true,
	"set": true, "endset": true, "block": true, "endblock": true,
}

// ExtractIdentifiers returns the free variable roots and dotted paths
// referenced by a template's {{ }} / {% %} blocks, used both to
// classify load-time vs run-time templates (spec.md §4.1 step 5) and
// to build a derived field's dependency set (spec.md §4.4).
func ExtractIdentifiers(tmpl string) []string {
	var out []string
	seen := map[string]bool{}

	for _, block := range blockRegexp.FindAllStringSubmatch(tmpl, -1) {
		body := block[1]
		if body == "" {
			body = block[2]
		}
		for _, match := range identifierRegexp.FindAllString(body, -1) {
			path := normalizeIdentifier(match)
			if path == "" || reservedWords[path] {
				continue
			}
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
		}
	}
	return out
}

// normalizeIdentifier strips a leading "$" (current-instance / named-
// instance reference sigil, spec.md §4.4's "$.x" and "$name.x" forms)
// and a following leading "." (the "current instance" shorthand),
// leaving a plain dotted path usable as a dependency-graph key.
func normalizeIdentifier(s string) string {
	if len(s) == 0 {
		return s
	}
	if s[0] == '$' {
		s = s[1:]
		if len(s) > 0 && s[0] == '.' {
			s = s[1:]
		}
	}
	// Drop a bare numeric token picked up incorrectly (identifierRegexp
	// requires a leading letter/underscore so this should not happen,
	// but guard anyway for malformed input).
	if s == "" {
		return ""
	}
	return s
}

// Root returns the first dotted segment of a path ("outputs" from
// "outputs.knave.name").
func Root(path string) string {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return path
}
