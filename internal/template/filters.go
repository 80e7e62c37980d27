package template

import (
	"strings"

	"github.com/flosch/pongo2/v6"
)

// registerFilters installs GRIMOIRE's custom pongo2 filters exactly
// once per process. pongo2's registry is global, so repeated calls
// from multiple Service instances are guarded with filtersRegistered.
var filtersRegistered = false

func registerFilters() {
	if filtersRegistered {
		return
	}
	filtersRegistered = true

	pongo2.RegisterFilter("title_case", filterTitleCase)
	pongo2.RegisterFilter("snake_case", filterSnakeCase)
	pongo2.RegisterFilter("dice_modifier", filterDiceModifier)
}

// filterTitleCase upper-cases the first letter of every word:
// "hired sword" -> "Hired Sword".
func filterTitleCase(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	words := strings.Fields(in.String())
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return pongo2.AsValue(strings.Join(words, " ")), nil
}

// filterSnakeCase folds a display label to a lowercase, underscore
// separated identifier: "Hired Sword" -> "hired_sword".
func filterSnakeCase(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	s := strings.TrimSpace(in.String())
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '_':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
			lastUnderscore = false
		default:
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	return pongo2.AsValue(strings.TrimSuffix(b.String(), "_")), nil
}

// filterDiceModifier renders a signed ability-score-style modifier:
// 3 -> "+3", 0 -> "+0", -2 -> "-2". Mirrors the common tabletop
// convention of always showing the sign on a derived modifier.
func filterDiceModifier(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	n := in.Integer()
	if n >= 0 {
		return pongo2.AsValue("+" + in.String()), nil
	}
	return in, nil
}
