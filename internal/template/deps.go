package template

// Dependencies returns the dotted attribute paths a derived field's
// expression reads (spec.md §4.4): "{{ $.strength_modifier + 10 }}"
// depends on "strength_modifier", "{{ $knave.dexterity }}" depends on
// "knave.dexterity". Used by the Derived Field Manager to register a
// field against every variable path it must recompute from.
func Dependencies(expression string) []string {
	return ExtractIdentifiers(expression)
}
