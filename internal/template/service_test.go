package template

import "testing"

func TestResolveLoadTimeSubstitutesSystemMetadata(t *testing.T) {
	svc := NewService()
	ctx := map[string]any{
		"system": map[string]any{"name": "Knave"},
	}
	out, err := svc.Resolve("Welcome to {{ system.name }}!", ctx, ModeLoadTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Welcome to Knave!" {
		t.Errorf("got %q", out)
	}
}

func TestResolveLoadTimeUndefinedIdentifierIsError(t *testing.T) {
	svc := NewService()
	ctx := map[string]any{"system": map[string]any{"name": "Knave"}}
	if _, err := svc.Resolve("{{ inputs.whatever }}", ctx, ModeLoadTime); err == nil {
		t.Fatal("expected error for identifier unresolvable at load time")
	}
}

func TestResolveRunTimeUndefinedRunTimeIdentifierRendersEmpty(t *testing.T) {
	svc := NewService()
	ctx := map[string]any{}
	out, err := svc.Resolve("[{{ outputs.knave.name }}]", ctx, ModeRunTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The rendered "[]" is then returned as an empty YAML sequence.
	if list, ok := out.([]any); !ok || len(list) != 0 {
		t.Errorf("got %v (%T), want empty substitution parsed as an empty list", out, out)
	}
}

func TestResolveRunTimeStructuredMapping(t *testing.T) {
	svc := NewService()
	ctx := map[string]any{
		"variables": map[string]any{"name": "Borin", "hp": 8},
	}
	out, err := svc.Resolve("name: {{ variables.name }}\nhp: {{ variables.hp }}\nclass: Knave", ctx, ModeRunTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected structured map, got %T (%v)", out, out)
	}
	if m["name"] != "Borin" || m["class"] != "Knave" {
		t.Errorf("got %v", m)
	}
}

// TestResolveRunTimeSingleLineKVStaysPlainString is the narrow ": "
// elision regression: a one-line "Label: value" render (typical of a
// log_message template) must not be mistaken for structured data.
func TestResolveRunTimeSingleLineKVStaysPlainString(t *testing.T) {
	svc := NewService()
	ctx := map[string]any{"result": map[string]any{"total": 14}}
	out, err := svc.Resolve("Rolled: {{ result.total }}", ctx, ModeRunTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Rolled: 14" {
		t.Errorf("got %v (%T), want plain string %q", out, out, "Rolled: 14")
	}
}

func TestResolveRunTimeParseErrorReturnsOriginalTemplate(t *testing.T) {
	svc := NewService()
	tmpl := "{{ unterminated"
	out, err := svc.Resolve(tmpl, map[string]any{}, ModeRunTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != tmpl {
		t.Errorf("got %v, want original template text back", out)
	}
}

func TestIsRunTimeDetectsRunTimeRootsAndGetValue(t *testing.T) {
	cases := map[string]bool{
		"{{ system.name }}":          false,
		"{{ outputs.knave.name }}":   true,
		"{{ get_value('inputs.x') }}": true,
		"{{ currency.base_unit }}":   false,
	}
	for tmpl, want := range cases {
		if got := IsRunTime(tmpl); got != want {
			t.Errorf("IsRunTime(%q) = %v, want %v", tmpl, got, want)
		}
	}
}

func TestDependenciesExtractsDollarSigilPaths(t *testing.T) {
	deps := Dependencies("{{ $.strength_modifier + $knave.dexterity_modifier }}")
	want := map[string]bool{"strength_modifier": true, "knave.dexterity_modifier": true}
	if len(deps) != len(want) {
		t.Fatalf("got %v, want keys of %v", deps, want)
	}
	for _, d := range deps {
		if !want[d] {
			t.Errorf("unexpected dependency %q", d)
		}
	}
}
