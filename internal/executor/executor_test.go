package executor

import (
	"testing"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/dice"
	"github.com/wyrdbound/grimoire/internal/engine"
	"github.com/wyrdbound/grimoire/internal/logging"
	"github.com/wyrdbound/grimoire/internal/namegen"
	"github.com/wyrdbound/grimoire/internal/template"
)

func newTestContext() *engine.Context {
	return engine.NewContext(nil, template.NewService(), logging.NoOp{})
}

func TestDiceRollExecutorPopulatesResultAndBreakdown(t *testing.T) {
	e := &DiceRollExecutor{Dice: dice.NewSeededService(1)}
	ctx := newTestContext()
	ctx.PushFrame("f")

	res := e.Execute(&definition.Step{ID: "roll", Type: definition.StepDiceRoll, Roll: "2d6+1"}, ctx, &definition.System{})
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	total, ok := res.Data["result"].(int)
	if !ok || total < 3 || total > 13 {
		t.Errorf("result = %v, want an int in [3,13]", res.Data["result"])
	}
	breakdown, ok := res.Data["breakdown"].([]int)
	if !ok || len(breakdown) != 2 {
		t.Errorf("breakdown = %v, want a 2-element []int", res.Data["breakdown"])
	}
}

func TestTableRollExecutorResolvesByRange(t *testing.T) {
	sys := &definition.System{
		Tables: map[string]*definition.Table{
			"reaction": {
				ID:   "reaction",
				Roll: "1d1",
				Entries: map[string]*definition.TableEntry{
					"1": {Kind: definition.TableEntryLiteral, Literal: "hostile"},
				},
			},
		},
	}
	e := &TableRollExecutor{Dice: dice.NewSeededService(1), Names: namegen.NewService()}
	ctx := newTestContext()
	ctx.PushFrame("f")

	step := &definition.Step{ID: "react", Type: definition.StepTableRoll, Tables: []definition.TableRollRef{{Table: "reaction"}}}
	res := e.Execute(step, ctx, sys)
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Data["result"] != "hostile" {
		t.Errorf("result = %v, want %q", res.Data["result"], "hostile")
	}
}

func TestTableRollExecutorOutOfRangeFails(t *testing.T) {
	sys := &definition.System{
		Tables: map[string]*definition.Table{
			"empty": {
				ID:   "empty",
				Roll: "1d1",
				Entries: map[string]*definition.TableEntry{
					"2": {Kind: definition.TableEntryLiteral, Literal: "never"},
				},
			},
		},
	}
	e := &TableRollExecutor{Dice: dice.NewSeededService(1), Names: namegen.NewService()}
	ctx := newTestContext()
	ctx.PushFrame("f")

	step := &definition.Step{ID: "react", Type: definition.StepTableRoll, Tables: []definition.TableRollRef{{Table: "empty"}}}
	res := e.Execute(step, ctx, sys)
	if res.Success {
		t.Fatalf("expected failure for an out-of-range roll, got %+v", res)
	}
}

func TestPlayerChoiceExecutorFromValuesRendersPlainLabels(t *testing.T) {
	ctx := newTestContext()
	ctx.PushFrame("f")
	ctx.SetVariable("modifiers", map[string]any{
		"str": map[string]any{"name": "Strength", "modifier": 2},
	})

	step := &definition.Step{
		ID:   "pick",
		Type: definition.StepPlayerChoice,
		ChoiceSource: &definition.ChoiceSource{
			TableFromValues: "variables.modifiers",
			DisplayFormat:   "{{ value.name }}: +{{ value.modifier }}",
		},
	}

	e := &PlayerChoiceExecutor{Names: namegen.NewService()}
	res := e.Execute(step, ctx, &definition.System{})
	if !res.Success || !res.RequiresInput {
		t.Fatalf("expected a pause requesting input, got %+v", res)
	}
	if len(res.Choices) != 1 {
		t.Fatalf("choices = %v, want 1 entry", res.Choices)
	}
	label := res.Choices[0].Label
	if label != "Strength: +2" {
		t.Errorf("label = %q, want %q", label, "Strength: +2")
	}
	if containsBraces(label) {
		t.Errorf("label %q still contains template delimiters", label)
	}

	processed := e.ProcessInput(step, "str", ctx, &definition.System{})
	if !processed.Success {
		t.Fatalf("expected success, got error %q", processed.Error)
	}
	if processed.Data["result"] == nil {
		t.Errorf("expected selected value to be bound to result")
	}
}

func containsBraces(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '{' && s[i+1] == '{' {
			return true
		}
	}
	return false
}

func TestConditionalExecutorAppliesThenActions(t *testing.T) {
	registry := engine.NewRegistry()
	registry.RegisterAction(definition.ActionSetValue, fakeSetValue{})
	e := &ConditionalExecutor{Registry: registry}

	ctx := newTestContext()
	ctx.PushFrame("f")
	ctx.SetVariable("hp", 10)

	step := &definition.Step{
		ID:          "check",
		Type:        definition.StepConditional,
		IfCondition: "variables.hp > 5",
		ThenActions: []definition.Action{{Type: definition.ActionSetValue, Path: "variables.status", Value: "healthy"}},
	}
	res := e.Execute(step, ctx, &definition.System{})
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	got, _ := ctx.GetVariable("status")
	if got != "healthy" {
		t.Errorf("status = %v, want healthy", got)
	}
}

// fakeSetValue is a minimal stand-in for the real set_value action: it
// applies the value without template rendering, which is enough to
// exercise ConditionalExecutor's action-dispatch path.
type fakeSetValue struct{}

func (fakeSetValue) Apply(act *definition.Action, ctx *engine.Context, sys *definition.System, lastResult definition.StepResult) (definition.StepResult, error) {
	return lastResult, ctx.ApplySetWithCascade(act.Path, act.Value)
}
