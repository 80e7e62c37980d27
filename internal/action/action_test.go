package action

import (
	"testing"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
	"github.com/wyrdbound/grimoire/internal/logging"
	"github.com/wyrdbound/grimoire/internal/template"
)

func newTestContext() *engine.Context {
	ctx := engine.NewContext(nil, template.NewService(), logging.NoOp{})
	ctx.PushFrame("f")
	return ctx
}

func TestSetValueRoutesOutputsPrefixWithoutCascade(t *testing.T) {
	ctx := newTestContext()

	_, err := SetValue{}.Apply(&definition.Action{Type: definition.ActionSetValue, Path: "outputs.opposed_save_result", Value: "success"}, ctx, &definition.System{}, definition.StepResult{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := ctx.GetOutput("opposed_save_result")
	if !ok || got != "success" {
		t.Errorf("outputs.opposed_save_result = %v, %v, want success, true", got, ok)
	}
	if _, ok := ctx.GetVariable("opposed_save_result"); ok {
		t.Errorf("namespace-prefixed set_value leaked into variables")
	}
}

func TestSetValueBarePathDefaultsToVariables(t *testing.T) {
	ctx := newTestContext()

	_, err := SetValue{}.Apply(&definition.Action{Type: definition.ActionSetValue, Path: "armor_class_base", Value: 10}, ctx, &definition.System{}, definition.StepResult{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := ctx.GetVariable("armor_class_base")
	if !ok || got != 10 {
		t.Errorf("variables.armor_class_base = %v, %v, want 10, true", got, ok)
	}
}

func TestCallFlowBindsTransientResultForLaterActions(t *testing.T) {
	registry := engine.NewRegistry()
	registry.RegisterExecutor(definition.StepCompletion, completionExecutor{})
	eng := engine.NewEngine(registry)

	sys := &definition.System{
		Flows: map[string]*definition.Flow{
			"sub": {
				ID:        "sub",
				Variables: map[string]any{"value": "ok"},
				Steps:     []definition.Step{{ID: "finish", Type: definition.StepCompletion}},
			},
		},
	}

	ctx := newTestContext()
	call := CallFlow{Engine: eng}

	next, err := call.Apply(&definition.Action{Type: definition.ActionCallFlow, FlowID: "sub"}, ctx, sys, definition.StepResult{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A later action in the same list sees "result" via resultExtra.
	_, err = SetValue{}.Apply(&definition.Action{Type: definition.ActionSetValue, Path: "outputs.copied", Value: "{{ result.result }}"}, ctx, sys, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := ctx.GetOutput("copied")
	if !ok || got != "ok" {
		t.Errorf("outputs.copied = %v, %v, want ok, true", got, ok)
	}
}

type completionExecutor struct{}

func (completionExecutor) Execute(step *definition.Step, ctx *engine.Context, sys *definition.System) definition.StepResult {
	v, _ := ctx.GetVariable("value")
	ctx.SetOutput("result", v)
	return definition.StepResult{Success: true}
}
func (completionExecutor) ProcessInput(step *definition.Step, userValue any, ctx *engine.Context, sys *definition.System) definition.StepResult {
	return definition.StepResult{Success: true}
}
