package engine

import (
	"context"
	"testing"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/logging"
	"github.com/wyrdbound/grimoire/internal/template"
)

// completionExecutor finishes a flow immediately, copying its single
// "value" variable into outputs.result.
type completionExecutor struct{}

func (completionExecutor) Execute(step *definition.Step, ctx *Context, sys *definition.System) definition.StepResult {
	v, _ := ctx.GetVariable("value")
	ctx.SetOutput("result", v)
	return definition.StepResult{Success: true}
}
func (completionExecutor) ProcessInput(step *definition.Step, userValue any, ctx *Context, sys *definition.System) definition.StepResult {
	return definition.StepResult{Success: true}
}

// pauseOnceExecutor requires input every time Execute runs and
// records whatever ProcessInput receives.
type pauseOnceExecutor struct{}

func (pauseOnceExecutor) Execute(step *definition.Step, ctx *Context, sys *definition.System) definition.StepResult {
	return definition.StepResult{Success: true, RequiresInput: true, Prompt: "pick one", InputType: "text"}
}
func (pauseOnceExecutor) ProcessInput(step *definition.Step, userValue any, ctx *Context, sys *definition.System) definition.StepResult {
	ctx.SetVariable("chosen", userValue)
	return definition.StepResult{Success: true}
}

func newTestEngine() (*Engine, *Registry) {
	reg := NewRegistry()
	reg.RegisterExecutor(definition.StepCompletion, completionExecutor{})
	reg.RegisterExecutor("pause_once", pauseOnceExecutor{})
	return NewEngine(reg), reg
}

func newTestContext() *Context {
	return NewContext(nil, template.NewService(), logging.NoOp{})
}

func TestExecuteRunsToCompletionAndExposesOutputs(t *testing.T) {
	eng, _ := newTestEngine()
	sys := &definition.System{Flows: map[string]*definition.Flow{
		"greet": {
			ID:        "greet",
			Variables: map[string]any{"value": "hello"},
			Steps: []definition.Step{
				{ID: "finish", Type: definition.StepCompletion},
			},
		},
	}}

	result, pending, err := eng.Execute(context.Background(), "greet", newTestContext(), sys, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pending != nil {
		t.Fatalf("expected no pending, got %+v", pending)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Outputs["result"] != "hello" {
		t.Errorf("outputs.result = %v, want hello", result.Outputs["result"])
	}
}

func TestExecutePausesAndResumeCompletes(t *testing.T) {
	eng, _ := newTestEngine()
	sys := &definition.System{Flows: map[string]*definition.Flow{
		"pick": {
			ID: "pick",
			Steps: []definition.Step{
				{ID: "choose", Type: "pause_once"},
				{ID: "finish", Type: definition.StepCompletion},
			},
		},
	}}

	ctx := newTestContext()
	result, pending, err := eng.Execute(context.Background(), "pick", ctx, sys, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pending == nil {
		t.Fatal("expected a pending pause")
	}
	if pending.Prompt != "pick one" {
		t.Errorf("prompt = %q", pending.Prompt)
	}

	result, pending, err = eng.Resume(context.Background(), pending, "dragon", ctx, sys)
	if err != nil {
		t.Fatalf("unexpected error on resume: %v", err)
	}
	if pending != nil {
		t.Fatalf("expected flow to finish, got pending %+v", pending)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if got, _ := ctx.GetVariable("chosen"); got != "dragon" {
		t.Errorf("chosen = %v, want dragon", got)
	}
}

func TestExecuteSkipsStepWhenConditionIsFalse(t *testing.T) {
	eng, _ := newTestEngine()
	sys := &definition.System{Flows: map[string]*definition.Flow{
		"conditional_skip": {
			ID:        "conditional_skip",
			Variables: map[string]any{"value": "skipped-flow-output"},
			Steps: []definition.Step{
				{ID: "never", Type: "pause_once", Condition: "false"},
				{ID: "finish", Type: definition.StepCompletion},
			},
		},
	}}

	result, pending, err := eng.Execute(context.Background(), "conditional_skip", newTestContext(), sys, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pending != nil {
		t.Fatalf("condition should have skipped the pausing step, got pending %+v", pending)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestCancelDiscardsPendingFrame(t *testing.T) {
	eng, _ := newTestEngine()
	sys := &definition.System{Flows: map[string]*definition.Flow{
		"pick": {
			ID: "pick",
			Steps: []definition.Step{
				{ID: "choose", Type: "pause_once"},
				{ID: "finish", Type: definition.StepCompletion},
			},
		},
	}}

	ctx := newTestContext()
	_, pending, err := eng.Execute(context.Background(), "pick", ctx, sys, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := eng.Cancel(pending, ctx)
	if !result.Cancelled {
		t.Errorf("expected Cancelled = true")
	}
	if ctx.CurrentFrame() != nil {
		t.Errorf("expected frame to be popped on cancel")
	}
}

func TestEvalConditionCoercesCommonStringForms(t *testing.T) {
	ctx := newTestContext()
	ctx.PushFrame("f")
	ctx.SetVariable("hp", 3)

	cases := map[string]bool{
		"true":                 true,
		"yes":                  true,
		"1":                    true,
		"false":                false,
		"no":                   false,
		"":                     true, // an empty condition means "no condition"
		"{{ variables.hp }} > 0 and not false": true, // renders to "3 > 0 and not false": a numeric compare
	}
	for expr := range cases {
		if _, err := evalCondition(ctx, expr); err != nil {
			t.Errorf("evalCondition(%q) unexpected error: %v", expr, err)
		}
	}

	ok, err := evalCondition(ctx, "true and not false")
	if err != nil || !ok {
		t.Errorf("evalCondition(true and not false) = %v, %v, want true, nil", ok, err)
	}
	ok, err = evalCondition(ctx, "1 == 2")
	if err != nil || ok {
		t.Errorf("evalCondition(1 == 2) = %v, %v, want false, nil", ok, err)
	}
}
