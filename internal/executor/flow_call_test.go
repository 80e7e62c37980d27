package executor

import (
	"context"
	"testing"

	"github.com/wyrdbound/grimoire/internal/action"
	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
)

func TestFlowCallExecutorNestedPauseAndResume(t *testing.T) {
	registry := engine.NewRegistry()
	registry.RegisterExecutor(definition.StepPlayerInput, &PlayerInputExecutor{})
	registry.RegisterExecutor(definition.StepCompletion, &CompletionExecutor{})
	registry.RegisterAction(definition.ActionSetValue, action.SetValue{})

	eng := engine.NewEngine(registry)
	registry.RegisterExecutor(definition.StepFlowCall, &FlowCallExecutor{Engine: eng})

	sys := &definition.System{
		Flows: map[string]*definition.Flow{
			"inner": {
				ID: "inner",
				Steps: []definition.Step{
					{
						ID:   "ask",
						Type: definition.StepPlayerInput,
						Prompt: "name?",
						Actions: []definition.Action{
							{Type: definition.ActionSetValue, Path: "outputs.answer", Value: "{{ result }}"},
						},
					},
					{ID: "done", Type: definition.StepCompletion},
				},
			},
			"outer": {
				ID: "outer",
				Steps: []definition.Step{
					{
						ID:   "call_inner",
						Type: definition.StepFlowCall,
						Flow: "inner",
						Actions: []definition.Action{
							{Type: definition.ActionSetValue, Path: "outputs.final", Value: "{{ result.answer }}"},
						},
					},
					{ID: "finish", Type: definition.StepCompletion},
				},
			},
		},
	}

	ctx := newTestContext()
	result, pending, err := eng.Execute(context.Background(), "outer", ctx, sys, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pending == nil {
		t.Fatalf("expected a pending pause from the nested player_input step")
	}
	if pending.FlowID != "outer" || pending.StepID != "call_inner" {
		t.Errorf("pending = %+v, want outer/call_inner", pending)
	}

	result, pending, err = eng.Resume(context.Background(), pending, "Alice", ctx, sys)
	if err != nil {
		t.Fatalf("unexpected error resuming: %v", err)
	}
	if pending != nil {
		t.Fatalf("expected the flow to run to completion, got another pending: %+v", pending)
	}
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Outputs["final"] != "Alice" {
		t.Errorf("outputs.final = %v, want Alice", result.Outputs["final"])
	}
}
