package executor

import (
	"github.com/wyrdbound/grimoire/internal/action"
	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
	"github.com/wyrdbound/grimoire/internal/ports"
)

// Services bundles the external collaborators a wired Registry needs
// (spec.md §6's dice/LLM/name-generator ports); a caller assembling a
// CLI or test harness supplies concrete or stub implementations.
type Services struct {
	Dice  ports.DiceService
	LLM   ports.LLMService
	Names ports.NameGenerator
}

// NewEngine builds a fully wired Engine: every non-flow_call executor
// and action registered first, then the flow_call step/call_flow
// action registered with a reference back to the Engine itself,
// exactly the two-phase wiring spec.md §9's factory design note
// requires ("Factories must inject a table-executor reference into the
// flow-call strategy so that call_flow actions can invoke sub-flows
// without a global singleton").
func NewEngine(services Services) *engine.Engine {
	registry := engine.NewRegistry()

	registry.RegisterExecutor(definition.StepDiceRoll, &DiceRollExecutor{Dice: services.Dice})
	registry.RegisterExecutor(definition.StepDiceSequence, &DiceSequenceExecutor{Dice: services.Dice})
	registry.RegisterExecutor(definition.StepPlayerChoice, &PlayerChoiceExecutor{Names: services.Names})
	registry.RegisterExecutor(definition.StepPlayerInput, &PlayerInputExecutor{})
	registry.RegisterExecutor(definition.StepTableRoll, &TableRollExecutor{Dice: services.Dice, Names: services.Names})
	registry.RegisterExecutor(definition.StepLLMGeneration, &LLMGenerationExecutor{LLM: services.LLM})
	registry.RegisterExecutor(definition.StepConditional, &ConditionalExecutor{Registry: registry})
	registry.RegisterExecutor(definition.StepCompletion, &CompletionExecutor{})

	registry.RegisterAction(definition.ActionSetValue, action.SetValue{})
	registry.RegisterAction(definition.ActionLogMessage, action.LogMessage{})
	registry.RegisterAction(definition.ActionLogEvent, action.LogEvent{})

	eng := engine.NewEngine(registry)

	registry.RegisterExecutor(definition.StepFlowCall, &FlowCallExecutor{Engine: eng})
	registry.RegisterAction(definition.ActionCallFlow, action.CallFlow{Engine: eng})

	return eng
}
