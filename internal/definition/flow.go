package definition

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Flow is an ordered sequence of Steps with typed inputs/outputs.
type Flow struct {
	ID           string         `yaml:"id" json:"id"`
	Name         string         `yaml:"name" json:"name"`
	Kind         string         `yaml:"kind" json:"kind"`
	Description  string         `yaml:"description,omitempty" json:"description,omitempty"`
	Inputs       []InputDef     `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs      []OutputDef    `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Variables    map[string]any `yaml:"variables,omitempty" json:"variables,omitempty"`
	Steps        []Step         `yaml:"steps" json:"steps"`
	ResumePoints []string       `yaml:"resume_points,omitempty" json:"resume_points,omitempty"`
}

// InputDef declares one named, typed flow input.
type InputDef struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Required *bool  `yaml:"required,omitempty" json:"required,omitempty"`
	Default  any    `yaml:"default,omitempty" json:"default,omitempty"`
}

func (i InputDef) IsRequired() bool {
	if i.Required == nil {
		return true
	}
	return *i.Required
}

// OutputDef declares one named, typed flow output.
type OutputDef struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// Step kinds, spec.md §3.
const (
	StepDiceRoll      = "dice_roll"
	StepDiceSequence  = "dice_sequence"
	StepPlayerChoice  = "player_choice"
	StepPlayerInput   = "player_input"
	StepTableRoll     = "table_roll"
	StepLLMGeneration = "llm_generation"
	StepConditional   = "conditional"
	StepFlowCall      = "flow_call"
	StepCompletion    = "completion"
)

// Step is a single entry in a Flow's step list. It carries every
// type-specific field from spec.md §3/§4.5; executors read only the
// fields relevant to their own Type.
type Step struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
	Type      string `yaml:"type" json:"type"`
	Condition string `yaml:"condition,omitempty" json:"condition,omitempty"`
	NextStep  string `yaml:"next_step,omitempty" json:"next_step,omitempty"`
	Actions   []Action `yaml:"actions,omitempty" json:"actions,omitempty"`

	// dice_roll
	Roll string `yaml:"roll,omitempty" json:"roll,omitempty"`

	// dice_sequence
	Sequence *DiceSequenceDef `yaml:"sequence,omitempty" json:"sequence,omitempty"`

	// player_choice
	Choices      []ChoiceDef   `yaml:"choices,omitempty" json:"choices,omitempty"`
	ChoiceSource *ChoiceSource `yaml:"choice_source,omitempty" json:"choice_source,omitempty"`

	// player_input; Validation is also reused by llm_generation's
	// response validation ({type: "json", schema: ...}).
	Prompt     string `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	InputType  string `yaml:"input_type,omitempty" json:"input_type,omitempty"`
	Validation *InputValidation `yaml:"validation,omitempty" json:"validation,omitempty"`

	// table_roll
	Tables []TableRollRef `yaml:"tables,omitempty" json:"tables,omitempty"`

	// llm_generation
	PromptRef  string         `yaml:"prompt_ref,omitempty" json:"prompt_ref,omitempty"`
	PromptData map[string]any `yaml:"prompt_data,omitempty" json:"prompt_data,omitempty"`
	Settings   *LLMSettings   `yaml:"settings,omitempty" json:"settings,omitempty"`

	// conditional
	IfCondition  string        `yaml:"if_condition,omitempty" json:"if_condition,omitempty"`
	ThenActions  []Action      `yaml:"then_actions,omitempty" json:"then_actions,omitempty"`
	ElseActions  *ElseBranch   `yaml:"else_actions,omitempty" json:"else_actions,omitempty"`

	// flow_call
	Flow        string         `yaml:"flow,omitempty" json:"flow,omitempty"`
	CallInputs  map[string]any `yaml:"inputs,omitempty" json:"inputs,omitempty"`
}

// DiceSequenceDef is the payload of a dice_sequence step.
type DiceSequenceDef struct {
	Items      []string `yaml:"items" json:"items"`
	Roll       string   `yaml:"roll" json:"roll"`
	DisplayAs  string   `yaml:"display_as,omitempty" json:"display_as,omitempty"`
}

// ChoiceDef is one inline player_choice option.
type ChoiceDef struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Value any    `yaml:"value,omitempty" json:"value,omitempty"`
}

// ChoiceSource describes a dynamically generated choice list, spec.md §4.5.3.
type ChoiceSource struct {
	// table_from_values
	TableFromValues string `yaml:"table_from_values,omitempty" json:"table_from_values,omitempty"`
	SelectionCount  int    `yaml:"selection_count,omitempty" json:"selection_count,omitempty"`
	DisplayFormat   string `yaml:"display_format,omitempty" json:"display_format,omitempty"`

	// compendium
	Compendium string `yaml:"compendium,omitempty" json:"compendium,omitempty"`
	Filter     string `yaml:"filter,omitempty" json:"filter,omitempty"`

	// table
	Table string `yaml:"table,omitempty" json:"table,omitempty"`
}

// InputValidation constrains a player_input response.
type InputValidation struct {
	Type      string `yaml:"type,omitempty" json:"type,omitempty"`
	Pattern   string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	MinLength int    `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength int    `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	Schema    any    `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// TableRollRef references one table to roll in a table_roll step.
type TableRollRef struct {
	Table string `yaml:"table" json:"table"`
	Count int    `yaml:"count,omitempty" json:"count,omitempty"`
	Roll  string `yaml:"roll,omitempty" json:"roll,omitempty"`
}

// LLMSettings configures the opaque LLM generation call.
type LLMSettings struct {
	Provider    string  `yaml:"provider,omitempty" json:"provider,omitempty"`
	Model       string  `yaml:"model,omitempty" json:"model,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
}

// ElseBranch is either a flat action list or a nested elif chain
// (spec.md §4.5.7).
type ElseBranch struct {
	Actions []Action    `json:"actions,omitempty"`
	Elif    *Conditional `json:"elif,omitempty"`
}

// Conditional is the nested {if, then, else?} shape for elif chains.
type Conditional struct {
	If   string      `yaml:"if" json:"if"`
	Then []Action    `yaml:"then" json:"then"`
	Else *ElseBranch `yaml:"else,omitempty" json:"else,omitempty"`
}

// UnmarshalYAML disambiguates else_actions between a plain action list
// and a nested conditional map, following the same "decode-then-branch"
// technique as (alexisbeaulieu97-Streamy's Step.UnmarshalYAML).
func (e *ElseBranch) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var actions []Action
		if err := value.Decode(&actions); err != nil {
			return fmt.Errorf("else_actions: %w", err)
		}
		e.Actions = actions
		return nil
	}
	var cond Conditional
	if err := value.Decode(&cond); err != nil {
		return fmt.Errorf("else_actions: expected list or {if,then,else}: %w", err)
	}
	e.Elif = &cond
	return nil
}

// Action is a declarative post-step effect, spec.md §4.6.
type Action struct {
	Type string `yaml:"type" json:"type"`

	// set_value
	Path  string `yaml:"path,omitempty" json:"path,omitempty"`
	Value any    `yaml:"value,omitempty" json:"value,omitempty"`

	// log_message
	Message string `yaml:"message,omitempty" json:"message,omitempty"`

	// log_event
	EventType string `yaml:"event_type,omitempty" json:"event_type,omitempty"`
	Data      any    `yaml:"data,omitempty" json:"data,omitempty"`

	// call_flow
	FlowID string         `yaml:"flow_id,omitempty" json:"flow_id,omitempty"`
	Inputs map[string]any `yaml:"inputs,omitempty" json:"inputs,omitempty"`
}

const (
	ActionSetValue  = "set_value"
	ActionLogMessage = "log_message"
	ActionLogEvent  = "log_event"
	ActionCallFlow  = "call_flow"
)

func (f *Flow) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("flow: 'id' is required")
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow %q: must have at least one step", f.ID)
	}
	seen := make(map[string]bool, len(f.Steps))
	for i, step := range f.Steps {
		if step.ID == "" {
			return fmt.Errorf("flow %q: step %d missing 'id'", f.ID, i)
		}
		if seen[step.ID] {
			return fmt.Errorf("flow %q: duplicate step id %q", f.ID, step.ID)
		}
		seen[step.ID] = true
		if err := step.validateShape(); err != nil {
			return fmt.Errorf("flow %q: %w", f.ID, err)
		}
	}
	return nil
}

func (s *Step) validateShape() error {
	switch s.Type {
	case StepDiceRoll:
		if s.Roll == "" {
			return fmt.Errorf("step %q: dice_roll requires 'roll'", s.ID)
		}
	case StepDiceSequence:
		if s.Sequence == nil {
			return fmt.Errorf("step %q: dice_sequence requires 'sequence'", s.ID)
		}
	case StepPlayerChoice:
		if len(s.Choices) == 0 && s.ChoiceSource == nil {
			return fmt.Errorf("step %q: player_choice requires 'choices' or 'choice_source'", s.ID)
		}
	case StepTableRoll:
		if len(s.Tables) == 0 {
			return fmt.Errorf("step %q: table_roll requires 'tables'", s.ID)
		}
	case StepLLMGeneration:
		if s.Prompt == "" && s.PromptRef == "" {
			return fmt.Errorf("step %q: llm_generation requires 'prompt' or a prompt reference", s.ID)
		}
	case StepConditional:
		if s.IfCondition == "" {
			return fmt.Errorf("step %q: conditional requires 'if_condition'", s.ID)
		}
		if len(s.ThenActions) == 0 && s.ElseActions == nil {
			return fmt.Errorf("step %q: conditional requires 'then_actions' (or an else branch)", s.ID)
		}
	case StepFlowCall:
		if s.Flow == "" {
			return fmt.Errorf("step %q: flow_call requires 'flow'", s.ID)
		}
	case StepPlayerInput, StepCompletion:
		// no required fields beyond the common ones.
	default:
		return fmt.Errorf("step %q: unknown step type %q", s.ID, s.Type)
	}
	return nil
}
