package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
	"github.com/wyrdbound/grimoire/internal/ports"
)

const maxRepairAttempts = 3

// LLMGenerationExecutor implements the llm_generation step kind
// (spec.md §4.5.6): render a prompt, call the LLM service, and — for
// json-validated steps — repair and re-prompt on malformed output up
// to maxRepairAttempts times.
type LLMGenerationExecutor struct {
	LLM ports.LLMService
}

func (e *LLMGenerationExecutor) Execute(step *definition.Step, ctx *engine.Context, sys *definition.System) definition.StepResult {
	promptTemplate := step.Prompt
	if step.PromptRef != "" {
		p, ok := sys.Prompts[step.PromptRef]
		if !ok {
			return fail(step.ID, "LLM generation failed", fmt.Errorf("prompt %q not found", step.PromptRef))
		}
		promptTemplate = p.Template
	}
	if promptTemplate == "" {
		return fail(step.ID, "LLM generation failed", fmt.Errorf("step requires 'prompt' or a prompt reference"))
	}

	extra := make(map[string]any, len(step.PromptData))
	for k, v := range step.PromptData {
		rendered, err := renderCallInput(ctx, v)
		if err != nil {
			return fail(step.ID, "LLM generation failed", err)
		}
		extra[k] = rendered
	}

	rendered, err := ctx.ResolveTemplate(promptTemplate, extra)
	if err != nil {
		return fail(step.ID, "LLM generation failed", err)
	}
	prompt := fmt.Sprint(rendered)

	req := ports.LLMRequest{Prompt: prompt}
	if step.Settings != nil {
		req.Provider = step.Settings.Provider
		req.Model = step.Settings.Model
		req.MaxTokens = step.Settings.MaxTokens
		req.Temperature = step.Settings.Temperature
	}

	response, err := e.call(ctx, req)
	if err != nil {
		return fail(step.ID, "LLM generation failed", err)
	}

	if step.Validation == nil || step.Validation.Type != "json" {
		return definition.StepResult{StepID: step.ID, Success: true, Data: map[string]any{"result": response}}
	}

	schema, schemaErr := compileSchema(step.Validation.Schema)
	if schemaErr != nil {
		return fail(step.ID, "LLM generation failed", schemaErr)
	}

	doc, verr := extractAndValidateJSON(response, schema)
	attempt := 0
	for verr != nil && attempt < maxRepairAttempts {
		attempt++
		req.Prompt = prompt + "\n\n" + response + "\n\nReturn a valid JSON object, corrected."
		response, err = e.call(ctx, req)
		if err != nil {
			return fail(step.ID, "LLM generation failed", err)
		}
		doc, verr = extractAndValidateJSON(response, schema)
	}
	if verr != nil {
		return fail(step.ID, "LLM generation failed", fmt.Errorf("response did not validate after %d repair attempts: %w", maxRepairAttempts, verr))
	}

	return definition.StepResult{StepID: step.ID, Success: true, Data: map[string]any{"result": doc}}
}

func (e *LLMGenerationExecutor) call(ctx *engine.Context, req ports.LLMRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx.GoContext(), ServiceTimeout)
	defer cancel()

	var response string
	op := func() error {
		out, err := e.LLM.Generate(callCtx, req)
		if err != nil {
			return err
		}
		response = out
		return nil
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)
	if err := backoff.Retry(op, backoff.WithContext(policy, callCtx)); err != nil {
		return "", err
	}
	return response, nil
}

func (e *LLMGenerationExecutor) ProcessInput(step *definition.Step, userValue any, ctx *engine.Context, sys *definition.System) definition.StepResult {
	return notInteractive(step)
}

// extractAndValidateJSON implements spec.md §4.5.6's extraction rule:
// a fenced ```json block, or else the first balanced {...} span, then
// (when a schema is present) structural validation.
func extractAndValidateJSON(response string, schema *jsonschema.Schema) (any, error) {
	raw, err := extractJSON(response)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if schema != nil {
		if err := schema.Validate(doc); err != nil {
			return nil, fmt.Errorf("schema validation failed: %w", err)
		}
	}
	return doc, nil
}

func extractJSON(response string) (string, error) {
	if idx := strings.Index(response, "```json"); idx >= 0 {
		rest := response[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end]), nil
		}
	}

	start := strings.IndexByte(response, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in response")
	}
	depth := 0
	for i := start; i < len(response); i++ {
		switch response[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("no balanced JSON object found in response")
}

func compileSchema(schema any) (*jsonschema.Schema, error) {
	if schema == nil {
		return nil, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("invalid validation schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("step-schema.json", strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("invalid validation schema: %w", err)
	}
	return compiler.Compile("step-schema.json")
}
