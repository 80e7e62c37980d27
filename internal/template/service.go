// Package template implements the Template Service (spec.md §4.1): a
// Jinja-like expression language, backed by pongo2, used both to
// validate templates strictly at system-load time and to resolve them
// leniently against the live execution context while a flow runs.
package template

import (
	"fmt"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// Mode selects strict load-time validation or lenient run-time
// resolution (spec.md §4.1 step 5).
type Mode int

const (
	// ModeLoadTime resolves a template against only the system's static
	// metadata. Any identifier that cannot be resolved is a load error.
	ModeLoadTime Mode = iota
	// ModeRunTime resolves a template against the live execution
	// context. Identifiers outside the run-time set render as empty
	// rather than failing; a render failure falls back to the literal
	// template text instead of aborting the step.
	ModeRunTime
)

func (m Mode) String() string {
	if m == ModeLoadTime {
		return "loadtime"
	}
	return "runtime"
}

// Service renders GRIMOIRE templates. It is safe for concurrent use;
// pongo2's filter registry is process-global and registered once.
type Service struct{}

// NewService constructs a Service and registers GRIMOIRE's custom
// pongo2 filters (title_case, snake_case, dice_modifier) the first
// time it is called.
func NewService() *Service {
	registerFilters()
	return &Service{}
}

// Resolve renders tmpl against ctx under mode.
//
// Load-time: every identifier referenced by the template must resolve
// against ctx (system_metadata et al.); an unresolved identifier is
// reported as an error and the result is always a string.
//
// Run-time: identifiers in the run-time set (result, variables,
// inputs, outputs, item, selected_item(s), key, value, llm_result) may
// be undefined without error — pongo2 renders them empty, matching a
// step that has not yet produced every field a later template probes
// for. A render error returns the original template text unchanged
// rather than failing the step. The rendered text is then run through
// ParseStructured so a template that produced whole YAML-shaped data
// comes back as that data rather than as text.
func (s *Service) Resolve(tmpl string, ctx map[string]any, mode Mode) (any, error) {
	rendered, err := s.render(tmpl, ctx, mode)
	if err != nil {
		return "", err
	}
	if mode == ModeLoadTime {
		return rendered, nil
	}
	value, _ := ParseStructured(rendered)
	return value, nil
}

// ResolveString renders tmpl in run-time mode and returns the literal
// rendered text, bypassing ParseStructured entirely. log_message
// (spec.md §4.6) must never reinterpret its rendered text as
// structured data — "Rolled: 14" must stay exactly that string — so it
// uses this instead of Resolve.
func (s *Service) ResolveString(tmpl string, ctx map[string]any) (string, error) {
	return s.render(tmpl, ctx, ModeRunTime)
}

func (s *Service) render(tmpl string, ctx map[string]any, mode Mode) (string, error) {
	if mode == ModeLoadTime {
		if missing := firstUnresolved(tmpl, ctx); missing != "" {
			return "", fmt.Errorf("template: undefined identifier %q at load time", missing)
		}
	}

	compiled, err := pongo2.FromString(tmpl)
	if err != nil {
		if mode == ModeRunTime {
			return tmpl, nil
		}
		return "", fmt.Errorf("template: parse error: %w", err)
	}

	pctx := toPongoContext(ctx)
	pctx["get_value"] = func(path string) any {
		v, _ := ResolveDotted(ctx, path)
		return v
	}

	rendered, err := compiled.Execute(pctx)
	if err != nil {
		if mode == ModeRunTime {
			return tmpl, nil
		}
		return "", fmt.Errorf("template: render error: %w", err)
	}
	return rendered, nil
}

// firstUnresolved returns the first identifier referenced by tmpl that
// cannot be resolved against ctx, or "" if every identifier resolves.
func firstUnresolved(tmpl string, ctx map[string]any) string {
	for _, id := range ExtractIdentifiers(tmpl) {
		if _, ok := ResolveDotted(ctx, id); !ok {
			return id
		}
	}
	return ""
}

func toPongoContext(ctx map[string]any) pongo2.Context {
	pctx := make(pongo2.Context, len(ctx)+1)
	for k, v := range ctx {
		pctx[k] = v
	}
	return pctx
}

// ResolveDotted traverses a dotted path ("outputs.knave.name") through
// nested map[string]any values, shared by load-time validation,
// get_value, and the execution context's own Get (spec.md §4.3).
func ResolveDotted(root map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	var cur any = root
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
