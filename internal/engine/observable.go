package engine

import (
	"reflect"

	"github.com/wyrdbound/grimoire/internal/ports"
	"github.com/wyrdbound/grimoire/internal/template"
)

// derivedField is one registered {expr, deps} pair (spec.md §4.4's
// Register step).
type derivedField struct {
	expr string
	deps []string
}

// derivedFieldManager implements the cascade-recompute algorithm from
// spec.md §4.4: a plain dependency_graph[dep] -> [derived paths] map
// plus a per-wave "computing" guard, deliberately not a topological
// sort — each field's expression is pure over the context snapshot at
// compute time, so the guard alone is sufficient to break cycles.
type derivedFieldManager struct {
	frame *Frame

	fields         map[string]derivedField // path -> field
	dependencyGraph map[string][]string     // dep path -> derived paths that read it
	computing      map[string]bool
}

func newDerivedFieldManager(f *Frame) *derivedFieldManager {
	return &derivedFieldManager{
		frame:           f,
		fields:          map[string]derivedField{},
		dependencyGraph: map[string][]string{},
		computing:       map[string]bool{},
	}
}

// register records expr's dependencies against path (spec.md §4.4).
func (m *derivedFieldManager) register(path, expr string) {
	deps := template.Dependencies(expr)
	m.fields[path] = derivedField{expr: expr, deps: deps}
	for _, dep := range deps {
		m.dependencyGraph[dep] = append(m.dependencyGraph[dep], path)
	}
}

// set implements the set/on_value_changed/recompute trio from
// spec.md §4.4, applied to the frame's Variables namespace.
func (m *derivedFieldManager) set(c *Context, path string, value any) error {
	current, _ := template.ResolveDotted(m.frame.Variables, path)
	if valuesEqual(current, value) {
		return nil
	}
	setDotted(m.frame.Variables, path, value)
	return m.onValueChanged(c, path)
}

func (m *derivedFieldManager) onValueChanged(c *Context, path string) error {
	for _, derived := range m.dependencyGraph[path] {
		if err := m.recompute(c, derived); err != nil {
			return err
		}
	}
	return nil
}

func (m *derivedFieldManager) recompute(c *Context, path string) error {
	if m.computing[path] {
		// Cycle: broken at the second traversal in this wave, per
		// spec.md §4.4. The field keeps its last successfully computed
		// value.
		c.Logger.Log(ports.LevelWarn, "derived field cycle detected, keeping last value", map[string]any{"path": path})
		return nil
	}
	field, ok := m.fields[path]
	if !ok {
		return nil
	}
	m.computing[path] = true
	defer delete(m.computing, path)

	// Derived expressions are evaluated over the flat instance/variable
	// namespace directly ("armor_class_base", not "variables.armor_class_base"),
	// matching the Derived AC scenario's bare-identifier expressions
	// rather than the engine's inputs/outputs/variables-wrapped view.
	newValue, err := c.Templates.Resolve(field.expr, m.frame.Variables, template.ModeRunTime)
	if err != nil {
		return err
	}
	return m.set(c, path, newValue)
}

func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
