// Package engine implements the Execution Context (spec.md §4.3), the
// DerivedFieldManager (spec.md §4.4), and the Flow Engine (spec.md
// §4.7) that drives Step Executors over a System's flows.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wyrdbound/grimoire/internal/ports"
	"github.com/wyrdbound/grimoire/internal/template"
)

// Frame is one namespace level of the execution context: a flow's own
// inputs/outputs/variables, pushed on flow_call and popped on return
// (spec.md §4.3's push_frame/pop_frame).
type Frame struct {
	FlowID    string
	ExecID    string
	Inputs    map[string]any
	Outputs   map[string]any
	Variables map[string]any

	derived *derivedFieldManager
}

func newFrame(flowID string) *Frame {
	f := &Frame{
		FlowID:    flowID,
		ExecID:    uuid.NewString(),
		Inputs:    map[string]any{},
		Outputs:   map[string]any{},
		Variables: map[string]any{},
	}
	f.derived = newDerivedFieldManager(f)
	return f
}

// Context is GRIMOIRE's Execution Context: a stack of Frames plus the
// system-wide metadata and action message buffer shared across the
// whole run.
type Context struct {
	Metadata map[string]any

	frames   []*Frame
	messages []string

	// continuations holds an in-flight sub-flow's Pending, keyed by the
	// exec id of the frame whose flow_call step invoked it plus that
	// step's id, so a nested pause (spec.md §4.7's "Nested pause
	// propagation") resumes the right call site even when two frames on
	// the call chain reuse the same step id (recursive flows, or any
	// two flows naming their sub-call step the same thing).
	continuations map[continuationKey]*Pending

	// resumeExecIDs is a stack of owning-frame exec ids, pushed by
	// Engine.Resume around each ProcessInput dispatch and popped after,
	// so a resumed flow_call step can recover which frame it was
	// originally dispatched from (CurrentFrame no longer points there
	// once inner frames are pushed on top of it).
	resumeExecIDs []string

	// goCtx is the caller-supplied cancellation/timeout context for the
	// run in progress, threaded in by Engine.Execute/Resume and read by
	// step executors at each external service call (spec.md §5).
	goCtx context.Context

	Templates *template.Service
	Logger    ports.LoggerPort
}

type continuationKey struct {
	execID string
	stepID string
}

// NewContext builds an Context carrying system metadata for load-time
// style lookups (get_value's final fallback).
func NewContext(metadata map[string]any, tsvc *template.Service, logger ports.LoggerPort) *Context {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Context{
		Metadata:  metadata,
		Templates: tsvc,
		Logger:    logger,
	}
}

type noopLogger struct{}

func (noopLogger) Log(ports.LogLevel, string, map[string]any) {}
func (n noopLogger) With(map[string]any) ports.LoggerPort     { return n }

// PushFrame enters a new namespace level for flowID, returning its
// exec id.
func (c *Context) PushFrame(flowID string) string {
	f := newFrame(flowID)
	c.frames = append(c.frames, f)
	return f.ExecID
}

// PopFrame leaves the current namespace level, returning it so a
// caller (flow_call) can read its final Outputs.
func (c *Context) PopFrame() *Frame {
	if len(c.frames) == 0 {
		return nil
	}
	f := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	return f
}

// CurrentFrame returns the active namespace level, or nil if none is
// pushed.
func (c *Context) CurrentFrame() *Frame {
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

const (
	rootInputs    = "inputs"
	rootOutputs   = "outputs"
	rootVariables = "variables"
)

// SetInput/SetOutput/SetVariable set a dotted path within the current
// frame's corresponding namespace, creating intermediate maps as
// needed (spec.md §4.3).
func (c *Context) SetInput(path string, value any)    { c.set(rootInputs, path, value) }
func (c *Context) SetOutput(path string, value any)   { c.set(rootOutputs, path, value) }
func (c *Context) SetVariable(path string, value any) { c.set(rootVariables, path, value) }

func (c *Context) set(root, path string, value any) {
	f := c.CurrentFrame()
	if f == nil {
		return
	}
	m := c.namespace(f, root)
	setDotted(m, path, value)
}

// GetInput/GetOutput/GetVariable read a dotted path from the current
// frame.
func (c *Context) GetInput(path string) (any, bool)    { return c.get(rootInputs, path) }
func (c *Context) GetOutput(path string) (any, bool)   { return c.get(rootOutputs, path) }
func (c *Context) GetVariable(path string) (any, bool) { return c.get(rootVariables, path) }

func (c *Context) get(root, path string) (any, bool) {
	f := c.CurrentFrame()
	if f == nil {
		return nil, false
	}
	return template.ResolveDotted(c.namespace(f, root), path)
}

func (c *Context) namespace(f *Frame, root string) map[string]any {
	switch root {
	case rootInputs:
		return f.Inputs
	case rootOutputs:
		return f.Outputs
	case rootVariables:
		return f.Variables
	default:
		return nil
	}
}

// setDotted assigns value at a dotted path within m, creating
// intermediate map[string]any levels as needed (the same pattern
// herki-piper's StepContext uses to look up nested fields, run in
// reverse to create them instead of just reading).
func setDotted(m map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	cur := m
	for i, seg := range segments {
		if i == len(segments)-1 {
			cur[seg] = value
			return
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
}

// contextMap builds the full view RunTime templates resolve against:
// {inputs, outputs, variables, system_metadata, **extra}, per
// spec.md §4.3's resolve_template contract.
func (c *Context) contextMap(extra map[string]any) map[string]any {
	f := c.CurrentFrame()
	m := map[string]any{}
	for k, v := range c.Metadata {
		m[k] = v
	}
	if f != nil {
		m[rootInputs] = f.Inputs
		m[rootOutputs] = f.Outputs
		m[rootVariables] = f.Variables
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

// Lookup resolves a dotted path against the same {inputs, outputs,
// variables, system_metadata} view ResolveTemplate renders against,
// without going through the template engine. Used by step executors
// that need the raw value at a path (player_choice's
// table_from_values) rather than a rendered string.
func (c *Context) Lookup(path string) (any, bool) {
	return template.ResolveDotted(c.contextMap(nil), path)
}

// ResolveTemplate delegates to the Template Service in run-time mode
// over the current frame plus any step-specific extra bindings (e.g.
// {item: name} for dice_sequence, {result: ...} for flow_call).
func (c *Context) ResolveTemplate(s string, extra map[string]any) (any, error) {
	return c.Templates.Resolve(s, c.contextMap(extra), template.ModeRunTime)
}

// ResolveTemplateString renders s in run-time mode and returns its
// literal text, bypassing structured-value reinterpretation — used by
// log_message, which must never reparse its own output (spec.md §4.6).
func (c *Context) ResolveTemplateString(s string, extra map[string]any) (string, error) {
	return c.Templates.ResolveString(s, c.contextMap(extra))
}

// RecordActionMessage appends a rendered log_message line (spec.md
// §4.6), already prefixed by the caller.
func (c *Context) RecordActionMessage(msg string) {
	c.messages = append(c.messages, msg)
}

// DrainActionMessages returns and clears the accumulated action
// messages.
func (c *Context) DrainActionMessages() []string {
	msgs := c.messages
	c.messages = nil
	return msgs
}

// RegisterDerivedField registers expr against path on the current
// frame (spec.md §4.4's Register).
func (c *Context) RegisterDerivedField(path, expr string) {
	f := c.CurrentFrame()
	if f == nil {
		return
	}
	f.derived.register(path, expr)
}

// SetContinuation records a nested sub-flow's Pending against the
// (execID, stepID) pair that invoked it: execID identifies the calling
// frame, so two flow_call steps sharing a step id at different levels
// of a call chain (recursion, or two flows both naming their sub-call
// step the same thing) never collide.
func (c *Context) SetContinuation(execID, stepID string, p *Pending) {
	if c.continuations == nil {
		c.continuations = map[continuationKey]*Pending{}
	}
	c.continuations[continuationKey{execID, stepID}] = p
}

// PopContinuation retrieves and clears a previously stored nested
// Pending, or returns nil if none is recorded.
func (c *Context) PopContinuation(execID, stepID string) *Pending {
	key := continuationKey{execID, stepID}
	p := c.continuations[key]
	delete(c.continuations, key)
	return p
}

// PushResumeExecID records which frame a step is being resumed on
// behalf of, for the duration of one ProcessInput dispatch. Engine.Resume
// pushes pending.ExecID before calling the executor and pops it after,
// since ProcessInput's shared interface signature has no room for it.
func (c *Context) PushResumeExecID(execID string) {
	c.resumeExecIDs = append(c.resumeExecIDs, execID)
}

// PopResumeExecID removes the most recently pushed resume exec id.
func (c *Context) PopResumeExecID() {
	if len(c.resumeExecIDs) == 0 {
		return
	}
	c.resumeExecIDs = c.resumeExecIDs[:len(c.resumeExecIDs)-1]
}

// CurrentResumeExecID returns the exec id of the frame currently being
// resumed, or "" if none is active.
func (c *Context) CurrentResumeExecID() string {
	if len(c.resumeExecIDs) == 0 {
		return ""
	}
	return c.resumeExecIDs[len(c.resumeExecIDs)-1]
}

// GoContext returns the cancellation/timeout context threaded in by
// Engine.Execute/Resume for the run in progress, defaulting to
// context.Background() when none has been set (e.g. direct unit tests
// of a step executor that never go through the Engine).
func (c *Context) GoContext() context.Context {
	if c.goCtx == nil {
		return context.Background()
	}
	return c.goCtx
}

// setGoContext stores the Go context for the run in progress; called
// by Engine.Execute/Resume at entry.
func (c *Context) setGoContext(ctx context.Context) {
	c.goCtx = ctx
}

// ApplySetWithCascade sets path to value and, for a path in the
// variables namespace (bare or "variables."-prefixed), recomputes
// every derived field transitively dependent on it (spec.md §4.3/
// §4.4). A set_value action targeting "outputs."/"inputs." (spec.md
// §8 scenario 2's outputs.opposed_save_result, scenario 5's
// outputs.knave.abilities) writes directly: derived fields are
// registered against the variables namespace only, so there is
// nothing to cascade there.
func (c *Context) ApplySetWithCascade(path string, value any) error {
	f := c.CurrentFrame()
	if f == nil {
		return fmt.Errorf("engine: apply_set_with_cascade with no active frame")
	}
	root, rest := splitRoot(path)
	if root == rootVariables {
		return f.derived.set(c, rest, value)
	}
	setDotted(c.namespace(f, root), rest, value)
	return nil
}

// splitRoot separates an explicit "inputs."/"outputs."/"variables."
// namespace prefix from a path, defaulting to the variables namespace
// when the path is bare (spec.md §8's "Derived AC" scenario uses bare
// names like armor_class_base).
func splitRoot(path string) (root, rest string) {
	for _, r := range []string{rootInputs, rootOutputs, rootVariables} {
		if prefix := r + "."; strings.HasPrefix(path, prefix) {
			return r, strings.TrimPrefix(path, prefix)
		}
	}
	return rootVariables, path
}
