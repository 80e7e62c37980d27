// Package loader implements the System Loader (spec.md §4.1): it walks
// a system directory, parses every declaration file into the
// definition package's object graph, resolves load-time templates
// against system metadata, and cross-checks every reference before
// handing the System back to a caller.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/grimerr"
	"github.com/wyrdbound/grimoire/internal/template"
)

// parseOrder pairs a system subdirectory with the "kind" its files must
// declare, in the parse order spec.md §4.1 step 4 requires: leaves
// first, so a later kind can reference an earlier one by id.
var parseOrder = []struct {
	dir  string
	kind string
}{
	{"sources", "source"},
	{"models", "model"},
	{"compendiums", "compendium"},
	{"tables", "table"},
	{"prompts", "prompt"},
	{"flows", "flow"},
}

var cache sync.Map // canonical path -> *definition.System

// Load reads and validates the system rooted at path, returning the
// fully cross-referenced object graph. Loading the same canonical
// path twice returns the same *definition.System (spec.md §8
// invariant: "same path yields the same System identity").
func Load(path string) (*definition.System, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, grimerr.New(grimerr.KindNotFound, fmt.Sprintf("resolving path %q", path), err)
	}
	if cached, ok := cache.Load(abs); ok {
		return cached.(*definition.System), nil
	}

	sys, err := load(abs)
	if err != nil {
		return nil, err
	}
	cache.Store(abs, sys)
	return sys, nil
}

func load(root string) (*definition.System, error) {
	systemPath := filepath.Join(root, "system.yaml")
	data, err := os.ReadFile(systemPath)
	if err != nil {
		return nil, grimerr.New(grimerr.KindNotFound, fmt.Sprintf("system.yaml not found under %q", root), err)
	}

	var raw rawSystem
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, grimerr.New(grimerr.KindParse, fmt.Sprintf("parsing %s", systemPath), err)
	}

	ve := &grimerr.ValidationError{}
	if raw.ID == "" {
		ve.Add("system.yaml: 'id' is required")
	}
	if raw.Kind != "" && raw.Kind != "system" {
		ve.Add("system.yaml: 'kind' must be \"system\", got %q", raw.Kind)
	}
	if raw.Name == "" {
		ve.Add("system.yaml: 'name' is required")
	}
	if ve.HasErrors() {
		return nil, ve.AsError()
	}

	sys := definition.NewSystem()
	sys.ID = raw.ID
	sys.Name = raw.Name
	sys.Version = raw.Version
	sys.Description = raw.Description
	sys.DefaultSource = raw.DefaultSource
	sys.Currency = raw.Currency
	sys.Credits = raw.Credits

	tsvc := template.NewService()
	metadata := sys.Metadata()
	resolveLoadTimeString(&sys.Description, tsvc, metadata, ve, systemPath)

	for _, stage := range parseOrder {
		dirPath := filepath.Join(root, stage.dir)
		entries, err := os.ReadDir(dirPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, grimerr.New(grimerr.KindNotFound, fmt.Sprintf("reading %s", dirPath), err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			filePath := filepath.Join(dirPath, entry.Name())
			if err := loadOne(sys, stage.kind, filePath, tsvc, metadata, ve); err != nil {
				return nil, err
			}
		}
	}

	if ve.HasErrors() {
		return nil, ve.AsError()
	}

	resolveModelExtends(sys)

	if err := crossValidate(sys, ve); err != nil {
		return nil, err
	}
	if ve.HasErrors() {
		return nil, ve.AsError()
	}

	return sys, nil
}

type rawSystem struct {
	ID            string               `yaml:"id"`
	Kind          string               `yaml:"kind"`
	Name          string               `yaml:"name"`
	Version       string               `yaml:"version"`
	Description   string               `yaml:"description"`
	DefaultSource string               `yaml:"default_source"`
	Currency      *definition.Currency `yaml:"currency"`
	Credits       []string             `yaml:"credits"`
}

// loadOne parses a single declaration file of the given kind and
// registers it on sys, recording problems on ve instead of failing
// immediately so the loader can report every error in one pass.
func loadOne(sys *definition.System, kind, path string, tsvc *template.Service, metadata map[string]any, ve *grimerr.ValidationError) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return grimerr.New(grimerr.KindNotFound, fmt.Sprintf("reading %s", path), err)
	}

	var peek struct {
		Kind string `yaml:"kind"`
	}
	if err := yaml.Unmarshal(data, &peek); err != nil {
		return grimerr.New(grimerr.KindParse, fmt.Sprintf("parsing %s", path), err)
	}
	if peek.Kind != "" && peek.Kind != kind {
		ve.Add("%s: expected kind %q, got %q", path, kind, peek.Kind)
		return nil
	}

	switch kind {
	case "source":
		var s definition.Source
		if err := yaml.Unmarshal(data, &s); err != nil {
			return grimerr.New(grimerr.KindParse, fmt.Sprintf("parsing %s", path), err)
		}
		if err := s.Validate(); err != nil {
			ve.Add("%s: %v", path, err)
			return nil
		}
		resolveLoadTimeString(&s.Name, tsvc, metadata, ve, path)
		resolveLoadTimeString(&s.Description, tsvc, metadata, ve, path)
		sys.Sources[s.ID] = &s

	case "model":
		var m definition.Model
		if err := yaml.Unmarshal(data, &m); err != nil {
			return grimerr.New(grimerr.KindParse, fmt.Sprintf("parsing %s", path), err)
		}
		if err := m.Validate(); err != nil {
			ve.Add("%s: %v", path, err)
			return nil
		}
		resolveLoadTimeString(&m.Name, tsvc, metadata, ve, path)
		sys.Models[m.ID] = &m

	case "compendium":
		var c definition.Compendium
		if err := yaml.Unmarshal(data, &c); err != nil {
			return grimerr.New(grimerr.KindParse, fmt.Sprintf("parsing %s", path), err)
		}
		if err := c.Validate(); err != nil {
			ve.Add("%s: %v", path, err)
			return nil
		}
		resolveLoadTimeString(&c.Name, tsvc, metadata, ve, path)
		sys.Compendiums[c.ID] = &c

	case "table":
		var tb definition.Table
		if err := yaml.Unmarshal(data, &tb); err != nil {
			return grimerr.New(grimerr.KindParse, fmt.Sprintf("parsing %s", path), err)
		}
		if err := tb.Validate(); err != nil {
			ve.Add("%s: %v", path, err)
			return nil
		}
		resolveLoadTimeString(&tb.Name, tsvc, metadata, ve, path)
		sys.Tables[tb.ID] = &tb

	case "prompt":
		var p definition.Prompt
		if err := yaml.Unmarshal(data, &p); err != nil {
			return grimerr.New(grimerr.KindParse, fmt.Sprintf("parsing %s", path), err)
		}
		if err := p.Validate(); err != nil {
			ve.Add("%s: %v", path, err)
			return nil
		}
		resolveLoadTimeString(&p.Name, tsvc, metadata, ve, path)
		sys.Prompts[p.ID] = &p

	case "flow":
		var f definition.Flow
		if err := yaml.Unmarshal(data, &f); err != nil {
			return grimerr.New(grimerr.KindParse, fmt.Sprintf("parsing %s", path), err)
		}
		if err := f.Validate(); err != nil {
			ve.Add("%s: %v", path, err)
			return nil
		}
		resolveLoadTimeString(&f.Name, tsvc, metadata, ve, path)
		resolveLoadTimeString(&f.Description, tsvc, metadata, ve, path)
		for i := range f.Steps {
			resolveLoadTimeStepName(&f.Steps[i], tsvc, metadata, ve, path)
		}
		sys.Flows[f.ID] = &f

	default:
		ve.Add("%s: unknown kind %q", path, kind)
	}
	return nil
}

// resolveModelExtends merges each model's parent attribute maps into
// its own, per spec.md's extends field and its deep-merge law ("nested
// maps merge key-wise, non-map values on the right override the
// left"): a model's own attributes are the rightmost, most specific
// side and always win on a key collision; of several parents, a later
// entry in extends overrides an earlier one. Unknown extends targets
// and cycles are left for validateModels to report — this pass just
// merges whatever resolves, so a model with a bad extends entry still
// gets a best-effort attribute set for the remaining checks to run
// against.
func resolveModelExtends(sys *definition.System) {
	resolved := map[string]bool{}
	resolving := map[string]bool{}

	var resolve func(id string)
	resolve = func(id string) {
		if resolved[id] || resolving[id] {
			return
		}
		m, ok := sys.Models[id]
		if !ok {
			return
		}
		resolving[id] = true

		merged := map[string]*definition.AttributeDef{}
		for _, parentID := range m.Extends {
			resolve(parentID)
			parent, ok := sys.Models[parentID]
			if !ok {
				continue
			}
			for k, v := range parent.Attributes {
				merged[k] = v
			}
		}
		for k, v := range m.Attributes {
			merged[k] = v
		}
		m.Attributes = merged

		resolving[id] = false
		resolved[id] = true
	}

	for id := range sys.Models {
		resolve(id)
	}
}

// resolveLoadTimeString resolves a descriptive field in place against
// system_metadata, per spec.md §4.1 step 5. A template that turns out
// to reference run-time identifiers is left unresolved, to be
// rendered later by the engine; one that is load-time but fails to
// resolve is a Validation error.
func resolveLoadTimeString(field *string, tsvc *template.Service, metadata map[string]any, ve *grimerr.ValidationError, path string) {
	if field == nil || *field == "" || !strings.Contains(*field, "{{") {
		return
	}
	if template.IsRunTime(*field) {
		return
	}
	rendered, err := tsvc.Resolve(*field, metadata, template.ModeLoadTime)
	if err != nil {
		ve.Add("%s: %v", path, err)
		return
	}
	*field = rendered.(string)
}

func resolveLoadTimeStepName(step *definition.Step, tsvc *template.Service, metadata map[string]any, ve *grimerr.ValidationError, path string) {
	resolveLoadTimeString(&step.Name, tsvc, metadata, ve, path)
	if step.Prompt != "" && !template.IsRunTime(step.Prompt) {
		resolveLoadTimeString(&step.Prompt, tsvc, metadata, ve, path)
	}
}
