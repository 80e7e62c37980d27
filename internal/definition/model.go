package definition

import "fmt"

// Model describes a typed, validated record shape: character sheets,
// items, NPCs, anything a Compendium entry or flow output conforms to.
type Model struct {
	ID          string                  `yaml:"id" json:"id"`
	Name        string                  `yaml:"name" json:"name"`
	Kind        string                  `yaml:"kind" json:"kind"`
	Extends     []string                `yaml:"extends,omitempty" json:"extends,omitempty"`
	Attributes  map[string]*AttributeDef `yaml:"attributes" json:"attributes"`
	Validations []ValidationRule        `yaml:"validations,omitempty" json:"validations,omitempty"`
}

// AttributeDef describes one (possibly dotted-path nested) attribute of
// a Model.
type AttributeDef struct {
	Type     string `yaml:"type" json:"type"`
	Default  any    `yaml:"default,omitempty" json:"default,omitempty"`
	Range    string `yaml:"range,omitempty" json:"range,omitempty"`
	Enum     []any  `yaml:"enum,omitempty" json:"enum,omitempty"`
	Derived  string `yaml:"derived,omitempty" json:"derived,omitempty"`
	Required *bool  `yaml:"required,omitempty" json:"required,omitempty"`
	Of       string `yaml:"of,omitempty" json:"of,omitempty"`
}

// IsRequired applies the "required defaults to true" rule from spec.md §3.
func (a *AttributeDef) IsRequired() bool {
	if a.Required == nil {
		return true
	}
	return *a.Required
}

const (
	AttrTypeInt     = "int"
	AttrTypeFloat   = "float"
	AttrTypeStr     = "str"
	AttrTypeBool    = "bool"
	AttrTypeList    = "list"
	AttrTypeModelID = "model_id"
)

var validAttrTypes = map[string]bool{
	AttrTypeInt: true, AttrTypeFloat: true, AttrTypeStr: true,
	AttrTypeBool: true, AttrTypeList: true, AttrTypeModelID: true,
}

// Validate checks the model's own internal consistency. Cross-model
// reference checks (extends entries pointing at a real model, extends
// cycles) happen in the loader, which has the full System to check
// against; model_id-typed attributes are not checked there.
func (m *Model) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("model: 'id' is required")
	}
	if m.Name == "" {
		return fmt.Errorf("model %q: 'name' is required", m.ID)
	}
	for path, attr := range m.Attributes {
		if attr.Type == "" {
			return fmt.Errorf("model %q: attribute %q missing 'type'", m.ID, path)
		}
		if !validAttrTypes[attr.Type] {
			return fmt.Errorf("model %q: attribute %q has unknown type %q", m.ID, path, attr.Type)
		}
		if attr.Type == AttrTypeList && attr.Of == "" {
			return fmt.Errorf("model %q: list attribute %q requires 'of'", m.ID, path)
		}
	}
	return nil
}
