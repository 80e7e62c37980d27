// Package definition holds the typed records parsed from a GRIMOIRE
// system directory: System, Model, Compendium, Table, Flow, Source, and
// Prompt. Records are immutable once the loader hands back a *System.
package definition

// System is the root aggregate produced by loading a system directory.
type System struct {
	ID            string `yaml:"id" json:"id"`
	Name          string `yaml:"name" json:"name"`
	Version       string `yaml:"version" json:"version"`
	Description   string `yaml:"description,omitempty" json:"description,omitempty"`
	DefaultSource string `yaml:"default_source,omitempty" json:"default_source,omitempty"`
	Currency      *Currency `yaml:"currency,omitempty" json:"currency,omitempty"`
	Credits       []string  `yaml:"credits,omitempty" json:"credits,omitempty"`

	Sources     map[string]*Source     `yaml:"-" json:"sources"`
	Models      map[string]*Model      `yaml:"-" json:"models"`
	Compendiums map[string]*Compendium `yaml:"-" json:"compendiums"`
	Tables      map[string]*Table      `yaml:"-" json:"tables"`
	Flows       map[string]*Flow       `yaml:"-" json:"flows"`
	Prompts     map[string]*Prompt     `yaml:"-" json:"prompts"`
}

// Currency describes the monetary system used to price compendium entries.
type Currency struct {
	BaseUnit     string         `yaml:"base_unit" json:"base_unit"`
	Denominations []Denomination `yaml:"denominations,omitempty" json:"denominations,omitempty"`
}

// Denomination is a single named unit of currency.
type Denomination struct {
	Symbol string  `yaml:"symbol" json:"symbol"`
	Name   string  `yaml:"name" json:"name"`
	Value  float64 `yaml:"value" json:"value"`
	Weight float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// Metadata returns the system_metadata binding used for load-time
// template resolution (spec.md §4.1 step 2).
func (s *System) Metadata() map[string]any {
	sys := map[string]any{
		"id":          s.ID,
		"name":        s.Name,
		"version":     s.Version,
		"description": s.Description,
	}
	meta := map[string]any{"system": sys}
	if s.Currency != nil {
		cur := map[string]any{"base_unit": s.Currency.BaseUnit}
		denoms := make([]any, 0, len(s.Currency.Denominations))
		for _, d := range s.Currency.Denominations {
			denoms = append(denoms, map[string]any{
				"symbol": d.Symbol,
				"name":   d.Name,
				"value":  d.Value,
				"weight": d.Weight,
			})
		}
		cur["denominations"] = denoms
		meta["currency"] = cur
	}
	return meta
}

// newSystem initializes the record maps so the loader never has to
// nil-check before inserting.
func newSystem() *System {
	return &System{
		Sources:     make(map[string]*Source),
		Models:      make(map[string]*Model),
		Compendiums: make(map[string]*Compendium),
		Tables:      make(map[string]*Table),
		Flows:       make(map[string]*Flow),
		Prompts:     make(map[string]*Prompt),
	}
}

// NewSystem is exported for the loader package.
func NewSystem() *System { return newSystem() }
