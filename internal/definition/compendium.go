package definition

import "fmt"

// Compendium is a named catalog of entries, each conforming to Model.
type Compendium struct {
	ID      string                    `yaml:"id" json:"id"`
	Name    string                    `yaml:"name" json:"name"`
	Kind    string                    `yaml:"kind" json:"kind"`
	Model   string                    `yaml:"model" json:"model"`
	Entries map[string]map[string]any `yaml:"entries" json:"entries"`
}

func (c *Compendium) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("compendium: 'id' is required")
	}
	if c.Model == "" {
		return fmt.Errorf("compendium %q: 'model' is required", c.ID)
	}
	return nil
}
