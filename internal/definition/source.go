package definition

import "fmt"

// Source records an attribution/citation for the material a system draws
// from (a rulebook, a supplement). Flows and prompts may reference a
// source by id for display purposes.
type Source struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Kind        string `yaml:"kind" json:"kind"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	URL         string `yaml:"url,omitempty" json:"url,omitempty"`
}

func (s *Source) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("source: 'id' is required")
	}
	return nil
}
