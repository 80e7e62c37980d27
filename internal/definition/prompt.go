package definition

import "fmt"

// Prompt is a named, reusable LLM prompt template, referenced from an
// llm_generation step via prompt_ref.
type Prompt struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Kind     string `yaml:"kind" json:"kind"`
	Template string `yaml:"template" json:"template"`
}

func (p *Prompt) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("prompt: 'id' is required")
	}
	if p.Template == "" {
		return fmt.Errorf("prompt %q: 'template' is required", p.ID)
	}
	return nil
}
