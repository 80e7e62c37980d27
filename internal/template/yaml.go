package template

import "gopkg.in/yaml.v3"

// yamlUnmarshal wraps yaml.v3's Unmarshal, which (unlike yaml.v2) decodes
// mappings into map[string]any directly rather than map[any]any.
func yamlUnmarshal(s string, out *any) error {
	return yaml.Unmarshal([]byte(s), out)
}
