package cmd

import "sort"

// sortedKeys returns m's keys in lexical order, used anywhere the CLI
// prints a map and needs stable, reproducible output.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
