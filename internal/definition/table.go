package definition

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table is a keyed lookup (by integer or "lo-hi" range) with an optional
// dice expression for random resolution.
type Table struct {
	ID        string                   `yaml:"id" json:"id"`
	Name      string                   `yaml:"name" json:"name"`
	Kind      string                   `yaml:"kind" json:"kind"`
	Roll      string                   `yaml:"roll,omitempty" json:"roll,omitempty"`
	EntryType string                   `yaml:"entry_type,omitempty" json:"entry_type,omitempty"`
	Entries   map[string]*TableEntry   `yaml:"entries" json:"entries"`

	// ranges is built by buildRanges() from the raw Entries keys and is
	// what Lookup actually searches; it is nil until buildRanges runs.
	ranges []tableRange
}

// TableEntry is one resolved value slot in a Table. Exactly one of the
// four shapes from spec.md §3 applies, tracked via Kind.
type TableEntry struct {
	Kind TableEntryKind

	Literal string // Kind == TableEntryLiteral
	ID      string // Kind == TableEntryCompendiumRef (explicit entry id)
	Type    string // Kind == TableEntryCompendiumRef | TableEntryRandom | TableEntryGenerate
}

type TableEntryKind int

const (
	TableEntryLiteral TableEntryKind = iota
	TableEntryCompendiumRef
	TableEntryRandom
	TableEntryGenerate
)

// UnmarshalYAML implements the four entry shapes from spec.md §3:
// plain string, {id,type}, {type}, {generate:true, type?}.
func (e *TableEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var scalar string
		if err := value.Decode(&scalar); err != nil {
			return fmt.Errorf("table entry: %w", err)
		}
		e.Kind = TableEntryLiteral
		e.Literal = scalar
		return nil
	}

	var m struct {
		ID       string `yaml:"id"`
		Type     string `yaml:"type"`
		Generate bool   `yaml:"generate"`
	}
	if err := value.Decode(&m); err != nil {
		return fmt.Errorf("table entry: expected string or mapping: %w", err)
	}

	switch {
	case m.Generate:
		e.Kind = TableEntryGenerate
		e.Type = m.Type
	case m.ID != "":
		e.Kind = TableEntryCompendiumRef
		e.ID = m.ID
		e.Type = m.Type
	case m.Type != "":
		e.Kind = TableEntryRandom
		e.Type = m.Type
	default:
		return fmt.Errorf("table entry: mapping must set one of id, type, or generate")
	}
	return nil
}

type tableRange struct {
	lo, hi int
	key    string // original key text, for error messages
	entry  *TableEntry
}

func (t *Table) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("table: 'id' is required")
	}
	if t.EntryType == "" {
		t.EntryType = AttrTypeStr
	}
	_, err := t.buildRanges()
	return err
}

// buildRanges parses every Entries key into an integer or contiguous
// range and checks for overlap, per spec.md §3/§8 invariant 3.
func (t *Table) buildRanges() ([]tableRange, error) {
	if t.ranges != nil {
		return t.ranges, nil
	}
	ranges := make([]tableRange, 0, len(t.Entries))
	for key, entry := range t.Entries {
		lo, hi, err := parseTableKey(key)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", t.ID, err)
		}
		ranges = append(ranges, tableRange{lo: lo, hi: hi, key: key, entry: entry})
	}
	for i := range ranges {
		for j := range ranges {
			if i == j {
				continue
			}
			if rangesOverlap(ranges[i], ranges[j]) {
				return nil, fmt.Errorf("table %q: entries %q and %q overlap", t.ID, ranges[i].key, ranges[j].key)
			}
		}
	}
	t.ranges = ranges
	return ranges, nil
}

func rangesOverlap(a, b tableRange) bool {
	return a.lo <= b.hi && b.lo <= a.hi
}

// parseTableKey accepts an integer string ("10") or an inclusive range
// ("lo-hi", including the single-element "lo-lo" form from spec.md §8).
func parseTableKey(key string) (lo, hi int, err error) {
	key = strings.TrimSpace(key)
	if idx := strings.Index(key, "-"); idx > 0 {
		loStr, hiStr := key[:idx], key[idx+1:]
		lo, err = strconv.Atoi(strings.TrimSpace(loStr))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range key %q: %w", key, err)
		}
		hi, err = strconv.Atoi(strings.TrimSpace(hiStr))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range key %q: %w", key, err)
		}
		if hi < lo {
			return 0, 0, fmt.Errorf("invalid range key %q: hi < lo", key)
		}
		return lo, hi, nil
	}
	v, err := strconv.Atoi(key)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid table key %q: must be an integer or \"lo-hi\" range", key)
	}
	return v, v, nil
}

// Lookup returns the entry whose range contains roll, and whether one
// was found (spec.md §8 invariant 3 / scenario 4).
func (t *Table) Lookup(roll int) (*TableEntry, bool) {
	ranges, err := t.buildRanges()
	if err != nil {
		return nil, false
	}
	for _, r := range ranges {
		if roll >= r.lo && roll <= r.hi {
			return r.entry, true
		}
	}
	return nil, false
}
