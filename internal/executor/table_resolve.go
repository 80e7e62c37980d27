package executor

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/ports"
)

// resolveTableEntry turns one resolved TableEntry into its final value
// per spec.md §3/§4.5.5's four entry shapes. callCtx bounds the
// TableEntryGenerate case's call into the name generator service.
func resolveTableEntry(callCtx context.Context, entry *definition.TableEntry, sys *definition.System, names ports.NameGenerator) (any, error) {
	switch entry.Kind {
	case definition.TableEntryLiteral:
		return entry.Literal, nil
	case definition.TableEntryCompendiumRef:
		comp, attrs, err := findCompendiumEntry(sys, entry.Type, entry.ID)
		if err != nil {
			return nil, err
		}
		_ = comp
		return attrs, nil
	case definition.TableEntryRandom:
		comp := findCompendiumByModel(sys, entry.Type)
		if comp == nil {
			return nil, fmt.Errorf("no compendium found for type %q", entry.Type)
		}
		ids := make([]string, 0, len(comp.Entries))
		for id := range comp.Entries {
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("compendium %q has no entries", comp.ID)
		}
		return comp.Entries[ids[rand.Intn(len(ids))]], nil
	case definition.TableEntryGenerate:
		return names.Generate(callCtx, entry.Type)
	default:
		return nil, fmt.Errorf("unknown table entry kind")
	}
}

func findCompendiumByModel(sys *definition.System, model string) *definition.Compendium {
	for _, c := range sys.Compendiums {
		if c.Model == model {
			return c
		}
	}
	return nil
}

func findCompendiumEntry(sys *definition.System, model, id string) (*definition.Compendium, map[string]any, error) {
	comp := findCompendiumByModel(sys, model)
	if comp == nil {
		return nil, nil, fmt.Errorf("no compendium found for type %q", model)
	}
	attrs, ok := comp.Entries[id]
	if !ok {
		return nil, nil, fmt.Errorf("compendium %q has no entry %q", comp.ID, id)
	}
	return comp, attrs, nil
}
