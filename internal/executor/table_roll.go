package executor

import (
	"context"
	"fmt"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
	"github.com/wyrdbound/grimoire/internal/ports"
)

// TableRollExecutor implements the table_roll step kind (spec.md
// §4.5.5): roll each referenced table's die (or a ref-supplied one)
// and resolve the landed entry.
type TableRollExecutor struct {
	Dice  ports.DiceService
	Names ports.NameGenerator
}

func (e *TableRollExecutor) Execute(step *definition.Step, ctx *engine.Context, sys *definition.System) definition.StepResult {
	if len(step.Tables) == 0 {
		return fail(step.ID, "table roll failed", fmt.Errorf("missing tables"))
	}

	var results []any
	for _, ref := range step.Tables {
		table, ok := sys.Tables[ref.Table]
		if !ok {
			return fail(step.ID, "table roll failed", fmt.Errorf("table %q not found", ref.Table))
		}
		expr := ref.Roll
		if expr == "" {
			expr = table.Roll
		}
		count := ref.Count
		if count == 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			rendered, err := ctx.ResolveTemplate(expr, nil)
			if err != nil {
				return fail(step.ID, "table roll failed", err)
			}
			rollCtx, cancel := context.WithTimeout(ctx.GoContext(), ServiceTimeout)
			roll, err := e.Dice.Roll(rollCtx, fmt.Sprint(rendered))
			cancel()
			if err != nil {
				return fail(step.ID, "table roll failed", err)
			}
			entry, ok := table.Lookup(roll.Total)
			if !ok {
				return fail(step.ID, "table roll failed", fmt.Errorf("roll %d out of range for table %q", roll.Total, table.ID))
			}
			genCtx, cancel := context.WithTimeout(ctx.GoContext(), ServiceTimeout)
			resolved, err := resolveTableEntry(genCtx, entry, sys, e.Names)
			cancel()
			if err != nil {
				return fail(step.ID, "table roll failed", err)
			}
			results = append(results, resolved)
		}
	}

	data := map[string]any{"results": results}
	if len(results) == 1 {
		data["result"] = results[0]
	}
	return definition.StepResult{StepID: step.ID, Success: true, Data: data}
}

func (e *TableRollExecutor) ProcessInput(step *definition.Step, userValue any, ctx *engine.Context, sys *definition.System) definition.StepResult {
	return notInteractive(step)
}
