package loader

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeMinimalSystem(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "system.yaml"), `
id: knave
kind: system
name: Knave
version: "1.0"
description: "Welcome to {{ system.name }}"
`)
	writeFile(t, filepath.Join(dir, "models", "character.yaml"), `
id: character
kind: model
name: Character
attributes:
  strength:
    type: int
  name:
    type: str
`)
	writeFile(t, filepath.Join(dir, "tables", "encounter.yaml"), `
id: encounter
kind: table
name: Encounter Table
entries:
  "1-3": Common
  "4-7": Uncommon
  "8-10": Rare
`)
	writeFile(t, filepath.Join(dir, "flows", "create_character.yaml"), `
id: create_character
kind: flow
name: Create Character
steps:
  - id: roll_strength
    type: dice_roll
    roll: 3d6
  - id: done
    type: completion
`)
}

func TestLoadMinimalSystem(t *testing.T) {
	dir := t.TempDir()
	writeMinimalSystem(t, dir)

	sys, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if sys.ID != "knave" {
		t.Errorf("id = %q, want knave", sys.ID)
	}
	if sys.Description != "Welcome to Knave" {
		t.Errorf("description = %q, want load-time template resolved", sys.Description)
	}
	if _, ok := sys.Models["character"]; !ok {
		t.Error("character model not loaded")
	}
	if _, ok := sys.Tables["encounter"]; !ok {
		t.Error("encounter table not loaded")
	}
	if _, ok := sys.Flows["create_character"]; !ok {
		t.Error("create_character flow not loaded")
	}
}

func TestLoadCachesByPath(t *testing.T) {
	dir := t.TempDir()
	writeMinimalSystem(t, dir)

	first, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	second, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if first != second {
		t.Error("Load(dir) twice should return the same System identity")
	}
}

func TestLoadMissingSystemYAMLIsNotFound(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatal("expected NotFound error for missing system.yaml")
	}
}

func TestLoadFlowReferencingUnknownFlowIsValidationError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "system.yaml"), `
id: test
kind: system
name: Test
`)
	writeFile(t, filepath.Join(dir, "flows", "broken.yaml"), `
id: broken
kind: flow
name: Broken
steps:
  - id: call
    type: flow_call
    flow: nonexistent
  - id: done
    type: completion
`)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected validation error for flow_call referencing unknown flow")
	}
}

func TestLoadModelExtendsMergesParentAttributes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "system.yaml"), `
id: test
kind: system
name: Test
`)
	writeFile(t, filepath.Join(dir, "models", "creature.yaml"), `
id: creature
kind: model
name: Creature
attributes:
  hp:
    type: int
  name:
    type: str
`)
	writeFile(t, filepath.Join(dir, "models", "goblin.yaml"), `
id: goblin
kind: model
name: Goblin
extends: [creature]
attributes:
  hp:
    type: int
    default: 7
  loot:
    type: str
`)

	sys, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	goblin := sys.Models["goblin"]
	if goblin == nil {
		t.Fatal("goblin model not loaded")
	}
	if _, ok := goblin.Attributes["name"]; !ok {
		t.Error("goblin should inherit 'name' from creature")
	}
	if _, ok := goblin.Attributes["loot"]; !ok {
		t.Error("goblin should keep its own 'loot' attribute")
	}
	hp, ok := goblin.Attributes["hp"]
	if !ok {
		t.Fatal("goblin should have an 'hp' attribute")
	}
	if hp.Default != 7 {
		t.Errorf("goblin's own hp attribute should override creature's, got default %v", hp.Default)
	}
}

func TestLoadModelExtendsUnknownTargetIsValidationError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "system.yaml"), `
id: test
kind: system
name: Test
`)
	writeFile(t, filepath.Join(dir, "models", "goblin.yaml"), `
id: goblin
kind: model
name: Goblin
extends: [nonexistent]
attributes:
  hp:
    type: int
`)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected validation error for extends referencing unknown model")
	}
}

func TestLoadModelExtendsCycleIsValidationError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "system.yaml"), `
id: test
kind: system
name: Test
`)
	writeFile(t, filepath.Join(dir, "models", "a.yaml"), `
id: a
kind: model
name: A
extends: [b]
attributes:
  x:
    type: int
`)
	writeFile(t, filepath.Join(dir, "models", "b.yaml"), `
id: b
kind: model
name: B
extends: [a]
attributes:
  y:
    type: int
`)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected validation error for extends cycle")
	}
}

func TestLoadOverlappingTableRangesIsValidationError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "system.yaml"), `
id: test
kind: system
name: Test
`)
	writeFile(t, filepath.Join(dir, "tables", "bad.yaml"), `
id: bad
kind: table
name: Bad
entries:
  "1-5": A
  "4-8": B
`)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected validation error for overlapping table ranges")
	}
}
