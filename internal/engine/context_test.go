package engine

import (
	"testing"

	"github.com/wyrdbound/grimoire/internal/logging"
	"github.com/wyrdbound/grimoire/internal/template"
)

func TestSetGetDottedPathCreatesIntermediateMaps(t *testing.T) {
	c := NewContext(nil, template.NewService(), logging.NoOp{})
	c.PushFrame("f")

	c.SetOutput("knave.abilities.strength.bonus", 2)
	v, ok := c.GetOutput("knave.abilities.strength.bonus")
	if !ok || v != 2 {
		t.Fatalf("got %v, %v, want 2, true", v, ok)
	}
}

func TestResolveTemplateSeesNamespacedViews(t *testing.T) {
	c := NewContext(map[string]any{"system": map[string]any{"name": "Knave"}}, template.NewService(), logging.NoOp{})
	c.PushFrame("f")
	c.SetVariable("name", "Borin")

	out, err := c.ResolveTemplate("{{ variables.name }} plays {{ system.name }}", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Borin plays Knave" {
		t.Errorf("got %v", out)
	}
}

func TestPushPopFrameRestoresOuterNamespace(t *testing.T) {
	c := NewContext(nil, template.NewService(), logging.NoOp{})
	c.PushFrame("outer")
	c.SetVariable("x", "outer-value")

	c.PushFrame("inner")
	c.SetVariable("x", "inner-value")
	inner := c.PopFrame()
	if v, _ := inner.Variables["x"].(string); v != "inner-value" {
		t.Errorf("inner frame x = %v, want inner-value", v)
	}

	v, _ := c.GetVariable("x")
	if v != "outer-value" {
		t.Errorf("outer frame x = %v, want outer-value after pop", v)
	}
}

func TestActionMessagesDrainOnce(t *testing.T) {
	c := NewContext(nil, template.NewService(), logging.NoOp{})
	c.RecordActionMessage("📝 rolled a 14")
	msgs := c.DrainActionMessages()
	if len(msgs) != 1 || msgs[0] != "📝 rolled a 14" {
		t.Fatalf("got %v", msgs)
	}
	if len(c.DrainActionMessages()) != 0 {
		t.Error("messages should be empty after drain")
	}
}
