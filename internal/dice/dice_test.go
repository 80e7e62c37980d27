package dice

import (
	"context"
	"testing"
)

func TestRollParsesNotationAndAppliesModifier(t *testing.T) {
	s := NewSeededService(1)
	roll, err := s.Roll(context.Background(), "3d6+2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roll.Rolls) != 3 {
		t.Fatalf("got %d rolls, want 3", len(roll.Rolls))
	}
	sum := 0
	for _, r := range roll.Rolls {
		if r < 1 || r > 6 {
			t.Errorf("roll %d out of range for d6", r)
		}
		sum += r
	}
	if roll.Modifier != 2 {
		t.Errorf("modifier = %d, want 2", roll.Modifier)
	}
	if roll.Total != sum+2 {
		t.Errorf("total = %d, want %d", roll.Total, sum+2)
	}
}

func TestRollNegativeModifier(t *testing.T) {
	s := NewSeededService(42)
	roll, err := s.Roll(context.Background(), "1d20-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if roll.Modifier != -3 {
		t.Errorf("modifier = %d, want -3", roll.Modifier)
	}
}

func TestRollRejectsInvalidExpression(t *testing.T) {
	s := NewService()
	cases := []string{"", "d6", "2d", "2x6", "2d6+", "six dice"}
	for _, expr := range cases {
		if _, err := s.Roll(context.Background(), expr); err == nil {
			t.Errorf("Roll(%q) expected error", expr)
		}
	}
}
