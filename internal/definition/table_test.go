package definition

import "testing"

func mustEntry(t *testing.T, literal string) *TableEntry {
	t.Helper()
	return &TableEntry{Kind: TableEntryLiteral, Literal: literal}
}

func TestTableLookupByRange(t *testing.T) {
	tbl := &Table{
		ID: "encounter",
		Entries: map[string]*TableEntry{
			"1-3":  mustEntry(t, "Common"),
			"4-7":  mustEntry(t, "Uncommon"),
			"8-9":  mustEntry(t, "Rare"),
			"10":   mustEntry(t, "Legendary"),
		},
	}

	cases := []struct {
		roll int
		want string
		ok   bool
	}{
		{1, "Common", true},
		{5, "Uncommon", true},
		{9, "Rare", true},
		{10, "Legendary", true},
		{99, "", false},
	}
	for _, c := range cases {
		entry, ok := tbl.Lookup(c.roll)
		if ok != c.ok {
			t.Fatalf("Lookup(%d) ok = %v, want %v", c.roll, ok, c.ok)
		}
		if ok && entry.Literal != c.want {
			t.Errorf("Lookup(%d) = %q, want %q", c.roll, entry.Literal, c.want)
		}
	}
}

func TestTableSingleElementRangeIsValid(t *testing.T) {
	tbl := &Table{
		ID: "single",
		Entries: map[string]*TableEntry{
			"5-5": mustEntry(t, "Only"),
		},
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("unexpected error for lo-lo range: %v", err)
	}
	entry, ok := tbl.Lookup(5)
	if !ok || entry.Literal != "Only" {
		t.Fatalf("Lookup(5) = %v, %v, want Only, true", entry, ok)
	}
}

func TestTableOverlappingRangesIsValidationError(t *testing.T) {
	tbl := &Table{
		ID: "overlap",
		Entries: map[string]*TableEntry{
			"1-5": mustEntry(t, "A"),
			"4-8": mustEntry(t, "B"),
		},
	}
	if err := tbl.Validate(); err == nil {
		t.Fatal("expected validation error for overlapping ranges")
	}
}

func TestModelAttributeDefaultRequiredTrue(t *testing.T) {
	attr := &AttributeDef{Type: AttrTypeInt}
	if !attr.IsRequired() {
		t.Error("attribute with unset Required should default to true")
	}
	no := false
	attr.Required = &no
	if attr.IsRequired() {
		t.Error("attribute with Required=false should not be required")
	}
}

func TestModelValidateRejectsUnknownType(t *testing.T) {
	m := &Model{
		ID:   "char",
		Name: "Character",
		Attributes: map[string]*AttributeDef{
			"weird": {Type: "frobnicate"},
		},
	}
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for unknown attribute type")
	}
}
