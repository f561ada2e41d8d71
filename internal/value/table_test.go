package value

import "testing"

func TestTableSetGetInt(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.SetInt(1, Int(10))
	tbl.SetInt(2, Int(20))
	tbl.SetInt(3, Int(30))

	if got := tbl.GetInt(2).AsInt(); got != 20 {
		t.Errorf("GetInt(2) = %d, want 20", got)
	}
	if got := tbl.GetInt(99); !got.IsNil() {
		t.Errorf("GetInt(99) = %v, want Nil", got)
	}
}

func TestTableArrayPlacementPolicy(t *testing.T) {
	// Small indices (< 4) always place in the array part regardless of
	// capacity, per the reference source's simplified placement rule.
	tbl := NewTable(0, 0)
	tbl.SetInt(1, Str("a"))
	tbl.SetInt(2, Str("b"))
	tbl.SetInt(3, Str("c"))
	if tbl.Len() != 3 {
		t.Errorf("Len() = %d, want 3 after setting indices 1..3", tbl.Len())
	}

	// A very large index with no array capacity built up falls into the
	// hash part instead of growing the array to match.
	tbl2 := NewTable(0, 0)
	tbl2.SetInt(1000, Str("far"))
	if tbl2.Len() != 0 {
		t.Errorf("Len() = %d, want 0 (index 1000 should not grow the array part)", tbl2.Len())
	}
	if got := tbl2.GetInt(1000).AsString(); got != "far" {
		t.Errorf("GetInt(1000) = %q, want \"far\"", got)
	}
}

func TestTableSetListAppends(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.AppendList([]Value{Int(10), Int(20), Int(30)})
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}
	if got := tbl.GetInt(2).AsInt(); got != 20 {
		t.Errorf("GetInt(2) = %d, want 20", got)
	}
}

func TestTableStringKeyIndependentOfRepresentation(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.Set(Str("name"), Int(42))
	if got := tbl.Get(Str("name")).AsInt(); got != 42 {
		t.Errorf("Get(\"name\") = %d, want 42", got)
	}
	longKey := Value{kind: KLongStr, obj: &longStr{"name"}}
	if got := tbl.Get(longKey).AsInt(); got != 42 {
		t.Errorf("Get(LongStr \"name\") = %d, want 42", got)
	}
	if got := tbl.Get(Str("missing")); !got.IsNil() {
		t.Errorf("Get(\"missing\") = %v, want Nil", got)
	}
}

func TestTableNonIntegerNumericKeysDoNotCollapse(t *testing.T) {
	// Open question in spec §9: a Float key is not normalized to Integer.
	tbl := NewTable(0, 0)
	tbl.Set(Float(1.0), Str("float-one"))
	if got := tbl.GetInt(1); !got.IsNil() {
		t.Errorf("GetInt(1) = %v, want Nil (Float(1.0) key stays distinct from Int(1))", got)
	}
	if got := tbl.Get(Float(1.0)).AsString(); got != "float-one" {
		t.Errorf("Get(Float(1.0)) = %q, want \"float-one\"", got)
	}
}
