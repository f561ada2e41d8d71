package value

import "testing"

func TestStrRepresentationByLength(t *testing.T) {
	cases := []struct {
		name string
		s    string
		kind Kind
	}{
		{"short", "hi", KShortStr},
		{"exactly short cap", "123456789012345", KShortStr}, // 15 bytes
		{"mid", string(make([]byte, 100)), KMidStr},
		{"long", string(make([]byte, 1000)), KLongStr},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := Str(c.s)
			if v.Kind() != c.kind {
				t.Errorf("Str(%d bytes).Kind() = %v, want %v", len(c.s), v.Kind(), c.kind)
			}
			if v.AsString() != c.s {
				t.Errorf("AsString() did not round-trip: got %d bytes, want %d", len(v.AsString()), len(c.s))
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", Nil(), false},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero int", Int(0), true},
		{"empty string", Str(""), true},
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Errorf("%s.Truthy() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestEqualNumericCrossesIntFloat(t *testing.T) {
	if !Equal(Int(3), Float(3.0)) {
		t.Error("Int(3) should equal Float(3.0)")
	}
	if Equal(Int(3), Float(3.5)) {
		t.Error("Int(3) should not equal Float(3.5)")
	}
}

func TestEqualStringCrossesRepresentation(t *testing.T) {
	a := Str("short")
	b := Str("short")
	if !Equal(a, b) {
		t.Error("two ShortStr values with the same bytes should be equal")
	}
	mid := Value{kind: KMidStr, obj: &midStr{"short"}}
	long := Value{kind: KLongStr, obj: &longStr{"short"}}
	if !Equal(a, mid) || !Equal(mid, long) {
		t.Error("ShortStr, MidStr and LongStr values with the same bytes should be equal")
	}
}

func TestEqualDisjointKindsAreFalse(t *testing.T) {
	if Equal(Int(1), Str("1")) {
		t.Error("Int(1) should not equal Str(\"1\")")
	}
	if Equal(Nil(), Bool(false)) {
		t.Error("Nil should not equal false")
	}
}

func TestStringFormatting(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Nil(), "nil"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Int(-5), "-5"},
		{Float(3.0), "3.0"},
		{Float(3.5), "3.5"},
		{Str("hi"), "hi"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestNativeValRoundTrip(t *testing.T) {
	nf := &NativeFunc{Name: "id"}
	v := NativeVal(nf)
	if v.Kind() != KNative {
		t.Fatalf("Kind() = %v, want KNative", v.Kind())
	}
	if v.AsNative() != nf {
		t.Error("AsNative() did not return the original *NativeFunc")
	}
}
