package vm

import (
	"math"
	"testing"

	"lucore/internal/bytecode"
	"lucore/internal/value"
)

func TestArithIntStaysInteger(t *testing.T) {
	r, err := arith(0, value.Int(3), value.Int(4), intOpFor(bytecode.OpAdd), floatOpFor(bytecode.OpAdd))
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind() != value.KInt || r.AsInt() != 7 {
		t.Errorf("arith(3,4,Add) = %v, want Int(7)", r)
	}
}

func TestArithMixedPromotesToFloat(t *testing.T) {
	r, err := arith(0, value.Int(3), value.Float(0.5), intOpFor(bytecode.OpAdd), floatOpFor(bytecode.OpAdd))
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind() != value.KFloat || r.AsFloat() != 3.5 {
		t.Errorf("arith(3, 0.5, Add) = %v, want Float(3.5)", r)
	}
}

func TestArithTypeErrorOnNonNumber(t *testing.T) {
	_, err := arith(0, value.Str("x"), value.Int(1), intOpFor(bytecode.OpAdd), floatOpFor(bytecode.OpAdd))
	if err == nil {
		t.Fatal("expected a type error adding a string and an integer")
	}
}

func TestIntModFloorAdjusted(t *testing.T) {
	mod := intOpFor(bytecode.OpMod)
	if got := mod(-5, 3); got != 1 {
		t.Errorf("-5 mod 3 = %d, want 1 (floor-adjusted, not Go's -2)", got)
	}
	if got := mod(5, -3); got != -1 {
		t.Errorf("5 mod -3 = %d, want -1", got)
	}
}

func TestIntIdivFloorAdjusted(t *testing.T) {
	idiv := intOpFor(bytecode.OpIdiv)
	if got := idiv(-5, 3); got != -2 {
		t.Errorf("-5 idiv 3 = %d, want -2 (floor, not Go's truncating -1)", got)
	}
	if got := idiv(5, 3); got != 1 {
		t.Errorf("5 idiv 3 = %d, want 1", got)
	}
}

func TestArithBitRequiresExactInteger(t *testing.T) {
	r, err := arithBit(0, value.Int(6), value.Float(3.0), bitOpFor(bytecode.OpBAnd))
	if err != nil {
		t.Fatal(err)
	}
	if r.AsInt() != 2 {
		t.Errorf("6 & 3.0 = %d, want 2", r.AsInt())
	}
	if _, err := arithBit(0, value.Int(6), value.Float(3.5), bitOpFor(bytecode.OpBAnd)); err == nil {
		t.Error("expected a type error bitwise-and'ing a non-exact float")
	}
}

func TestShiftLeftOutOfRangeAndNegative(t *testing.T) {
	cases := []struct {
		a, n, want int64
	}{
		{1, 1, 2},
		{1, 64, 0},
		{1, -64, 0},
		{-1, 65, 0},
		{8, -2, 2}, // negative shift count reverses direction
	}
	for _, c := range cases {
		if got := shiftLeft(c.a, c.n); got != c.want {
			t.Errorf("shiftLeft(%d, %d) = %d, want %d", c.a, c.n, got, c.want)
		}
	}
}

func TestConcatStringifiesNumbers(t *testing.T) {
	r, err := concat(0, value.Str("n="), value.Int(42))
	if err != nil {
		t.Fatal(err)
	}
	if r.AsString() != "n=42" {
		t.Errorf("concat(\"n=\", 42) = %q, want \"n=42\"", r.AsString())
	}
}

func TestConcatTypeErrorOnTable(t *testing.T) {
	_, err := concat(0, value.TableVal(value.NewTable(0, 0)), value.Str("x"))
	if err == nil {
		t.Fatal("expected a type error concatenating a table")
	}
}

func TestForIntLimitNormalRange(t *testing.T) {
	i := int64(1)
	limit := forIntLimit(10.7, true, &i)
	if limit != 10 {
		t.Errorf("forIntLimit(10.7, ascending) = %d, want 10 (floor)", limit)
	}
	if i != 1 {
		t.Errorf("i should be untouched in the normal-range case, got %d", i)
	}

	i = 5
	limit = forIntLimit(2.3, false, &i)
	if limit != 3 {
		t.Errorf("forIntLimit(2.3, descending) = %d, want 3 (ceil)", limit)
	}
}

func TestForIntLimitOutOfRangeForcesZeroIterations(t *testing.T) {
	// Ascending with a limit below i64::MIN: no integer i could ever be
	// <= limit, so the loop must run zero times.
	i := int64(1)
	limit := forIntLimit(-1e300, true, &i)
	if !(i == 0 && limit == -1) {
		t.Errorf("forIntLimit(-1e300, ascending) = (i=%d, limit=%d), want (0, -1)", i, limit)
	}
	if forCheckInt(i, limit, true) {
		t.Error("the zero-iterations sentinel should make forCheckInt false immediately")
	}

	// Descending with a limit above i64::MAX: symmetric case.
	i = 1
	limit = forIntLimit(1e300, false, &i)
	if !(i == 0 && limit == 1) {
		t.Errorf("forIntLimit(1e300, descending) = (i=%d, limit=%d), want (0, 1)", i, limit)
	}
	if forCheckInt(i, limit, false) {
		t.Error("the zero-iterations sentinel should make forCheckInt false immediately")
	}
}

func TestCompareNumericPromotesMixed(t *testing.T) {
	ord, err := compare(0, value.Int(3), value.Float(3.5))
	if err != nil {
		t.Fatal(err)
	}
	if ord != orderLess {
		t.Errorf("compare(3, 3.5) = %v, want orderLess", ord)
	}
}

func TestCompareStringLexicographic(t *testing.T) {
	ord, err := compare(0, value.Str("abc"), value.Str("abd"))
	if err != nil {
		t.Fatal(err)
	}
	if ord != orderLess {
		t.Errorf("compare(\"abc\", \"abd\") = %v, want orderLess", ord)
	}
}

func TestCompareDisjointTypesIsTypeError(t *testing.T) {
	if _, err := compare(0, value.Int(1), value.Str("1")); err == nil {
		t.Fatal("expected a type error comparing a number with a string")
	}
}

func TestCompareIntImmTruncatesFloat(t *testing.T) {
	ord, err := compareIntImm(0, value.Float(3.9), 3)
	if err != nil {
		t.Fatal(err)
	}
	if ord != orderEq {
		t.Errorf("compareIntImm(3.9, 3) = %v, want orderEq (3.9 truncates to 3)", ord)
	}
}

func TestAsExactIntRejectsOutOfRangeFloat(t *testing.T) {
	if _, ok := asExactInt(value.Float(math.MaxFloat64)); ok {
		t.Error("asExactInt should reject a float outside int64 range")
	}
	if _, ok := asExactInt(value.Float(5.0)); !ok {
		t.Error("asExactInt should accept an exact integral float")
	}
}
