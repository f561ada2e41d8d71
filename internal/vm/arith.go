package vm

import (
	"math"

	"lucore/internal/value"
	"lucore/internal/vmerr"
)

// The three arithmetic kernels below are a direct port of the reference
// source's exe_binop / exe_binop_f / exe_binop_i trio (vm.rs): each
// widens its operand pair according to a different promotion rule, then
// applies one of the int or float primitive operators passed in by the
// caller. Keeping them separate (rather than one generic numeric tower)
// mirrors the per-opcode promotion rules spec §4.2 calls out explicitly:
// arith promotes to float only on mixed/float operands, arithF always
// goes through float, and arithBit demands exact integers.

type intOp func(a, b int64) int64
type floatOp func(a, b float64) float64

// arith implements the add/sub/mul/mod/idiv family: integer+integer
// stays integer, any float operand promotes both sides to float.
func arith(pc int, a, b value.Value, iop intOp, fop floatOp) (value.Value, error) {
	switch {
	case a.Kind() == value.KInt && b.Kind() == value.KInt:
		return value.Int(iop(a.AsInt(), b.AsInt())), nil
	case a.Kind() == value.KInt && b.Kind() == value.KFloat:
		return value.Float(fop(float64(a.AsInt()), b.AsFloat())), nil
	case a.Kind() == value.KFloat && b.Kind() == value.KFloat:
		return value.Float(fop(a.AsFloat(), b.AsFloat())), nil
	case a.Kind() == value.KFloat && b.Kind() == value.KInt:
		return value.Float(fop(a.AsFloat(), float64(b.AsInt()))), nil
	default:
		return value.Nil(), vmerr.Typef(pc, "arithmetic on a %s value", notNumberKind(a, b))
	}
}

// arithInt is arith's Const/Int-operand variant: b is already an int64
// (an unboxed constant or an opcode immediate) rather than a Value.
func arithInt(pc int, a value.Value, b int64, iop intOp, fop floatOp) (value.Value, error) {
	switch a.Kind() {
	case value.KInt:
		return value.Int(iop(a.AsInt(), b)), nil
	case value.KFloat:
		return value.Float(fop(a.AsFloat(), float64(b))), nil
	default:
		return value.Nil(), vmerr.Typef(pc, "arithmetic on a %s value", a.TypeName())
	}
}

// arithF implements the div/pow family: always promotes to float
// regardless of operand kind.
func arithF(pc int, a, b value.Value, fop floatOp) (value.Value, error) {
	fa, ok1 := asFloat(a)
	fb, ok2 := asFloat(b)
	if !ok1 || !ok2 {
		return value.Nil(), vmerr.Typef(pc, "arithmetic on a %s value", notNumberKind(a, b))
	}
	return value.Float(fop(fa, fb)), nil
}

func arithFInt(pc int, a value.Value, b int64, fop floatOp) (value.Value, error) {
	fa, ok := asFloat(a)
	if !ok {
		return value.Nil(), vmerr.Typef(pc, "arithmetic on a %s value", a.TypeName())
	}
	return value.Float(fop(fa, float64(b))), nil
}

// arithBit implements the bitand/bitor/bitxor/shl/shr family: both
// operands must be integers, or floats that convert to an integer
// without loss (spec §4.2); a non-exact float is a type error, matching
// the reference source's ftoi().unwrap() panic path.
func arithBit(pc int, a, b value.Value, iop intOp) (value.Value, error) {
	ia, ok1 := asExactInt(a)
	ib, ok2 := asExactInt(b)
	if !ok1 || !ok2 {
		return value.Nil(), vmerr.Typef(pc, "bitwise operation on a non-integer value")
	}
	return value.Int(iop(ia, ib)), nil
}

func arithBitInt(pc int, a value.Value, b int64, iop intOp) (value.Value, error) {
	ia, ok := asExactInt(a)
	if !ok {
		return value.Nil(), vmerr.Typef(pc, "bitwise operation on a non-integer value")
	}
	return value.Int(iop(ia, b)), nil
}

func asFloat(v value.Value) (float64, bool) {
	switch v.Kind() {
	case value.KInt:
		return float64(v.AsInt()), true
	case value.KFloat:
		return v.AsFloat(), true
	default:
		return 0, false
	}
}

// asExactInt converts v to an int64, requiring a float operand to be
// exactly representable (no fractional part, in range), matching the
// reference source's ftoi.
func asExactInt(v value.Value) (int64, bool) {
	switch v.Kind() {
	case value.KInt:
		return v.AsInt(), true
	case value.KFloat:
		f := v.AsFloat()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

func notNumberKind(a, b value.Value) string {
	if !a.IsNumber() {
		return a.TypeName()
	}
	return b.TypeName()
}

// concat implements spec §4.2's Concat: numbers stringify first (using
// the same canonical form as Value.String), strings concatenate
// bytewise, anything else is a type error.
func concat(pc int, a, b value.Value) (value.Value, error) {
	sa, ok1 := concatOperand(a)
	sb, ok2 := concatOperand(b)
	if !ok1 {
		return value.Nil(), vmerr.Typef(pc, "attempt to concatenate a %s value", a.TypeName())
	}
	if !ok2 {
		return value.Nil(), vmerr.Typef(pc, "attempt to concatenate a %s value", b.TypeName())
	}
	return value.Str(sa + sb), nil
}

func concatOperand(v value.Value) (string, bool) {
	if v.IsNumber() || v.IsString() {
		return v.String(), true
	}
	return "", false
}

// forCheckInt and forCheckFloat are the shared for-loop continuation
// predicate (spec §4.4), for integer and float loops respectively:
// ascending loops continue while i <= limit, descending while i >= limit.
func forCheckInt(i, limit int64, stepPositive bool) bool {
	if stepPositive {
		return i <= limit
	}
	return i >= limit
}

func forCheckFloat(i, limit float64, stepPositive bool) bool {
	if stepPositive {
		return i <= limit
	}
	return i >= limit
}

// forIntLimit converts a float loop limit to the integer bound actually
// used by an integer for-loop, handling the two out-of-range edge cases
// from spec §4.4 exactly as the reference source's for_int_limit does:
// a limit so far outside i64's range that no initial integer could ever
// satisfy it forces the loop to run zero times, by resetting the
// initial counter to 0 and returning a limit that can never be reached.
// A limit beyond i64's range in the loop's own direction is clamped to
// math.MaxInt64 (ascending) or math.MinInt64 (descending).
func forIntLimit(limit float64, stepPositive bool, i *int64) int64 {
	if stepPositive {
		if limit < math.MinInt64 {
			*i = 0
			return -1
		}
		if limit >= math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(math.Floor(limit))
	}
	if limit > math.MaxInt64 {
		*i = 0
		return 1
	}
	if limit < math.MinInt64 {
		return math.MinInt64
	}
	return int64(math.Ceil(limit))
}

// ordering is a three-way comparison result.
type ordering int8

const (
	orderLess ordering = -1
	orderEq   ordering = 0
	orderGreater ordering = 1
)

// compare implements spec §3.1's ordering rule: numbers compare
// numerically (promoting a mixed Integer/Float pair to float, matching
// the reference source's PartialOrd-derived behavior on Value), strings
// compare lexicographically by byte, and any other pairing — including
// any pairing of disjoint types — is a runtime type error.
func compare(pc int, a, b value.Value) (ordering, error) {
	switch {
	case a.IsNumber() && b.IsNumber():
		if a.Kind() == value.KInt && b.Kind() == value.KInt {
			return cmpInt(a.AsInt(), b.AsInt()), nil
		}
		fa, _ := asFloat(a)
		fb, _ := asFloat(b)
		return cmpFloat(fa, fb), nil
	case a.IsString() && b.IsString():
		sa, sb := a.AsString(), b.AsString()
		switch {
		case sa < sb:
			return orderLess, nil
		case sa > sb:
			return orderGreater, nil
		default:
			return orderEq, nil
		}
	default:
		return orderEq, vmerr.Typef(pc, "attempt to compare %s with %s", a.TypeName(), b.TypeName())
	}
}

func cmpInt(a, b int64) ordering {
	switch {
	case a < b:
		return orderLess
	case a > b:
		return orderGreater
	default:
		return orderEq
	}
}

func cmpFloat(a, b float64) ordering {
	switch {
	case a < b:
		return orderLess
	case a > b:
		return orderGreater
	default:
		return orderEq
	}
}

// compareIntImm implements the *Int comparison variants: the right-hand
// side is an immediate int16, and a float left operand truncates toward
// zero for the comparison (matching the reference source's `f as i64`
// cast in LesEqInt/GreEqInt/LessInt/GreaterInt) rather than requiring
// an exact integer the way arithBit's asExactInt does.
func compareIntImm(pc int, a value.Value, imm int64) (ordering, error) {
	switch a.Kind() {
	case value.KInt:
		return cmpInt(a.AsInt(), imm), nil
	case value.KFloat:
		return cmpInt(int64(a.AsFloat()), imm), nil
	default:
		return orderEq, vmerr.Typef(pc, "attempt to compare %s with number", a.TypeName())
	}
}
