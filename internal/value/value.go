// Package value implements the tagged-union runtime value of the VM and
// the dual array/hash Table container. It generalizes the teacher's
// NaN-boxed Value representation (internal/vmregister/value.go) to a
// small discriminated struct: see DESIGN.md / SPEC_FULL.md §D.4 for why
// the 48-bit NaN-boxing payload cannot carry a full int64 and was
// widened rather than reused verbatim.
package value

import (
	"fmt"
	"math"
)

// Kind discriminates the variants of Value. Dispatch on Kind, never on a
// Go type switch over an interface hierarchy — the hot arithmetic and
// comparison paths stay a flat switch this way.
type Kind uint8

const (
	KNil Kind = iota
	KBool
	KInt
	KFloat
	KShortStr
	KMidStr
	KLongStr
	KTable
	KNative
	KFunc
)

func (k Kind) String() string {
	switch k {
	case KNil:
		return "nil"
	case KBool:
		return "boolean"
	case KInt, KFloat:
		return "number"
	case KShortStr, KMidStr, KLongStr:
		return "string"
	case KTable:
		return "table"
	case KNative, KFunc:
		return "function"
	default:
		return "unknown"
	}
}

// shortCap is the inline capacity for a ShortStr: bytes up to this length
// are stored inside the Value struct itself, no heap allocation.
const shortCap = 15

// midCap is the upper length bound for a MidStr before it is classified
// LongStr. The split exists purely to preserve the three-way
// representation distinction spec.md draws (§3.1); in Go both MidStr and
// LongStr share a byte buffer allocated on the heap and rely on the
// garbage collector for the "shared ownership" spec describes — there is
// no separate fixed-capacity buffer pool as in a from-scratch allocator.
const midCap = 255

type shortStr struct {
	n int8
	b [shortCap]byte
}

// midStr and longStr exist as distinct pointer types purely so Kind can
// tell a medium string apart from a long one at the tag level, matching
// the three ShortStr/MidStr/LongStr variants spec.md names. Both wrap an
// ordinary Go string, which is itself already an immutable, shared byte
// sequence — the representation distinction is informational, not an
// allocation strategy.
type midStr struct{ s string }
type longStr struct{ s string }

// NativeFunc is a host-provided routine reachable from Lucore code. It
// matches the calling convention of spec §4.5 / §6.1: it reads its
// arguments and pushes its results through the Host, and returns how many
// values it pushed.
type NativeFunc struct {
	Name string
	Fn   func(h Host) (int, error)
}

// Host is the surface a NativeFunc sees of the calling VM. It is defined
// here (rather than in package vm) so package value has no dependency on
// package vm, and vm.ExeState can implement it directly.
type Host interface {
	Top() int
	GetValue(i int) Value
	Push(v Value)
}

// Value is the tagged runtime cell, a plain struct rather than an
// interface. Table's hash part does not key on Value itself: it keys on
// the plain Go value normalizeKey derives from it, so string keys match
// by content whatever their representation.
type Value struct {
	kind  Kind
	num   uint64 // bool (0/1), int64 bits, or float64 bits
	short shortStr
	obj   interface{} // *midStr, *longStr, *Table, *NativeFunc, *FuncProto
}

// FuncProto is declared in package bytecode; Value only needs to box a
// pointer to it, so it stores it behind an interface{} rather than
// importing package bytecode, which avoids value <-> bytecode import
// cycles (bytecode.FuncProto embeds Value constants).

func Nil() Value { return Value{kind: KNil} }

func Bool(b bool) Value {
	if b {
		return Value{kind: KBool, num: 1}
	}
	return Value{kind: KBool, num: 0}
}

func Int(i int64) Value { return Value{kind: KInt, num: uint64(i)} }

func Float(f float64) Value { return Value{kind: KFloat, num: math.Float64bits(f)} }

// Str classifies s into the appropriate representation by length.
func Str(s string) Value {
	switch {
	case len(s) <= shortCap:
		var ss shortStr
		ss.n = int8(len(s))
		copy(ss.b[:], s)
		return Value{kind: KShortStr, short: ss}
	case len(s) <= midCap:
		return Value{kind: KMidStr, obj: &midStr{s}}
	default:
		return Value{kind: KLongStr, obj: &longStr{s}}
	}
}

func TableVal(t *Table) Value { return Value{kind: KTable, obj: t} }

func NativeVal(f *NativeFunc) Value { return Value{kind: KNative, obj: f} }

// FuncVal boxes a *bytecode.FuncProto. Accepts interface{} to avoid the
// import cycle noted above; callers pass a *bytecode.FuncProto.
func FuncVal(p interface{}) Value { return Value{kind: KFunc, obj: p} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNil() bool { return v.kind == KNil }

// Truthy implements spec §3.1: everything but Nil and Boolean(false) is
// true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KNil:
		return false
	case KBool:
		return v.num != 0
	default:
		return true
	}
}

func (v Value) AsBool() bool { return v.num != 0 }
func (v Value) AsInt() int64 { return int64(v.num) }
func (v Value) AsFloat() float64 { return math.Float64frombits(v.num) }

func (v Value) IsString() bool {
	return v.kind == KShortStr || v.kind == KMidStr || v.kind == KLongStr
}

func (v Value) IsNumber() bool { return v.kind == KInt || v.kind == KFloat }

// AsString reconstructs the byte content regardless of which of the three
// string representations v holds.
func (v Value) AsString() string {
	switch v.kind {
	case KShortStr:
		return string(v.short.b[:v.short.n])
	case KMidStr:
		return v.obj.(*midStr).s
	case KLongStr:
		return v.obj.(*longStr).s
	default:
		return ""
	}
}

func (v Value) AsTable() *Table { return v.obj.(*Table) }
func (v Value) AsNative() *NativeFunc { return v.obj.(*NativeFunc) }

// AsFuncProto returns the boxed function prototype as interface{};
// package vm type-asserts it back to *bytecode.FuncProto.
func (v Value) AsFuncProto() interface{} { return v.obj }

// TypeName is the user-facing type name (as would be returned by a
// typeof()-style native function).
func (v Value) TypeName() string { return v.kind.String() }

// Equal implements spec §3.1 structural equality: numeric variants
// compare across Integer/Float by value, string variants compare
// bytewise regardless of representation, and anything else compares by
// identity/kind.
func Equal(a, b Value) bool {
	switch {
	case a.IsNumber() && b.IsNumber():
		return numEqual(a, b)
	case a.IsString() && b.IsString():
		return a.AsString() == b.AsString()
	case a.kind != b.kind:
		return false
	}
	switch a.kind {
	case KNil:
		return true
	case KBool:
		return a.num == b.num
	case KTable:
		return a.obj.(*Table) == b.obj.(*Table)
	case KNative:
		return a.obj.(*NativeFunc) == b.obj.(*NativeFunc)
	case KFunc:
		return a.obj == b.obj
	default:
		return false
	}
}

func numEqual(a, b Value) bool {
	if a.kind == KInt && b.kind == KInt {
		return a.AsInt() == b.AsInt()
	}
	return toFloat(a) == toFloat(b)
}

func toFloat(v Value) float64 {
	if v.kind == KInt {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}

// String renders the canonical numeric form used by Concat (spec §4.2)
// and general printing.
func (v Value) String() string {
	switch v.kind {
	case KNil:
		return "nil"
	case KBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KInt:
		return fmt.Sprintf("%d", v.AsInt())
	case KFloat:
		return formatFloat(v.AsFloat())
	case KShortStr, KMidStr, KLongStr:
		return v.AsString()
	case KTable:
		return fmt.Sprintf("table: %p", v.obj)
	case KNative:
		return fmt.Sprintf("function: native %p", v.obj)
	case KFunc:
		return fmt.Sprintf("function: %p", v.obj)
	default:
		return "?"
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	// Lua prints floats with a trailing ".0" when they are integral, so
	// that 3.0 is distinguishable from 3 at the print boundary even
	// though the two compare equal.
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%.1f", f)
	}
	return fmt.Sprintf("%g", f)
}
