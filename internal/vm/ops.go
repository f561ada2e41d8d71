package vm

import (
	"math"

	"lucore/internal/bytecode"
)

// constBase and intBase map a *Const / *Int opcode variant back to its
// base opcode, so the dispatch loop can share one operator lookup
// (intOpFor/floatOpFor/bitOpFor) and one ordering predicate
// (matchOrdering) across all three operand shapes of a given family,
// instead of tripling every case arm the way the reference source's
// generated match does.
func constBase(op bytecode.Op) bytecode.Op {
	switch op {
	case bytecode.OpAddConst:
		return bytecode.OpAdd
	case bytecode.OpSubConst:
		return bytecode.OpSub
	case bytecode.OpMulConst:
		return bytecode.OpMul
	case bytecode.OpModConst:
		return bytecode.OpMod
	case bytecode.OpIdivConst:
		return bytecode.OpIdiv
	case bytecode.OpDivConst:
		return bytecode.OpDiv
	case bytecode.OpPowConst:
		return bytecode.OpPow
	case bytecode.OpBAndConst:
		return bytecode.OpBAnd
	case bytecode.OpBOrConst:
		return bytecode.OpBOr
	case bytecode.OpBXorConst:
		return bytecode.OpBXor
	case bytecode.OpShlConst:
		return bytecode.OpShl
	case bytecode.OpShrConst:
		return bytecode.OpShr
	case bytecode.OpLesEqConst:
		return bytecode.OpLesEq
	case bytecode.OpGreEqConst:
		return bytecode.OpGreEq
	case bytecode.OpLessConst:
		return bytecode.OpLess
	case bytecode.OpGreaterConst:
		return bytecode.OpGreater
	default:
		return op
	}
}

func intBase(op bytecode.Op) bytecode.Op {
	switch op {
	case bytecode.OpAddInt:
		return bytecode.OpAdd
	case bytecode.OpSubInt:
		return bytecode.OpSub
	case bytecode.OpMulInt:
		return bytecode.OpMul
	case bytecode.OpModInt:
		return bytecode.OpMod
	case bytecode.OpIdivInt:
		return bytecode.OpIdiv
	case bytecode.OpDivInt:
		return bytecode.OpDiv
	case bytecode.OpPowInt:
		return bytecode.OpPow
	case bytecode.OpBAndInt:
		return bytecode.OpBAnd
	case bytecode.OpBOrInt:
		return bytecode.OpBOr
	case bytecode.OpBXorInt:
		return bytecode.OpBXor
	case bytecode.OpShlInt:
		return bytecode.OpShl
	case bytecode.OpShrInt:
		return bytecode.OpShr
	case bytecode.OpLesEqInt:
		return bytecode.OpLesEq
	case bytecode.OpGreEqInt:
		return bytecode.OpGreEq
	case bytecode.OpLessInt:
		return bytecode.OpLess
	case bytecode.OpGreaterInt:
		return bytecode.OpGreater
	default:
		return op
	}
}

// intOpFor and floatOpFor supply the int64/float64 primitive operator
// for the arith/arithInt kernels; floatOpFor also serves arithF/
// arithFInt for Div and Pow, which never call intOpFor. Idiv is integer
// floor division (spec §4.2): a plain int64 "/" truncates toward zero,
// so it is floor-adjusted here to match Lua's "//" semantics, and its
// float form uses math.Floor(a/b) for the same reason.
func intOpFor(op bytecode.Op) intOp {
	switch op {
	case bytecode.OpAdd:
		return func(a, b int64) int64 { return a + b }
	case bytecode.OpSub:
		return func(a, b int64) int64 { return a - b }
	case bytecode.OpMul:
		return func(a, b int64) int64 { return a * b }
	case bytecode.OpMod:
		return func(a, b int64) int64 {
			r := a % b
			if r != 0 && (r < 0) != (b < 0) {
				r += b
			}
			return r
		}
	case bytecode.OpIdiv:
		return func(a, b int64) int64 {
			q := a / b
			if (a%b != 0) && ((a < 0) != (b < 0)) {
				q--
			}
			return q
		}
	default:
		return nil
	}
}

func floatOpFor(op bytecode.Op) floatOp {
	switch op {
	case bytecode.OpAdd:
		return func(a, b float64) float64 { return a + b }
	case bytecode.OpSub:
		return func(a, b float64) float64 { return a - b }
	case bytecode.OpMul:
		return func(a, b float64) float64 { return a * b }
	case bytecode.OpMod:
		return func(a, b float64) float64 {
			r := math.Mod(a, b)
			if r != 0 && (r < 0) != (b < 0) {
				r += b
			}
			return r
		}
	case bytecode.OpIdiv:
		return func(a, b float64) float64 { return math.Floor(a / b) }
	case bytecode.OpDiv:
		return func(a, b float64) float64 { return a / b }
	case bytecode.OpPow:
		return func(a, b float64) float64 { return math.Pow(a, b) }
	default:
		return nil
	}
}

func bitOpFor(op bytecode.Op) intOp {
	switch op {
	case bytecode.OpBAnd:
		return func(a, b int64) int64 { return a & b }
	case bytecode.OpBOr:
		return func(a, b int64) int64 { return a | b }
	case bytecode.OpBXor:
		return func(a, b int64) int64 { return a ^ b }
	case bytecode.OpShl:
		return func(a, b int64) int64 { return shiftLeft(a, b) }
	case bytecode.OpShr:
		return func(a, b int64) int64 { return shiftLeft(a, -b) }
	default:
		return nil
	}
}

// shiftLeft implements Lua-style bitwise shift: a negative shift count
// shifts the other direction, and any count at or beyond the bit width
// yields 0, rather than Go's undefined/panicking behavior for an
// out-of-range or negative shift amount.
func shiftLeft(a, n int64) int64 {
	switch {
	case n <= -64 || n >= 64:
		return 0
	case n >= 0:
		return int64(uint64(a) << uint(n))
	default:
		return int64(uint64(a) >> uint(-n))
	}
}
