// Package asm is a small builder for hand-assembled bytecode.FuncProto
// programs. It exists for the same reason KTStephano-GVM's vm/parse.go
// exists in its repo: the execution core consumes an opaque, already-
// compiled prototype (spec §1's "out of scope" front end), so something
// has to let tests and the CLI construct one without writing out a
// FuncProto literal by hand or reimplementing a full language compiler.
//
// Where GVM's assembler parses a text mnemonic format with a two-pass
// label resolution (strip comments, scan for "label:" lines, patch
// jump operands on a second pass), this builder gets the same two-pass
// label resolution from ordinary Go method calls instead of a text
// grammar: Label/Here mark jump targets, the jump-emitting methods
// record a pending patch, and Finish resolves every patch at once. A
// parser is exactly the kind of thing that is easy to get subtly wrong
// in code that is never compiled or run — a typed builder catches a
// wrong argument count or a forgotten label at the call site instead.
package asm

import (
	"fmt"

	"lucore/internal/bytecode"
	"lucore/internal/value"
)

type jumpKind uint8

const (
	jumpForward jumpKind = iota
	jumpBackward
)

type pendingJump struct {
	at    int
	label int
	kind  jumpKind
}

// Builder accumulates instructions and constants for one FuncProto.
type Builder struct {
	name       string
	nparam     int
	hasVarargs bool

	instrs  []bytecode.Instruction
	consts  []interface{}
	labels  []int // label id -> resolved instruction index, -1 if unresolved
	pending []pendingJump
}

// NewBuilder starts a new function prototype with the given parameter
// count and vararg flag (spec §3.3).
func NewBuilder(name string, nparam int, hasVarargs bool) *Builder {
	return &Builder{name: name, nparam: nparam, hasVarargs: hasVarargs}
}

// Const interns v into the constant pool and returns its index.
func (b *Builder) Const(v value.Value) uint16 {
	b.consts = append(b.consts, v)
	return uint16(len(b.consts) - 1)
}

// Label allocates a new, as-yet-unplaced jump target.
func (b *Builder) Label() int {
	id := len(b.labels)
	b.labels = append(b.labels, -1)
	return id
}

// Here binds label to the position of the next instruction that will be
// emitted.
func (b *Builder) Here(label int) {
	b.labels[label] = len(b.instrs)
}

func (b *Builder) emit(ins bytecode.Instruction) int {
	b.instrs = append(b.instrs, ins)
	return len(b.instrs) - 1
}

func (b *Builder) emitJump(ins bytecode.Instruction, label int, kind jumpKind) {
	at := b.emit(ins)
	b.pending = append(b.pending, pendingJump{at: at, label: label, kind: kind})
}

// Finish resolves every pending jump's SBx operand against its label's
// final position and returns the assembled prototype. The offset
// convention matches spec §4.1 exactly: a forward jump's SBx is measured
// from the instruction following it (since the dispatch loop always
// advances pc by 1 after acting on SBx), and ForLoop's backward jump is
// stored as the positive distance the loop subtracts.
func (b *Builder) Finish() (*bytecode.FuncProto, error) {
	for _, p := range b.pending {
		target := b.labels[p.label]
		if target < 0 {
			return nil, fmt.Errorf("asm: label %d never placed with Here", p.label)
		}
		var sbx int
		if p.kind == jumpForward {
			sbx = target - (p.at + 1)
		} else {
			sbx = (p.at + 1) - target
		}
		if sbx < -32768 || sbx > 32767 {
			return nil, fmt.Errorf("asm: jump offset %d out of int16 range", sbx)
		}
		b.instrs[p.at].SBx = int16(sbx)
	}
	return &bytecode.FuncProto{
		ByteCodes:  b.instrs,
		Constants:  b.consts,
		NumParams:  b.nparam,
		HasVarargs: b.hasVarargs,
		Name:       b.name,
	}, nil
}

// --- loads & moves ---

func (b *Builder) LoadConst(dst uint8, k uint16) {
	b.emit(bytecode.Instruction{Op: bytecode.OpLoadConst, A: dst, Bx: k})
}
func (b *Builder) LoadNil(dst, n uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpLoadNil, A: dst, B: n})
}
func (b *Builder) LoadBool(dst uint8, v bool) {
	var bb uint8
	if v {
		bb = 1
	}
	b.emit(bytecode.Instruction{Op: bytecode.OpLoadBool, A: dst, B: bb})
}
func (b *Builder) LoadInt(dst uint8, imm int16) {
	b.emit(bytecode.Instruction{Op: bytecode.OpLoadInt, A: dst, SBx: imm})
}
func (b *Builder) Move(dst, src uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpMove, A: dst, B: src})
}

// --- globals ---

func (b *Builder) GetGlobal(dst uint8, nameK uint16) {
	b.emit(bytecode.Instruction{Op: bytecode.OpGetGlobal, A: dst, Bx: nameK})
}
func (b *Builder) SetGlobal(nameK uint16, src uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpSetGlobal, A: src, Bx: nameK})
}
func (b *Builder) SetGlobalConst(nameK uint16, valK uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpSetGlobalConst, B: valK, Bx: nameK})
}

// --- tables ---

func (b *Builder) NewTable(dst, narray, nmap uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpNewTable, A: dst, B: narray, C: nmap})
}
func (b *Builder) GetInt(dst, t, k uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpGetInt, A: dst, B: t, C: k})
}
func (b *Builder) GetField(dst, t uint8, k uint16) {
	b.emit(bytecode.Instruction{Op: bytecode.OpGetField, A: dst, B: t, Bx: k})
}
func (b *Builder) GetTable(dst, t, k uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpGetTable, A: dst, B: t, C: k})
}
func (b *Builder) SetInt(t, i, v uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpSetInt, A: t, B: i, C: v})
}
func (b *Builder) SetIntConst(t, i uint8, vK uint16) {
	b.emit(bytecode.Instruction{Op: bytecode.OpSetIntConst, A: t, B: i, Bx: vK})
}
func (b *Builder) SetField(t uint8, kK uint16, v uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpSetField, A: t, Bx: kK, C: v})
}
func (b *Builder) SetFieldConst(t uint8, kK uint16, valK uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpSetFieldConst, A: t, Bx: kK, C: valK})
}
func (b *Builder) SetTable(t, k, v uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpSetTable, A: t, B: k, C: v})
}
func (b *Builder) SetTableConst(t, k uint8, valK uint16) {
	b.emit(bytecode.Instruction{Op: bytecode.OpSetTableConst, A: t, B: k, Bx: valK})
}
func (b *Builder) SetList(t, n uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpSetList, A: t, B: n})
}

// --- conditionals / jumps ---

func (b *Builder) TestAndJump(cond uint8, label int) {
	b.emitJump(bytecode.Instruction{Op: bytecode.OpTestAndJump, A: cond}, label, jumpForward)
}
func (b *Builder) TestOrJump(cond uint8, label int) {
	b.emitJump(bytecode.Instruction{Op: bytecode.OpTestOrJump, A: cond}, label, jumpForward)
}
func (b *Builder) TestAndSetJump(dst, cond uint8, label int) {
	b.emitJump(bytecode.Instruction{Op: bytecode.OpTestAndSetJump, A: dst, B: cond}, label, jumpForward)
}
func (b *Builder) TestOrSetJump(dst, cond uint8, label int) {
	b.emitJump(bytecode.Instruction{Op: bytecode.OpTestOrSetJump, A: dst, B: cond}, label, jumpForward)
}
func (b *Builder) Jump(label int) {
	b.emitJump(bytecode.Instruction{Op: bytecode.OpJump}, label, jumpForward)
}
func (b *Builder) SetFalseSkip(dst uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpSetFalseSkip, A: dst})
}

// --- numeric for ---

// ForPrepare jumps forward to endLabel (placed just after the loop) if
// the loop should not run at all (spec §4.4).
func (b *Builder) ForPrepare(dst uint8, endLabel int) {
	b.emitJump(bytecode.Instruction{Op: bytecode.OpForPrepare, A: dst}, endLabel, jumpForward)
}

// ForLoop jumps backward to startLabel (the first instruction of the
// loop body) as long as the loop should continue.
func (b *Builder) ForLoop(dst uint8, startLabel int) {
	b.emitJump(bytecode.Instruction{Op: bytecode.OpForLoop, A: dst}, startLabel, jumpBackward)
}

// --- call / return / varargs ---

func (b *Builder) Call(fn, narg, want uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpCall, A: fn, B: narg, C: want})
}
func (b *Builder) CallSet(dst, fn, narg uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpCallSet, A: dst, B: fn, C: narg})
}
func (b *Builder) Return(iret, nret uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpReturn, A: iret, B: nret})
}
func (b *Builder) VarArgs(dst, want uint8) {
	b.emit(bytecode.Instruction{Op: bytecode.OpVarArgs, A: dst, B: want})
}

// --- unary ---

func (b *Builder) Neg(dst, src uint8)    { b.emit(bytecode.Instruction{Op: bytecode.OpNeg, A: dst, B: src}) }
func (b *Builder) Not(dst, src uint8)    { b.emit(bytecode.Instruction{Op: bytecode.OpNot, A: dst, B: src}) }
func (b *Builder) BitNot(dst, src uint8) { b.emit(bytecode.Instruction{Op: bytecode.OpBitNot, A: dst, B: src}) }
func (b *Builder) Len(dst, src uint8)    { b.emit(bytecode.Instruction{Op: bytecode.OpLen, A: dst, B: src}) }

// --- arith / arithF / arithBit families ---

func (b *Builder) binop(op bytecode.Op, dst, a, bb uint8) {
	b.emit(bytecode.Instruction{Op: op, A: dst, B: a, C: bb})
}
func (b *Builder) binopConst(op bytecode.Op, dst, a uint8, k uint16) {
	b.emit(bytecode.Instruction{Op: op, A: dst, B: a, Bx: k})
}
func (b *Builder) binopInt(op bytecode.Op, dst, a uint8, imm uint8) {
	b.emit(bytecode.Instruction{Op: op, A: dst, B: a, C: imm})
}

func (b *Builder) Add(dst, a, bb uint8)              { b.binop(bytecode.OpAdd, dst, a, bb) }
func (b *Builder) AddConst(dst, a uint8, k uint16)   { b.binopConst(bytecode.OpAddConst, dst, a, k) }
func (b *Builder) AddInt(dst, a, imm uint8)          { b.binopInt(bytecode.OpAddInt, dst, a, imm) }
func (b *Builder) Sub(dst, a, bb uint8)              { b.binop(bytecode.OpSub, dst, a, bb) }
func (b *Builder) SubConst(dst, a uint8, k uint16)   { b.binopConst(bytecode.OpSubConst, dst, a, k) }
func (b *Builder) SubInt(dst, a, imm uint8)          { b.binopInt(bytecode.OpSubInt, dst, a, imm) }
func (b *Builder) Mul(dst, a, bb uint8)              { b.binop(bytecode.OpMul, dst, a, bb) }
func (b *Builder) MulConst(dst, a uint8, k uint16)   { b.binopConst(bytecode.OpMulConst, dst, a, k) }
func (b *Builder) MulInt(dst, a, imm uint8)          { b.binopInt(bytecode.OpMulInt, dst, a, imm) }
func (b *Builder) Mod(dst, a, bb uint8)              { b.binop(bytecode.OpMod, dst, a, bb) }
func (b *Builder) ModConst(dst, a uint8, k uint16)   { b.binopConst(bytecode.OpModConst, dst, a, k) }
func (b *Builder) ModInt(dst, a, imm uint8)          { b.binopInt(bytecode.OpModInt, dst, a, imm) }
func (b *Builder) Idiv(dst, a, bb uint8)             { b.binop(bytecode.OpIdiv, dst, a, bb) }
func (b *Builder) IdivConst(dst, a uint8, k uint16)  { b.binopConst(bytecode.OpIdivConst, dst, a, k) }
func (b *Builder) IdivInt(dst, a, imm uint8)         { b.binopInt(bytecode.OpIdivInt, dst, a, imm) }

func (b *Builder) Div(dst, a, bb uint8)             { b.binop(bytecode.OpDiv, dst, a, bb) }
func (b *Builder) DivConst(dst, a uint8, k uint16)  { b.binopConst(bytecode.OpDivConst, dst, a, k) }
func (b *Builder) DivInt(dst, a, imm uint8)         { b.binopInt(bytecode.OpDivInt, dst, a, imm) }
func (b *Builder) Pow(dst, a, bb uint8)             { b.binop(bytecode.OpPow, dst, a, bb) }
func (b *Builder) PowConst(dst, a uint8, k uint16)  { b.binopConst(bytecode.OpPowConst, dst, a, k) }
func (b *Builder) PowInt(dst, a, imm uint8)         { b.binopInt(bytecode.OpPowInt, dst, a, imm) }

func (b *Builder) BAnd(dst, a, bb uint8)            { b.binop(bytecode.OpBAnd, dst, a, bb) }
func (b *Builder) BAndConst(dst, a uint8, k uint16) { b.binopConst(bytecode.OpBAndConst, dst, a, k) }
func (b *Builder) BAndInt(dst, a, imm uint8)        { b.binopInt(bytecode.OpBAndInt, dst, a, imm) }
func (b *Builder) BOr(dst, a, bb uint8)             { b.binop(bytecode.OpBOr, dst, a, bb) }
func (b *Builder) BOrConst(dst, a uint8, k uint16)  { b.binopConst(bytecode.OpBOrConst, dst, a, k) }
func (b *Builder) BOrInt(dst, a, imm uint8)         { b.binopInt(bytecode.OpBOrInt, dst, a, imm) }
func (b *Builder) BXor(dst, a, bb uint8)            { b.binop(bytecode.OpBXor, dst, a, bb) }
func (b *Builder) BXorConst(dst, a uint8, k uint16) { b.binopConst(bytecode.OpBXorConst, dst, a, k) }
func (b *Builder) BXorInt(dst, a, imm uint8)        { b.binopInt(bytecode.OpBXorInt, dst, a, imm) }
func (b *Builder) Shl(dst, a, bb uint8)             { b.binop(bytecode.OpShl, dst, a, bb) }
func (b *Builder) ShlConst(dst, a uint8, k uint16)  { b.binopConst(bytecode.OpShlConst, dst, a, k) }
func (b *Builder) ShlInt(dst, a, imm uint8)         { b.binopInt(bytecode.OpShlInt, dst, a, imm) }
func (b *Builder) Shr(dst, a, bb uint8)             { b.binop(bytecode.OpShr, dst, a, bb) }
func (b *Builder) ShrConst(dst, a uint8, k uint16)  { b.binopConst(bytecode.OpShrConst, dst, a, k) }
func (b *Builder) ShrInt(dst, a, imm uint8)         { b.binopInt(bytecode.OpShrInt, dst, a, imm) }

func (b *Builder) Concat(dst, a, bb uint8)            { b.binop(bytecode.OpConcat, dst, a, bb) }
func (b *Builder) ConcatConst(dst, a uint8, k uint16) { b.binopConst(bytecode.OpConcatConst, dst, a, k) }
func (b *Builder) ConcatInt(dst, a, imm uint8)        { b.binopInt(bytecode.OpConcatInt, dst, a, imm) }

// --- comparisons (compute the predicate; skip the next instruction,
// conventionally a Jump, iff the predicate equals r) ---

func boolByte(r bool) uint8 {
	if r {
		return 1
	}
	return 0
}

func (b *Builder) Equal(a, bb uint8, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpEqual, A: a, B: bb, C: boolByte(r)})
}
func (b *Builder) EqualConst(a uint8, k uint16, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpEqualConst, A: a, Bx: k, C: boolByte(r)})
}
func (b *Builder) EqualInt(a uint8, imm int16, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpEqualInt, A: a, SBx: imm, C: boolByte(r)})
}
func (b *Builder) NotEq(a, bb uint8, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpNotEq, A: a, B: bb, C: boolByte(r)})
}
func (b *Builder) NotEqConst(a uint8, k uint16, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpNotEqConst, A: a, Bx: k, C: boolByte(r)})
}
func (b *Builder) NotEqInt(a uint8, imm int16, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpNotEqInt, A: a, SBx: imm, C: boolByte(r)})
}
func (b *Builder) LesEq(a, bb uint8, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpLesEq, A: a, B: bb, C: boolByte(r)})
}
func (b *Builder) LesEqConst(a uint8, k uint16, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpLesEqConst, A: a, Bx: k, C: boolByte(r)})
}
func (b *Builder) LesEqInt(a uint8, imm int16, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpLesEqInt, A: a, SBx: imm, C: boolByte(r)})
}
func (b *Builder) GreEq(a, bb uint8, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpGreEq, A: a, B: bb, C: boolByte(r)})
}
func (b *Builder) GreEqConst(a uint8, k uint16, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpGreEqConst, A: a, Bx: k, C: boolByte(r)})
}
func (b *Builder) GreEqInt(a uint8, imm int16, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpGreEqInt, A: a, SBx: imm, C: boolByte(r)})
}
func (b *Builder) Less(a, bb uint8, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpLess, A: a, B: bb, C: boolByte(r)})
}
func (b *Builder) LessConst(a uint8, k uint16, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpLessConst, A: a, Bx: k, C: boolByte(r)})
}
func (b *Builder) LessInt(a uint8, imm int16, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpLessInt, A: a, SBx: imm, C: boolByte(r)})
}
func (b *Builder) Greater(a, bb uint8, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpGreater, A: a, B: bb, C: boolByte(r)})
}
func (b *Builder) GreaterConst(a uint8, k uint16, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpGreaterConst, A: a, Bx: k, C: boolByte(r)})
}
func (b *Builder) GreaterInt(a uint8, imm int16, r bool) {
	b.emit(bytecode.Instruction{Op: bytecode.OpGreaterInt, A: a, SBx: imm, C: boolByte(r)})
}
