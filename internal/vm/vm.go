// Package vm implements the execution core: the register-relative
// evaluation stack, the fetch-decode-execute dispatch loop, and the call
// machinery that bridges Lucore frames to native Go functions. It is a
// direct generalization of the reference source's ExeState/execute (see
// DESIGN.md), restructured so every abort the reference source panics on
// instead returns a *vmerr.RuntimeError up through the call chain.
package vm

import (
	"lucore/internal/bytecode"
	"lucore/internal/diag"
	"lucore/internal/value"
	"lucore/internal/vmerr"
)

// ExeState is the execution core's mutable runtime state: the global
// table, the shared evaluation stack, and the current frame's base
// (spec §4.1/§4.5). It implements value.Host so a NativeFunc can read
// its arguments and push its results without package value depending on
// package vm.
type ExeState struct {
	globals map[string]value.Value
	stack   *stack
	base    int
	Tracer  *diag.Tracer
}

// New creates an execution core with an empty global table and
// instruction tracing off.
func New() *ExeState {
	return &ExeState{
		globals: make(map[string]value.Value),
		stack:   newStack(),
		base:    0,
		Tracer:  diag.Disabled(),
	}
}

// SetGlobal and Global let a host install native functions and other
// globals before running a FuncProto (spec §4.5 / §6.1), and are also
// how package natives registers its builtins.
func (s *ExeState) SetGlobal(name string, v value.Value) { s.globals[name] = v }
func (s *ExeState) Global(name string) value.Value {
	if v, ok := s.globals[name]; ok {
		return v
	}
	return value.Nil()
}

// Host implementation, seen by a NativeFunc through the value.Host
// interface: Top/GetValue/Push all read relative to the current frame's
// base, matching the reference source's get_top/get_value API.
func (s *ExeState) Top() int { return s.stack.top() - s.base }
func (s *ExeState) GetValue(i int) value.Value {
	return s.stack.get(s.base + i - 1)
}
func (s *ExeState) Push(v value.Value) { s.stack.push(v) }

func (s *ExeState) getStack(dst uint8) value.Value { return s.stack.get(s.base + int(dst)) }
func (s *ExeState) setStack(dst uint8, v value.Value) { s.stack.set(s.base+int(dst), v) }

// fillStack resets [begin, begin+num) to Nil, extending the stack if
// needed (spec §4.1's fill semantics, used by LoadNil and by argument
// padding on frame entry).
func (s *ExeState) fillStack(begin, num int) {
	begin = s.base + begin
	end := begin + num
	for i := begin; i < end && i < s.stack.top(); i++ {
		s.stack.slots[i] = value.Nil()
	}
	if end > s.stack.top() {
		s.stack.fillNil(end)
	}
}

// Run executes proto as a top-level chunk with the given arguments
// already pushed onto an empty stack, returning however many values it
// returned (spec §4.5, the entry-frame case where base is 0).
func (s *ExeState) Run(proto *bytecode.FuncProto, args []value.Value) ([]value.Value, error) {
	s.stack = newStack()
	s.base = 0
	for _, a := range args {
		s.stack.push(a)
	}
	nret, err := s.execute(proto)
	if err != nil {
		return nil, err
	}
	top := s.stack.top()
	return s.stack.drain(top-nret, top), nil
}

// execute runs proto's byte codes from pc 0 until a Return instruction,
// returning the number of return values left at the stack end (spec
// §4.3/§4.5). This is the dispatch loop: the direct generalization of
// the reference source's execute, one opcode case per reference-source
// ByteCode variant, re-expressed over package bytecode's Instruction and
// returning a *vmerr.RuntimeError instead of panicking.
func (s *ExeState) execute(proto *bytecode.FuncProto) (int, error) {
	var varargs []value.Value
	if proto.HasVarargs {
		varargs = s.stack.drain(s.base+proto.NumParams, s.stack.top())
		s.stack.truncate(s.base + proto.NumParams)
	}

	pc := 0
	for {
		ins := proto.ByteCodes[pc]
		s.Tracer.Step(pc, ins)
		switch ins.Op {

		case bytecode.OpLoadConst:
			s.setStack(ins.A, proto.Constants[ins.Bx].(value.Value))
		case bytecode.OpLoadNil:
			s.fillStack(int(ins.A), int(ins.B))
		case bytecode.OpLoadBool:
			s.setStack(ins.A, value.Bool(ins.B != 0))
		case bytecode.OpLoadInt:
			s.setStack(ins.A, value.Int(int64(ins.SBx)))
		case bytecode.OpMove:
			s.setStack(ins.A, s.getStack(ins.B))

		case bytecode.OpGetGlobal:
			name := proto.Constants[ins.Bx].(value.Value).AsString()
			s.setStack(ins.A, s.Global(name))
		case bytecode.OpSetGlobal:
			name := proto.Constants[ins.Bx].(value.Value).AsString()
			s.SetGlobal(name, s.getStack(ins.A))
		case bytecode.OpSetGlobalConst:
			name := proto.Constants[ins.Bx].(value.Value).AsString()
			s.SetGlobal(name, proto.Constants[ins.B].(value.Value))

		case bytecode.OpNewTable:
			s.setStack(ins.A, value.TableVal(value.NewTable(int(ins.B), int(ins.C))))
		case bytecode.OpGetInt:
			t, err := s.tableAt(pc, ins.B)
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, t.GetInt(int64(ins.C)))
		case bytecode.OpGetField:
			t, err := s.tableAt(pc, ins.B)
			if err != nil {
				return 0, err
			}
			key := proto.Constants[ins.Bx].(value.Value)
			s.setStack(ins.A, t.Get(key))
		case bytecode.OpGetTable:
			t, err := s.tableAt(pc, ins.B)
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, t.Get(s.getStack(ins.C)))
		case bytecode.OpSetInt:
			t, err := s.tableAt(pc, ins.A)
			if err != nil {
				return 0, err
			}
			t.SetInt(int64(ins.B), s.getStack(ins.C))
		case bytecode.OpSetIntConst:
			t, err := s.tableAt(pc, ins.A)
			if err != nil {
				return 0, err
			}
			t.SetInt(int64(ins.B), proto.Constants[ins.Bx].(value.Value))
		case bytecode.OpSetField:
			t, err := s.tableAt(pc, ins.A)
			if err != nil {
				return 0, err
			}
			key := proto.Constants[ins.Bx].(value.Value)
			if err := tableSet(pc, t, key, s.getStack(ins.C)); err != nil {
				return 0, err
			}
		case bytecode.OpSetFieldConst:
			t, err := s.tableAt(pc, ins.A)
			if err != nil {
				return 0, err
			}
			key := proto.Constants[ins.Bx].(value.Value)
			val := proto.Constants[ins.C].(value.Value)
			if err := tableSet(pc, t, key, val); err != nil {
				return 0, err
			}
		case bytecode.OpSetTable:
			t, err := s.tableAt(pc, ins.A)
			if err != nil {
				return 0, err
			}
			if err := tableSet(pc, t, s.getStack(ins.B), s.getStack(ins.C)); err != nil {
				return 0, err
			}
		case bytecode.OpSetTableConst:
			t, err := s.tableAt(pc, ins.A)
			if err != nil {
				return 0, err
			}
			val := proto.Constants[ins.Bx].(value.Value)
			if err := tableSet(pc, t, s.getStack(ins.B), val); err != nil {
				return 0, err
			}
		case bytecode.OpSetList:
			t, err := s.tableAt(pc, ins.A)
			if err != nil {
				return 0, err
			}
			ivalue := s.base + int(ins.A) + 1
			vals := s.stack.drain(ivalue, ivalue+int(ins.B))
			t.AppendList(vals)

		case bytecode.OpTestAndJump:
			if s.getStack(ins.A).Truthy() {
				pc += int(ins.SBx)
			}
		case bytecode.OpTestOrJump:
			if !s.getStack(ins.A).Truthy() {
				pc += int(ins.SBx)
			}
		case bytecode.OpTestAndSetJump:
			cond := s.getStack(ins.B)
			if cond.Truthy() {
				s.setStack(ins.A, cond)
				pc += int(ins.SBx)
			}
		case bytecode.OpTestOrSetJump:
			cond := s.getStack(ins.B)
			if !cond.Truthy() {
				s.setStack(ins.A, cond)
				pc += int(ins.SBx)
			}
		case bytecode.OpJump:
			pc += int(ins.SBx)
		case bytecode.OpSetFalseSkip:
			s.setStack(ins.A, value.Bool(false))
			pc++

		case bytecode.OpForPrepare:
			skip, err := s.forPrepare(pc, ins.A)
			if err != nil {
				return 0, err
			}
			if skip {
				pc += int(ins.SBx)
			}
		case bytecode.OpForLoop:
			cont, err := s.forLoop(pc, ins.A)
			if err != nil {
				return 0, err
			}
			if cont {
				pc -= int(ins.SBx)
			}

		case bytecode.OpCall:
			nret, err := s.callFunction(pc, ins.A, ins.B)
			if err != nil {
				return 0, err
			}
			iret := s.base + int(ins.A)
			s.stack.slots = append(s.stack.slots[:iret], s.stack.slots[s.stack.top()-nret:]...)
			if ins.C != bytecode.MULTRET && nret < int(ins.C) {
				s.fillStack(int(ins.A)+nret, int(ins.C)-nret)
			}
		case bytecode.OpCallSet:
			nret, err := s.callFunction(pc, ins.B, ins.C)
			if err != nil {
				return 0, err
			}
			if nret == 0 {
				s.setStack(ins.A, value.Nil())
			} else {
				if nret > 1 {
					s.stack.truncate(s.stack.top() + 1 - nret)
				}
				result := s.stack.get(s.stack.top() - 1)
				s.stack.truncate(s.stack.top() - 1)
				s.setStack(ins.A, result)
			}
		case bytecode.OpReturn:
			iret := s.base + int(ins.A)
			if ins.B != bytecode.MULTRET {
				s.stack.truncate(iret + int(ins.B))
				return int(ins.B), nil
			}
			return s.stack.top() - iret, nil
		case bytecode.OpVarArgs:
			var ncopy, needFill int
			switch {
			case ins.B == bytecode.MULTRET:
				ncopy = len(varargs)
			case int(ins.B) > len(varargs):
				ncopy, needFill = len(varargs), int(ins.B)-len(varargs)
			default:
				ncopy = int(ins.B)
			}
			for i := 0; i < ncopy; i++ {
				s.setStack(ins.A+uint8(i), varargs[i])
			}
			if needFill > 0 {
				s.fillStack(int(ins.A)+ncopy, needFill)
			}

		case bytecode.OpNeg:
			v := s.getStack(ins.B)
			switch v.Kind() {
			case value.KInt:
				s.setStack(ins.A, value.Int(-v.AsInt()))
			case value.KFloat:
				s.setStack(ins.A, value.Float(-v.AsFloat()))
			default:
				return 0, vmerr.Typef(pc, "attempt to negate a %s value", v.TypeName())
			}
		case bytecode.OpNot:
			s.setStack(ins.A, value.Bool(!s.getStack(ins.B).Truthy()))
		case bytecode.OpBitNot:
			v := s.getStack(ins.B)
			if v.Kind() != value.KInt {
				return 0, vmerr.Typef(pc, "attempt to bitwise-not a %s value", v.TypeName())
			}
			s.setStack(ins.A, value.Int(^v.AsInt()))
		case bytecode.OpLen:
			v := s.getStack(ins.B)
			switch {
			case v.IsString():
				s.setStack(ins.A, value.Int(int64(len(v.AsString()))))
			case v.Kind() == value.KTable:
				s.setStack(ins.A, value.Int(v.AsTable().Len()))
			default:
				return 0, vmerr.Typef(pc, "attempt to take the length of a %s value", v.TypeName())
			}

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpMod, bytecode.OpIdiv:
			r, err := arith(pc, s.getStack(ins.B), s.getStack(ins.C), intOpFor(ins.Op), floatOpFor(ins.Op))
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, r)
		case bytecode.OpAddConst, bytecode.OpSubConst, bytecode.OpMulConst, bytecode.OpModConst, bytecode.OpIdivConst:
			r, err := arith(pc, s.getStack(ins.B), proto.Constants[ins.Bx].(value.Value), intOpFor(constBase(ins.Op)), floatOpFor(constBase(ins.Op)))
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, r)
		case bytecode.OpAddInt, bytecode.OpSubInt, bytecode.OpMulInt, bytecode.OpModInt, bytecode.OpIdivInt:
			r, err := arithInt(pc, s.getStack(ins.B), int64(ins.C), intOpFor(intBase(ins.Op)), floatOpFor(intBase(ins.Op)))
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, r)

		case bytecode.OpDiv, bytecode.OpPow:
			r, err := arithF(pc, s.getStack(ins.B), s.getStack(ins.C), floatOpFor(ins.Op))
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, r)
		case bytecode.OpDivConst, bytecode.OpPowConst:
			r, err := arithF(pc, s.getStack(ins.B), proto.Constants[ins.Bx].(value.Value), floatOpFor(constBase(ins.Op)))
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, r)
		case bytecode.OpDivInt, bytecode.OpPowInt:
			r, err := arithFInt(pc, s.getStack(ins.B), int64(ins.C), floatOpFor(intBase(ins.Op)))
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, r)

		case bytecode.OpBAnd, bytecode.OpBOr, bytecode.OpBXor, bytecode.OpShl, bytecode.OpShr:
			r, err := arithBit(pc, s.getStack(ins.B), s.getStack(ins.C), bitOpFor(ins.Op))
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, r)
		case bytecode.OpBAndConst, bytecode.OpBOrConst, bytecode.OpBXorConst, bytecode.OpShlConst, bytecode.OpShrConst:
			r, err := arithBit(pc, s.getStack(ins.B), proto.Constants[ins.Bx].(value.Value), bitOpFor(constBase(ins.Op)))
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, r)
		case bytecode.OpBAndInt, bytecode.OpBOrInt, bytecode.OpBXorInt, bytecode.OpShlInt, bytecode.OpShrInt:
			r, err := arithBitInt(pc, s.getStack(ins.B), int64(ins.C), bitOpFor(intBase(ins.Op)))
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, r)

		case bytecode.OpConcat:
			r, err := concat(pc, s.getStack(ins.B), s.getStack(ins.C))
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, r)
		case bytecode.OpConcatConst:
			r, err := concat(pc, s.getStack(ins.B), proto.Constants[ins.Bx].(value.Value))
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, r)
		case bytecode.OpConcatInt:
			r, err := concat(pc, s.getStack(ins.B), value.Int(int64(ins.C)))
			if err != nil {
				return 0, err
			}
			s.setStack(ins.A, r)

		case bytecode.OpEqual, bytecode.OpNotEq:
			eq := value.Equal(s.getStack(ins.A), s.getStack(ins.B))
			want := ins.Op == bytecode.OpEqual
			if (eq == want) == (ins.C != 0) {
				pc++
			}
		case bytecode.OpEqualConst, bytecode.OpNotEqConst:
			eq := value.Equal(s.getStack(ins.A), proto.Constants[ins.Bx].(value.Value))
			want := ins.Op == bytecode.OpEqualConst
			if (eq == want) == (ins.C != 0) {
				pc++
			}
		case bytecode.OpEqualInt, bytecode.OpNotEqInt:
			v := s.getStack(ins.A)
			if v.Kind() == value.KInt {
				eq := v.AsInt() == int64(ins.SBx)
				want := ins.Op == bytecode.OpEqualInt
				if (eq == want) == (ins.C != 0) {
					pc++
				}
			}

		case bytecode.OpLesEq, bytecode.OpGreEq, bytecode.OpLess, bytecode.OpGreater:
			ord, err := compare(pc, s.getStack(ins.A), s.getStack(ins.B))
			if err != nil {
				return 0, err
			}
			if matchOrdering(ins.Op, ord) == (ins.C != 0) {
				pc++
			}
		case bytecode.OpLesEqConst, bytecode.OpGreEqConst, bytecode.OpLessConst, bytecode.OpGreaterConst:
			ord, err := compare(pc, s.getStack(ins.A), proto.Constants[ins.Bx].(value.Value))
			if err != nil {
				return 0, err
			}
			if matchOrdering(constBase(ins.Op), ord) == (ins.C != 0) {
				pc++
			}
		case bytecode.OpLesEqInt, bytecode.OpGreEqInt, bytecode.OpLessInt, bytecode.OpGreaterInt:
			ord, err := compareIntImm(pc, s.getStack(ins.A), int64(ins.SBx))
			if err != nil {
				return 0, err
			}
			if matchOrdering(intBase(ins.Op), ord) == (ins.C != 0) {
				pc++
			}

		default:
			return 0, vmerr.New(vmerr.KindMalformed, pc, "unknown opcode %v", ins.Op)
		}

		pc++
	}
}

func (s *ExeState) tableAt(pc int, reg uint8) (*value.Table, error) {
	v := s.getStack(reg)
	if v.Kind() != value.KTable {
		return nil, vmerr.New(vmerr.KindMalformed, pc, "attempt to index a %s value", v.TypeName())
	}
	return v.AsTable(), nil
}

// tableSet rejects a Nil key (spec §3.2) before delegating to Table.Set.
func tableSet(pc int, t *value.Table, key, v value.Value) error {
	if key.IsNil() {
		return vmerr.New(vmerr.KindMalformed, pc, "table index is nil")
	}
	t.Set(key, v)
	return nil
}

// matchOrdering maps a comparison opcode's family onto the ordering
// values that satisfy it: LesEq/GreEq negate the opposite strict
// relation (spec: "not greater" / "not less"), Less/Greater test
// directly.
func matchOrdering(op bytecode.Op, ord ordering) bool {
	switch op {
	case bytecode.OpLesEq:
		return ord != orderGreater
	case bytecode.OpGreEq:
		return ord != orderLess
	case bytecode.OpLess:
		return ord == orderLess
	case bytecode.OpGreater:
		return ord == orderGreater
	default:
		return false
	}
}
