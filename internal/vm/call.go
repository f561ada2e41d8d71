package vm

import (
	"lucore/internal/bytecode"
	"lucore/internal/value"
	"lucore/internal/vmerr"
)

// makeFloat reads stack slot dst as a float, converting and rewriting an
// Integer in place if that's what's there (spec §4.4's numeric for-loop
// promotes every one of i/limit/step to float together, the moment any
// one of them is a float) — a direct port of the reference source's
// make_float.
func (s *ExeState) makeFloat(pc int, dst uint8) (float64, error) {
	v := s.getStack(dst)
	switch v.Kind() {
	case value.KFloat:
		return v.AsFloat(), nil
	case value.KInt:
		f := float64(v.AsInt())
		s.setStack(dst, value.Float(f))
		return f, nil
	default:
		return 0, vmerr.Typef(pc, "'for' initial value must be a number, got %s", v.TypeName())
	}
}

// forPrepare implements ForPrepare (spec §4.4): it decides, before the
// loop body runs once, whether the loop should run at all, and
// normalizes an integer loop's float limit into the exact integer bound
// for_int_limit computes. dst holds i, dst+1 limit, dst+2 step.
func (s *ExeState) forPrepare(pc int, dst uint8) (skip bool, err error) {
	iv, stepv := s.getStack(dst), s.getStack(dst+2)
	if iv.Kind() == value.KInt && stepv.Kind() == value.KInt {
		i, step := iv.AsInt(), stepv.AsInt()
		if step == 0 {
			return false, vmerr.New(vmerr.KindRange, pc, "'for' step is zero")
		}
		limitv := s.getStack(dst + 1)
		var limit int64
		switch limitv.Kind() {
		case value.KInt:
			limit = limitv.AsInt()
		case value.KFloat:
			limit = forIntLimit(limitv.AsFloat(), step > 0, &i)
			s.setStack(dst, value.Int(i))
			s.setStack(dst+1, value.Int(limit))
		default:
			return false, vmerr.Typef(pc, "'for' limit must be a number, got %s", limitv.TypeName())
		}
		return !forCheckInt(i, limit, step > 0), nil
	}

	i, err := s.makeFloat(pc, dst)
	if err != nil {
		return false, err
	}
	limit, err := s.makeFloat(pc, dst+1)
	if err != nil {
		return false, err
	}
	step, err := s.makeFloat(pc, dst+2)
	if err != nil {
		return false, err
	}
	if step == 0 {
		return false, vmerr.New(vmerr.KindRange, pc, "'for' step is zero")
	}
	return !forCheckFloat(i, limit, step > 0), nil
}

// forLoop implements ForLoop (spec §4.4): advance i by step and report
// whether the loop continues.
func (s *ExeState) forLoop(pc int, dst uint8) (cont bool, err error) {
	iv := s.getStack(dst)
	switch iv.Kind() {
	case value.KInt:
		limit := s.getStack(dst + 1).AsInt()
		step := s.getStack(dst + 2).AsInt()
		i := iv.AsInt() + step
		if forCheckInt(i, limit, step > 0) {
			s.setStack(dst, value.Int(i))
			return true, nil
		}
		return false, nil
	case value.KFloat:
		limit := s.getStack(dst + 1).AsFloat()
		step := s.getStack(dst + 2).AsFloat()
		i := iv.AsFloat() + step
		if forCheckFloat(i, limit, step > 0) {
			s.setStack(dst, value.Float(i))
			return true, nil
		}
		return false, nil
	default:
		return false, vmerr.New(vmerr.KindMalformed, pc, "invalid 'for' counter")
	}
}

// callFunction implements the reference source's call_function: it
// enters a new frame relative to funcReg, runs the callee (native or
// Lucore), and returns the number of values it left at the new stack
// top, always restoring base before returning (spec §4.5).
func (s *ExeState) callFunction(pc int, funcReg, narg uint8) (int, error) {
	fv := s.getStack(funcReg)
	s.base += int(funcReg) + 1
	defer func() { s.base -= int(funcReg) + 1 }()

	n := int(narg)
	if narg == bytecode.MULTRET {
		n = s.stack.top() - s.base
	}

	switch fv.Kind() {
	case value.KNative:
		s.stack.truncate(s.base + n)
		nf := fv.AsNative()
		nret, err := nf.Fn(s)
		if err != nil {
			return 0, vmerr.Wrap(err, "native function "+nf.Name)
		}
		return nret, nil
	case value.KFunc:
		proto, ok := fv.AsFuncProto().(*bytecode.FuncProto)
		if !ok {
			return 0, vmerr.New(vmerr.KindMalformed, pc, "invalid function value")
		}
		if n < proto.NumParams {
			s.fillStack(n, proto.NumParams-n)
		}
		return s.execute(proto)
	default:
		return 0, vmerr.New(vmerr.KindMalformed, pc, "attempt to call a %s value", fv.TypeName())
	}
}
