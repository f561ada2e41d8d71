package vm

import (
	"testing"

	"lucore/internal/asm"
	"lucore/internal/bytecode"
	"lucore/internal/value"
)

func runProto(t *testing.T, b *asm.Builder) []value.Value {
	t.Helper()
	proto, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	s := New()
	results, err := s.Run(proto, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return results
}

func TestForLoopAscendingSum(t *testing.T) {
	// for i = 1, 3 do sum = sum + i end  -->  sum == 6
	b := asm.NewBuilder("t", 0, false)
	b.LoadInt(0, 0)
	b.LoadInt(1, 1)
	b.LoadInt(2, 3)
	b.LoadInt(3, 1)
	end := b.Label()
	b.ForPrepare(1, end)
	start := b.Label()
	b.Here(start)
	b.Add(0, 0, 1)
	b.ForLoop(1, start)
	b.Here(end)
	b.Return(0, 1)

	results := runProto(t, b)
	if len(results) != 1 || results[0].AsInt() != 6 {
		t.Fatalf("results = %v, want [6]", results)
	}
}

func TestForLoopDescendingStepSum(t *testing.T) {
	// for i = 10, 1, -3 do sum = sum + i end --> i takes 10,7,4,1, sum == 22
	b := asm.NewBuilder("t", 0, false)
	b.LoadInt(0, 0)
	b.LoadInt(1, 10)
	b.LoadInt(2, 1)
	b.LoadInt(3, -3)
	end := b.Label()
	b.ForPrepare(1, end)
	start := b.Label()
	b.Here(start)
	b.Add(0, 0, 1)
	b.ForLoop(1, start)
	b.Here(end)
	b.Return(0, 1)

	results := runProto(t, b)
	if len(results) != 1 || results[0].AsInt() != 22 {
		t.Fatalf("results = %v, want [22]", results)
	}
}

func TestForLoopZeroIterations(t *testing.T) {
	// for i = 0, -1 do sum = sum + i end --> body never runs, sum stays 0
	b := asm.NewBuilder("t", 0, false)
	b.LoadInt(0, 0)
	b.LoadInt(1, 0)
	b.LoadInt(2, -1)
	b.LoadInt(3, 1)
	end := b.Label()
	b.ForPrepare(1, end)
	start := b.Label()
	b.Here(start)
	b.Add(0, 0, 1)
	b.ForLoop(1, start)
	b.Here(end)
	b.Return(0, 1)

	results := runProto(t, b)
	if len(results) != 1 || results[0].AsInt() != 0 {
		t.Fatalf("results = %v, want [0]", results)
	}
}

func TestForLoopZeroStepIsRangeError(t *testing.T) {
	b := asm.NewBuilder("t", 0, false)
	b.LoadInt(0, 0)
	b.LoadInt(1, 1)
	b.LoadInt(2, 3)
	b.LoadInt(3, 0)
	end := b.Label()
	b.ForPrepare(1, end)
	b.Here(end)
	b.Return(0, 1)

	proto, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	_, err = New().Run(proto, nil)
	if err == nil {
		t.Fatal("expected a range error for a zero for-loop step")
	}
}

func TestTableConstructAndIndex(t *testing.T) {
	b := asm.NewBuilder("t", 0, false)
	b.NewTable(0, 3, 0)
	b.LoadInt(1, 10)
	b.LoadInt(2, 20)
	b.LoadInt(3, 30)
	b.SetList(0, 3)
	b.GetInt(4, 0, 2)
	b.Return(4, 1)

	results := runProto(t, b)
	if len(results) != 1 || results[0].AsInt() != 20 {
		t.Fatalf("results = %v, want [20]", results)
	}
}

func TestTableFieldIncrement(t *testing.T) {
	b := asm.NewBuilder("t", 0, false)
	b.NewTable(0, 0, 1)
	kField := b.Const(value.Str("x"))
	kOne := b.Const(value.Int(1))
	b.SetFieldConst(0, kField, uint8(kOne))
	b.GetField(1, 0, kField)
	b.AddInt(1, 1, 1) // x = x + 1
	b.SetField(0, kField, 1)
	b.GetField(2, 0, kField)
	b.Return(2, 1)

	results := runProto(t, b)
	if len(results) != 1 || results[0].AsInt() != 2 {
		t.Fatalf("results = %v, want [2]", results)
	}
}

func TestConcatNumberAndString(t *testing.T) {
	b := asm.NewBuilder("t", 0, false)
	k := b.Const(value.Str("score: "))
	b.LoadConst(0, k)
	b.LoadInt(1, 42)
	b.Concat(2, 0, 1)
	b.Return(2, 1)

	results := runProto(t, b)
	if len(results) != 1 || results[0].AsString() != "score: 42" {
		t.Fatalf("results = %v, want [\"score: 42\"]", results)
	}
}

func TestMultipleReturnValues(t *testing.T) {
	b := asm.NewBuilder("t", 0, false)
	b.LoadInt(0, 10)
	b.LoadInt(1, 20)
	b.Return(0, 2)

	results := runProto(t, b)
	if len(results) != 2 || results[0].AsInt() != 10 || results[1].AsInt() != 20 {
		t.Fatalf("results = %v, want [10, 20]", results)
	}
}

func TestCallUserFunctionValue(t *testing.T) {
	callee := asm.NewBuilder("add_one", 1, false)
	callee.AddInt(0, 0, 1)
	callee.Return(0, 1)
	calleeProto, err := callee.Finish()
	if err != nil {
		t.Fatal(err)
	}

	b := asm.NewBuilder("t", 0, false)
	k := b.Const(value.FuncVal(calleeProto))
	b.LoadConst(0, k)
	b.LoadInt(1, 41)
	b.CallSet(2, 0, 1)
	b.Return(2, 1)

	results := runProto(t, b)
	if len(results) != 1 || results[0].AsInt() != 42 {
		t.Fatalf("results = %v, want [42]", results)
	}
}

func TestCallSetKeepsOnlyFirstReturn(t *testing.T) {
	callee := asm.NewBuilder("two", 0, false)
	callee.LoadInt(0, 10)
	callee.LoadInt(1, 20)
	callee.Return(0, 2)
	calleeProto, err := callee.Finish()
	if err != nil {
		t.Fatal(err)
	}

	b := asm.NewBuilder("t", 0, false)
	k := b.Const(value.FuncVal(calleeProto))
	b.LoadConst(0, k)
	b.CallSet(1, 0, 0)
	b.Return(1, 1)

	results := runProto(t, b)
	if len(results) != 1 || results[0].AsInt() != 10 {
		t.Fatalf("results = %v, want [10] (CallSet discards all but the first return)", results)
	}
}

func TestVarargsPassthroughAndMultret(t *testing.T) {
	passthrough := asm.NewBuilder("passthrough", 0, true)
	passthrough.VarArgs(0, bytecode.MULTRET)
	passthrough.Return(0, bytecode.MULTRET)
	passthroughProto, err := passthrough.Finish()
	if err != nil {
		t.Fatal(err)
	}

	b := asm.NewBuilder("t", 0, false)
	k := b.Const(value.FuncVal(passthroughProto))
	b.LoadConst(0, k)
	b.LoadInt(1, 7)
	b.LoadInt(2, 8)
	b.LoadInt(3, 9)
	b.Call(0, 3, bytecode.MULTRET)
	b.Add(3, 0, 1)
	b.Add(3, 3, 2)
	b.Return(3, 1)

	results := runProto(t, b)
	if len(results) != 1 || results[0].AsInt() != 24 {
		t.Fatalf("results = %v, want [24]", results)
	}
}

func TestArithmeticTypeErrorPropagatesFromRun(t *testing.T) {
	b := asm.NewBuilder("t", 0, false)
	k := b.Const(value.Str("x"))
	b.LoadConst(0, k)
	b.LoadInt(1, 1)
	b.Add(2, 0, 1)
	b.Return(2, 1)

	proto, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New().Run(proto, nil); err == nil {
		t.Fatal("expected a type error adding a string and an integer")
	}
}

func TestCallingANonFunctionIsMalformedState(t *testing.T) {
	b := asm.NewBuilder("t", 0, false)
	b.LoadInt(0, 5)
	b.Call(0, 0, 0)
	b.Return(0, 0)

	proto, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New().Run(proto, nil); err == nil {
		t.Fatal("expected an error calling an integer value")
	}
}

func TestNativeFunctionBridge(t *testing.T) {
	b := asm.NewBuilder("t", 0, false)
	nameK := b.Const(value.Str("double"))
	b.GetGlobal(0, nameK)
	b.LoadInt(1, 21)
	b.CallSet(2, 0, 1)
	b.Return(2, 1)
	proto, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}

	s := New()
	s.SetGlobal("double", value.NativeVal(&value.NativeFunc{
		Name: "double",
		Fn: func(h value.Host) (int, error) {
			h.Push(value.Int(h.GetValue(1).AsInt() * 2))
			return 1, nil
		},
	}))

	results, err := s.Run(proto, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].AsInt() != 42 {
		t.Fatalf("results = %v, want [42]", results)
	}
}
