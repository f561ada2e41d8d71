package asm

import (
	"testing"

	"lucore/internal/bytecode"
	"lucore/internal/value"
)

func TestConstInterning(t *testing.T) {
	b := NewBuilder("t", 0, false)
	k0 := b.Const(value.Int(1))
	k1 := b.Const(value.Str("x"))
	if k0 != 0 || k1 != 1 {
		t.Fatalf("Const indices = %d, %d, want 0, 1", k0, k1)
	}
}

func TestForwardJumpResolvesAfterHere(t *testing.T) {
	b := NewBuilder("t", 0, false)
	b.LoadInt(0, 1)
	label := b.Label()
	b.Jump(label)
	b.LoadInt(1, 2) // skipped when the jump is taken
	b.Here(label)
	b.LoadInt(2, 3)
	b.Return(2, 1)

	proto, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	// Jump is instruction index 1; Here(label) binds at index 3.
	// Forward offset = target - (at+1) = 3 - 2 = 1.
	jmp := proto.ByteCodes[1]
	if jmp.Op != bytecode.OpJump || jmp.SBx != 1 {
		t.Errorf("jump instruction = %+v, want SBx=1", jmp)
	}
}

func TestBackwardJumpResolvesToLabel(t *testing.T) {
	b := NewBuilder("t", 0, false)
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

	proto, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	// ForLoop is at index 6, start is bound at index 5.
	// Backward offset = (at+1) - target = 7 - 5 = 2.
	loop := proto.ByteCodes[6]
	if loop.Op != bytecode.OpForLoop || loop.SBx != 2 {
		t.Errorf("forloop instruction = %+v, want SBx=2", loop)
	}
}

func TestFinishErrorsOnUnplacedLabel(t *testing.T) {
	b := NewBuilder("t", 0, false)
	label := b.Label()
	b.Jump(label)
	b.Return(0, 0)

	if _, err := b.Finish(); err == nil {
		t.Fatal("expected Finish to error on a label never bound with Here")
	}
}

func TestFinishErrorsOnOutOfRangeJump(t *testing.T) {
	b := NewBuilder("t", 0, false)
	label := b.Label()
	b.Jump(label)
	for i := 0; i < 70000; i++ {
		b.LoadNil(0, 1)
	}
	b.Here(label)
	b.Return(0, 0)

	if _, err := b.Finish(); err == nil {
		t.Fatal("expected Finish to error on an out-of-int16-range jump offset")
	}
}

func TestEqualEncodesPredicateInC(t *testing.T) {
	b := NewBuilder("t", 0, false)
	b.Equal(0, 1, true)
	b.Equal(0, 1, false)
	proto, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if proto.ByteCodes[0].C != 1 {
		t.Errorf("Equal(..., true).C = %d, want 1", proto.ByteCodes[0].C)
	}
	if proto.ByteCodes[1].C != 0 {
		t.Errorf("Equal(..., false).C = %d, want 0", proto.ByteCodes[1].C)
	}
}
