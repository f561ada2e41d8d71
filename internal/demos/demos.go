// Package demos hand-assembles a handful of small FuncProtos via
// internal/asm, one per execution-core feature area (§4 of the
// specification), for the CLI's run/dump subcommands to exercise since
// this repo has no front-end compiler of its own (spec §1 treats source
// compilation as out of scope) — the same role the reference source's
// ch08 main() plays, hand-building a FuncProto literal rather than
// parsing one.
package demos

import (
	"fmt"
	"sort"

	"lucore/internal/asm"
	"lucore/internal/bytecode"
	"lucore/internal/value"
)

// Demo names a buildable program and its one-line description, shown by
// the CLI's usage text and `lucore repl`'s `list` command.
type Demo struct {
	Name        string
	Description string
	Build       func() (*bytecode.FuncProto, error)
}

var registry = []Demo{
	{"arith", "integer/float arithmetic and promotion: (3 + 4) * 2.5", buildArith},
	{"forloop", "numeric for loop: sum of 1..10", buildForLoop},
	{"table", "table construction and indexing: {10, 20, 30}[2]", buildTable},
	{"concat", "string/number concatenation: \"score: \" .. 42", buildConcat},
	{"call", "calling a Lucore function value: add_one(41)", buildCall},
	{"varargs", "variadic pass-through and MULTRET propagation", buildVarargs},
	{"print", "calling the print native function", buildPrint},
}

// List returns every demo name in stable order.
func List() []Demo {
	out := make([]Demo, len(registry))
	copy(out, registry)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a demo by name.
func Lookup(name string) (Demo, bool) {
	for _, d := range registry {
		if d.Name == name {
			return d, true
		}
	}
	return Demo{}, false
}

func buildArith() (*bytecode.FuncProto, error) {
	b := asm.NewBuilder("arith", 0, false)
	b.LoadInt(0, 3)
	b.LoadInt(1, 4)
	b.Add(2, 0, 1) // r2 = 7
	k := b.Const(value.Float(2.5))
	b.MulConst(2, 2, k) // r2 = 17.5
	b.Return(2, 1)
	return b.Finish()
}

func buildForLoop() (*bytecode.FuncProto, error) {
	b := asm.NewBuilder("forloop", 0, false)
	b.LoadInt(0, 0)  // sum
	b.LoadInt(1, 1)  // i
	b.LoadInt(2, 10) // limit
	b.LoadInt(3, 1)  // step

	end := b.Label()
	b.ForPrepare(1, end)
	start := b.Label()
	b.Here(start)
	b.Add(0, 0, 1) // sum = sum + i
	b.ForLoop(1, start)
	b.Here(end)
	b.Return(0, 1)
	return b.Finish()
}

func buildTable() (*bytecode.FuncProto, error) {
	b := asm.NewBuilder("table", 0, false)
	b.NewTable(0, 3, 0)
	b.LoadInt(1, 10)
	b.LoadInt(2, 20)
	b.LoadInt(3, 30)
	b.SetList(0, 3)
	b.GetInt(4, 0, 2) // r4 = table[2] = 20
	b.Return(4, 1)
	return b.Finish()
}

func buildConcat() (*bytecode.FuncProto, error) {
	b := asm.NewBuilder("concat", 0, false)
	k := b.Const(value.Str("score: "))
	b.LoadConst(0, k)
	b.LoadInt(1, 42)
	b.Concat(2, 0, 1)
	b.Return(2, 1)
	return b.Finish()
}

func buildCall() (*bytecode.FuncProto, error) {
	callee := asm.NewBuilder("add_one", 1, false)
	callee.AddInt(0, 0, 1) // r0 = param + 1
	callee.Return(0, 1)
	calleeProto, err := callee.Finish()
	if err != nil {
		return nil, fmt.Errorf("building add_one: %w", err)
	}

	b := asm.NewBuilder("call", 0, false)
	k := b.Const(value.FuncVal(calleeProto))
	b.LoadConst(0, k)
	b.LoadInt(1, 41)
	b.CallSet(2, 0, 1) // r2 = add_one(41)
	b.Return(2, 1)
	return b.Finish()
}

func buildVarargs() (*bytecode.FuncProto, error) {
	passthrough := asm.NewBuilder("passthrough", 0, true)
	passthrough.VarArgs(0, bytecode.MULTRET)
	passthrough.Return(0, bytecode.MULTRET)
	passthroughProto, err := passthrough.Finish()
	if err != nil {
		return nil, fmt.Errorf("building passthrough: %w", err)
	}

	b := asm.NewBuilder("varargs", 0, false)
	k := b.Const(value.FuncVal(passthroughProto))
	b.LoadConst(0, k)
	b.LoadInt(1, 7)
	b.LoadInt(2, 8)
	b.LoadInt(3, 9)
	b.Call(0, 3, bytecode.MULTRET) // r0,r1,r2 = 7,8,9 (round-tripped through varargs)
	b.Add(3, 0, 1)
	b.Add(3, 3, 2)
	b.Return(3, 1)
	return b.Finish()
}

func buildPrint() (*bytecode.FuncProto, error) {
	b := asm.NewBuilder("print_demo", 0, false)
	nameK := b.Const(value.Str("print"))
	b.GetGlobal(0, nameK)
	msgK := b.Const(value.Str("hello from lucore"))
	b.LoadConst(1, msgK)
	b.LoadInt(2, 42)
	b.Call(0, 2, 0)
	b.Return(0, 0)
	return b.Finish()
}
