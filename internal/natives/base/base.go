// Package base installs the execution core's always-available native
// functions: print (ported directly from the reference source's
// lib_print), typeof/tostring (the Host-side type-introspection a native
// bridge needs but the dispatch loop has no opcode for), and two
// library-backed examples, humanize_bytes and uuid, giving
// dustin/go-humanize and google/uuid a concrete home per SPEC_FULL.md §B.
package base

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"lucore/internal/value"
)

// Register installs every native function in this package as a global on
// h, matching the reference source's ExeState::new inserting "print" into
// globals before any program runs.
func Register(h interface{ SetGlobal(string, value.Value) }) {
	h.SetGlobal("print", value.NativeVal(&value.NativeFunc{Name: "print", Fn: libPrint}))
	h.SetGlobal("typeof", value.NativeVal(&value.NativeFunc{Name: "typeof", Fn: libTypeof}))
	h.SetGlobal("tostring", value.NativeVal(&value.NativeFunc{Name: "tostring", Fn: libTostring}))
	h.SetGlobal("humanize_bytes", value.NativeVal(&value.NativeFunc{Name: "humanize_bytes", Fn: libHumanizeBytes}))
	h.SetGlobal("uuid", value.NativeVal(&value.NativeFunc{Name: "uuid", Fn: libUUID}))
}

// libPrint is the direct generalization of the reference source's
// lib_print: join every argument's String() form with a tab and print a
// line, returning no values.
func libPrint(h value.Host) (int, error) {
	n := h.Top()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = h.GetValue(i).String()
	}
	fmt.Println(strings.Join(parts, "\t"))
	return 0, nil
}

// libTypeof pushes the type name of its single argument (spec §3.1's
// Kind, as seen from Lucore code).
func libTypeof(h value.Host) (int, error) {
	v := value.Nil()
	if h.Top() >= 1 {
		v = h.GetValue(1)
	}
	h.Push(value.Str(v.TypeName()))
	return 1, nil
}

// libTostring pushes the canonical String() rendering of its argument.
func libTostring(h value.Host) (int, error) {
	v := value.Nil()
	if h.Top() >= 1 {
		v = h.GetValue(1)
	}
	h.Push(value.Str(v.String()))
	return 1, nil
}

// libHumanizeBytes(n) -> a human-readable byte size string, e.g.
// humanize_bytes(1500000) -> "1.5 MB".
func libHumanizeBytes(h value.Host) (int, error) {
	v := h.GetValue(1)
	if v.Kind() != value.KInt {
		return 0, fmt.Errorf("humanize_bytes: expected an integer argument, got %s", v.TypeName())
	}
	h.Push(value.Str(humanize.Bytes(uint64(v.AsInt()))))
	return 1, nil
}

// libUUID() -> a freshly generated random UUID string.
func libUUID(h value.Host) (int, error) {
	h.Push(value.Str(uuid.NewString()))
	return 1, nil
}
