// cmd/lucore is the execution core's CLI: hand-parsed os.Args
// subcommands, matching the teacher's cmd/sentra/main.go alias-map +
// switch dispatch rather than a flags/viper layer (SPEC_FULL.md §A.3).
// Since this repo has no source-level compiler, `run` and `dump` operate
// on the named demos in internal/demos rather than a source file path.
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"lucore/internal/demos"
	"lucore/internal/diag"
	"lucore/internal/errors"
	"lucore/internal/natives/base"
	"lucore/internal/natives/db"
	"lucore/internal/natives/net"
	"lucore/internal/repl"
	"lucore/internal/vm"
	"lucore/internal/vmerr"
)

const version = "0.1.0"

// commandAliases mirrors the teacher's single-letter shortcuts.
var commandAliases = map[string]string{
	"r": "run",
	"i": "repl",
	"d": "dump",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}
	rest := args[1:]

	trace := false
	filtered := rest[:0:0]
	for _, a := range rest {
		if a == "--trace" {
			trace = true
			continue
		}
		filtered = append(filtered, a)
	}

	switch cmd {
	case "run":
		runCommand(filtered, trace)
	case "dump":
		dumpCommand(filtered)
	case "repl":
		repl.Start(trace)
	case "help", "--help", "-h":
		usage()
	case "version", "--version", "-v":
		fmt.Println("lucore " + version)
	default:
		usage()
		os.Exit(1)
	}
}

func newState(trace bool) *vm.ExeState {
	s := vm.New()
	if trace {
		s.Tracer = diag.NewTracer(true, os.Stderr)
	}
	base.Register(s)
	db.Register(s)
	net.Register(s)
	return s
}

func runCommand(args []string, trace bool) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: lucore run [--trace] <demo>")
		listDemos()
		os.Exit(1)
	}
	d, ok := demos.Lookup(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "lucore run: unknown demo %q\n", args[0])
		listDemos()
		os.Exit(1)
	}
	proto, err := d.Build()
	if err != nil {
		fatal(err)
	}

	s := newState(trace)
	results, err := s.Run(proto, nil)
	if err != nil {
		fatal(err)
	}
	for i, v := range results {
		fmt.Printf("[%d] %s\n", i, v.String())
	}
}

func dumpCommand(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: lucore dump <demo>")
		listDemos()
		os.Exit(1)
	}
	d, ok := demos.Lookup(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "lucore dump: unknown demo %q\n", args[0])
		listDemos()
		os.Exit(1)
	}
	proto, err := d.Build()
	if err != nil {
		fatal(err)
	}
	fmt.Print(proto.Disassemble())
}

func listDemos() {
	fmt.Fprintln(os.Stderr, "available demos:")
	for _, d := range demos.List() {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", d.Name, d.Description)
	}
}

// fatal converts a core abort into a presentation-layer LucoreError
// (spec §7 REDESIGN FLAG) and exits non-zero. Apart from the REPL, which
// prints an abort and keeps running, this is the only place a runtime
// abort is printed to a user instead of returned.
func fatal(err error) {
	if rt, ok := err.(*vmerr.RuntimeError); ok {
		fmt.Fprintln(os.Stderr, errors.FromRuntime(rt).Error())
	} else {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	}
	os.Exit(1)
}

func usage() {
	color := isatty.IsTerminal(os.Stdout.Fd())
	title := "lucore"
	if color {
		title = "\x1b[1mlucore\x1b[0m"
	}
	fmt.Printf("%s — a register-based bytecode VM execution core\n\n", title)
	fmt.Println("usage: lucore <command> [--trace] [args]")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  run (r) <demo>    build and execute a demo program")
	fmt.Println("  dump (d) <demo>   disassemble a demo program")
	fmt.Println("  repl (i)          interactive demo runner")
	fmt.Println("  version           print the version")
	fmt.Println()
	listDemos()
}
