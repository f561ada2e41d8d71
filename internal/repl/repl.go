// Package repl is an interactive front end over internal/demos and the
// execution core, grounded on the teacher's internal/repl/repl.go
// (bufio.Scanner prompt loop, "exit" to quit). The teacher's REPL fed
// each line through a lexer/parser/compiler before running it; this core
// has no such front end (spec §1's "out of scope" front end persists
// here too), so a line here names a demo to build and run instead of a
// line of source to compile.
package repl

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"lucore/internal/demos"
	"lucore/internal/diag"
	"lucore/internal/errors"
	"lucore/internal/natives/base"
	"lucore/internal/natives/db"
	"lucore/internal/natives/net"
	"lucore/internal/vm"
	"lucore/internal/vmerr"
)

// Start runs the interactive loop until the user types exit or EOF.
func Start(trace bool) {
	color := isatty.IsTerminal(os.Stdout.Fd())
	prompt := ">>> "
	if color {
		prompt = "\x1b[36m>>> \x1b[0m"
	}

	fmt.Println("lucore repl | type 'list' for demos, 'exit' to quit")

	s := vm.New()
	if trace {
		s.Tracer = diag.NewTracer(true, os.Stderr)
	}
	base.Register(s)
	db.Register(s)
	net.Register(s)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "exit", "quit":
			return
		case "list":
			for _, d := range demos.List() {
				fmt.Printf("  %-10s %s\n", d.Name, d.Description)
			}
		case "dump":
			if len(fields) != 2 {
				fmt.Println("usage: dump <demo>")
				continue
			}
			runLine(s, fields[1], true)
		default:
			runLine(s, fields[0], false)
		}
	}
}

func runLine(s *vm.ExeState, name string, dumpOnly bool) {
	d, ok := demos.Lookup(name)
	if !ok {
		fmt.Printf("unknown demo %q (type 'list' to see available demos)\n", name)
		return
	}
	proto, err := d.Build()
	if err != nil {
		fmt.Println(err)
		return
	}
	if dumpOnly {
		fmt.Print(proto.Disassemble())
		return
	}
	results, err := s.Run(proto, nil)
	if err != nil {
		if rt, ok := err.(*vmerr.RuntimeError); ok {
			fmt.Println(errors.FromRuntime(rt).Error())
		} else {
			fmt.Println(err)
		}
		return
	}
	for i, v := range results {
		fmt.Printf("[%d] %s\n", i, v.String())
	}
}
