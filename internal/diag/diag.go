// Package diag is the execution core's optional instruction tracer. The
// reference source traces unconditionally with a bare
// println!("[{pc}] {:?}", ...) before every dispatch; this keeps that
// same one-line-per-instruction shape but makes it opt-in and routed
// through a real *log.Logger, so the CLI's --trace flag is the only
// thing that turns it on (spec §A.2).
package diag

import (
	"io"
	"log"
	"os"

	"lucore/internal/bytecode"
)

// Tracer logs one line per dispatched instruction when enabled, and does
// nothing at all when not — the hot path never pays for a disabled
// tracer beyond a single boolean check.
type Tracer struct {
	enabled bool
	logger  *log.Logger
}

// NewTracer builds a tracer writing to w. A nil w defaults to os.Stderr.
func NewTracer(enabled bool, w io.Writer) *Tracer {
	if w == nil {
		w = os.Stderr
	}
	return &Tracer{enabled: enabled, logger: log.New(w, "", 0)}
}

// Disabled is a Tracer with instruction tracing off but still able to
// log free-form notices via Printf, for callers that don't want to
// thread a --trace flag through at all.
func Disabled() *Tracer { return NewTracer(false, nil) }

func (t *Tracer) Enabled() bool { return t != nil && t.enabled }

// Step logs the instruction about to execute at pc.
func (t *Tracer) Step(pc int, ins bytecode.Instruction) {
	if !t.Enabled() {
		return
	}
	t.logger.Printf("[%d]\t%s A=%d B=%d C=%d Bx=%d SBx=%d", pc, ins.Op, ins.A, ins.B, ins.C, ins.Bx, ins.SBx)
}

// Printf logs a free-form diagnostic line regardless of trace mode —
// used for REPL/CLI-level notices, not the per-instruction trace.
func (t *Tracer) Printf(format string, args ...interface{}) {
	t.logger.Printf(format, args...)
}
