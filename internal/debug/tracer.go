package debug

import (
	"fmt"
	"io"
	"log"

	"nesemu/internal/cpu"
	"nesemu/internal/memory"
)

// Tracer logs every executed instruction in a nestest-like layout:
//
//	C000  4C F5 C5  JMP $C5F5        A:00 X:00 Y:00 P:24 SP:FD CYC:7
//
// It satisfies bus.Tracer.
type Tracer struct {
	logger  *log.Logger
	enabled bool
	limit   uint64 // 0 means unlimited
	count   uint64
}

// NewTracer creates a disabled tracer writing to w
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{logger: log.New(w, "[CPU_TRACE] ", 0)}
}

// SetEnabled switches tracing on or off
func (t *Tracer) SetEnabled(enabled bool) {
	t.enabled = enabled
}

// Enabled reports whether instructions are being logged
func (t *Tracer) Enabled() bool {
	return t.enabled
}

// SetLimit stops tracing after n instructions
func (t *Tracer) SetLimit(n uint64) {
	t.limit = n
}

// Count returns the number of instructions logged
func (t *Tracer) Count() uint64 {
	return t.count
}

// Trace logs the instruction about to execute
func (t *Tracer) Trace(c *cpu.CPU, mem *memory.Memory) {
	if !t.enabled || (t.limit > 0 && t.count >= t.limit) {
		return
	}
	t.count++
	t.logger.Print(FormatLine(c, mem.Peek))
}

// FormatLine renders one trace line for the instruction at the CPU's PC
func FormatLine(c *cpu.CPU, peek PeekFunc) string {
	text, size := Disassemble(peek, c.PC)
	return fmt.Sprintf("%04X  %-8s  %-16s A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d",
		c.PC, rawBytes(peek, c.PC, size), text, c.A, c.X, c.Y, c.GetStatusByte(), c.SP, c.Cycles())
}
