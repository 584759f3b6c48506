// Package debug provides the disassembler, the CPU trace logger and frame
// dumping used while diagnosing cartridges.
package debug

import (
	"fmt"

	"nesemu/internal/cpu"
)

// PeekFunc reads memory without side effects
type PeekFunc func(address uint16) uint8

// Disassemble decodes the instruction at pc. It returns the assembly text
// and the instruction length. Undocumented opcodes are prefixed with '*'.
func Disassemble(peek PeekFunc, pc uint16) (string, uint8) {
	opcode := peek(pc)
	inst, ok := cpu.Decode(opcode)
	if !ok {
		return fmt.Sprintf(".byte $%02X", opcode), 1
	}

	name := inst.Name
	if inst.Illegal {
		name = "*" + name
	}

	lo := peek(pc + 1)
	word := uint16(peek(pc+2))<<8 | uint16(lo)

	var operand string
	switch inst.Mode {
	case cpu.Implied:
	case cpu.Accumulator:
		operand = "A"
	case cpu.Immediate:
		operand = fmt.Sprintf("#$%02X", lo)
	case cpu.ZeroPage:
		operand = fmt.Sprintf("$%02X", lo)
	case cpu.ZeroPageX:
		operand = fmt.Sprintf("$%02X,X", lo)
	case cpu.ZeroPageY:
		operand = fmt.Sprintf("$%02X,Y", lo)
	case cpu.Relative:
		operand = fmt.Sprintf("$%04X", pc+2+uint16(int8(lo)))
	case cpu.Absolute:
		operand = fmt.Sprintf("$%04X", word)
	case cpu.AbsoluteX:
		operand = fmt.Sprintf("$%04X,X", word)
	case cpu.AbsoluteY:
		operand = fmt.Sprintf("$%04X,Y", word)
	case cpu.Indirect:
		operand = fmt.Sprintf("($%04X)", word)
	case cpu.IndexedIndirect:
		operand = fmt.Sprintf("($%02X,X)", lo)
	case cpu.IndirectIndexed:
		operand = fmt.Sprintf("($%02X),Y", lo)
	}

	if operand == "" {
		return name, inst.Bytes
	}
	return name + " " + operand, inst.Bytes
}

// DisassembleRange lists count instructions starting at pc, one per line
// with address and raw bytes
func DisassembleRange(peek PeekFunc, pc uint16, count int) []string {
	lines := make([]string, 0, count)
	for i := 0; i < count; i++ {
		text, size := Disassemble(peek, pc)
		lines = append(lines, fmt.Sprintf("%04X  %-8s  %s", pc, rawBytes(peek, pc, size), text))
		pc += uint16(size)
	}
	return lines
}

func rawBytes(peek PeekFunc, pc uint16, size uint8) string {
	switch size {
	case 1:
		return fmt.Sprintf("%02X", peek(pc))
	case 2:
		return fmt.Sprintf("%02X %02X", peek(pc), peek(pc+1))
	}
	return fmt.Sprintf("%02X %02X %02X", peek(pc), peek(pc+1), peek(pc+2))
}
