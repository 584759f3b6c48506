// Package cpu implements the 6502 CPU emulation for the NES.
package cpu

import "fmt"

// CPU constants
const (
	// Stack base address
	stackBase = 0x0100
	// Status register bit masks
	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01
	// Zero page mask
	zeroPageMask = 0xFF
	// Page boundary mask
	pageMask = 0xFF00
	// Interrupt vectors
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE

	interruptCycles = 7
	jamCycles       = 2
)

// DecodeError reports an opcode byte with no decode table entry. It is an
// emulator bug, not a guest program error.
type DecodeError struct {
	Opcode uint8
	PC     uint16
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("no decode entry for opcode $%02X at $%04X", e.Opcode, e.PC)
}

// CPU represents the 6502 processor used in the NES
type CPU struct {
	// Registers
	A  uint8  // Accumulator
	X  uint8  // X register
	Y  uint8  // Y register
	SP uint8  // Stack pointer
	PC uint16 // Program counter

	// Status register flags
	C bool // Carry
	Z bool // Zero
	I bool // Interrupt disable
	D bool // Decimal mode (stored, no effect on the 2A03)
	B bool // Break
	V bool // Overflow
	N bool // Negative

	memory MemoryInterface

	// Cycle counter, the machine's authoritative clock
	cycles uint64

	// Cycles billed on the next Step (OAM DMA)
	stall uint64

	// Set by a KIL/JAM opcode, cleared by Reset
	halted bool
}

// MemoryInterface defines the interface for CPU memory access
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// New creates a new CPU instance
func New(memory MemoryInterface) *CPU {
	return &CPU{
		memory: memory,
		SP:     0xFD,
	}
}

// Reset performs the 7-cycle reset sequence and loads PC from $FFFC
func (cpu *CPU) Reset() {
	cpu.A = 0x00
	cpu.X = 0x00
	cpu.Y = 0x00
	cpu.SP = 0xFD
	cpu.SetStatusByte(unusedMask | iFlagMask)
	cpu.halted = false
	cpu.stall = 0

	cpu.PC = cpu.readWord(resetVector)
	cpu.cycles += interruptCycles
}

// Step executes a single instruction and returns the cycles it took,
// including page-cross and branch penalties and any pending DMA stall.
func (cpu *CPU) Step() (uint64, error) {
	stall := cpu.stall
	cpu.stall = 0

	if cpu.halted {
		cpu.cycles += jamCycles + stall
		return jamCycles + stall, nil
	}

	pc := cpu.PC
	opcode := cpu.memory.Read(pc)
	instruction := instructionTable[opcode]
	if instruction == nil {
		return 0, &DecodeError{Opcode: opcode, PC: pc}
	}

	address, pageCrossed := cpu.getOperandAddress(instruction.Mode)

	extraCycles := cpu.executeInstruction(instruction, address, pageCrossed)
	if pageCrossed && instruction.PageCycle {
		extraCycles++
	}

	total := uint64(instruction.Cycles) + uint64(extraCycles) + stall
	cpu.cycles += total
	return total, nil
}

// getOperandAddress returns the effective address for the given addressing mode
// and whether a page boundary was crossed. PC is left on the next instruction.
func (cpu *CPU) getOperandAddress(mode AddressingMode) (uint16, bool) {
	switch mode {
	case Implied, Accumulator:
		cpu.PC++
		return 0, false

	case Immediate:
		address := cpu.PC + 1
		cpu.PC += 2
		return address, false

	case ZeroPage:
		address := uint16(cpu.memory.Read(cpu.PC + 1))
		cpu.PC += 2
		return address, false

	case ZeroPageX:
		base := cpu.memory.Read(cpu.PC + 1)
		cpu.PC += 2
		return uint16(base + cpu.X), false // Wrap within zero page

	case ZeroPageY:
		base := cpu.memory.Read(cpu.PC + 1)
		cpu.PC += 2
		return uint16(base + cpu.Y), false

	case Relative:
		offset := int8(cpu.memory.Read(cpu.PC + 1))
		cpu.PC += 2
		target := uint16(int32(cpu.PC) + int32(offset))
		return target, (cpu.PC & pageMask) != (target & pageMask)

	case Absolute:
		address := cpu.readWord(cpu.PC + 1)
		cpu.PC += 3
		return address, false

	case AbsoluteX:
		base := cpu.readWord(cpu.PC + 1)
		address := base + uint16(cpu.X)
		cpu.PC += 3
		return address, (base & pageMask) != (address & pageMask)

	case AbsoluteY:
		base := cpu.readWord(cpu.PC + 1)
		address := base + uint16(cpu.Y)
		cpu.PC += 3
		return address, (base & pageMask) != (address & pageMask)

	case Indirect: // Only used by JMP
		ptr := cpu.readWord(cpu.PC + 1)
		cpu.PC += 3
		// The high byte is fetched without carrying into the pointer's page
		low := uint16(cpu.memory.Read(ptr))
		high := uint16(cpu.memory.Read((ptr & pageMask) | ((ptr + 1) & zeroPageMask)))
		return (high << 8) | low, false

	case IndexedIndirect: // (zp,X)
		ptr := cpu.memory.Read(cpu.PC+1) + cpu.X
		cpu.PC += 2
		return cpu.readZeroPageWord(ptr), false

	case IndirectIndexed: // (zp),Y
		ptr := cpu.memory.Read(cpu.PC + 1)
		cpu.PC += 2
		base := cpu.readZeroPageWord(ptr)
		address := base + uint16(cpu.Y)
		return address, (base & pageMask) != (address & pageMask)
	}
	return 0, false
}

func (cpu *CPU) readWord(address uint16) uint16 {
	low := uint16(cpu.memory.Read(address))
	high := uint16(cpu.memory.Read(address + 1))
	return (high << 8) | low
}

// readZeroPageWord reads a pointer whose high byte wraps within zero page
func (cpu *CPU) readZeroPageWord(ptr uint8) uint16 {
	low := uint16(cpu.memory.Read(uint16(ptr)))
	high := uint16(cpu.memory.Read(uint16(ptr + 1)))
	return (high << 8) | low
}

// Stack operations
func (cpu *CPU) push(value uint8) {
	cpu.memory.Write(stackBase+uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pop() uint8 {
	cpu.SP++
	return cpu.memory.Read(stackBase + uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) {
	cpu.push(uint8(value >> 8))
	cpu.push(uint8(value & 0xFF))
}

func (cpu *CPU) popWord() uint16 {
	low := uint16(cpu.pop())
	high := uint16(cpu.pop())
	return (high << 8) | low
}

// setZN sets Zero and Negative flags based on value
func (cpu *CPU) setZN(value uint8) {
	cpu.Z = value == 0
	cpu.N = (value & nFlagMask) != 0
}

// interrupt pushes PC and status and jumps through vector
func (cpu *CPU) interrupt(vector uint16, breakFlag bool) {
	cpu.pushWord(cpu.PC)
	status := cpu.GetStatusByte() &^ bFlagMask
	if breakFlag {
		status |= bFlagMask
	}
	cpu.push(status | unusedMask)
	cpu.I = true
	cpu.PC = cpu.readWord(vector)
}

// NMI delivers a non-maskable interrupt and returns the cycles it took.
// The scheduler calls it between instructions.
func (cpu *CPU) NMI() uint64 {
	if cpu.halted {
		return 0
	}
	cpu.interrupt(nmiVector, false)
	cpu.cycles += interruptCycles
	return interruptCycles
}

// IRQ delivers a maskable interrupt. It returns 0 and does nothing while
// the interrupt-disable flag is set.
func (cpu *CPU) IRQ() uint64 {
	if cpu.I || cpu.halted {
		return 0
	}
	cpu.interrupt(irqVector, false)
	cpu.cycles += interruptCycles
	return interruptCycles
}

// AddStall bills extra cycles on the next Step
func (cpu *CPU) AddStall(cycles uint64) {
	cpu.stall += cycles
}

// Cycles returns the total number of CPU cycles executed
func (cpu *CPU) Cycles() uint64 {
	return cpu.cycles
}

// Halted reports whether a JAM opcode stopped the processor
func (cpu *CPU) Halted() bool {
	return cpu.halted
}

// GetStatusByte returns the status register as a byte. Bit 5 always reads as 1.
func (cpu *CPU) GetStatusByte() uint8 {
	status := uint8(unusedMask)
	if cpu.N {
		status |= nFlagMask
	}
	if cpu.V {
		status |= vFlagMask
	}
	if cpu.B {
		status |= bFlagMask
	}
	if cpu.D {
		status |= dFlagMask
	}
	if cpu.I {
		status |= iFlagMask
	}
	if cpu.Z {
		status |= zFlagMask
	}
	if cpu.C {
		status |= cFlagMask
	}
	return status
}

// SetStatusByte sets the status register from a byte
func (cpu *CPU) SetStatusByte(status uint8) {
	cpu.N = (status & nFlagMask) != 0
	cpu.V = (status & vFlagMask) != 0
	cpu.B = (status & bFlagMask) != 0
	cpu.D = (status & dFlagMask) != 0
	cpu.I = (status & iFlagMask) != 0
	cpu.Z = (status & zFlagMask) != 0
	cpu.C = (status & cFlagMask) != 0
}

// FlagsString returns the flags as NV-BDIZC with '-' for clear bits
func (cpu *CPU) FlagsString() string {
	const names = "NV-BDIZC"
	status := cpu.GetStatusByte()
	out := []byte("--------")
	for i := 0; i < 8; i++ {
		if i != 2 && status&(0x80>>i) != 0 {
			out[i] = names[i]
		}
	}
	return string(out)
}

// State is the register file captured by snapshots
type State struct {
	A, X, Y, SP, P uint8
	PC             uint16
	Cycles         uint64
	Stall          uint64
	Halted         bool
}

// SaveState captures the register file and clock
func (cpu *CPU) SaveState() State {
	return State{
		A:      cpu.A,
		X:      cpu.X,
		Y:      cpu.Y,
		SP:     cpu.SP,
		P:      cpu.GetStatusByte(),
		PC:     cpu.PC,
		Cycles: cpu.cycles,
		Stall:  cpu.stall,
		Halted: cpu.halted,
	}
}

// LoadState restores a captured register file
func (cpu *CPU) LoadState(s State) {
	cpu.A, cpu.X, cpu.Y, cpu.SP = s.A, s.X, s.Y, s.SP
	cpu.SetStatusByte(s.P)
	cpu.PC = s.PC
	cpu.cycles = s.Cycles
	cpu.stall = s.Stall
	cpu.halted = s.Halted
}
