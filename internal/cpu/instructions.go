package cpu

// AddressingMode selects how an instruction's operand is located
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

// Size returns the instruction length in bytes for the mode
func (m AddressingMode) Size() uint8 {
	switch m {
	case Implied, Accumulator:
		return 1
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 3
	default:
		return 2
	}
}

// Instruction represents a 6502 instruction
type Instruction struct {
	Name      string
	Opcode    uint8
	Bytes     uint8
	Cycles    uint8
	Mode      AddressingMode
	PageCycle bool // +1 cycle when an indexed read crosses a page
	Illegal   bool // not part of the documented instruction set
}

// instructionTable holds every one of the 256 opcodes
var instructionTable [256]*Instruction

// Decode returns the table entry for an opcode. It is a pure lookup.
func Decode(opcode uint8) (Instruction, bool) {
	inst := instructionTable[opcode]
	if inst == nil {
		return Instruction{}, false
	}
	return *inst, true
}

func def(opcode uint8, name string, mode AddressingMode, cycles uint8) *Instruction {
	inst := &Instruction{Name: name, Opcode: opcode, Bytes: mode.Size(), Cycles: cycles, Mode: mode}
	instructionTable[opcode] = inst
	return inst
}

// defP defines a read instruction that pays for page crossings
func defP(opcode uint8, name string, mode AddressingMode, cycles uint8) {
	def(opcode, name, mode, cycles).PageCycle = true
}

func defIllegal(opcode uint8, name string, mode AddressingMode, cycles uint8, pageCycle bool) {
	inst := def(opcode, name, mode, cycles)
	inst.PageCycle = pageCycle
	inst.Illegal = true
}

// defReadGroup defines the eight standard modes of ORA/AND/EOR/ADC/LDA/CMP/SBC
func defReadGroup(name string, imm, zp, zpx, abs, absx, absy, izx, izy uint8) {
	def(imm, name, Immediate, 2)
	def(zp, name, ZeroPage, 3)
	def(zpx, name, ZeroPageX, 4)
	def(abs, name, Absolute, 4)
	defP(absx, name, AbsoluteX, 4)
	defP(absy, name, AbsoluteY, 4)
	def(izx, name, IndexedIndirect, 6)
	defP(izy, name, IndirectIndexed, 5)
}

// defShiftGroup defines ASL/LSR/ROL/ROR/INC/DEC memory forms
func defShiftGroup(name string, zp, zpx, abs, absx uint8) {
	def(zp, name, ZeroPage, 5)
	def(zpx, name, ZeroPageX, 6)
	def(abs, name, Absolute, 6)
	def(absx, name, AbsoluteX, 7)
}

// defRMWIllegal defines the seven modes of SLO/RLA/SRE/RRA/DCP/ISB
func defRMWIllegal(name string, zp, zpx, abs, absx, absy, izx, izy uint8) {
	defIllegal(zp, name, ZeroPage, 5, false)
	defIllegal(zpx, name, ZeroPageX, 6, false)
	defIllegal(abs, name, Absolute, 6, false)
	defIllegal(absx, name, AbsoluteX, 7, false)
	defIllegal(absy, name, AbsoluteY, 7, false)
	defIllegal(izx, name, IndexedIndirect, 8, false)
	defIllegal(izy, name, IndirectIndexed, 8, false)
}

func init() {
	// Load/Store
	defReadGroup("LDA", 0xA9, 0xA5, 0xB5, 0xAD, 0xBD, 0xB9, 0xA1, 0xB1)
	def(0xA2, "LDX", Immediate, 2)
	def(0xA6, "LDX", ZeroPage, 3)
	def(0xB6, "LDX", ZeroPageY, 4)
	def(0xAE, "LDX", Absolute, 4)
	defP(0xBE, "LDX", AbsoluteY, 4)
	def(0xA0, "LDY", Immediate, 2)
	def(0xA4, "LDY", ZeroPage, 3)
	def(0xB4, "LDY", ZeroPageX, 4)
	def(0xAC, "LDY", Absolute, 4)
	defP(0xBC, "LDY", AbsoluteX, 4)

	def(0x85, "STA", ZeroPage, 3)
	def(0x95, "STA", ZeroPageX, 4)
	def(0x8D, "STA", Absolute, 4)
	def(0x9D, "STA", AbsoluteX, 5)
	def(0x99, "STA", AbsoluteY, 5)
	def(0x81, "STA", IndexedIndirect, 6)
	def(0x91, "STA", IndirectIndexed, 6)
	def(0x86, "STX", ZeroPage, 3)
	def(0x96, "STX", ZeroPageY, 4)
	def(0x8E, "STX", Absolute, 4)
	def(0x84, "STY", ZeroPage, 3)
	def(0x94, "STY", ZeroPageX, 4)
	def(0x8C, "STY", Absolute, 4)

	// Arithmetic and logic
	defReadGroup("ADC", 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71)
	defReadGroup("SBC", 0xE9, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1)
	defReadGroup("AND", 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31)
	defReadGroup("ORA", 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11)
	defReadGroup("EOR", 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51)
	defReadGroup("CMP", 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1)
	def(0xE0, "CPX", Immediate, 2)
	def(0xE4, "CPX", ZeroPage, 3)
	def(0xEC, "CPX", Absolute, 4)
	def(0xC0, "CPY", Immediate, 2)
	def(0xC4, "CPY", ZeroPage, 3)
	def(0xCC, "CPY", Absolute, 4)
	def(0x24, "BIT", ZeroPage, 3)
	def(0x2C, "BIT", Absolute, 4)

	// Shifts and read-modify-write
	def(0x0A, "ASL", Accumulator, 2)
	def(0x4A, "LSR", Accumulator, 2)
	def(0x2A, "ROL", Accumulator, 2)
	def(0x6A, "ROR", Accumulator, 2)
	defShiftGroup("ASL", 0x06, 0x16, 0x0E, 0x1E)
	defShiftGroup("LSR", 0x46, 0x56, 0x4E, 0x5E)
	defShiftGroup("ROL", 0x26, 0x36, 0x2E, 0x3E)
	defShiftGroup("ROR", 0x66, 0x76, 0x6E, 0x7E)
	defShiftGroup("INC", 0xE6, 0xF6, 0xEE, 0xFE)
	defShiftGroup("DEC", 0xC6, 0xD6, 0xCE, 0xDE)

	// Register and flag instructions
	for _, d := range []struct {
		op   uint8
		name string
	}{
		{0xE8, "INX"}, {0xCA, "DEX"}, {0xC8, "INY"}, {0x88, "DEY"},
		{0xAA, "TAX"}, {0x8A, "TXA"}, {0xA8, "TAY"}, {0x98, "TYA"},
		{0xBA, "TSX"}, {0x9A, "TXS"},
		{0x18, "CLC"}, {0x38, "SEC"}, {0x58, "CLI"}, {0x78, "SEI"},
		{0xB8, "CLV"}, {0xD8, "CLD"}, {0xF8, "SED"}, {0xEA, "NOP"},
	} {
		def(d.op, d.name, Implied, 2)
	}

	// Stack
	def(0x48, "PHA", Implied, 3)
	def(0x08, "PHP", Implied, 3)
	def(0x68, "PLA", Implied, 4)
	def(0x28, "PLP", Implied, 4)

	// Control flow
	def(0x4C, "JMP", Absolute, 3)
	def(0x6C, "JMP", Indirect, 5)
	def(0x20, "JSR", Absolute, 6)
	def(0x60, "RTS", Implied, 6)
	def(0x40, "RTI", Implied, 6)
	def(0x00, "BRK", Implied, 7)
	for op, name := range map[uint8]string{
		0x90: "BCC", 0xB0: "BCS", 0xD0: "BNE", 0xF0: "BEQ",
		0x10: "BPL", 0x30: "BMI", 0x50: "BVC", 0x70: "BVS",
	} {
		def(op, name, Relative, 2)
	}

	// Undocumented NOPs
	for _, op := range []uint8{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		defIllegal(op, "NOP", Implied, 2, false)
	}
	for _, op := range []uint8{0x80, 0x82, 0x89, 0xC2, 0xE2} {
		defIllegal(op, "NOP", Immediate, 2, false)
	}
	for _, op := range []uint8{0x04, 0x44, 0x64} {
		defIllegal(op, "NOP", ZeroPage, 3, false)
	}
	for _, op := range []uint8{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		defIllegal(op, "NOP", ZeroPageX, 4, false)
	}
	defIllegal(0x0C, "NOP", Absolute, 4, false)
	for _, op := range []uint8{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		defIllegal(op, "NOP", AbsoluteX, 4, true)
	}

	// Stable undocumented combinations
	defIllegal(0xA7, "LAX", ZeroPage, 3, false)
	defIllegal(0xB7, "LAX", ZeroPageY, 4, false)
	defIllegal(0xAF, "LAX", Absolute, 4, false)
	defIllegal(0xBF, "LAX", AbsoluteY, 4, true)
	defIllegal(0xA3, "LAX", IndexedIndirect, 6, false)
	defIllegal(0xB3, "LAX", IndirectIndexed, 5, true)
	defIllegal(0x87, "SAX", ZeroPage, 3, false)
	defIllegal(0x97, "SAX", ZeroPageY, 4, false)
	defIllegal(0x8F, "SAX", Absolute, 4, false)
	defIllegal(0x83, "SAX", IndexedIndirect, 6, false)
	defIllegal(0xEB, "SBC", Immediate, 2, false)
	defRMWIllegal("SLO", 0x07, 0x17, 0x0F, 0x1F, 0x1B, 0x03, 0x13)
	defRMWIllegal("RLA", 0x27, 0x37, 0x2F, 0x3F, 0x3B, 0x23, 0x33)
	defRMWIllegal("SRE", 0x47, 0x57, 0x4F, 0x5F, 0x5B, 0x43, 0x53)
	defRMWIllegal("RRA", 0x67, 0x77, 0x6F, 0x7F, 0x7B, 0x63, 0x73)
	defRMWIllegal("DCP", 0xC7, 0xD7, 0xCF, 0xDF, 0xDB, 0xC3, 0xD3)
	defRMWIllegal("ISB", 0xE7, 0xF7, 0xEF, 0xFF, 0xFB, 0xE3, 0xF3)
	defIllegal(0x0B, "ANC", Immediate, 2, false)
	defIllegal(0x2B, "ANC", Immediate, 2, false)
	defIllegal(0x4B, "ALR", Immediate, 2, false)
	defIllegal(0x6B, "ARR", Immediate, 2, false)
	defIllegal(0xCB, "AXS", Immediate, 2, false)

	// Unstable group, approximated
	defIllegal(0x8B, "XAA", Immediate, 2, false)
	defIllegal(0xAB, "LXA", Immediate, 2, false)
	defIllegal(0x9F, "SHA", AbsoluteY, 5, false)
	defIllegal(0x93, "SHA", IndirectIndexed, 6, false)
	defIllegal(0x9E, "SHX", AbsoluteY, 5, false)
	defIllegal(0x9C, "SHY", AbsoluteX, 5, false)
	defIllegal(0x9B, "TAS", AbsoluteY, 5, false)
	defIllegal(0xBB, "LAS", AbsoluteY, 4, true)

	// KIL/JAM
	for _, op := range []uint8{0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2} {
		defIllegal(op, "KIL", Implied, 2, false)
	}
}
