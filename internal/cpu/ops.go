package cpu

// executeInstruction runs the operation for a decoded instruction and returns
// extra cycles beyond the table cost (taken branches only; page-cross
// penalties for reads are added by Step).
func (cpu *CPU) executeInstruction(inst *Instruction, address uint16, pageCrossed bool) uint8 {
	acc := inst.Mode == Accumulator

	switch inst.Name {
	// Load/Store
	case "LDA":
		cpu.A = cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case "LDX":
		cpu.X = cpu.memory.Read(address)
		cpu.setZN(cpu.X)
	case "LDY":
		cpu.Y = cpu.memory.Read(address)
		cpu.setZN(cpu.Y)
	case "STA":
		cpu.memory.Write(address, cpu.A)
	case "STX":
		cpu.memory.Write(address, cpu.X)
	case "STY":
		cpu.memory.Write(address, cpu.Y)

	// Arithmetic
	case "ADC":
		cpu.adc(cpu.memory.Read(address))
	case "SBC":
		cpu.adc(cpu.memory.Read(address) ^ 0xFF)
	case "AND":
		cpu.A &= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case "ORA":
		cpu.A |= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case "EOR":
		cpu.A ^= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case "CMP":
		cpu.compare(cpu.A, cpu.memory.Read(address))
	case "CPX":
		cpu.compare(cpu.X, cpu.memory.Read(address))
	case "CPY":
		cpu.compare(cpu.Y, cpu.memory.Read(address))
	case "BIT":
		value := cpu.memory.Read(address)
		cpu.Z = cpu.A&value == 0
		cpu.V = value&vFlagMask != 0
		cpu.N = value&nFlagMask != 0

	// Shifts, rotates and read-modify-write
	case "ASL":
		cpu.modify(acc, address, cpu.asl)
	case "LSR":
		cpu.modify(acc, address, cpu.lsr)
	case "ROL":
		cpu.modify(acc, address, cpu.rol)
	case "ROR":
		cpu.modify(acc, address, cpu.ror)
	case "INC":
		cpu.modify(false, address, func(v uint8) uint8 { return v + 1 })
	case "DEC":
		cpu.modify(false, address, func(v uint8) uint8 { return v - 1 })

	// Register operations
	case "INX":
		cpu.X++
		cpu.setZN(cpu.X)
	case "DEX":
		cpu.X--
		cpu.setZN(cpu.X)
	case "INY":
		cpu.Y++
		cpu.setZN(cpu.Y)
	case "DEY":
		cpu.Y--
		cpu.setZN(cpu.Y)
	case "TAX":
		cpu.X = cpu.A
		cpu.setZN(cpu.X)
	case "TXA":
		cpu.A = cpu.X
		cpu.setZN(cpu.A)
	case "TAY":
		cpu.Y = cpu.A
		cpu.setZN(cpu.Y)
	case "TYA":
		cpu.A = cpu.Y
		cpu.setZN(cpu.A)
	case "TSX":
		cpu.X = cpu.SP
		cpu.setZN(cpu.X)
	case "TXS":
		cpu.SP = cpu.X

	// Stack
	case "PHA":
		cpu.push(cpu.A)
	case "PHP":
		cpu.push(cpu.GetStatusByte() | bFlagMask) // B is set when pushed by BRK/PHP
	case "PLA":
		cpu.A = cpu.pop()
		cpu.setZN(cpu.A)
	case "PLP":
		cpu.pullStatus()

	// Flags
	case "CLC":
		cpu.C = false
	case "SEC":
		cpu.C = true
	case "CLI":
		cpu.I = false
	case "SEI":
		cpu.I = true
	case "CLV":
		cpu.V = false
	case "CLD":
		cpu.D = false
	case "SED":
		cpu.D = true

	// Control flow
	case "JMP":
		cpu.PC = address
	case "JSR":
		cpu.pushWord(cpu.PC - 1)
		cpu.PC = address
	case "RTS":
		cpu.PC = cpu.popWord() + 1
	case "RTI":
		cpu.pullStatus()
		cpu.PC = cpu.popWord()
	case "BRK":
		cpu.PC++ // padding byte
		cpu.interrupt(irqVector, true)
	case "BCC":
		return cpu.branch(!cpu.C, address, pageCrossed)
	case "BCS":
		return cpu.branch(cpu.C, address, pageCrossed)
	case "BNE":
		return cpu.branch(!cpu.Z, address, pageCrossed)
	case "BEQ":
		return cpu.branch(cpu.Z, address, pageCrossed)
	case "BPL":
		return cpu.branch(!cpu.N, address, pageCrossed)
	case "BMI":
		return cpu.branch(cpu.N, address, pageCrossed)
	case "BVC":
		return cpu.branch(!cpu.V, address, pageCrossed)
	case "BVS":
		return cpu.branch(cpu.V, address, pageCrossed)

	case "NOP":
		if inst.Mode != Implied {
			cpu.memory.Read(address) // multi-byte NOPs still read their operand
		}

	default:
		cpu.executeIllegal(inst, address)
	}
	return 0
}

// executeIllegal handles the undocumented opcodes
func (cpu *CPU) executeIllegal(inst *Instruction, address uint16) {
	switch inst.Name {
	case "LAX":
		cpu.A = cpu.memory.Read(address)
		cpu.X = cpu.A
		cpu.setZN(cpu.A)
	case "SAX":
		cpu.memory.Write(address, cpu.A&cpu.X)
	case "DCP":
		value := cpu.memory.Read(address) - 1
		cpu.memory.Write(address, value)
		cpu.compare(cpu.A, value)
	case "ISB":
		value := cpu.memory.Read(address) + 1
		cpu.memory.Write(address, value)
		cpu.adc(value ^ 0xFF)
	case "SLO":
		value := cpu.asl(cpu.memory.Read(address))
		cpu.memory.Write(address, value)
		cpu.A |= value
		cpu.setZN(cpu.A)
	case "RLA":
		value := cpu.rol(cpu.memory.Read(address))
		cpu.memory.Write(address, value)
		cpu.A &= value
		cpu.setZN(cpu.A)
	case "SRE":
		value := cpu.lsr(cpu.memory.Read(address))
		cpu.memory.Write(address, value)
		cpu.A ^= value
		cpu.setZN(cpu.A)
	case "RRA":
		value := cpu.ror(cpu.memory.Read(address))
		cpu.memory.Write(address, value)
		cpu.adc(value)
	case "ANC":
		cpu.A &= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
		cpu.C = cpu.N
	case "ALR":
		cpu.A = cpu.lsr(cpu.A & cpu.memory.Read(address))
	case "ARR":
		value := cpu.A & cpu.memory.Read(address)
		cpu.A = value >> 1
		if cpu.C {
			cpu.A |= 0x80
		}
		cpu.setZN(cpu.A)
		cpu.C = cpu.A&0x40 != 0
		cpu.V = (cpu.A>>6)&1 != (cpu.A>>5)&1
	case "AXS":
		value := cpu.memory.Read(address)
		ax := cpu.A & cpu.X
		cpu.C = ax >= value
		cpu.X = ax - value
		cpu.setZN(cpu.X)

	// Unstable on hardware; the magic constant and high-byte terms follow
	// the behavior most commonly observed.
	case "XAA":
		cpu.A = (cpu.A | 0xEE) & cpu.X & cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case "LXA":
		cpu.A = (cpu.A | 0xEE) & cpu.memory.Read(address)
		cpu.X = cpu.A
		cpu.setZN(cpu.A)
	case "SHA":
		cpu.storeHigh(address, cpu.Y, cpu.A&cpu.X)
	case "SHX":
		cpu.storeHigh(address, cpu.Y, cpu.X)
	case "SHY":
		cpu.storeHigh(address, cpu.X, cpu.Y)
	case "TAS":
		cpu.SP = cpu.A & cpu.X
		cpu.storeHigh(address, cpu.Y, cpu.SP)
	case "LAS":
		value := cpu.memory.Read(address) & cpu.SP
		cpu.A, cpu.X, cpu.SP = value, value, value
		cpu.setZN(value)

	case "KIL":
		cpu.PC-- // stay on the JAM byte
		cpu.halted = true
	}
}

// adc adds with carry in binary mode; the 2A03 has no decimal mode
func (cpu *CPU) adc(value uint8) {
	var carry uint16
	if cpu.C {
		carry = 1
	}
	result := uint16(cpu.A) + uint16(value) + carry
	// Overflow when both inputs share a sign the result does not
	cpu.V = (cpu.A^uint8(result))&(value^uint8(result))&0x80 != 0
	cpu.C = result > 0xFF
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
}

func (cpu *CPU) compare(register, value uint8) {
	cpu.C = register >= value
	cpu.setZN(register - value)
}

// modify applies a read-modify-write operation to A or memory
func (cpu *CPU) modify(accumulator bool, address uint16, op func(uint8) uint8) {
	if accumulator {
		cpu.A = op(cpu.A)
		cpu.setZN(cpu.A)
		return
	}
	value := op(cpu.memory.Read(address))
	cpu.memory.Write(address, value)
	cpu.setZN(value)
}

func (cpu *CPU) asl(value uint8) uint8 {
	cpu.C = value&0x80 != 0
	value <<= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) lsr(value uint8) uint8 {
	cpu.C = value&0x01 != 0
	value >>= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) rol(value uint8) uint8 {
	oldCarry := cpu.C
	cpu.C = value&0x80 != 0
	value <<= 1
	if oldCarry {
		value |= 0x01
	}
	cpu.setZN(value)
	return value
}

func (cpu *CPU) ror(value uint8) uint8 {
	oldCarry := cpu.C
	cpu.C = value&0x01 != 0
	value >>= 1
	if oldCarry {
		value |= 0x80
	}
	cpu.setZN(value)
	return value
}

// branch returns 1 extra cycle when taken, 2 when the target is on another page
func (cpu *CPU) branch(condition bool, target uint16, pageCrossed bool) uint8 {
	if !condition {
		return 0
	}
	cpu.PC = target
	if pageCrossed {
		return 2
	}
	return 1
}

// pullStatus restores flags from the stack; the break bit is not a real flag
func (cpu *CPU) pullStatus() {
	cpu.SetStatusByte(cpu.pop())
	cpu.B = false
}

// storeHigh implements the SHA/SHX/SHY/TAS store: the value is ANDed with
// the base address high byte plus one, and a page crossing replaces the
// target high byte with the stored value.
func (cpu *CPU) storeHigh(address uint16, index uint8, value uint8) {
	base := address - uint16(index)
	value &= uint8(base>>8) + 1
	if (base & pageMask) != (address & pageMask) {
		address = uint16(value)<<8 | address&0x00FF
	}
	cpu.memory.Write(address, value)
}
