package cartridge

// Mapper001 implements MMC1 (SxROM, mapper 1)
//
// Registers are loaded one bit at a time through a 5-bit shift register.
// The fifth write selects the target register by address bits 13-14:
// $8000 control, $A000 CHR bank 0, $C000 CHR bank 1, $E000 PRG bank.
// Writing a value with bit 7 set resets the shift register and forces
// PRG mode 3.
type Mapper001 struct {
	prgSize int
	chrSize int

	shift   uint8
	control uint8
	chr0    uint8
	chr1    uint8
	prg     uint8
}

const mmc1ShiftReset = 0x10

func newMapper001(prgSize, chrSize int) *Mapper001 {
	return &Mapper001{
		prgSize: prgSize,
		chrSize: chrSize,
		shift:   mmc1ShiftReset,
		control: 0x0C, // PRG mode 3: last bank fixed at $C000
	}
}

// ID returns 1
func (m *Mapper001) ID() uint8 { return 1 }

// WriteRegister feeds the serial port
func (m *Mapper001) WriteRegister(address uint16, value uint8) {
	if value&0x80 != 0 {
		m.shift = mmc1ShiftReset
		m.control |= 0x0C
		return
	}

	complete := m.shift&1 != 0
	m.shift = (m.shift >> 1) | ((value & 1) << 4)
	if !complete {
		return
	}

	data := m.shift
	m.shift = mmc1ShiftReset
	switch (address >> 13) & 0x03 {
	case 0:
		m.control = data
	case 1:
		m.chr0 = data
	case 2:
		m.chr1 = data
	case 3:
		m.prg = data
	}
}

func (m *Mapper001) prgMode() uint8 { return (m.control >> 2) & 0x03 }

// TranslatePRG resolves the 16KB or 32KB PRG window
func (m *Mapper001) TranslatePRG(address uint16) int {
	selected := int(m.prg & 0x0F)
	last := m.prgSize/prgBankSize - 1

	switch m.prgMode() {
	case 0, 1:
		b := bank(selected>>1, m.prgSize, 0x8000)
		return (b*0x8000 + int(address-0x8000)) % m.prgSize
	case 2:
		if address < 0xC000 {
			return int(address - 0x8000)
		}
		return bank(selected, m.prgSize, prgBankSize)*prgBankSize + int(address-0xC000)
	default:
		if address < 0xC000 {
			return bank(selected, m.prgSize, prgBankSize)*prgBankSize + int(address-0x8000)
		}
		return last*prgBankSize + int(address-0xC000)
	}
}

// TranslateCHR resolves one 8KB or two 4KB pattern windows
func (m *Mapper001) TranslateCHR(address uint16) int {
	address &= 0x1FFF
	if m.control&0x10 == 0 {
		b := bank(int(m.chr0>>1), m.chrSize, 0x2000)
		return (b*0x2000 + int(address)) % m.chrSize
	}
	if address < 0x1000 {
		return bank(int(m.chr0), m.chrSize, 0x1000)*0x1000 + int(address)
	}
	return bank(int(m.chr1), m.chrSize, 0x1000)*0x1000 + int(address-0x1000)
}

// Mirroring decodes control bits 0-1
func (m *Mapper001) Mirroring() MirrorMode {
	switch m.control & 0x03 {
	case 0:
		return MirrorSingleScreen0
	case 1:
		return MirrorSingleScreen1
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}

func (m *Mapper001) IRQPending() bool { return false }

func (m *Mapper001) ClockScanline() {}

func (m *Mapper001) saveState() MapperState {
	return MapperState{ID: 1, Regs: []uint8{m.shift, m.control, m.chr0, m.chr1, m.prg}}
}

func (m *Mapper001) loadState(s MapperState) {
	r := regs(s, 5)
	m.shift, m.control, m.chr0, m.chr1, m.prg = r[0], r[1], r[2], r[3], r[4]
}
