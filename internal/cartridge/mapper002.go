package cartridge

// Mapper002 implements UxROM (mapper 2): a switchable 16KB bank at $8000
// and the last bank fixed at $C000. CHR is usually 8KB RAM.
type Mapper002 struct {
	prgSize  int
	prgBank  uint8
	lastBank int
	mirror   MirrorMode
}

func newMapper002(prgSize int, mirror MirrorMode) *Mapper002 {
	return &Mapper002{
		prgSize:  prgSize,
		lastBank: prgSize/prgBankSize - 1,
		mirror:   mirror,
	}
}

// ID returns 2
func (m *Mapper002) ID() uint8 { return 2 }

func (m *Mapper002) TranslatePRG(address uint16) int {
	if address < 0xC000 {
		return bank(int(m.prgBank), m.prgSize, prgBankSize)*prgBankSize + int(address-0x8000)
	}
	return m.lastBank*prgBankSize + int(address-0xC000)
}

func (m *Mapper002) TranslateCHR(address uint16) int {
	return int(address & 0x1FFF)
}

func (m *Mapper002) Mirroring() MirrorMode { return m.mirror }

// WriteRegister selects the $8000 bank from any write to $8000-$FFFF
func (m *Mapper002) WriteRegister(address uint16, value uint8) {
	m.prgBank = value & 0x0F
}

func (m *Mapper002) IRQPending() bool { return false }

func (m *Mapper002) ClockScanline() {}

func (m *Mapper002) saveState() MapperState {
	return MapperState{ID: 2, Regs: []uint8{m.prgBank}}
}

func (m *Mapper002) loadState(s MapperState) {
	m.prgBank = regs(s, 1)[0]
}
