package cartridge

// Mapper003 implements CNROM (mapper 3): fixed PRG, 8KB CHR bank switching.
type Mapper003 struct {
	prgSize int
	chrSize int
	chrBank uint8
	mirror  MirrorMode
}

func newMapper003(prgSize, chrSize int, mirror MirrorMode) *Mapper003 {
	return &Mapper003{prgSize: prgSize, chrSize: chrSize, mirror: mirror}
}

// ID returns 3
func (m *Mapper003) ID() uint8 { return 3 }

// TranslatePRG mirrors a 16KB image like NROM does
func (m *Mapper003) TranslatePRG(address uint16) int {
	return int(address-0x8000) % m.prgSize
}

func (m *Mapper003) TranslateCHR(address uint16) int {
	return bank(int(m.chrBank), m.chrSize, chrBankSize)*chrBankSize + int(address&0x1FFF)
}

func (m *Mapper003) Mirroring() MirrorMode { return m.mirror }

func (m *Mapper003) WriteRegister(address uint16, value uint8) {
	m.chrBank = value & 0x03
}

func (m *Mapper003) IRQPending() bool { return false }

func (m *Mapper003) ClockScanline() {}

func (m *Mapper003) saveState() MapperState {
	return MapperState{ID: 3, Regs: []uint8{m.chrBank}}
}

func (m *Mapper003) loadState(s MapperState) {
	m.chrBank = regs(s, 1)[0]
}
