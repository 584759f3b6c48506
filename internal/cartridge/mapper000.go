package cartridge

// Mapper000 implements NROM (mapper 0)
// NROM is the simplest board with no bank switching:
// - 16KB or 32KB PRG ROM (16KB is mirrored to fill the 32KB window)
// - 8KB CHR ROM or CHR RAM
type Mapper000 struct {
	prgBanks int // Number of 16KB PRG banks (1 or 2)
	mirror   MirrorMode
}

func newMapper000(prgSize int, mirror MirrorMode) *Mapper000 {
	return &Mapper000{
		prgBanks: prgSize / prgBankSize,
		mirror:   mirror,
	}
}

// ID returns 0
func (m *Mapper000) ID() uint8 { return 0 }

// TranslatePRG maps $8000-$FFFF; a single 16KB bank appears twice
func (m *Mapper000) TranslatePRG(address uint16) int {
	offset := int(address - 0x8000)
	if m.prgBanks == 1 {
		offset &= 0x3FFF
	}
	return offset
}

// TranslateCHR maps pattern memory 1:1
func (m *Mapper000) TranslateCHR(address uint16) int {
	return int(address & 0x1FFF)
}

// Mirroring is fixed by the board
func (m *Mapper000) Mirroring() MirrorMode { return m.mirror }

// WriteRegister ignores writes; NROM has no registers
func (m *Mapper000) WriteRegister(address uint16, value uint8) {}

func (m *Mapper000) IRQPending() bool { return false }

func (m *Mapper000) ClockScanline() {}

func (m *Mapper000) saveState() MapperState { return MapperState{ID: 0} }

func (m *Mapper000) loadState(MapperState) {}
