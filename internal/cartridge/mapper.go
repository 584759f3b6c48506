package cartridge

import "fmt"

// Mapper is the bank-switching chip of a cartridge board.
//
// The set of implementations is closed: the unexported state methods keep
// types outside this package from satisfying the interface. Translation is
// pure; it maps a CPU or PPU address to an offset into the physical image
// and never copies bank data.
type Mapper interface {
	// ID returns the iNES mapper number
	ID() uint8
	// TranslatePRG maps $8000-$FFFF to a PRG ROM offset
	TranslatePRG(address uint16) int
	// TranslateCHR maps $0000-$1FFF to a CHR ROM/RAM offset
	TranslateCHR(address uint16) int
	// Mirroring returns the nametable arrangement currently selected
	Mirroring() MirrorMode
	// WriteRegister handles a CPU write to $8000-$FFFF
	WriteRegister(address uint16, value uint8)
	// IRQPending reports the level of the mapper's IRQ line
	IRQPending() bool
	// ClockScanline is called once per rendered scanline by the PPU
	ClockScanline()

	saveState() MapperState
	loadState(MapperState)
}

// MapperState is a flat record of mapper registers used by snapshots
type MapperState struct {
	ID   uint8
	Regs []uint8

	IRQLatch   uint8
	IRQCounter uint8
	IRQEnabled bool
	IRQReload  bool
	IRQPending bool
}

// newMapper builds the mapper for the given id
func newMapper(id uint8, prgSize, chrSize int, mirror MirrorMode) (Mapper, error) {
	switch id {
	case 0:
		return newMapper000(prgSize, mirror), nil
	case 1:
		return newMapper001(prgSize, chrSize), nil
	case 2:
		return newMapper002(prgSize, mirror), nil
	case 3:
		return newMapper003(prgSize, chrSize, mirror), nil
	case 4:
		return newMapper004(prgSize, chrSize, mirror), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedMapper, id)
}

// bank wraps a bank number into the banks physically present
func bank(n, size, bankSize int) int {
	count := size / bankSize
	if count == 0 {
		return 0
	}
	return n % count
}

// regs returns a copy of the register slice padded to n entries
func regs(s MapperState, n int) []uint8 {
	r := make([]uint8, n)
	copy(r, s.Regs)
	return r
}
