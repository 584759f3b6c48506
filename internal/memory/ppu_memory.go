package memory

import "nesemu/internal/cartridge"

// PPUMemory represents the PPU's 14-bit address space
type PPUMemory struct {
	vram       [0x1000]uint8 // 2KB on the console, 4KB for four-screen boards
	paletteRAM [32]uint8
	cartridge  CartridgeInterface
}

// NewPPUMemory creates a new PPU memory instance
func NewPPUMemory(cart CartridgeInterface) *PPUMemory {
	mem := &PPUMemory{cartridge: cart}
	mem.ResetPalette()
	return mem
}

// SetCartridge swaps the pattern table and mirroring source
func (pm *PPUMemory) SetCartridge(cart CartridgeInterface) {
	pm.cartridge = cart
}

// ResetPalette sets every background entry to black
func (pm *PPUMemory) ResetPalette() {
	pm.paletteRAM = [32]uint8{}
	for i := 0; i < 32; i += 4 {
		pm.paletteRAM[i] = 0x0F
	}
}

// ClearVRAM zeroes nametable memory
func (pm *PPUMemory) ClearVRAM() {
	pm.vram = [0x1000]uint8{}
}

// Read reads from PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Read(address uint16) uint8 {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		if pm.cartridge == nil {
			return 0
		}
		return pm.cartridge.ReadCHR(address)
	case address < 0x3F00:
		// $3000-$3EFF mirrors $2000-$2EFF
		return pm.vram[pm.nametableIndex(address)]
	default:
		return pm.paletteRAM[paletteIndex(address)]
	}
}

// Write writes to PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Write(address uint16, value uint8) {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		if pm.cartridge != nil {
			pm.cartridge.WriteCHR(address, value)
		}
	case address < 0x3F00:
		pm.vram[pm.nametableIndex(address)] = value
	default:
		pm.paletteRAM[paletteIndex(address)] = value
	}
}

// ReadPalette reads a palette entry by index (0-31)
func (pm *PPUMemory) ReadPalette(index uint8) uint8 {
	return pm.paletteRAM[paletteIndex(0x3F00|uint16(index))]
}

// nametableIndex resolves a nametable address through the mirroring the
// mapper reports right now
func (pm *PPUMemory) nametableIndex(address uint16) uint16 {
	address &= 0x0FFF
	table := (address >> 10) & 3
	offset := address & 0x3FF

	mode := cartridge.MirrorHorizontal
	if pm.cartridge != nil {
		mode = pm.cartridge.Mirroring()
	}

	switch mode {
	case cartridge.MirrorHorizontal:
		// $2000/$2400 share the first 1KB, $2800/$2C00 the second
		return (table>>1)*0x400 + offset
	case cartridge.MirrorVertical:
		// $2000/$2800 share the first 1KB, $2400/$2C00 the second
		return (table&1)*0x400 + offset
	case cartridge.MirrorSingleScreen0:
		return offset
	case cartridge.MirrorSingleScreen1:
		return 0x400 + offset
	default:
		return table*0x400 + offset
	}
}

// paletteIndex folds $3F00-$3FFF onto 32 entries; $3F10/$14/$18/$1C
// alias the background entries
func paletteIndex(address uint16) uint16 {
	index := address & 0x1F
	if index&0x13 == 0x10 {
		index &= 0x0F
	}
	return index
}

// PPUMemoryState is the snapshot record for VRAM and palette RAM
type PPUMemoryState struct {
	VRAM    [0x1000]uint8
	Palette [32]uint8
}

// SaveState captures VRAM and palette RAM
func (pm *PPUMemory) SaveState() PPUMemoryState {
	return PPUMemoryState{VRAM: pm.vram, Palette: pm.paletteRAM}
}

// LoadState restores VRAM and palette RAM
func (pm *PPUMemory) LoadState(s PPUMemoryState) {
	pm.vram = s.VRAM
	pm.paletteRAM = s.Palette
}
