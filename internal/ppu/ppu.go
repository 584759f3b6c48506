// Package ppu implements the Picture Processing Unit for the NES.
package ppu

import "nesemu/internal/memory"

const (
	// ScreenWidth and ScreenHeight are the visible output dimensions
	ScreenWidth  = 256
	ScreenHeight = 240

	dotsPerScanline   = 341
	scanlinesPerFrame = 262
	postRenderLine    = 240
	vblankLine        = 241
	preRenderLine     = 261

	// DotsPerFrame is the length of a frame without the odd-frame skip
	DotsPerFrame = dotsPerScanline * scanlinesPerFrame
)

const (
	ctrlNametable    = 0x03
	ctrlIncrement32  = 0x04
	ctrlSpriteTable  = 0x08
	ctrlBackTable    = 0x10
	ctrlSpriteSize   = 0x20
	ctrlNMIEnable    = 0x80
	maskGrayscale    = 0x01
	maskBackLeft     = 0x02
	maskSpriteLeft   = 0x04
	maskShowBack     = 0x08
	maskShowSprites  = 0x10
	statusOverflow   = 0x20
	statusSpriteZero = 0x40
	statusVBlank     = 0x80
	mapperClockDot   = 260
	nmiCancelWindow  = 3
)

// ScanlineCounter is the mapper hook clocked once per rendered scanline
type ScanlineCounter interface {
	ClockScanline()
	IRQPending() bool
}

// StepResult reports the signals raised while the PPU caught up
type StepResult struct {
	VBlankNMI      bool
	ScanlineIRQ    bool
	FrameCompleted bool
}

// PPU represents the NES Picture Processing Unit (2C02)
type PPU struct {
	// CPU-visible registers
	ctrl    uint8 // $2000
	mask    uint8 // $2001
	status  uint8 // $2002
	oamAddr uint8 // $2003

	// Loopy registers
	v uint16 // current VRAM address (15 bits)
	t uint16 // temporary VRAM address
	x uint8  // fine X scroll
	w bool   // write toggle

	ioLatch    uint8 // last value driven on the PPU data bus
	readBuffer uint8 // $2007 read buffer

	memory  *memory.PPUMemory
	counter ScanlineCounter

	// Timing; scanline and dot name the last dot executed
	scanline int
	dot      int
	frame    uint64
	oddFrame bool
	clock    uint64

	suppressVBlank bool
	nmiPending     bool

	// Background pipeline
	ntByte    uint8
	atByte    uint8
	patternLo uint8
	patternHi uint8
	shiftLo   uint16
	shiftHi   uint16
	attrLo    uint16
	attrHi    uint16

	// Sprites
	oam          [256]uint8
	secondaryOAM [32]uint8
	spriteCount  int
	spriteLo     [8]uint8
	spriteHi     [8]uint8
	spriteX      [8]uint8
	spriteAttr   [8]uint8
	spriteZero   [8]bool

	back       [ScreenWidth * ScreenHeight]uint32
	backIndex  [ScreenWidth * ScreenHeight]uint8
	front      [ScreenWidth * ScreenHeight]uint32
	frontIndex [ScreenWidth * ScreenHeight]uint8
}

// New creates a PPU reading pattern and nametable data from mem
func New(mem *memory.PPUMemory) *PPU {
	p := &PPU{memory: mem}
	p.Reset()
	return p
}

// SetScanlineCounter attaches the mapper's scanline IRQ counter; nil detaches it
func (p *PPU) SetScanlineCounter(counter ScanlineCounter) {
	p.counter = counter
}

// Memory returns the PPU address space
func (p *PPU) Memory() *memory.PPUMemory {
	return p.memory
}

// Reset puts the registers in their power-up state. The dot clock keeps
// running so the PPU stays aligned with the CPU counter.
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.status = 0
	p.oamAddr = 0
	p.v, p.t, p.x, p.w = 0, 0, 0, false
	p.ioLatch = 0
	p.readBuffer = 0

	p.scanline = 0
	p.dot = 0
	p.frame = 0
	p.oddFrame = false
	p.suppressVBlank = false
	p.nmiPending = false

	p.shiftLo, p.shiftHi, p.attrLo, p.attrHi = 0, 0, 0, 0
	p.spriteCount = 0
	p.oam = [256]uint8{}
	p.secondaryOAM = [32]uint8{}
}

// Step runs dots until the PPU clock reaches three dots per CPU cycle
func (p *PPU) Step(cpuCycle uint64) StepResult {
	var result StepResult
	target := cpuCycle * 3
	for p.clock < target {
		p.tick(&result)
	}

	// An NMI raised on the vblank dot is held for two dots so a racing
	// $2002 read can still cancel it.
	if p.nmiPending && !(p.scanline == vblankLine && p.dot < nmiCancelWindow) {
		result.VBlankNMI = true
		p.nmiPending = false
	}
	return result
}

// tick executes a single dot
func (p *PPU) tick(result *StepResult) {
	p.clock++
	p.advance()

	rendering := p.renderingEnabled()
	visible := p.scanline < postRenderLine
	preRender := p.scanline == preRenderLine

	if visible || preRender {
		if preRender && p.dot == 1 {
			p.status &^= statusVBlank | statusSpriteZero | statusOverflow
			p.suppressVBlank = false
		}
		if rendering {
			p.backgroundCycle(preRender)
			p.spriteCycle(preRender)
			if p.dot == mapperClockDot && p.counter != nil {
				p.counter.ClockScanline()
				if p.counter.IRQPending() {
					result.ScanlineIRQ = true
				}
			}
		}
		if visible && p.dot >= 1 && p.dot <= ScreenWidth {
			p.renderPixel()
		}
	}

	if p.scanline == postRenderLine && p.dot == 0 {
		p.front = p.back
		p.frontIndex = p.backIndex
		result.FrameCompleted = true
	}

	if p.scanline == vblankLine && p.dot == 1 {
		if !p.suppressVBlank {
			p.status |= statusVBlank
			if p.ctrl&ctrlNMIEnable != 0 {
				p.nmiPending = true
			}
		}
		p.suppressVBlank = false
	}
}

// advance moves to the next dot, applying the odd-frame skip
func (p *PPU) advance() {
	p.dot++
	if p.scanline == preRenderLine && p.dot == dotsPerScanline-1 && p.oddFrame && p.renderingEnabled() {
		p.dot = dotsPerScanline
	}
	if p.dot >= dotsPerScanline {
		p.dot = 0
		p.scanline++
		if p.scanline >= scanlinesPerFrame {
			p.scanline = 0
			p.frame++
			p.oddFrame = !p.oddFrame
		}
	}
}

func (p *PPU) renderingEnabled() bool {
	return p.mask&(maskShowBack|maskShowSprites) != 0
}

// FrameBuffer returns the last completed frame as 0xRRGGBB pixels
func (p *PPU) FrameBuffer() *[ScreenWidth * ScreenHeight]uint32 {
	return &p.front
}

// PaletteIndices returns the NES color index of every pixel of the last frame
func (p *PPU) PaletteIndices() *[ScreenWidth * ScreenHeight]uint8 {
	return &p.frontIndex
}

// Frame returns the number of frames started since reset
func (p *PPU) Frame() uint64 {
	return p.frame
}

// Position returns the scanline and dot last executed
func (p *PPU) Position() (scanline, dot int) {
	return p.scanline, p.dot
}

// Clock returns the total dots executed
func (p *PPU) Clock() uint64 {
	return p.clock
}

// SyncClock aligns the dot clock with a CPU cycle count without running dots
func (p *PPU) SyncClock(cpuCycle uint64) {
	p.clock = cpuCycle * 3
}

// IsVBlank reports whether the vblank flag is set
func (p *PPU) IsVBlank() bool {
	return p.status&statusVBlank != 0
}

// PeekOAM reads OAM without touching OAMADDR
func (p *PPU) PeekOAM(index uint8) uint8 {
	return p.oam[index]
}
