package ppu

import (
	"fmt"

	"nesemu/internal/memory"
)

// State is the snapshot record of the PPU, including its address space
type State struct {
	Ctrl, Mask, Status, OAMAddr uint8
	V, T                        uint16
	X                           uint8
	W                           bool
	IOLatch, ReadBuffer         uint8

	Scanline, Dot  int
	Frame          uint64
	OddFrame       bool
	Clock          uint64
	SuppressVBlank bool
	NMIPending     bool

	NTByte, ATByte, PatternLo, PatternHi uint8
	ShiftLo, ShiftHi, AttrLo, AttrHi     uint16

	OAM          [256]uint8
	SecondaryOAM [32]uint8
	SpriteCount  int
	SpriteLo     [8]uint8
	SpriteHi     [8]uint8
	SpriteX      [8]uint8
	SpriteAttr   [8]uint8
	SpriteZero   [8]bool

	Memory memory.PPUMemoryState
}

// Validate reports fields that would index past the PPU's fixed tables
func (s State) Validate() error {
	if s.Scanline < 0 || s.Scanline >= scanlinesPerFrame {
		return fmt.Errorf("scanline %d out of range", s.Scanline)
	}
	if s.Dot < 0 || s.Dot >= dotsPerScanline {
		return fmt.Errorf("dot %d out of range", s.Dot)
	}
	if s.SpriteCount < 0 || s.SpriteCount > len(s.SpriteX) {
		return fmt.Errorf("sprite count %d out of range", s.SpriteCount)
	}
	if s.X > 7 {
		return fmt.Errorf("fine X %d out of range", s.X)
	}
	return nil
}

// SaveState captures every register, latch and pipeline stage
func (p *PPU) SaveState() State {
	return State{
		Ctrl: p.ctrl, Mask: p.mask, Status: p.status, OAMAddr: p.oamAddr,
		V: p.v, T: p.t, X: p.x, W: p.w,
		IOLatch: p.ioLatch, ReadBuffer: p.readBuffer,

		Scanline: p.scanline, Dot: p.dot,
		Frame: p.frame, OddFrame: p.oddFrame, Clock: p.clock,
		SuppressVBlank: p.suppressVBlank, NMIPending: p.nmiPending,

		NTByte: p.ntByte, ATByte: p.atByte, PatternLo: p.patternLo, PatternHi: p.patternHi,
		ShiftLo: p.shiftLo, ShiftHi: p.shiftHi, AttrLo: p.attrLo, AttrHi: p.attrHi,

		OAM: p.oam, SecondaryOAM: p.secondaryOAM, SpriteCount: p.spriteCount,
		SpriteLo: p.spriteLo, SpriteHi: p.spriteHi, SpriteX: p.spriteX,
		SpriteAttr: p.spriteAttr, SpriteZero: p.spriteZero,

		Memory: p.memory.SaveState(),
	}
}

// LoadState restores a snapshot taken with SaveState
func (p *PPU) LoadState(s State) {
	p.ctrl, p.mask, p.status, p.oamAddr = s.Ctrl, s.Mask, s.Status, s.OAMAddr
	p.v, p.t, p.x, p.w = s.V, s.T, s.X, s.W
	p.ioLatch, p.readBuffer = s.IOLatch, s.ReadBuffer

	p.scanline, p.dot = s.Scanline, s.Dot
	p.frame, p.oddFrame, p.clock = s.Frame, s.OddFrame, s.Clock
	p.suppressVBlank, p.nmiPending = s.SuppressVBlank, s.NMIPending

	p.ntByte, p.atByte, p.patternLo, p.patternHi = s.NTByte, s.ATByte, s.PatternLo, s.PatternHi
	p.shiftLo, p.shiftHi, p.attrLo, p.attrHi = s.ShiftLo, s.ShiftHi, s.AttrLo, s.AttrHi

	p.oam, p.secondaryOAM = s.OAM, s.SecondaryOAM
	p.spriteCount = s.SpriteCount
	p.spriteLo, p.spriteHi, p.spriteX = s.SpriteLo, s.SpriteHi, s.SpriteX
	p.spriteAttr, p.spriteZero = s.SpriteAttr, s.SpriteZero

	p.memory.LoadState(s.Memory)
}
