// Package bus implements the system bus for communication between NES components.
package bus

import (
	"errors"
	"fmt"
	"log"

	"nesemu/internal/apu"
	"nesemu/internal/cartridge"
	"nesemu/internal/cpu"
	"nesemu/internal/input"
	"nesemu/internal/memory"
	"nesemu/internal/ppu"
)

const (
	oamDMABytes  = 256
	oamDMACycles = 513 // one more when the transfer starts on an odd CPU cycle
	oamDataPort  = 0x2004
)

// ErrNoCartridge is returned when stepping a console with an empty slot
var ErrNoCartridge = errors.New("no cartridge loaded")

// Tracer observes every instruction just before it executes
type Tracer interface {
	Trace(c *cpu.CPU, mem *memory.Memory)
}

// StepResult reports what happened during one scheduler step
type StepResult struct {
	Cycles         uint64 // CPU cycles, including DMA stall and interrupt entry
	FrameCompleted bool
	NMI            bool
	IRQ            bool
}

// Bus connects all NES components together. It is the only owner of the
// components; signals flow back to it as return values.
type Bus struct {
	// Core components
	CPU       *cpu.CPU
	PPU       *ppu.PPU
	APU       *apu.APU
	Memory    *memory.Memory
	Input     *input.InputState
	Cartridge *cartridge.Cartridge

	ppuMemory *memory.PPUMemory

	// Interrupt entry cycles not yet seen by the APU
	carryCycles uint64
	frameCount  uint64

	tracer Tracer
}

// New creates a new system bus with all components and an empty cartridge slot
func New() *Bus {
	b := &Bus{
		APU:   apu.New(),
		Input: input.NewInputState(),
	}

	b.ppuMemory = memory.NewPPUMemory(nil)
	b.PPU = ppu.New(b.ppuMemory)

	// Memory needs references to PPU and APU; the cartridge is set later
	b.Memory = memory.New(b.PPU, b.APU, nil)
	b.Memory.SetInputSystem(b.Input)

	b.CPU = cpu.New(b.Memory)
	return b
}

// LoadCartridge inserts a cartridge and power-cycles the console
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.Cartridge = cart
	b.Memory.SetCartridge(cart)
	b.ppuMemory.SetCartridge(cart)
	b.PPU.SetScanlineCounter(cart)

	b.Memory.ClearRAM()
	b.ppuMemory.ClearVRAM()
	b.ppuMemory.ResetPalette()
	b.Reset()
}

// Reset presses the console's reset button. Work RAM and VRAM survive.
func (b *Bus) Reset() {
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()
	b.carryCycles = 0
	if b.Cartridge != nil {
		b.CPU.Reset()
	}
}

// SetTracer installs an instruction tracer; nil removes it
func (b *Bus) SetTracer(t Tracer) {
	b.tracer = t
}

// Step executes one CPU instruction and brings the PPU and APU up to the
// CPU clock, then delivers any interrupt they raised.
func (b *Bus) Step() (result StepResult, err error) {
	if b.Cartridge == nil {
		return result, ErrNoCartridge
	}

	pc := b.CPU.PC
	defer func() {
		if r := recover(); r != nil {
			inv, ok := r.(*cartridge.InvariantError)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("step at $%04X: %w", pc, inv)
			log.Printf("[BUS] %v", err)
		}
	}()

	if b.tracer != nil {
		b.tracer.Trace(b.CPU, b.Memory)
	}

	cycles, err := b.CPU.Step()
	if err != nil {
		err = fmt.Errorf("step at $%04X: %w", pc, err)
		log.Printf("[BUS] %v", err)
		return result, err
	}

	if page, ok := b.Memory.TakeDMA(); ok {
		b.runOAMDMA(page)
	}

	ppuResult := b.PPU.Step(b.CPU.Cycles())
	b.APU.Step(int(cycles+b.carryCycles), b.Memory)
	b.carryCycles = 0

	result.Cycles = cycles
	result.FrameCompleted = ppuResult.FrameCompleted
	if result.FrameCompleted {
		b.frameCount++
	}

	var entry uint64
	switch {
	case ppuResult.VBlankNMI:
		entry = b.CPU.NMI()
		result.NMI = true
	case ppuResult.ScanlineIRQ || b.Cartridge.IRQPending() || b.APU.IRQ():
		entry = b.CPU.IRQ()
		result.IRQ = entry > 0
	}
	b.carryCycles = entry
	result.Cycles += entry
	return result, nil
}

// runOAMDMA copies a CPU page into OAM through $2004 and stalls the CPU.
// The stall is billed on the next instruction.
func (b *Bus) runOAMDMA(page uint8) {
	stall := uint64(oamDMACycles)
	if b.CPU.Cycles()%2 == 1 {
		stall++
	}
	b.CPU.AddStall(stall)

	base := uint16(page) << 8
	for i := uint16(0); i < oamDMABytes; i++ {
		b.PPU.WriteRegister(oamDataPort, b.Memory.Read(base+i))
	}
}

// RunFrame steps until the PPU completes a frame
func (b *Bus) RunFrame() error {
	for {
		result, err := b.Step()
		if err != nil {
			return err
		}
		if result.FrameCompleted {
			return nil
		}
	}
}

// Run steps until the CPU clock advanced at least the given number of cycles
func (b *Bus) Run(cycles uint64) error {
	target := b.CPU.Cycles() + cycles
	for b.CPU.Cycles() < target {
		if _, err := b.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunFrames runs the emulator for a specified number of frames
func (b *Bus) RunFrames(frames int) error {
	for i := 0; i < frames; i++ {
		if err := b.RunFrame(); err != nil {
			return err
		}
	}
	return nil
}

// FrameBuffer returns the last completed frame as 0xRRGGBB pixels
func (b *Bus) FrameBuffer() *[ppu.ScreenWidth * ppu.ScreenHeight]uint32 {
	return b.PPU.FrameBuffer()
}

// FrameCount returns the number of frames completed since power-on
func (b *Bus) FrameCount() uint64 {
	return b.frameCount
}

// DrainSamples returns the audio produced since the last call
func (b *Bus) DrainSamples() []int16 {
	return b.APU.DrainSamples()
}

// SetControllerButton sets a single button on controller 1 or 2
func (b *Bus) SetControllerButton(port int, button input.Button, pressed bool) {
	if c := b.Input.Controller(port); c != nil {
		c.SetButton(button, pressed)
	}
}

// SetControllerButtons replaces the button mask of controller 1 or 2
// (bit0 A, B, Select, Start, Up, Down, Left, bit7 Right)
func (b *Bus) SetControllerButtons(port int, mask uint8) {
	if c := b.Input.Controller(port); c != nil {
		c.SetButtons(mask)
	}
}

// EnableInputDebug enables debug logging for input system
func (b *Bus) EnableInputDebug(enable bool) {
	b.Input.EnableDebug(enable)
}

// State is the scheduler's own part of a machine snapshot
type State struct {
	CarryCycles uint64
	FrameCount  uint64
}

// SaveState captures the scheduler bookkeeping
func (b *Bus) SaveState() State {
	return State{CarryCycles: b.carryCycles, FrameCount: b.frameCount}
}

// LoadState restores the scheduler bookkeeping
func (b *Bus) LoadState(s State) {
	b.carryCycles = s.CarryCycles
	b.frameCount = s.FrameCount
}
