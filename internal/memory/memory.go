// Package memory implements the CPU and PPU address buses of the NES.
package memory

import "nesemu/internal/cartridge"

// Memory represents the CPU memory map
type Memory struct {
	// Internal RAM (2KB, mirrored to 8KB)
	ram [0x800]uint8

	ppuRegisters PPUInterface
	apuRegisters APUInterface
	inputSystem  InputInterface
	cartridge    CartridgeInterface

	// OAM DMA request latched by a $4014 write, serviced by the scheduler
	dmaPending bool
	dmaPage    uint8

	// Open bus - last value driven on the data bus
	openBusValue uint8
}

// PPUInterface defines the interface for PPU register access
type PPUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// APUInterface defines the interface for APU register access
type APUInterface interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputInterface defines the interface for input system access.
// Read returns the serial data bit in bit 0.
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CartridgeInterface defines the interface for cartridge access
type CartridgeInterface interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
	Mirroring() cartridge.MirrorMode
}

// New creates a new Memory instance
func New(ppu PPUInterface, apu APUInterface, cart CartridgeInterface) *Memory {
	return &Memory{
		ppuRegisters: ppu,
		apuRegisters: apu,
		cartridge:    cart,
	}
}

// SetInputSystem sets the input system for controller access
func (m *Memory) SetInputSystem(input InputInterface) {
	m.inputSystem = input
}

// SetCartridge swaps the cartridge window
func (m *Memory) SetCartridge(cart CartridgeInterface) {
	m.cartridge = cart
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	var value uint8

	switch {
	case address < 0x2000:
		value = m.ram[address&0x07FF]

	case address < 0x4000:
		// PPU registers (mirrored every 8 bytes); the PPU answers write-only
		// registers with its own I/O latch
		value = m.ppuRegisters.ReadRegister(0x2000 + (address & 0x0007))

	case address == 0x4015:
		// Bit 5 is not driven
		value = m.apuRegisters.ReadStatus()&0xDF | m.openBusValue&0x20

	case address == 0x4016 || address == 0x4017:
		// Controllers drive bits 0-4 only
		value = m.openBusValue & 0xE0
		if m.inputSystem != nil {
			value |= m.inputSystem.Read(address) & 0x1F
		}

	case address < 0x6000:
		// Write-only APU registers, test registers and expansion area
		value = m.openBusValue

	default:
		if m.cartridge != nil {
			value = m.cartridge.ReadPRG(address)
		} else {
			value = m.openBusValue
		}
	}

	m.openBusValue = value
	return value
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) {
	m.openBusValue = value

	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		m.ppuRegisters.WriteRegister(0x2000+(address&0x0007), value)

	case address == 0x4014:
		m.dmaPending = true
		m.dmaPage = value

	case address == 0x4016:
		if m.inputSystem != nil {
			m.inputSystem.Write(address, value)
		}

	case address <= 0x4017:
		// $4000-$4013, $4015 and the frame counter at $4017
		m.apuRegisters.WriteRegister(address, value)

	case address < 0x6000:
		// Test mode registers and expansion area are ignored

	default:
		if m.cartridge != nil {
			m.cartridge.WritePRG(address, value)
		}
	}
}

// Peek reads without side effects for debuggers. Register windows return
// the open bus value instead of being read.
func (m *Memory) Peek(address uint16) uint8 {
	switch {
	case address < 0x2000:
		return m.ram[address&0x07FF]
	case address >= 0x6000 && m.cartridge != nil:
		return m.cartridge.ReadPRG(address)
	}
	return m.openBusValue
}

// TakeDMA returns and clears a pending OAM DMA request
func (m *Memory) TakeDMA() (page uint8, ok bool) {
	if !m.dmaPending {
		return 0, false
	}
	m.dmaPending = false
	return m.dmaPage, true
}

// OpenBus returns the last value driven on the data bus
func (m *Memory) OpenBus() uint8 {
	return m.openBusValue
}

// ClearRAM zeroes work RAM (power cycle)
func (m *Memory) ClearRAM() {
	m.ram = [0x800]uint8{}
	m.openBusValue = 0
	m.dmaPending = false
}

// State holds the bus-owned state captured by snapshots
type State struct {
	RAM        [0x800]uint8
	OpenBus    uint8
	DMAPending bool
	DMAPage    uint8
}

// SaveState captures RAM and bus latches
func (m *Memory) SaveState() State {
	return State{
		RAM:        m.ram,
		OpenBus:    m.openBusValue,
		DMAPending: m.dmaPending,
		DMAPage:    m.dmaPage,
	}
}

// LoadState restores RAM and bus latches
func (m *Memory) LoadState(s State) {
	m.ram = s.RAM
	m.openBusValue = s.OpenBus
	m.dmaPending = s.DMAPending
	m.dmaPage = s.DMAPage
}
