// Package cartridge implements ROM loading and the mapper hardware of NES cartridges.
package cartridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

const (
	headerSize  = 16
	trainerSize = 512
	prgBankSize = 0x4000 // 16KB iNES unit
	chrBankSize = 0x2000 // 8KB iNES unit
	prgRAMSize  = 0x2000
)

var (
	// ErrInvalidHeader is returned when the image does not start with a valid iNES header.
	ErrInvalidHeader = errors.New("invalid iNES header")
	// ErrTruncated is returned when the image is shorter than its header claims.
	ErrTruncated = errors.New("truncated cartridge image")
	// ErrUnsupportedMapper is returned for mapper numbers this emulator does not implement.
	ErrUnsupportedMapper = errors.New("unsupported mapper")
)

// InvariantError reports an emulator bug detected inside the cartridge hardware,
// such as a bank translation that lands outside the physical image.
type InvariantError struct {
	Component string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated in %s: %s", e.Component, e.Detail)
}

// MirrorMode represents nametable mirroring mode
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

func (m MirrorMode) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorSingleScreen0:
		return "single-screen 0"
	case MirrorSingleScreen1:
		return "single-screen 1"
	case MirrorFourScreen:
		return "four-screen"
	default:
		return fmt.Sprintf("MirrorMode(%d)", uint8(m))
	}
}

// iNES header structure
type iNESHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8 // in 16KB units
	CHRROMSize uint8 // in 8KB units
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TVSystem1  uint8
	TVSystem2  uint8
	Padding    [5]uint8
}

// Cartridge represents a NES cartridge: the ROM image plus the mapper chip
// that decides which bank answers at a given address.
type Cartridge struct {
	prgROM []uint8
	chrMem []uint8 // CHR ROM, or CHR RAM when hasCHRRAM
	prgRAM [prgRAMSize]uint8

	mapperID   uint8
	mapper     Mapper
	mirror     MirrorMode // wiring declared by the header
	hasBattery bool
	hasCHRRAM  bool

	checksum uint32
}

// LoadFromFile loads a cartridge from an iNES file
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromBytes loads a cartridge from an in-memory iNES image
func LoadFromBytes(data []byte) (*Cartridge, error) {
	return LoadFromReader(bytes.NewReader(data))
}

// LoadFromReader loads a cartridge from an io.Reader
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	var header iNESHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: header shorter than %d bytes", ErrTruncated, headerSize)
		}
		return nil, err
	}

	if string(header.Magic[:]) != "NES\x1A" {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidHeader, header.Magic[:])
	}
	if header.PRGROMSize == 0 {
		return nil, fmt.Errorf("%w: PRG ROM size cannot be zero", ErrInvalidHeader)
	}

	cart := &Cartridge{
		mapperID:   (header.Flags7 & 0xF0) | (header.Flags6 >> 4),
		hasBattery: header.Flags6&0x02 != 0,
	}

	switch {
	case header.Flags6&0x08 != 0:
		cart.mirror = MirrorFourScreen
	case header.Flags6&0x01 != 0:
		cart.mirror = MirrorVertical
	default:
		cart.mirror = MirrorHorizontal
	}

	if header.Flags6&0x04 != 0 {
		if _, err := io.CopyN(io.Discard, r, trainerSize); err != nil {
			return nil, fmt.Errorf("%w: trainer: %v", ErrTruncated, err)
		}
	}

	cart.prgROM = make([]uint8, int(header.PRGROMSize)*prgBankSize)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, fmt.Errorf("%w: PRG ROM: %v", ErrTruncated, err)
	}

	if header.CHRROMSize > 0 {
		cart.chrMem = make([]uint8, int(header.CHRROMSize)*chrBankSize)
		if _, err := io.ReadFull(r, cart.chrMem); err != nil {
			return nil, fmt.Errorf("%w: CHR ROM: %v", ErrTruncated, err)
		}
	} else {
		cart.chrMem = make([]uint8, chrBankSize)
		cart.hasCHRRAM = true
	}

	mapper, err := newMapper(cart.mapperID, len(cart.prgROM), len(cart.chrMem), cart.mirror)
	if err != nil {
		return nil, err
	}
	cart.mapper = mapper

	sum := crc32.ChecksumIEEE(cart.prgROM)
	if !cart.hasCHRRAM {
		sum = crc32.Update(sum, crc32.IEEETable, cart.chrMem)
	}
	cart.checksum = sum

	return cart, nil
}

// ReadPRG reads from PRG RAM ($6000-$7FFF) or PRG ROM ($8000-$FFFF)
func (c *Cartridge) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		offset := c.mapper.TranslatePRG(address)
		c.checkBounds("PRG", address, offset, len(c.prgROM))
		return c.prgROM[offset]
	case address >= 0x6000:
		return c.prgRAM[address-0x6000]
	}
	return 0
}

// WritePRG writes PRG RAM or forwards the write to the mapper's registers
func (c *Cartridge) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		c.mapper.WriteRegister(address, value)
	case address >= 0x6000:
		c.prgRAM[address-0x6000] = value
	}
}

// ReadCHR reads from CHR ROM/RAM ($0000-$1FFF of the PPU bus)
func (c *Cartridge) ReadCHR(address uint16) uint8 {
	offset := c.mapper.TranslateCHR(address & 0x1FFF)
	c.checkBounds("CHR", address, offset, len(c.chrMem))
	return c.chrMem[offset]
}

// WriteCHR writes CHR RAM; writes to CHR ROM are ignored
func (c *Cartridge) WriteCHR(address uint16, value uint8) {
	if !c.hasCHRRAM {
		return
	}
	offset := c.mapper.TranslateCHR(address & 0x1FFF)
	c.checkBounds("CHR", address, offset, len(c.chrMem))
	c.chrMem[offset] = value
}

func (c *Cartridge) checkBounds(region string, address uint16, offset, size int) {
	if offset < 0 || offset >= size {
		panic(&InvariantError{
			Component: fmt.Sprintf("mapper %d", c.mapperID),
			Detail:    fmt.Sprintf("%s $%04X translated to offset $%X outside %d-byte image", region, address, offset, size),
		})
	}
}

// Mirroring returns the nametable mirroring currently selected by the mapper
func (c *Cartridge) Mirroring() MirrorMode {
	return c.mapper.Mirroring()
}

// IRQPending reports whether the mapper is asserting the IRQ line
func (c *Cartridge) IRQPending() bool {
	return c.mapper.IRQPending()
}

// ClockScanline clocks the mapper's scanline counter (A12 rise approximation)
func (c *Cartridge) ClockScanline() {
	c.mapper.ClockScanline()
}

// Mapper returns the cartridge's mapper
func (c *Cartridge) Mapper() Mapper {
	return c.mapper
}

// MapperID returns the iNES mapper number
func (c *Cartridge) MapperID() uint8 {
	return c.mapperID
}

// HeaderMirroring returns the mirroring wired on the board according to the header
func (c *Cartridge) HeaderMirroring() MirrorMode {
	return c.mirror
}

// HasBattery reports whether the header declares battery-backed PRG RAM
func (c *Cartridge) HasBattery() bool {
	return c.hasBattery
}

// HasCHRRAM reports whether pattern memory is writable RAM
func (c *Cartridge) HasCHRRAM() bool {
	return c.hasCHRRAM
}

// PRGSize returns the PRG ROM size in bytes
func (c *Cartridge) PRGSize() int {
	return len(c.prgROM)
}

// CHRSize returns the CHR ROM/RAM size in bytes
func (c *Cartridge) CHRSize() int {
	return len(c.chrMem)
}

// Checksum returns the CRC-32 of the ROM contents, used to pair snapshots with cartridges
func (c *Cartridge) Checksum() uint32 {
	return c.checksum
}

func (c *Cartridge) String() string {
	return fmt.Sprintf("mapper %d, PRG %dKB, CHR %dKB (ram=%t), %s mirroring, battery=%t",
		c.mapperID, len(c.prgROM)/1024, len(c.chrMem)/1024, c.hasCHRRAM, c.mirror, c.hasBattery)
}

// State is the mutable part of a cartridge captured by snapshots
type State struct {
	Mapper MapperState
	PRGRAM []uint8
	CHRRAM []uint8
}

// SaveState captures PRG RAM, CHR RAM and mapper registers
func (c *Cartridge) SaveState() State {
	s := State{
		Mapper: c.mapper.saveState(),
		PRGRAM: append([]uint8(nil), c.prgRAM[:]...),
	}
	if c.hasCHRRAM {
		s.CHRRAM = append([]uint8(nil), c.chrMem...)
	}
	return s
}

// LoadState restores a state produced by SaveState on the same cartridge
func (c *Cartridge) LoadState(s State) error {
	if s.Mapper.ID != c.mapperID {
		return fmt.Errorf("mapper state for mapper %d cannot be loaded into mapper %d", s.Mapper.ID, c.mapperID)
	}
	if len(s.PRGRAM) != len(c.prgRAM) {
		return fmt.Errorf("PRG RAM size mismatch: got %d bytes, want %d", len(s.PRGRAM), len(c.prgRAM))
	}
	if c.hasCHRRAM && len(s.CHRRAM) != len(c.chrMem) {
		return fmt.Errorf("CHR RAM size mismatch: got %d bytes, want %d", len(s.CHRRAM), len(c.chrMem))
	}
	c.mapper.loadState(s.Mapper)
	copy(c.prgRAM[:], s.PRGRAM)
	if c.hasCHRRAM {
		copy(c.chrMem, s.CHRRAM)
	}
	return nil
}
