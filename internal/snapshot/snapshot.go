// Package snapshot captures and restores the complete machine state.
//
// A snapshot is a single gob-encoded record behind a four byte magic. It
// is tied to the cartridge it was taken from by mapper number and ROM
// CRC-32; restoring it anywhere else is refused before any component is
// touched.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"nesemu/internal/apu"
	"nesemu/internal/bus"
	"nesemu/internal/cartridge"
	"nesemu/internal/cpu"
	"nesemu/internal/input"
	"nesemu/internal/memory"
	"nesemu/internal/ppu"
)

// FormatVersion is bumped whenever a component State changes shape
const FormatVersion = 1

var magic = [4]byte{'N', 'E', 'S', 'S'}

var (
	// ErrCartridgeMismatch is returned when a snapshot belongs to another cartridge
	ErrCartridgeMismatch = errors.New("snapshot was taken with a different cartridge")
	// ErrVersionMismatch is returned for snapshots written by another format version
	ErrVersionMismatch = errors.New("unsupported snapshot version")
	// ErrInvalidSnapshot is returned when the data is not a snapshot at all
	ErrInvalidSnapshot = errors.New("not a snapshot")
	// ErrNoCartridge is returned when capturing or restoring an empty console
	ErrNoCartridge = errors.New("no cartridge loaded")
)

// Snapshot is the full machine record
type Snapshot struct {
	Version      int
	Created      time.Time
	MapperID     uint8
	CartridgeCRC uint32

	CPU       cpu.State
	Memory    memory.State
	PPU       ppu.State
	APU       apu.State
	Cartridge cartridge.State
	Input     input.State
	Scheduler bus.State
}

// Capture records the machine state
func Capture(b *bus.Bus) (*Snapshot, error) {
	if b.Cartridge == nil {
		return nil, ErrNoCartridge
	}
	return &Snapshot{
		Version:      FormatVersion,
		Created:      time.Now(),
		MapperID:     b.Cartridge.MapperID(),
		CartridgeCRC: b.Cartridge.Checksum(),
		CPU:          b.CPU.SaveState(),
		Memory:       b.Memory.SaveState(),
		PPU:          b.PPU.SaveState(),
		APU:          b.APU.SaveState(),
		Cartridge:    b.Cartridge.SaveState(),
		Input:        b.Input.SaveState(),
		Scheduler:    b.SaveState(),
	}, nil
}

// Restore loads a snapshot into the machine. On error the machine is left
// as it was.
func Restore(b *bus.Bus, s *Snapshot) error {
	if b.Cartridge == nil {
		return ErrNoCartridge
	}
	if s.Version != FormatVersion {
		return fmt.Errorf("%w: %d (want %d)", ErrVersionMismatch, s.Version, FormatVersion)
	}
	if s.MapperID != b.Cartridge.MapperID() || s.CartridgeCRC != b.Cartridge.Checksum() {
		return fmt.Errorf("%w: mapper %d crc %08X, loaded mapper %d crc %08X", ErrCartridgeMismatch,
			s.MapperID, s.CartridgeCRC, b.Cartridge.MapperID(), b.Cartridge.Checksum())
	}

	if err := s.PPU.Validate(); err != nil {
		return fmt.Errorf("%w: ppu: %v", ErrInvalidSnapshot, err)
	}
	if err := s.APU.Validate(); err != nil {
		return fmt.Errorf("%w: apu: %v", ErrInvalidSnapshot, err)
	}

	// The cartridge validates its record before changing anything
	if err := b.Cartridge.LoadState(s.Cartridge); err != nil {
		return fmt.Errorf("%w: cartridge: %v", ErrInvalidSnapshot, err)
	}
	b.CPU.LoadState(s.CPU)
	b.Memory.LoadState(s.Memory)
	b.PPU.LoadState(s.PPU)
	b.APU.LoadState(s.APU)
	b.Input.LoadState(s.Input)
	b.LoadState(s.Scheduler)
	return nil
}

// Encode writes a snapshot
func Encode(w io.Writer, s *Snapshot) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(magic[:]); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return bw.Flush()
}

// Decode reads a snapshot written by Encode
func Decode(r io.Reader) (*Snapshot, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if head != magic {
		return nil, ErrInvalidSnapshot
	}

	var s Snapshot
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if s.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrVersionMismatch, s.Version, FormatVersion)
	}
	return &s, nil
}

// Save captures the machine and writes it to w
func Save(b *bus.Bus, w io.Writer) error {
	s, err := Capture(b)
	if err != nil {
		return err
	}
	if err := Encode(w, s); err != nil {
		return err
	}
	log.Printf("[SNAPSHOT] saved at frame %d, cycle %d", s.Scheduler.FrameCount, s.CPU.Cycles)
	return nil
}

// Load reads a snapshot from r and restores it into the machine
func Load(b *bus.Bus, r io.Reader) error {
	s, err := Decode(r)
	if err != nil {
		return err
	}
	if err := Restore(b, s); err != nil {
		return err
	}
	log.Printf("[SNAPSHOT] restored frame %d, cycle %d", s.Scheduler.FrameCount, s.CPU.Cycles)
	return nil
}
