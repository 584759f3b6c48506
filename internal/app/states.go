package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nesemu/internal/bus"
	"nesemu/internal/snapshot"
)

// QuickSlot is the slot number of the quick-save file
const QuickSlot = 0

// ErrInvalidSlot is returned for slot numbers outside 1..MaxSlots
var ErrInvalidSlot = errors.New("invalid save state slot")

// StateManager stores snapshots in per-ROM slot files
type StateManager struct {
	saveDirectory string
	maxSlots      int
}

// StateSlotInfo contains information about a save state slot
type StateSlotInfo struct {
	SlotNumber int
	Used       bool
	Timestamp  time.Time
	FilePath   string
	FileSize   int64
}

// NewStateManager creates a state manager writing into saveDirectory
func NewStateManager(saveDirectory string, maxSlots int) *StateManager {
	if maxSlots <= 0 {
		maxSlots = 4
	}
	return &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      maxSlots,
	}
}

// SaveState snapshots the machine into a numbered slot
func (sm *StateManager) SaveState(b *bus.Bus, slot int, romPath string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	return sm.ExportState(b, sm.SlotPath(slot, romPath))
}

// LoadState restores the machine from a numbered slot
func (sm *StateManager) LoadState(b *bus.Bus, slot int, romPath string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	return sm.ImportState(b, sm.SlotPath(slot, romPath))
}

// QuickSave writes the quick-save file
func (sm *StateManager) QuickSave(b *bus.Bus, romPath string) error {
	return sm.ExportState(b, sm.SlotPath(QuickSlot, romPath))
}

// QuickLoad restores the quick-save file
func (sm *StateManager) QuickLoad(b *bus.Bus, romPath string) error {
	return sm.ImportState(b, sm.SlotPath(QuickSlot, romPath))
}

// ExportState writes a snapshot to an arbitrary file. The file is written
// beside its final name and renamed so a failed save never clobbers the
// previous one.
func (sm *StateManager) ExportState(b *bus.Bus, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := snapshot.Save(b, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save state to %s: %w", filePath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save state to %s: %w", filePath, err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to save state to %s: %w", filePath, err)
	}

	log.Printf("[APP] state saved to %s", filePath)
	return nil
}

// ImportState restores the machine from a snapshot file
func (sm *StateManager) ImportState(b *bus.Bus, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open state file: %w", err)
	}
	defer file.Close()

	if err := snapshot.Load(b, file); err != nil {
		return fmt.Errorf("failed to load state from %s: %w", filePath, err)
	}

	log.Printf("[APP] state loaded from %s", filePath)
	return nil
}

// SlotPath returns the file used for a slot of the given ROM
func (sm *StateManager) SlotPath(slot int, romPath string) string {
	base := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	if base == "" || base == "." {
		base = "rom"
	}
	if slot == QuickSlot {
		return filepath.Join(sm.saveDirectory, base+".quick.state")
	}
	return filepath.Join(sm.saveDirectory, fmt.Sprintf("%s.slot%d.state", base, slot))
}

func (sm *StateManager) checkSlot(slot int) error {
	if slot < 1 || slot > sm.maxSlots {
		return fmt.Errorf("%w: %d (1-%d)", ErrInvalidSlot, slot, sm.maxSlots)
	}
	return nil
}

// GetSlotInfo describes every numbered slot of a ROM
func (sm *StateManager) GetSlotInfo(romPath string) []StateSlotInfo {
	slots := make([]StateSlotInfo, 0, sm.maxSlots)
	for slot := 1; slot <= sm.maxSlots; slot++ {
		info := StateSlotInfo{SlotNumber: slot, FilePath: sm.SlotPath(slot, romPath)}
		if stat, err := os.Stat(info.FilePath); err == nil {
			info.Used = true
			info.Timestamp = stat.ModTime()
			info.FileSize = stat.Size()
		}
		slots = append(slots, info)
	}
	return slots
}

// HasSaveState reports whether a slot file exists
func (sm *StateManager) HasSaveState(slot int, romPath string) bool {
	_, err := os.Stat(sm.SlotPath(slot, romPath))
	return err == nil
}

// DeleteState removes a slot file
func (sm *StateManager) DeleteState(slot int, romPath string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	if err := os.Remove(sm.SlotPath(slot, romPath)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// GetMaxSlots returns the number of numbered slots
func (sm *StateManager) GetMaxSlots() int {
	return sm.maxSlots
}

// GetSaveDirectory returns the directory slot files live in
func (sm *StateManager) GetSaveDirectory() string {
	return sm.saveDirectory
}
