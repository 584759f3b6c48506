package memory

import (
	"testing"

	"nesemu/internal/cartridge"
)

func TestNametableMirroring(t *testing.T) {
	tests := []struct {
		name   string
		mode   cartridge.MirrorMode
		shared [][2]uint16 // pairs that must alias
		split  [][2]uint16 // pairs that must not alias
	}{
		{
			name:   "horizontal",
			mode:   cartridge.MirrorHorizontal,
			shared: [][2]uint16{{0x2000, 0x2400}, {0x2800, 0x2C00}},
			split:  [][2]uint16{{0x2000, 0x2800}},
		},
		{
			name:   "vertical",
			mode:   cartridge.MirrorVertical,
			shared: [][2]uint16{{0x2000, 0x2800}, {0x2400, 0x2C00}},
			split:  [][2]uint16{{0x2000, 0x2400}},
		},
		{
			name:   "single screen",
			mode:   cartridge.MirrorSingleScreen1,
			shared: [][2]uint16{{0x2000, 0x2400}, {0x2000, 0x2C00}},
		},
		{
			name:  "four screen",
			mode:  cartridge.MirrorFourScreen,
			split: [][2]uint16{{0x2000, 0x2400}, {0x2000, 0x2800}, {0x2400, 0x2C00}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := NewPPUMemory(&MockCartridge{mirror: tt.mode})
			for _, p := range tt.shared {
				pm.Write(p[0]+5, 0x11)
				if got := pm.Read(p[1] + 5); got != 0x11 {
					t.Errorf("$%04X should alias $%04X, got 0x%02X", p[1], p[0], got)
				}
				pm.Write(p[0]+5, 0)
			}
			for _, p := range tt.split {
				pm.Write(p[0]+5, 0x22)
				if got := pm.Read(p[1] + 5); got == 0x22 {
					t.Errorf("$%04X should not alias $%04X", p[1], p[0])
				}
				pm.Write(p[0]+5, 0)
			}
		})
	}
}

func TestMirroringFollowsMapper(t *testing.T) {
	cart := &MockCartridge{mirror: cartridge.MirrorVertical}
	pm := NewPPUMemory(cart)
	pm.Write(0x2400, 0x5A)

	cart.mirror = cartridge.MirrorSingleScreen1
	if got := pm.Read(0x2000); got != 0x5A {
		t.Errorf("Mirroring change must take effect immediately, got 0x%02X", got)
	}
}

func TestNametableUpperMirror(t *testing.T) {
	pm := NewPPUMemory(&MockCartridge{mirror: cartridge.MirrorVertical})
	pm.Write(0x2123, 0x77)
	if got := pm.Read(0x3123); got != 0x77 {
		t.Errorf("$3123 should mirror $2123, got 0x%02X", got)
	}
}

func TestPaletteMirroring(t *testing.T) {
	pm := NewPPUMemory(&MockCartridge{})

	pm.Write(0x3F10, 0x2A)
	if got := pm.Read(0x3F00); got != 0x2A {
		t.Errorf("$3F10 should alias $3F00, got 0x%02X", got)
	}
	pm.Write(0x3F1C, 0x15)
	if got := pm.Read(0x3F0C); got != 0x15 {
		t.Errorf("$3F1C should alias $3F0C, got 0x%02X", got)
	}
	pm.Write(0x3F11, 0x01)
	pm.Write(0x3F01, 0x02)
	if got := pm.Read(0x3F11); got != 0x01 {
		t.Errorf("$3F11 must not alias $3F01, got 0x%02X", got)
	}
	if got := pm.Read(0x3F31); got != 0x01 {
		t.Errorf("$3F31 should mirror $3F11, got 0x%02X", got)
	}
	if got := pm.ReadPalette(0x11); got != 0x01 {
		t.Errorf("ReadPalette(0x11): expected 0x01, got 0x%02X", got)
	}
}

func TestPatternTablesGoToCartridge(t *testing.T) {
	cart := &MockCartridge{}
	pm := NewPPUMemory(cart)
	pm.Write(0x1ABC, 0x3C)
	if cart.chrData[0x1ABC] != 0x3C {
		t.Error("CHR write did not reach the cartridge")
	}
	if got := pm.Read(0x5ABC); got != 0x3C {
		t.Errorf("14-bit wrap: expected 0x3C, got 0x%02X", got)
	}
}

func TestPPUMemoryStateRoundTrip(t *testing.T) {
	pm := NewPPUMemory(&MockCartridge{mirror: cartridge.MirrorFourScreen})
	pm.Write(0x2C00, 0x01)
	pm.Write(0x3F05, 0x16)
	s := pm.SaveState()

	pm.ClearVRAM()
	pm.ResetPalette()
	pm.LoadState(s)

	if pm.Read(0x2C00) != 0x01 || pm.Read(0x3F05) != 0x16 {
		t.Errorf("State not restored: nametable 0x%02X palette 0x%02X", pm.Read(0x2C00), pm.Read(0x3F05))
	}
}
