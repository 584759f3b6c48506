package cartridge

import "testing"

// mmc1Write loads a 5-bit value through the MMC1 serial port
func mmc1Write(m Mapper, address uint16, value uint8) {
	for i := 0; i < 5; i++ {
		m.WriteRegister(address, (value>>i)&1)
	}
}

func TestMapper000_Mirrors16KB(t *testing.T) {
	m := newMapper000(0x4000, MirrorHorizontal)
	if m.TranslatePRG(0x8123) != m.TranslatePRG(0xC123) {
		t.Errorf("16KB NROM should mirror: 0x%X vs 0x%X", m.TranslatePRG(0x8123), m.TranslatePRG(0xC123))
	}

	m32 := newMapper000(0x8000, MirrorVertical)
	if got := m32.TranslatePRG(0xC123); got != 0x4123 {
		t.Errorf("32KB NROM $C123: expected 0x4123, got 0x%X", got)
	}
	if m32.Mirroring() != MirrorVertical {
		t.Errorf("Expected header mirroring, got %s", m32.Mirroring())
	}
}

func TestMapper001_PRGModes(t *testing.T) {
	m := newMapper001(8*0x4000, 0x2000)

	// Power-on: mode 3, bank 0 at $8000, last bank at $C000
	if got := m.TranslatePRG(0x8000); got != 0 {
		t.Errorf("Power-on $8000: expected 0, got 0x%X", got)
	}
	if got := m.TranslatePRG(0xC000); got != 7*0x4000 {
		t.Errorf("Power-on $C000: expected last bank, got 0x%X", got)
	}

	mmc1Write(m, 0xE000, 3)
	if got := m.TranslatePRG(0x8010); got != 3*0x4000+0x10 {
		t.Errorf("Mode 3 bank 3: expected 0x%X, got 0x%X", 3*0x4000+0x10, got)
	}
	if got := m.TranslatePRG(0xC010); got != 7*0x4000+0x10 {
		t.Errorf("Mode 3 should keep $C000 fixed, got 0x%X", got)
	}

	mmc1Write(m, 0x8000, 0x08) // mode 2: first bank fixed at $8000
	if got := m.TranslatePRG(0x8000); got != 0 {
		t.Errorf("Mode 2 $8000: expected 0, got 0x%X", got)
	}
	if got := m.TranslatePRG(0xC000); got != 3*0x4000 {
		t.Errorf("Mode 2 $C000: expected bank 3, got 0x%X", got)
	}

	mmc1Write(m, 0x8000, 0x00) // mode 0: 32KB, low bit ignored
	if got := m.TranslatePRG(0x8000); got != 1*0x8000 {
		t.Errorf("Mode 0 $8000: expected 32KB bank 1, got 0x%X", got)
	}
	if got := m.TranslatePRG(0xC000); got != 1*0x8000+0x4000 {
		t.Errorf("Mode 0 $C000: expected 0x%X, got 0x%X", 1*0x8000+0x4000, got)
	}
}

func TestMapper001_ResetBit(t *testing.T) {
	m := newMapper001(4*0x4000, 0x2000)
	mmc1Write(m, 0x8000, 0x00)

	m.WriteRegister(0xE000, 1)
	m.WriteRegister(0xE000, 1)
	m.WriteRegister(0x8000, 0x80) // abandons the partial load

	if m.prgMode() != 3 {
		t.Errorf("Reset should force PRG mode 3, got %d", m.prgMode())
	}
	if m.prg != 0 {
		t.Errorf("Partial write must not reach the PRG register, got %d", m.prg)
	}
	if m.shift != mmc1ShiftReset {
		t.Errorf("Shift register should be reset, got 0x%02X", m.shift)
	}
}

func TestMapper001_CHRAndMirroring(t *testing.T) {
	m := newMapper001(2*0x4000, 4*0x2000)

	mmc1Write(m, 0x8000, 0x10|0x0C|0x02) // 4KB CHR, vertical
	mmc1Write(m, 0xA000, 5)
	mmc1Write(m, 0xC000, 2)

	if got := m.TranslateCHR(0x0010); got != 5*0x1000+0x10 {
		t.Errorf("CHR bank 0: expected 0x%X, got 0x%X", 5*0x1000+0x10, got)
	}
	if got := m.TranslateCHR(0x1010); got != 2*0x1000+0x10 {
		t.Errorf("CHR bank 1: expected 0x%X, got 0x%X", 2*0x1000+0x10, got)
	}
	if m.Mirroring() != MirrorVertical {
		t.Errorf("Expected vertical, got %s", m.Mirroring())
	}

	for value, want := range map[uint8]MirrorMode{
		0x0C: MirrorSingleScreen0,
		0x0D: MirrorSingleScreen1,
		0x0F: MirrorHorizontal,
	} {
		mmc1Write(m, 0x8000, value)
		if m.Mirroring() != want {
			t.Errorf("Control 0x%02X: expected %s, got %s", value, want, m.Mirroring())
		}
	}
}

func TestMapper002_SwitchOnlyAffectsLowWindow(t *testing.T) {
	m := newMapper002(8*0x4000, MirrorVertical)
	fixed := m.TranslatePRG(0xC000)

	for b := uint8(0); b < 8; b++ {
		m.WriteRegister(0x8000, b)
		if got := m.TranslatePRG(0x8000); got != int(b)*0x4000 {
			t.Errorf("Bank %d: expected 0x%X, got 0x%X", b, int(b)*0x4000, got)
		}
		if got := m.TranslatePRG(0xC000); got != fixed {
			t.Errorf("Bank %d changed the fixed window: 0x%X", b, got)
		}
	}
	if fixed != 7*0x4000 {
		t.Errorf("Fixed window should hold the last bank, got 0x%X", fixed)
	}
}

func TestMapper003_SwitchOnlyAffectsCHR(t *testing.T) {
	m := newMapper003(0x8000, 4*0x2000, MirrorHorizontal)
	prg := m.TranslatePRG(0x9234)

	m.WriteRegister(0x8000, 2)
	if got := m.TranslateCHR(0x0123); got != 2*0x2000+0x123 {
		t.Errorf("CHR bank 2: expected 0x%X, got 0x%X", 2*0x2000+0x123, got)
	}
	if m.TranslatePRG(0x9234) != prg {
		t.Error("CHR switch must not move PRG")
	}
}

func TestMapper004_PRGBanking(t *testing.T) {
	m := newMapper004(16*0x2000, 8*0x400, MirrorHorizontal) // 16 8KB banks

	m.WriteRegister(0x8000, 6)
	m.WriteRegister(0x8001, 3)
	m.WriteRegister(0x8000, 7)
	m.WriteRegister(0x8001, 5)

	cases := []struct {
		addr uint16
		want int
	}{
		{0x8000, 3 * 0x2000},
		{0xA000, 5 * 0x2000},
		{0xC000, 14 * 0x2000},
		{0xE000, 15 * 0x2000},
	}
	for _, c := range cases {
		if got := m.TranslatePRG(c.addr); got != c.want {
			t.Errorf("PRG mode 0 $%04X: expected 0x%X, got 0x%X", c.addr, c.want, got)
		}
	}

	m.WriteRegister(0x8000, 0x40|6) // PRG mode 1 swaps $8000 and $C000
	if got := m.TranslatePRG(0x8000); got != 14*0x2000 {
		t.Errorf("PRG mode 1 $8000: expected second-last bank, got 0x%X", got)
	}
	if got := m.TranslatePRG(0xC000); got != 3*0x2000 {
		t.Errorf("PRG mode 1 $C000: expected R6, got 0x%X", got)
	}
	if got := m.TranslatePRG(0xE000); got != 15*0x2000 {
		t.Errorf("$E000 must stay on the last bank, got 0x%X", got)
	}
}

func TestMapper004_CHRBankingAndInversion(t *testing.T) {
	m := newMapper004(4*0x2000, 256*0x400, MirrorVertical)
	values := []uint8{10, 20, 30, 31, 32, 33}
	for i, v := range values {
		m.WriteRegister(0x8000, uint8(i))
		m.WriteRegister(0x8001, v)
	}

	if got := m.TranslateCHR(0x0400); got != 11*0x400 {
		t.Errorf("2KB window second half: expected bank 11, got 0x%X", got)
	}
	if got := m.TranslateCHR(0x1C05); got != 33*0x400+5 {
		t.Errorf("1KB window R5: expected 0x%X, got 0x%X", 33*0x400+5, got)
	}

	m.WriteRegister(0x8000, 0x80)
	if got := m.TranslateCHR(0x0000); got != 30*0x400 {
		t.Errorf("Inverted $0000: expected R2, got 0x%X", got)
	}
	if got := m.TranslateCHR(0x1800); got != 20*0x400 {
		t.Errorf("Inverted $1800: expected R1, got 0x%X", got)
	}
}

func TestMapper004_Mirroring(t *testing.T) {
	m := newMapper004(4*0x2000, 8*0x400, MirrorVertical)
	m.WriteRegister(0xA000, 1)
	if m.Mirroring() != MirrorHorizontal {
		t.Errorf("Expected horizontal, got %s", m.Mirroring())
	}
	m.WriteRegister(0xA000, 0)
	if m.Mirroring() != MirrorVertical {
		t.Errorf("Expected vertical, got %s", m.Mirroring())
	}

	four := newMapper004(4*0x2000, 8*0x400, MirrorFourScreen)
	four.WriteRegister(0xA000, 1)
	if four.Mirroring() != MirrorFourScreen {
		t.Errorf("Four-screen boards ignore $A000, got %s", four.Mirroring())
	}
}

func TestMapper004_ScanlineIRQ(t *testing.T) {
	m := newMapper004(4*0x2000, 8*0x400, MirrorVertical)
	m.WriteRegister(0xC000, 3) // latch
	m.WriteRegister(0xC001, 0) // reload
	m.WriteRegister(0xE001, 0) // enable

	// reload -> 3, then 2, 1, 0
	for i := 0; i < 3; i++ {
		m.ClockScanline()
		if m.IRQPending() {
			t.Fatalf("IRQ raised early on clock %d", i+1)
		}
	}
	m.ClockScanline()
	if !m.IRQPending() {
		t.Fatal("Expected IRQ when the counter reaches zero")
	}

	m.WriteRegister(0xE000, 0)
	if m.IRQPending() {
		t.Error("Writing $E000 should acknowledge the IRQ")
	}

	// Counter reloads from the latch after reaching zero
	m.ClockScanline()
	if m.irqCounter != 3 {
		t.Errorf("Expected reload to 3, got %d", m.irqCounter)
	}
	for i := 0; i < 3; i++ {
		m.ClockScanline()
	}
	if m.IRQPending() {
		t.Error("Disabled counter must not raise IRQ")
	}
}

func TestMapperStateRoundTrip(t *testing.T) {
	m := newMapper004(16*0x2000, 8*0x400, MirrorVertical)
	m.WriteRegister(0x8000, 0x46)
	m.WriteRegister(0x8001, 9)
	m.WriteRegister(0xC000, 7)
	m.WriteRegister(0xE001, 0)
	m.ClockScanline()
	s := m.saveState()

	restored := newMapper004(16*0x2000, 8*0x400, MirrorVertical)
	restored.loadState(s)
	if *restored != *m {
		t.Errorf("Restored mapper differs:\n got %+v\nwant %+v", *restored, *m)
	}
}
