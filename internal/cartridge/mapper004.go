package cartridge

// Mapper004 implements MMC3 (TxROM, mapper 4)
//
// Register pairs are selected by address range and A0:
//
//	$8000 even: bank select (target register, PRG mode, CHR inversion)
//	$8001 odd:  bank data
//	$A000 even: mirroring      $A001 odd: PRG RAM protect (ignored)
//	$C000 even: IRQ latch      $C001 odd: IRQ reload
//	$E000 even: IRQ disable    $E001 odd: IRQ enable
//
// The scanline counter is clocked once per rendered line by the PPU.
type Mapper004 struct {
	prgSize int
	chrSize int
	mirror  MirrorMode // header mirroring, four-screen overrides $A000

	target       uint8
	prgMode      uint8
	chrInversion uint8
	registers    [8]uint8
	mirroring    uint8

	irqLatch   uint8
	irqCounter uint8
	irqEnabled bool
	irqReload  bool
	irqPending bool
}

func newMapper004(prgSize, chrSize int, mirror MirrorMode) *Mapper004 {
	m := &Mapper004{
		prgSize: prgSize,
		chrSize: chrSize,
		mirror:  mirror,
	}
	if mirror == MirrorHorizontal {
		m.mirroring = 1
	}
	return m
}

// ID returns 4
func (m *Mapper004) ID() uint8 { return 4 }

// WriteRegister dispatches on the address range and A0
func (m *Mapper004) WriteRegister(address uint16, value uint8) {
	even := address&1 == 0
	switch {
	case address < 0xA000:
		if even {
			m.target = value & 0x07
			m.prgMode = (value >> 6) & 1
			m.chrInversion = (value >> 7) & 1
		} else {
			m.registers[m.target] = value
		}
	case address < 0xC000:
		if even {
			m.mirroring = value & 1
		}
	case address < 0xE000:
		if even {
			m.irqLatch = value
		} else {
			m.irqCounter = 0
			m.irqReload = true
		}
	default:
		if even {
			m.irqEnabled = false
			m.irqPending = false
		} else {
			m.irqEnabled = true
		}
	}
}

// TranslatePRG resolves four 8KB windows; the last bank is always at $E000
func (m *Mapper004) TranslatePRG(address uint16) int {
	count := m.prgSize / 0x2000
	secondLast := count - 2
	if secondLast < 0 {
		secondLast = 0
	}

	var b int
	switch slot := (address - 0x8000) / 0x2000; slot {
	case 0:
		if m.prgMode == 0 {
			b = int(m.registers[6])
		} else {
			b = secondLast
		}
	case 1:
		b = int(m.registers[7])
	case 2:
		if m.prgMode == 0 {
			b = secondLast
		} else {
			b = int(m.registers[6])
		}
	default:
		b = count - 1
	}
	return bank(b, m.prgSize, 0x2000)*0x2000 + int(address&0x1FFF)
}

// TranslateCHR resolves two 2KB and four 1KB windows, swapped by CHR inversion
func (m *Mapper004) TranslateCHR(address uint16) int {
	a := address & 0x1FFF
	if m.chrInversion != 0 {
		a ^= 0x1000
	}

	var b int
	switch {
	case a < 0x0800:
		b = int(m.registers[0]&0xFE) + int(a/0x400)
	case a < 0x1000:
		b = int(m.registers[1]&0xFE) + int((a-0x0800)/0x400)
	default:
		b = int(m.registers[2+(a-0x1000)/0x400])
	}
	return bank(b, m.chrSize, 0x400)*0x400 + int(a&0x3FF)
}

// Mirroring returns the $A000 selection unless the board is four-screen
func (m *Mapper004) Mirroring() MirrorMode {
	if m.mirror == MirrorFourScreen {
		return MirrorFourScreen
	}
	if m.mirroring == 0 {
		return MirrorVertical
	}
	return MirrorHorizontal
}

// ClockScanline decrements or reloads the IRQ counter and raises the line at zero
func (m *Mapper004) ClockScanline() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
	}
}

// IRQPending stays asserted until $E000 is written
func (m *Mapper004) IRQPending() bool { return m.irqPending }

func (m *Mapper004) saveState() MapperState {
	r := make([]uint8, 0, 12)
	r = append(r, m.target, m.prgMode, m.chrInversion, m.mirroring)
	r = append(r, m.registers[:]...)
	return MapperState{
		ID:         4,
		Regs:       r,
		IRQLatch:   m.irqLatch,
		IRQCounter: m.irqCounter,
		IRQEnabled: m.irqEnabled,
		IRQReload:  m.irqReload,
		IRQPending: m.irqPending,
	}
}

func (m *Mapper004) loadState(s MapperState) {
	r := regs(s, 12)
	m.target, m.prgMode, m.chrInversion, m.mirroring = r[0], r[1], r[2], r[3]
	copy(m.registers[:], r[4:])
	m.irqLatch = s.IRQLatch
	m.irqCounter = s.IRQCounter
	m.irqEnabled = s.IRQEnabled
	m.irqReload = s.IRQReload
	m.irqPending = s.IRQPending
}
