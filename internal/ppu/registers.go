package ppu

// ReadRegister reads a PPU register (CPU $2000-$2007, mirrored)
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch 0x2000 + address&0x0007 {
	case 0x2002: // PPUSTATUS
		p.ioLatch = p.readStatus()
	case 0x2004: // OAMDATA
		value := p.oam[p.oamAddr]
		if p.oamAddr&0x03 == 0x02 {
			value &= 0xE3 // unimplemented attribute bits
		}
		p.ioLatch = value
	case 0x2007: // PPUDATA
		p.ioLatch = p.readData()
	}
	// Write-only registers return the I/O latch
	return p.ioLatch
}

// readStatus returns PPUSTATUS, clears vblank and the write toggle, and
// resolves the race with the vblank dot
func (p *PPU) readStatus() uint8 {
	if p.scanline == vblankLine {
		switch {
		case p.dot == 0:
			// The flag would be set on the very next dot
			p.suppressVBlank = true
		case p.dot < nmiCancelWindow:
			p.nmiPending = false
		}
	}

	value := p.status&0xE0 | p.ioLatch&0x1F
	p.status &^= statusVBlank
	p.w = false
	return value
}

// WriteRegister writes a PPU register (CPU $2000-$2007, mirrored)
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.ioLatch = value

	switch 0x2000 + address&0x0007 {
	case 0x2000: // PPUCTRL
		wasEnabled := p.ctrl&ctrlNMIEnable != 0
		p.ctrl = value
		p.t = (p.t & 0xF3FF) | ((uint16(value) & ctrlNametable) << 10)
		switch {
		case value&ctrlNMIEnable == 0:
			p.nmiPending = false
		case !wasEnabled && p.status&statusVBlank != 0:
			p.nmiPending = true
		}
	case 0x2001: // PPUMASK
		p.mask = value
	case 0x2003: // OAMADDR
		p.oamAddr = value
	case 0x2004: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005: // PPUSCROLL
		p.writeScroll(value)
	case 0x2006: // PPUADDR
		p.writeAddr(value)
	case 0x2007: // PPUDATA
		p.memory.Write(p.v, value)
		p.incrementAddr()
	}
}

// writeScroll handles writes to PPUSCROLL ($2005)
func (p *PPU) writeScroll(value uint8) {
	if !p.w {
		// First write: X scroll
		p.t = (p.t & 0xFFE0) | (uint16(value) >> 3)
		p.x = value & 0x07
		p.w = true
	} else {
		// Second write: Y scroll
		p.t = (p.t & 0x8FFF) | ((uint16(value) & 0x07) << 12)
		p.t = (p.t & 0xFC1F) | ((uint16(value) & 0xF8) << 2)
		p.w = false
	}
}

// writeAddr handles writes to PPUADDR ($2006)
func (p *PPU) writeAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | ((uint16(value) & 0x3F) << 8)
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
		p.w = false
	}
}

// readData handles reads from PPUDATA ($2007)
func (p *PPU) readData() uint8 {
	address := p.v & 0x3FFF
	var data uint8
	if address >= 0x3F00 {
		// Palette data is not buffered; the buffer sees the nametable underneath
		data = p.memory.Read(address)&0x3F | p.ioLatch&0xC0
		p.readBuffer = p.memory.Read(address & 0x2FFF)
	} else {
		data = p.readBuffer
		p.readBuffer = p.memory.Read(address)
	}
	p.incrementAddr()
	return data
}

func (p *PPU) incrementAddr() {
	if p.ctrl&ctrlIncrement32 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x7FFF
}

// incrementX increments coarse X and wraps to the next nametable
func (p *PPU) incrementX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

// incrementY increments fine Y, carrying into coarse Y
func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0 // attribute rows wrap without switching nametables
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

// copyX copies the horizontal bits from t to v
func (p *PPU) copyX() {
	p.v = (p.v & 0xFBE0) | (p.t & 0x041F)
}

// copyY copies the vertical bits from t to v
func (p *PPU) copyY() {
	p.v = (p.v & 0x841F) | (p.t & 0x7BE0)
}
