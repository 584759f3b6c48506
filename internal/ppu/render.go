package ppu

import "math/bits"

// backgroundCycle runs the 8-dot fetch cadence and the scroll updates
func (p *PPU) backgroundCycle(preRender bool) {
	dot := p.dot

	if (dot >= 2 && dot <= 257) || (dot >= 321 && dot <= 337) {
		p.shiftBackground()

		switch (dot - 1) % 8 {
		case 0:
			p.loadBackground()
			p.ntByte = p.memory.Read(0x2000 | p.v&0x0FFF)
		case 2:
			p.atByte = p.fetchAttribute()
		case 4:
			p.patternLo = p.memory.Read(p.backgroundAddress())
		case 6:
			p.patternHi = p.memory.Read(p.backgroundAddress() + 8)
		case 7:
			p.incrementX()
		}
	}

	switch {
	case dot == 256:
		p.incrementY()
	case dot == 257:
		p.loadBackground()
		p.copyX()
	case preRender && dot >= 280 && dot <= 304:
		p.copyY()
	case dot == 338 || dot == 340:
		p.ntByte = p.memory.Read(0x2000 | p.v&0x0FFF) // unused fetches
	}
}

func (p *PPU) fetchAttribute() uint8 {
	address := 0x23C0 | p.v&0x0C00 | (p.v>>4)&0x38 | (p.v>>2)&0x07
	attr := p.memory.Read(address)
	if p.v&0x0040 != 0 {
		attr >>= 4
	}
	if p.v&0x0002 != 0 {
		attr >>= 2
	}
	return attr & 0x03
}

func (p *PPU) backgroundAddress() uint16 {
	table := uint16(p.ctrl&ctrlBackTable) << 8
	return table + uint16(p.ntByte)*16 + (p.v>>12)&0x07
}

// loadBackground moves the fetched tile into the low byte of the shifters
func (p *PPU) loadBackground() {
	p.shiftLo = p.shiftLo&0xFF00 | uint16(p.patternLo)
	p.shiftHi = p.shiftHi&0xFF00 | uint16(p.patternHi)

	p.attrLo &= 0xFF00
	p.attrHi &= 0xFF00
	if p.atByte&0x01 != 0 {
		p.attrLo |= 0x00FF
	}
	if p.atByte&0x02 != 0 {
		p.attrHi |= 0x00FF
	}
}

func (p *PPU) shiftBackground() {
	if p.mask&maskShowBack == 0 {
		return
	}
	p.shiftLo <<= 1
	p.shiftHi <<= 1
	p.attrLo <<= 1
	p.attrHi <<= 1
}

// spriteCycle evaluates and fetches the next line's sprites at dot 257
func (p *PPU) spriteCycle(preRender bool) {
	if p.dot != 257 {
		return
	}
	if preRender {
		p.spriteCount = 0
		return
	}
	p.evaluateSprites()
}

// evaluateSprites fills secondary OAM with up to eight sprites that cover
// the next scanline. The overflow flag is set on a ninth in-range sprite;
// the hardware's diagonal OAM scan bug is not reproduced.
func (p *PPU) evaluateSprites() {
	height := p.spriteHeight()

	for i := range p.secondaryOAM {
		p.secondaryOAM[i] = 0xFF
	}

	count := 0
	for i := 0; i < 64; i++ {
		row := p.scanline - int(p.oam[i*4])
		if row < 0 || row >= height {
			continue
		}
		if count == 8 {
			p.status |= statusOverflow
			break
		}
		copy(p.secondaryOAM[count*4:count*4+4], p.oam[i*4:i*4+4])
		p.spriteZero[count] = i == 0
		p.fetchSprite(count, row, height)
		count++
	}
	p.spriteCount = count
}

func (p *PPU) spriteHeight() int {
	if p.ctrl&ctrlSpriteSize != 0 {
		return 16
	}
	return 8
}

// fetchSprite loads the pattern row of a secondary OAM slot, pre-flipped
// horizontally so bit 7 is always the leftmost pixel
func (p *PPU) fetchSprite(slot, row, height int) {
	tile := p.secondaryOAM[slot*4+1]
	attr := p.secondaryOAM[slot*4+2]

	if attr&0x80 != 0 {
		row = height - 1 - row
	}

	var address uint16
	if height == 8 {
		table := uint16(p.ctrl&ctrlSpriteTable) << 9
		address = table + uint16(tile)*16 + uint16(row)
	} else {
		// 8x16 sprites take the table from bit 0 of the tile number
		table := uint16(tile&0x01) * 0x1000
		tile &= 0xFE
		if row >= 8 {
			tile++
			row -= 8
		}
		address = table + uint16(tile)*16 + uint16(row)
	}

	lo := p.memory.Read(address)
	hi := p.memory.Read(address + 8)
	if attr&0x40 != 0 {
		lo = bits.Reverse8(lo)
		hi = bits.Reverse8(hi)
	}

	p.spriteLo[slot] = lo
	p.spriteHi[slot] = hi
	p.spriteAttr[slot] = attr
	p.spriteX[slot] = p.secondaryOAM[slot*4+3]
}

// renderPixel composites the background and sprite pixel for the current dot
func (p *PPU) renderPixel() {
	x := p.dot - 1
	y := p.scanline

	var bgPixel, bgPalette uint8
	if p.mask&maskShowBack != 0 && (x >= 8 || p.mask&maskBackLeft != 0) {
		bit := uint16(0x8000) >> p.x
		if p.shiftLo&bit != 0 {
			bgPixel |= 1
		}
		if p.shiftHi&bit != 0 {
			bgPixel |= 2
		}
		if p.attrLo&bit != 0 {
			bgPalette |= 1
		}
		if p.attrHi&bit != 0 {
			bgPalette |= 2
		}
	}

	var spPixel, spPalette uint8
	var spBehind, spZero bool
	if p.mask&maskShowSprites != 0 && (x >= 8 || p.mask&maskSpriteLeft != 0) {
		for i := 0; i < p.spriteCount; i++ {
			offset := x - int(p.spriteX[i])
			if offset < 0 || offset > 7 {
				continue
			}
			shift := uint(7 - offset)
			pixel := (p.spriteLo[i]>>shift)&1 | ((p.spriteHi[i]>>shift)&1)<<1
			if pixel == 0 {
				continue
			}
			spPixel = pixel
			spPalette = p.spriteAttr[i]&0x03 + 4
			spBehind = p.spriteAttr[i]&0x20 != 0
			spZero = p.spriteZero[i]
			break
		}
	}

	var index uint8
	switch {
	case bgPixel == 0 && spPixel == 0:
		if !p.renderingEnabled() && p.v&0x3F00 == 0x3F00 {
			// With rendering off the backdrop follows v into palette RAM
			index = uint8(p.v & 0x1F)
		}
	case bgPixel == 0:
		index = spPalette*4 + spPixel
	case spPixel == 0:
		index = bgPalette*4 + bgPixel
	default:
		if spZero && x != 255 {
			p.status |= statusSpriteZero
		}
		if spBehind {
			index = bgPalette*4 + bgPixel
		} else {
			index = spPalette*4 + spPixel
		}
	}

	color := p.memory.ReadPalette(index) & 0x3F
	if p.mask&maskGrayscale != 0 {
		color &= 0x30
	}
	pos := y*ScreenWidth + x
	p.back[pos] = NESColorToRGB(color)
	p.backIndex[pos] = color
}
