package apu

// DMC is the delta modulation channel. It is the only APU unit that reads
// the CPU bus, one sample byte at a time.
type DMC struct {
	IRQEnabled bool
	Loop       bool
	RateIndex  uint8
	Timer      uint16
	Output     uint8 // 7-bit DAC level

	SampleAddress  uint16
	SampleLength   uint16
	CurrentAddress uint16
	BytesRemaining uint16

	Buffer        uint8
	BufferEmpty   bool
	ShiftRegister uint8
	BitsRemaining uint8
	Silence       bool

	IRQ bool
}

func (d *DMC) writeControl(value uint8) {
	d.IRQEnabled = value&0x80 != 0
	d.Loop = value&0x40 != 0
	d.RateIndex = value & 0x0F
	if !d.IRQEnabled {
		d.IRQ = false
	}
}

// setEnabled starts the sample when enabled with nothing left to play and
// stops it when disabled
func (d *DMC) setEnabled(enabled bool) {
	if !enabled {
		d.BytesRemaining = 0
		return
	}
	if d.BytesRemaining == 0 {
		d.restart()
	}
}

func (d *DMC) restart() {
	d.CurrentAddress = d.SampleAddress
	d.BytesRemaining = d.SampleLength
}

// clockTimer runs every CPU cycle; the rate table is in CPU cycles
func (d *DMC) clockTimer(mem MemoryReader) {
	d.fetch(mem)

	if d.Timer > 0 {
		d.Timer--
		return
	}
	d.Timer = dmcRateTable[d.RateIndex] - 1

	if !d.Silence {
		if d.ShiftRegister&0x01 != 0 {
			if d.Output <= 125 {
				d.Output += 2
			}
		} else if d.Output >= 2 {
			d.Output -= 2
		}
	}
	d.ShiftRegister >>= 1

	if d.BitsRemaining > 0 {
		d.BitsRemaining--
	}
	if d.BitsRemaining == 0 {
		d.BitsRemaining = 8
		if d.BufferEmpty {
			d.Silence = true
		} else {
			d.Silence = false
			d.ShiftRegister = d.Buffer
			d.BufferEmpty = true
		}
	}
}

// fetch refills the sample buffer from the bus. Addresses wrap from $FFFF
// to $8000.
func (d *DMC) fetch(mem MemoryReader) {
	if !d.BufferEmpty || d.BytesRemaining == 0 || mem == nil {
		return
	}

	d.Buffer = mem.Read(d.CurrentAddress)
	d.BufferEmpty = false

	d.CurrentAddress++
	if d.CurrentAddress == 0 {
		d.CurrentAddress = 0x8000
	}
	d.BytesRemaining--

	if d.BytesRemaining == 0 {
		if d.Loop {
			d.restart()
		} else if d.IRQEnabled {
			d.IRQ = true
		}
	}
}
