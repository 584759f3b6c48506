package apu

// Length counter lookup table
var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6,
	160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 8, 48, 6, 96, 4,
	192, 2, 72, 16, 28, 32, 52, 2,
}

// Duty cycle sequences (12.5%, 25%, 50%, 75% negated)
var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

var triangleTable = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// Noise periods in CPU cycles (NTSC)
var noisePeriodTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160,
	202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// DMC rates in CPU cycles (NTSC)
var dmcRateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214,
	190, 160, 142, 128, 106, 84, 72, 54,
}

// Envelope is the volume generator shared by the pulse and noise channels.
// Loop doubles as the length counter halt flag.
type Envelope struct {
	Start    bool
	Loop     bool
	Constant bool
	Volume   uint8
	Divider  uint8
	Decay    uint8
}

func (e *Envelope) write(value uint8) {
	e.Loop = value&0x20 != 0
	e.Constant = value&0x10 != 0
	e.Volume = value & 0x0F
}

func (e *Envelope) clock() {
	if e.Start {
		e.Start = false
		e.Decay = 15
		e.Divider = e.Volume
		return
	}
	if e.Divider > 0 {
		e.Divider--
		return
	}
	e.Divider = e.Volume
	if e.Decay > 0 {
		e.Decay--
	} else if e.Loop {
		e.Decay = 15
	}
}

func (e *Envelope) output() uint8 {
	if e.Constant {
		return e.Volume
	}
	return e.Decay
}

// Pulse is a square wave channel with sweep and envelope
type Pulse struct {
	Enabled  bool
	Envelope Envelope
	Duty     uint8
	DutyPos  uint8
	Period   uint16
	Timer    uint16
	Length   uint8

	SweepEnabled bool
	SweepNegate  bool
	SweepReload  bool
	SweepPeriod  uint8
	SweepShift   uint8
	SweepDivider uint8

	// Pulse 1 negates with one's complement, pulse 2 with two's
	OnesComplement bool
}

func (p *Pulse) writeControl(value uint8) {
	p.Duty = value >> 6
	p.Envelope.write(value)
}

func (p *Pulse) writeSweep(value uint8) {
	p.SweepEnabled = value&0x80 != 0
	p.SweepPeriod = (value >> 4) & 0x07
	p.SweepNegate = value&0x08 != 0
	p.SweepShift = value & 0x07
	p.SweepReload = true
}

func (p *Pulse) writeTimerLow(value uint8) {
	p.Period = p.Period&0x0700 | uint16(value)
}

func (p *Pulse) writeTimerHigh(value uint8) {
	p.Period = p.Period&0x00FF | uint16(value&0x07)<<8
	if p.Enabled {
		p.Length = lengthTable[value>>3]
	}
	p.Envelope.Start = true
	p.DutyPos = 0
}

func (p *Pulse) setEnabled(enabled bool) {
	p.Enabled = enabled
	if !enabled {
		p.Length = 0
	}
}

// clockTimer runs once per APU cycle (every other CPU cycle)
func (p *Pulse) clockTimer() {
	if p.Timer == 0 {
		p.Timer = p.Period
		p.DutyPos = (p.DutyPos + 1) & 0x07
	} else {
		p.Timer--
	}
}

func (p *Pulse) clockLength() {
	if !p.Envelope.Loop && p.Length > 0 {
		p.Length--
	}
}

func (p *Pulse) sweepTarget() int {
	change := int(p.Period >> p.SweepShift)
	if p.SweepNegate {
		change = -change
		if p.OnesComplement {
			change--
		}
	}
	return int(p.Period) + change
}

// muted is true for ultrasonic periods and sweep targets past 11 bits,
// whether or not the sweep is enabled
func (p *Pulse) muted() bool {
	return p.Period < 8 || p.sweepTarget() > 0x7FF
}

func (p *Pulse) clockSweep() {
	if p.SweepDivider == 0 && p.SweepEnabled && p.SweepShift > 0 && !p.muted() {
		target := p.sweepTarget()
		if target < 0 {
			target = 0
		}
		p.Period = uint16(target)
	}
	if p.SweepDivider == 0 || p.SweepReload {
		p.SweepDivider = p.SweepPeriod
		p.SweepReload = false
	} else {
		p.SweepDivider--
	}
}

func (p *Pulse) output() uint8 {
	if p.Length == 0 || p.muted() || dutyTable[p.Duty][p.DutyPos] == 0 {
		return 0
	}
	return p.Envelope.output()
}

// Triangle is the triangle wave channel with its linear counter
type Triangle struct {
	Enabled       bool
	Control       bool // length halt and linear reload control
	LinearLoad    uint8
	LinearCounter uint8
	LinearReload  bool
	Period        uint16
	Timer         uint16
	Length        uint8
	Step          uint8
}

func (t *Triangle) writeControl(value uint8) {
	t.Control = value&0x80 != 0
	t.LinearLoad = value & 0x7F
}

func (t *Triangle) writeTimerLow(value uint8) {
	t.Period = t.Period&0x0700 | uint16(value)
}

func (t *Triangle) writeTimerHigh(value uint8) {
	t.Period = t.Period&0x00FF | uint16(value&0x07)<<8
	if t.Enabled {
		t.Length = lengthTable[value>>3]
	}
	t.LinearReload = true
}

func (t *Triangle) setEnabled(enabled bool) {
	t.Enabled = enabled
	if !enabled {
		t.Length = 0
	}
}

// clockTimer runs every CPU cycle
func (t *Triangle) clockTimer() {
	if t.Timer == 0 {
		t.Timer = t.Period
		if t.Length > 0 && t.LinearCounter > 0 {
			t.Step = (t.Step + 1) & 0x1F
		}
	} else {
		t.Timer--
	}
}

func (t *Triangle) clockLinear() {
	if t.LinearReload {
		t.LinearCounter = t.LinearLoad
	} else if t.LinearCounter > 0 {
		t.LinearCounter--
	}
	if !t.Control {
		t.LinearReload = false
	}
}

func (t *Triangle) clockLength() {
	if !t.Control && t.Length > 0 {
		t.Length--
	}
}

func (t *Triangle) output() uint8 {
	if t.Length == 0 || t.LinearCounter == 0 || t.Period < 2 {
		return 0
	}
	return triangleTable[t.Step]
}

// Noise is the pseudo-random channel driven by a 15-bit LFSR
type Noise struct {
	Enabled     bool
	Envelope    Envelope
	Mode        bool // short 93-step sequence
	PeriodIndex uint8
	Timer       uint16
	Shift       uint16
	Length      uint8
}

func (n *Noise) writeControl(value uint8) {
	n.Envelope.write(value)
}

func (n *Noise) writePeriod(value uint8) {
	n.Mode = value&0x80 != 0
	n.PeriodIndex = value & 0x0F
}

func (n *Noise) writeLength(value uint8) {
	if n.Enabled {
		n.Length = lengthTable[value>>3]
	}
	n.Envelope.Start = true
}

func (n *Noise) setEnabled(enabled bool) {
	n.Enabled = enabled
	if !enabled {
		n.Length = 0
	}
}

// clockTimer runs every CPU cycle; the period table is in CPU cycles
func (n *Noise) clockTimer() {
	if n.Timer > 0 {
		n.Timer--
		return
	}
	n.Timer = noisePeriodTable[n.PeriodIndex] - 1

	tap := uint16(1)
	if n.Mode {
		tap = 6
	}
	feedback := (n.Shift ^ n.Shift>>tap) & 0x01
	n.Shift = n.Shift>>1 | feedback<<14
}

func (n *Noise) clockLength() {
	if !n.Envelope.Loop && n.Length > 0 {
		n.Length--
	}
}

func (n *Noise) output() uint8 {
	if n.Length == 0 || n.Shift&0x01 != 0 {
		return 0
	}
	return n.Envelope.output()
}
