// Package apu implements the Audio Processing Unit for the NES.
package apu

import "math"

const (
	// CPUFrequency is the NTSC CPU clock in Hz
	CPUFrequency = 1789773

	// CyclesPerSample is the number of CPU cycles between output samples
	CyclesPerSample = 40

	// SampleRate is the native output rate in Hz
	SampleRate = float64(CPUFrequency) / CyclesPerSample

	// MaxBufferedSamples bounds the sample buffer; older samples are
	// overwritten when nobody drains it
	MaxBufferedSamples = 16384

	// First-order high-pass at 90 Hz removes the mixer's DC offset
	highPassRC    = 1 / (2 * math.Pi * 90)
	highPassAlpha = highPassRC / (highPassRC + 1/SampleRate)
)

// MemoryReader is the CPU bus as seen by the DMC sample fetcher
type MemoryReader interface {
	Read(address uint16) uint8
}

// APU represents the NES Audio Processing Unit
type APU struct {
	pulse1   Pulse
	pulse2   Pulse
	triangle Triangle
	noise    Noise
	dmc      DMC

	// Frame sequencer
	frameCycle int
	fiveStep   bool
	irqInhibit bool
	frameIRQ   bool

	cycles      uint64
	sampleCycle int
	filterIn    float64
	filterOut   float64

	samples     [MaxBufferedSamples]int16
	sampleHead  int
	sampleCount int
	dropped     uint64
}

// New creates a new APU instance
func New() *APU {
	apu := &APU{}
	apu.Reset()
	return apu
}

// Reset resets the APU to its power-up state
func (apu *APU) Reset() {
	apu.pulse1 = Pulse{OnesComplement: true}
	apu.pulse2 = Pulse{}
	apu.triangle = Triangle{}
	apu.noise = Noise{Shift: 1}
	// $4012 and $4013 power up as zero: address $C000, length 1
	apu.dmc = DMC{
		SampleAddress: 0xC000,
		SampleLength:  1,
		BufferEmpty:   true,
		Silence:       true,
	}

	apu.frameCycle = 0
	apu.fiveStep = false
	apu.irqInhibit = false
	apu.frameIRQ = false

	apu.cycles = 0
	apu.sampleCycle = 0
	apu.filterIn, apu.filterOut = 0, 0
	apu.sampleHead, apu.sampleCount = 0, 0
}

// Step advances the APU by elapsed CPU cycles. DMC sample fetches read
// through mem, which may be nil when no bus is attached.
func (apu *APU) Step(elapsed int, mem MemoryReader) {
	for i := 0; i < elapsed; i++ {
		apu.tick(mem)
	}
}

func (apu *APU) tick(mem MemoryReader) {
	apu.cycles++
	apu.stepFrameCounter()

	apu.triangle.clockTimer()
	if apu.cycles&1 == 0 {
		apu.pulse1.clockTimer()
		apu.pulse2.clockTimer()
	}
	apu.noise.clockTimer()
	apu.dmc.clockTimer(mem)

	apu.sampleCycle++
	if apu.sampleCycle == CyclesPerSample {
		apu.sampleCycle = 0
		apu.pushSample(apu.mix())
	}
}

// stepFrameCounter clocks envelopes, sweeps and length counters at the
// frame sequencer steps, all expressed in CPU cycles
func (apu *APU) stepFrameCounter() {
	apu.frameCycle++

	switch apu.frameCycle {
	case 7457, 22371:
		apu.quarterFrame()
	case 14913:
		apu.quarterFrame()
		apu.halfFrame()
	case 29829:
		if !apu.fiveStep {
			apu.quarterFrame()
			apu.halfFrame()
			apu.raiseFrameIRQ()
		}
	case 29830:
		if !apu.fiveStep {
			apu.raiseFrameIRQ()
			apu.frameCycle = 0
		}
	case 37281:
		apu.quarterFrame()
		apu.halfFrame()
	case 37282:
		apu.frameCycle = 0
	}
}

func (apu *APU) raiseFrameIRQ() {
	if !apu.irqInhibit {
		apu.frameIRQ = true
	}
}

// quarterFrame clocks envelopes and the triangle linear counter
func (apu *APU) quarterFrame() {
	apu.pulse1.Envelope.clock()
	apu.pulse2.Envelope.clock()
	apu.noise.Envelope.clock()
	apu.triangle.clockLinear()
}

// halfFrame clocks length counters and sweep units
func (apu *APU) halfFrame() {
	apu.pulse1.clockLength()
	apu.pulse1.clockSweep()
	apu.pulse2.clockLength()
	apu.pulse2.clockSweep()
	apu.triangle.clockLength()
	apu.noise.clockLength()
}

// WriteRegister writes to an APU register ($4000-$4013, $4015, $4017)
func (apu *APU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x4000:
		apu.pulse1.writeControl(value)
	case 0x4001:
		apu.pulse1.writeSweep(value)
	case 0x4002:
		apu.pulse1.writeTimerLow(value)
	case 0x4003:
		apu.pulse1.writeTimerHigh(value)
	case 0x4004:
		apu.pulse2.writeControl(value)
	case 0x4005:
		apu.pulse2.writeSweep(value)
	case 0x4006:
		apu.pulse2.writeTimerLow(value)
	case 0x4007:
		apu.pulse2.writeTimerHigh(value)
	case 0x4008:
		apu.triangle.writeControl(value)
	case 0x400A:
		apu.triangle.writeTimerLow(value)
	case 0x400B:
		apu.triangle.writeTimerHigh(value)
	case 0x400C:
		apu.noise.writeControl(value)
	case 0x400E:
		apu.noise.writePeriod(value)
	case 0x400F:
		apu.noise.writeLength(value)
	case 0x4010:
		apu.dmc.writeControl(value)
	case 0x4011:
		apu.dmc.Output = value & 0x7F
	case 0x4012:
		apu.dmc.SampleAddress = 0xC000 | uint16(value)<<6
	case 0x4013:
		apu.dmc.SampleLength = uint16(value)<<4 | 1
	case 0x4015:
		apu.writeEnable(value)
	case 0x4017:
		apu.writeFrameCounter(value)
	}
}

// writeEnable handles $4015; disabling a channel silences its length counter
func (apu *APU) writeEnable(value uint8) {
	apu.pulse1.setEnabled(value&0x01 != 0)
	apu.pulse2.setEnabled(value&0x02 != 0)
	apu.triangle.setEnabled(value&0x04 != 0)
	apu.noise.setEnabled(value&0x08 != 0)
	apu.dmc.setEnabled(value&0x10 != 0)
	apu.dmc.IRQ = false
}

// writeFrameCounter handles $4017; 5-step mode clocks every unit at once
func (apu *APU) writeFrameCounter(value uint8) {
	apu.fiveStep = value&0x80 != 0
	apu.irqInhibit = value&0x40 != 0
	if apu.irqInhibit {
		apu.frameIRQ = false
	}
	apu.frameCycle = 0
	if apu.fiveStep {
		apu.quarterFrame()
		apu.halfFrame()
	}
}

// ReadStatus reads $4015 and acknowledges the frame interrupt
func (apu *APU) ReadStatus() uint8 {
	var status uint8
	if apu.pulse1.Length > 0 {
		status |= 0x01
	}
	if apu.pulse2.Length > 0 {
		status |= 0x02
	}
	if apu.triangle.Length > 0 {
		status |= 0x04
	}
	if apu.noise.Length > 0 {
		status |= 0x08
	}
	if apu.dmc.BytesRemaining > 0 {
		status |= 0x10
	}
	if apu.frameIRQ {
		status |= 0x40
	}
	if apu.dmc.IRQ {
		status |= 0x80
	}
	apu.frameIRQ = false
	return status
}

// IRQ reports whether the frame sequencer or the DMC asserts the IRQ line
func (apu *APU) IRQ() bool {
	return apu.frameIRQ || apu.dmc.IRQ
}

// mix applies the nonlinear NES mixer; the result lies in [0, 1]
func (apu *APU) mix() float64 {
	p1 := apu.pulse1.output()
	p2 := apu.pulse2.output()

	var pulseOut float64
	if sum := float64(p1) + float64(p2); sum != 0 {
		pulseOut = 95.88 / (8128/sum + 100)
	}

	var tndOut float64
	tnd := float64(apu.triangle.output())/8227 +
		float64(apu.noise.output())/12241 +
		float64(apu.dmc.Output)/22638
	if tnd != 0 {
		tndOut = 159.79 / (1/tnd + 100)
	}
	return pulseOut + tndOut
}

// pushSample filters, converts and stores one sample
func (apu *APU) pushSample(level float64) {
	out := highPassAlpha * (apu.filterOut + level - apu.filterIn)
	apu.filterIn = level
	apu.filterOut = out

	scaled := math.Round(out * math.MaxInt16)
	scaled = math.Max(math.MinInt16, math.Min(math.MaxInt16, scaled))

	if apu.sampleCount == MaxBufferedSamples {
		apu.samples[apu.sampleHead] = int16(scaled)
		apu.sampleHead = (apu.sampleHead + 1) % MaxBufferedSamples
		apu.dropped++
		return
	}
	apu.samples[(apu.sampleHead+apu.sampleCount)%MaxBufferedSamples] = int16(scaled)
	apu.sampleCount++
}

// DrainSamples returns the buffered samples oldest first and empties the buffer
func (apu *APU) DrainSamples() []int16 {
	out := make([]int16, apu.sampleCount)
	for i := range out {
		out[i] = apu.samples[(apu.sampleHead+i)%MaxBufferedSamples]
	}
	apu.sampleHead, apu.sampleCount = 0, 0
	return out
}

// Dropped returns how many samples were overwritten before being drained
func (apu *APU) Dropped() uint64 {
	return apu.dropped
}

// ChannelOutput returns a channel's raw output level (0 pulse 1, 1 pulse 2,
// 2 triangle, 3 noise, 4 DMC)
func (apu *APU) ChannelOutput(channel int) uint8 {
	switch channel {
	case 0:
		return apu.pulse1.output()
	case 1:
		return apu.pulse2.output()
	case 2:
		return apu.triangle.output()
	case 3:
		return apu.noise.output()
	case 4:
		return apu.dmc.Output
	}
	return 0
}
