package apu

import "fmt"

// State is the snapshot record of the APU. Buffered samples are output,
// not machine state, and are left out.
type State struct {
	Pulse1, Pulse2 Pulse
	Triangle       Triangle
	Noise          Noise
	DMC            DMC

	FrameCycle int
	FiveStep   bool
	IRQInhibit bool
	FrameIRQ   bool

	Cycles      uint64
	SampleCycle int
	FilterIn    float64
	FilterOut   float64
}

// Validate reports channel fields that would index past the lookup tables
func (s State) Validate() error {
	for i, p := range []Pulse{s.Pulse1, s.Pulse2} {
		if int(p.Duty) >= len(dutyTable) || int(p.DutyPos) >= len(dutyTable[0]) {
			return fmt.Errorf("pulse %d duty %d/%d out of range", i+1, p.Duty, p.DutyPos)
		}
	}
	if int(s.Triangle.Step) >= len(triangleTable) {
		return fmt.Errorf("triangle step %d out of range", s.Triangle.Step)
	}
	if int(s.Noise.PeriodIndex) >= len(noisePeriodTable) {
		return fmt.Errorf("noise period index %d out of range", s.Noise.PeriodIndex)
	}
	if int(s.DMC.RateIndex) >= len(dmcRateTable) {
		return fmt.Errorf("DMC rate index %d out of range", s.DMC.RateIndex)
	}
	if s.DMC.Output > 127 {
		return fmt.Errorf("DMC output %d out of range", s.DMC.Output)
	}
	return nil
}

// SaveState captures all channel and sequencer state
func (apu *APU) SaveState() State {
	return State{
		Pulse1:      apu.pulse1,
		Pulse2:      apu.pulse2,
		Triangle:    apu.triangle,
		Noise:       apu.noise,
		DMC:         apu.dmc,
		FrameCycle:  apu.frameCycle,
		FiveStep:    apu.fiveStep,
		IRQInhibit:  apu.irqInhibit,
		FrameIRQ:    apu.frameIRQ,
		Cycles:      apu.cycles,
		SampleCycle: apu.sampleCycle,
		FilterIn:    apu.filterIn,
		FilterOut:   apu.filterOut,
	}
}

// LoadState restores a snapshot and discards buffered samples
func (apu *APU) LoadState(s State) {
	apu.pulse1 = s.Pulse1
	apu.pulse2 = s.Pulse2
	apu.triangle = s.Triangle
	apu.noise = s.Noise
	apu.dmc = s.DMC
	apu.frameCycle = s.FrameCycle
	apu.fiveStep = s.FiveStep
	apu.irqInhibit = s.IRQInhibit
	apu.frameIRQ = s.FrameIRQ
	apu.cycles = s.Cycles
	apu.sampleCycle = s.SampleCycle
	apu.filterIn = s.FilterIn
	apu.filterOut = s.FilterOut
	apu.sampleHead, apu.sampleCount = 0, 0
}
