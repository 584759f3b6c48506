package apu

import (
	"math"
	"testing"
)

// MockMemory records DMC fetches
type MockMemory struct {
	data  map[uint16]uint8
	reads []uint16
}

func NewMockMemory() *MockMemory {
	return &MockMemory{data: make(map[uint16]uint8)}
}

func (m *MockMemory) Read(address uint16) uint8 {
	m.reads = append(m.reads, address)
	return m.data[address]
}

func TestFrameIRQTiming(t *testing.T) {
	apu := New()

	apu.Step(29828, nil)
	if apu.IRQ() {
		t.Fatal("Frame IRQ raised too early")
	}
	apu.Step(1, nil)
	if !apu.IRQ() {
		t.Fatal("Frame IRQ should be raised at CPU cycle 29829")
	}

	if status := apu.ReadStatus(); status&0x40 == 0 {
		t.Errorf("Status should report the frame IRQ, got 0x%02X", status)
	}
	if apu.IRQ() {
		t.Error("Reading $4015 should acknowledge the frame IRQ")
	}
}

func TestFrameIRQInhibitAndFiveStep(t *testing.T) {
	tests := []struct {
		name  string
		value uint8
	}{
		{"inhibit", 0x40},
		{"five-step", 0x80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apu := New()
			apu.WriteRegister(0x4017, tt.value)
			apu.Step(80000, nil)
			if apu.IRQ() {
				t.Error("Frame IRQ should not be raised")
			}
		})
	}
}

func TestInhibitClearsPendingFrameIRQ(t *testing.T) {
	apu := New()
	apu.Step(29830, nil)
	if !apu.IRQ() {
		t.Fatal("Expected a pending frame IRQ")
	}
	apu.WriteRegister(0x4017, 0x40)
	if apu.IRQ() {
		t.Error("Setting the inhibit bit should clear the frame IRQ")
	}
}

func TestLengthCounterCountsHalfFrames(t *testing.T) {
	apu := New()
	apu.WriteRegister(0x4015, 0x01)
	apu.WriteRegister(0x4000, 0x00)
	apu.WriteRegister(0x4003, 0x00) // length index 0 = 10

	if apu.ReadStatus()&0x01 == 0 {
		t.Fatal("Length counter should be loaded")
	}

	// Two half-frame clocks per 4-step sequence
	apu.Step(4*29830, nil)
	if apu.ReadStatus()&0x01 == 0 {
		t.Error("Length counter expired after 8 clocks")
	}
	apu.Step(29830, nil)
	if apu.ReadStatus()&0x01 != 0 {
		t.Error("Length counter should expire after 10 clocks")
	}
}

func TestLengthCounterHalt(t *testing.T) {
	apu := New()
	apu.WriteRegister(0x4015, 0x01)
	apu.WriteRegister(0x4000, 0x20)
	apu.WriteRegister(0x4003, 0x00)

	apu.Step(10*29830, nil)
	if apu.ReadStatus()&0x01 == 0 {
		t.Error("Halted length counter should not count down")
	}
}

func TestDisabledChannelsIgnoreLengthLoads(t *testing.T) {
	apu := New()
	apu.WriteRegister(0x400F, 0x08)
	if apu.ReadStatus()&0x08 != 0 {
		t.Error("Length load on a disabled channel should be ignored")
	}

	apu.WriteRegister(0x4015, 0x0F)
	apu.WriteRegister(0x4003, 0x08)
	apu.WriteRegister(0x4007, 0x08)
	apu.WriteRegister(0x400B, 0x08)
	apu.WriteRegister(0x400F, 0x08)
	if got := apu.ReadStatus() & 0x0F; got != 0x0F {
		t.Fatalf("Expected all four length bits, got 0x%X", got)
	}

	apu.WriteRegister(0x4015, 0x00)
	if got := apu.ReadStatus() & 0x0F; got != 0 {
		t.Errorf("Disabling should clear length counters, got 0x%X", got)
	}
}

func TestSweepMuting(t *testing.T) {
	p := Pulse{Period: 0x600, SweepShift: 1, Length: 10, Duty: 2, DutyPos: 1}
	p.Envelope.Constant = true
	p.Envelope.Volume = 15
	if !p.muted() || p.output() != 0 {
		t.Error("Sweep target above $7FF should mute even with sweep disabled")
	}

	p.Period = 0x100
	if p.muted() || p.output() != 15 {
		t.Errorf("Expected audible pulse, got %d", p.output())
	}

	p.Period = 7
	if !p.muted() {
		t.Error("Periods below 8 should mute")
	}
}

func TestSweepNegateDiffersBetweenPulses(t *testing.T) {
	apu := New()
	apu.pulse1.Period = 0x100
	apu.pulse2.Period = 0x100
	for _, p := range []*Pulse{&apu.pulse1, &apu.pulse2} {
		p.writeSweep(0x89) // enabled, period 0, negate, shift 1
		p.clockSweep()
	}
	if apu.pulse1.Period != 0x7F {
		t.Errorf("Pulse 1 uses one's complement, expected $7F, got $%X", apu.pulse1.Period)
	}
	if apu.pulse2.Period != 0x80 {
		t.Errorf("Pulse 2 uses two's complement, expected $80, got $%X", apu.pulse2.Period)
	}
}

func TestEnvelopeDecay(t *testing.T) {
	e := Envelope{Start: true, Volume: 0}
	e.clock()
	if e.output() != 15 {
		t.Fatalf("Start should reload decay to 15, got %d", e.output())
	}
	for i := 0; i < 15; i++ {
		e.clock()
	}
	if e.output() != 0 {
		t.Errorf("Decay should reach 0, got %d", e.output())
	}
	e.Loop = true
	e.clock()
	if e.output() != 15 {
		t.Errorf("Looping envelope should wrap to 15, got %d", e.output())
	}
}

func TestSamplesAtNativeRate(t *testing.T) {
	apu := New()
	apu.Step(CyclesPerSample*100+5, nil)

	if got := len(apu.DrainSamples()); got != 100 {
		t.Errorf("Expected 100 samples, got %d", got)
	}
	if got := len(apu.DrainSamples()); got != 0 {
		t.Errorf("Drain should empty the buffer, got %d", got)
	}
}

func TestSilenceAtPowerOn(t *testing.T) {
	apu := New()
	apu.Step(CyclesPerSample*50, nil)
	for i, s := range apu.DrainSamples() {
		if s != 0 {
			t.Fatalf("Sample %d = %d, expected silence", i, s)
		}
	}
}

func TestPulseToneProducesSamples(t *testing.T) {
	apu := New()
	apu.WriteRegister(0x4015, 0x01)
	apu.WriteRegister(0x4000, 0xBF) // 50% duty, halt, constant volume 15
	apu.WriteRegister(0x4002, 0xFD)
	apu.WriteRegister(0x4003, 0x00)

	apu.Step(CyclesPerSample*1000, nil)
	nonZero := 0
	for _, s := range apu.DrainSamples() {
		if s != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Error("An audible pulse should produce non-zero samples")
	}
}

func TestSampleBufferIsBounded(t *testing.T) {
	apu := New()
	apu.Step(CyclesPerSample*(MaxBufferedSamples+10), nil)

	if got := len(apu.DrainSamples()); got != MaxBufferedSamples {
		t.Errorf("Expected %d buffered samples, got %d", MaxBufferedSamples, got)
	}
	if apu.Dropped() != 10 {
		t.Errorf("Expected 10 dropped samples, got %d", apu.Dropped())
	}
}

func TestMixer(t *testing.T) {
	apu := New()
	apu.dmc.Output = 127

	want := 159.79 / (1/(127.0/22638) + 100)
	if got := apu.mix(); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected DMC-only mix %.5f, got %.5f", want, got)
	}
}

func TestDMCReadsThroughBus(t *testing.T) {
	apu := New()
	mem := NewMockMemory()
	mem.data[0xC040] = 0xFF

	apu.WriteRegister(0x4010, 0x80) // IRQ enabled, rate 0
	apu.WriteRegister(0x4012, 0x01) // $C040
	apu.WriteRegister(0x4013, 0x00) // 1 byte
	apu.WriteRegister(0x4015, 0x10)

	if apu.ReadStatus()&0x10 == 0 {
		t.Fatal("DMC should report bytes remaining")
	}
	apu.Step(1, mem)

	if len(mem.reads) != 1 || mem.reads[0] != 0xC040 {
		t.Fatalf("Expected a single fetch from $C040, got %v", mem.reads)
	}
	if !apu.IRQ() {
		t.Error("Finishing a non-looping sample should raise the DMC IRQ")
	}
	status := apu.ReadStatus()
	if status&0x80 == 0 || status&0x10 != 0 {
		t.Errorf("Unexpected status 0x%02X", status)
	}

	apu.WriteRegister(0x4015, 0x00)
	if apu.IRQ() {
		t.Error("Writing $4015 should clear the DMC IRQ")
	}
}

func TestDMCOutputFollowsSampleBits(t *testing.T) {
	apu := New()
	mem := NewMockMemory()
	mem.data[0xC000] = 0xFF

	apu.WriteRegister(0x4011, 0x40)
	apu.WriteRegister(0x4010, 0x0F) // fastest rate, 54 cycles
	apu.WriteRegister(0x4013, 0x00)
	apu.WriteRegister(0x4015, 0x10)

	apu.Step(54*10, mem)
	if apu.ChannelOutput(4) <= 0x40 {
		t.Errorf("All-ones sample should raise the DAC, got %d", apu.ChannelOutput(4))
	}
}

func TestDMCLoopRestarts(t *testing.T) {
	apu := New()
	mem := NewMockMemory()

	apu.WriteRegister(0x4010, 0xC0) // IRQ enabled, loop
	apu.WriteRegister(0x4013, 0x00)
	apu.WriteRegister(0x4015, 0x10)
	apu.Step(2000, mem)

	if apu.IRQ() {
		t.Error("Looping samples never raise the IRQ")
	}
	if apu.ReadStatus()&0x10 == 0 {
		t.Error("Looping sample should keep bytes remaining")
	}
}

func TestDMCAddressWraps(t *testing.T) {
	apu := New()
	mem := NewMockMemory()
	apu.dmc.CurrentAddress = 0xFFFF
	apu.dmc.BytesRemaining = 2

	apu.Step(1, mem)
	if mem.reads[0] != 0xFFFF || apu.dmc.CurrentAddress != 0x8000 {
		t.Errorf("Expected wrap to $8000, read %v next $%04X", mem.reads, apu.dmc.CurrentAddress)
	}
}

func TestStateRoundTrip(t *testing.T) {
	apu := New()
	apu.WriteRegister(0x4015, 0x0F)
	apu.WriteRegister(0x4000, 0x9F)
	apu.WriteRegister(0x4002, 0x40)
	apu.WriteRegister(0x4003, 0x01)
	apu.WriteRegister(0x400C, 0x1F)
	apu.WriteRegister(0x400E, 0x83)
	apu.WriteRegister(0x400F, 0x10)
	apu.Step(12345, nil)

	saved := apu.SaveState()
	apu.Step(20000, nil)
	want := apu.SaveState()

	apu.LoadState(saved)
	if apu.SaveState() != saved {
		t.Fatal("LoadState did not restore the snapshot")
	}
	apu.Step(20000, nil)
	if apu.SaveState() != want {
		t.Error("Execution diverged after restoring a snapshot")
	}
}

func TestDMCPowerOnSample(t *testing.T) {
	apu := New()
	mem := NewMockMemory()

	apu.WriteRegister(0x4015, 0x10)
	apu.Step(100, mem)

	if len(mem.reads) != 1 || mem.reads[0] != 0xC000 {
		t.Errorf("Expected one fetch from $C000 at power-on, got %v", mem.reads)
	}
}

func TestStateValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *State)
	}{
		{"pulse duty", func(s *State) { s.Pulse1.Duty = 4 }},
		{"pulse position", func(s *State) { s.Pulse2.DutyPos = 8 }},
		{"triangle step", func(s *State) { s.Triangle.Step = 32 }},
		{"noise period", func(s *State) { s.Noise.PeriodIndex = 16 }},
		{"dmc rate", func(s *State) { s.DMC.RateIndex = 40 }},
		{"dmc output", func(s *State) { s.DMC.Output = 200 }},
	}

	if err := New().SaveState().Validate(); err != nil {
		t.Fatalf("Power-on state should be valid, got %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New().SaveState()
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("Expected an out-of-range error")
			}
		})
	}
}
