package app

import (
	"fmt"
	"log"
	"time"

	"nesemu/internal/apu"
	"nesemu/internal/audio"
	"nesemu/internal/bus"
)

// Emulator drives the machine one frame at a time and moves its audio to
// the output side: samples are resampled from the APU rate to the device
// rate and pushed into a bounded ring that drops the oldest samples.
type Emulator struct {
	bus    *bus.Bus
	config *Config

	// Timing
	targetFrameTime  time.Duration
	lastFrameTime    time.Duration
	averageFrameTime time.Duration
	emulationTime    time.Duration
	frameCount       uint64

	// Audio path
	audioEnabled bool
	resampler    *audio.Resampler
	samples      *audio.RingBuffer
	recorder     *audio.Recorder

	isRunning bool
}

// NewEmulator creates an emulator around a bus
func NewEmulator(b *bus.Bus, config *Config) *Emulator {
	rate := config.Audio.SampleRate
	e := &Emulator{
		bus:             b,
		config:          config,
		targetFrameTime: time.Duration(float64(time.Second) / config.Emulation.FrameRate),
		audioEnabled:    config.Audio.Enabled,
		resampler:       audio.NewResampler(apu.SampleRate, float64(rate)),
		// Half a second of mono audio
		samples: audio.NewRingBuffer(rate / 2),
	}
	return e
}

// Reset presses the console reset button and clears the audio path
func (e *Emulator) Reset() {
	e.bus.Reset()
	e.resampler.Reset()
	e.samples.Clear()
}

// Start starts the emulator
func (e *Emulator) Start() {
	e.isRunning = true
}

// Stop stops the emulator
func (e *Emulator) Stop() {
	e.isRunning = false
}

// IsRunning reports whether Update advances the machine
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}

// Update runs one frame while the emulator is started
func (e *Emulator) Update() error {
	if !e.isRunning {
		return nil
	}
	return e.StepFrame()
}

// StepFrame runs exactly one frame and moves the audio it produced
func (e *Emulator) StepFrame() error {
	start := time.Now()

	if err := e.bus.RunFrame(); err != nil {
		e.isRunning = false
		return fmt.Errorf("frame %d: %w", e.frameCount, err)
	}
	e.pumpAudio()

	e.frameCount++
	e.lastFrameTime = time.Since(start)
	e.emulationTime += e.lastFrameTime
	if e.averageFrameTime == 0 {
		e.averageFrameTime = e.lastFrameTime
	} else {
		// Exponential moving average over roughly a second of frames
		e.averageFrameTime += (e.lastFrameTime - e.averageFrameTime) / 60
	}
	return nil
}

// StepInstruction executes a single CPU instruction
func (e *Emulator) StepInstruction() error {
	_, err := e.bus.Step()
	return err
}

func (e *Emulator) pumpAudio() {
	native := e.bus.DrainSamples()
	if !e.audioEnabled || len(native) == 0 {
		return
	}

	out := e.resampler.Process(native)
	e.samples.Write(out)
	if e.recorder != nil {
		if err := e.recorder.Write(out); err != nil {
			log.Printf("[AUDIO] recording stopped: %v", err)
			e.recorder.Close()
			e.recorder = nil
		}
	}
}

// Samples returns the ring the device-rate audio is pushed into
func (e *Emulator) Samples() *audio.RingBuffer {
	return e.samples
}

// SetRecorder attaches a WAV recorder fed with device-rate samples;
// nil detaches it
func (e *Emulator) SetRecorder(r *audio.Recorder) {
	e.recorder = r
}

// Recorder returns the attached recorder, if any
func (e *Emulator) Recorder() *audio.Recorder {
	return e.recorder
}

// SetAudioEnabled turns the audio path on or off
func (e *Emulator) SetAudioEnabled(enabled bool) {
	e.audioEnabled = enabled
	if !enabled {
		e.samples.Clear()
	}
}

// Bus returns the emulated machine
func (e *Emulator) Bus() *bus.Bus {
	return e.bus
}

// GetFrameCount returns the number of frames run by this emulator
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetEmulationTime returns the wall time spent emulating
func (e *Emulator) GetEmulationTime() time.Duration {
	return e.emulationTime
}

// GetAverageFrameTime returns the smoothed time to emulate one frame
func (e *Emulator) GetAverageFrameTime() time.Duration {
	return e.averageFrameTime
}

// GetTargetFrameTime returns the frame period at the configured rate
func (e *Emulator) GetTargetFrameTime() time.Duration {
	return e.targetFrameTime
}

// GetEmulationSpeed returns how many times faster than real time the
// machine could run
func (e *Emulator) GetEmulationSpeed() float64 {
	if e.averageFrameTime == 0 {
		return 0
	}
	return float64(e.targetFrameTime) / float64(e.averageFrameTime)
}

// Cleanup closes the recorder
func (e *Emulator) Cleanup() error {
	e.isRunning = false
	if e.recorder != nil {
		err := e.recorder.Close()
		e.recorder = nil
		return err
	}
	return nil
}
