package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"nesemu/internal/audio"
	"nesemu/internal/debug"
	"nesemu/internal/graphics"
)

// ErrFrameMismatch is returned when the final frame does not hash to the
// expected CRC
var ErrFrameMismatch = errors.New("frame checksum mismatch")

// frameQueueDepth bounds the frames in flight between the emulation and
// presentation goroutines; newer frames are dropped while it is full
const frameQueueDepth = 4

// HeadlessOptions controls a run without a display
type HeadlessOptions struct {
	Frames       int
	PNGPath      string // last frame as PNG, empty to skip
	ExpectedCRC  uint32
	CheckCRC     bool
	RecordPath   string // WAV of the run, empty to skip
	DumpDir      string // every DumpInterval-th frame as PNG, empty to skip
	DumpInterval uint64
}

// HeadlessResult summarizes a headless run
type HeadlessResult struct {
	Frames         uint64
	Presented      uint64
	DroppedFrames  uint64
	Samples        int
	DroppedSamples uint64
	CRC            uint32
}

// RunHeadless runs the emulator for a fixed number of frames. Emulation and
// presentation run on separate goroutines joined by a bounded frame queue
// and the emulator's sample ring. Cancelling ctx stops both.
func RunHeadless(ctx context.Context, emu *Emulator, opts HeadlessOptions) (HeadlessResult, error) {
	var result HeadlessResult
	if opts.Frames <= 0 {
		return result, fmt.Errorf("frame count must be positive, got %d", opts.Frames)
	}

	backend := graphics.NewHeadlessBackend()
	if err := backend.Initialize(graphics.Config{Headless: true}); err != nil {
		return result, err
	}
	defer backend.Cleanup()
	window, err := backend.CreateWindow("nesemu", graphics.ScreenWidth, graphics.ScreenHeight)
	if err != nil {
		return result, err
	}
	defer window.Cleanup()
	headless := window.(*graphics.HeadlessWindow)

	if opts.DumpDir != "" {
		dumper := debug.NewFrameDumper(opts.DumpDir)
		if opts.DumpInterval > 0 {
			dumper.SetDumpInterval(opts.DumpInterval)
		}
		if err := dumper.Enable(); err != nil {
			return result, err
		}
		headless.SetFrameDumper(dumper)
	}

	var recorder *audio.Recorder
	if opts.RecordPath != "" {
		recorder, err = audio.NewRecorder(opts.RecordPath, emu.config.Audio.SampleRate)
		if err != nil {
			return result, err
		}
		emu.SetAudioEnabled(true)
	}

	frames := make(chan *graphics.Frame, frameQueueDepth)
	ring := emu.Samples()
	g, ctx := errgroup.WithContext(ctx)

	// Emulation
	g.Go(func() error {
		defer close(frames)
		for i := 0; i < opts.Frames; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emu.StepFrame(); err != nil {
				return err
			}
			frame := new(graphics.Frame)
			*frame = *emu.Bus().FrameBuffer()
			select {
			case frames <- frame:
			default:
				result.DroppedFrames++
			}
		}
		return nil
	})

	// Presentation and recording
	g.Go(func() error {
		scratch := make([]int16, 4096)
		drain := func() error {
			for {
				n := ring.Read(scratch)
				if n == 0 {
					return nil
				}
				if recorder != nil {
					if err := recorder.Write(scratch[:n]); err != nil {
						return err
					}
				}
				result.Samples += n
			}
		}

		for frame := range frames {
			if err := headless.RenderFrame(frame); err != nil {
				return err
			}
			if err := drain(); err != nil {
				return err
			}
		}
		return drain()
	})

	err = g.Wait()
	if recorder != nil {
		if cerr := recorder.Close(); err == nil {
			err = cerr
		}
	}
	result.Frames = emu.GetFrameCount()
	result.Presented = headless.FrameCount()
	result.DroppedSamples = ring.Dropped()
	if err != nil {
		return result, err
	}

	// Both goroutines are done; the bus is ours again
	last := emu.Bus().FrameBuffer()
	result.CRC = debug.FrameChecksum(last)
	log.Printf("[APP] headless run: %d frames, %d presented, %d dropped, crc %08X",
		result.Frames, result.Presented, result.DroppedFrames, result.CRC)

	if opts.PNGPath != "" {
		if err := debug.SavePNG(opts.PNGPath, last); err != nil {
			return result, err
		}
	}
	if opts.CheckCRC && result.CRC != opts.ExpectedCRC {
		return result, fmt.Errorf("%w: expected %08X, got %08X", ErrFrameMismatch, opts.ExpectedCRC, result.CRC)
	}
	return result, nil
}
