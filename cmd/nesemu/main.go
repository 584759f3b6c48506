// Package main implements the nesemu NES emulator executable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"nesemu/internal/app"
	"nesemu/internal/bus"
	"nesemu/internal/cartridge"
	"nesemu/internal/version"
)

func main() {
	var (
		romFile     = flag.String("rom", "", "Path to NES ROM file")
		configFile  = flag.String("config", app.GetDefaultConfigPath(), "Path to configuration file")
		headless    = flag.Bool("headless", false, "Run without a window for -frames frames")
		frames      = flag.Int("frames", 600, "Frames to run in headless mode")
		pngPath     = flag.String("png", "", "Headless: write the last frame to this PNG file")
		expectCRC   = flag.String("crc", "", "Headless: expected CRC-32 of the last frame (hex)")
		dumpDir     = flag.String("dump", "", "Headless: write every -dump-every'th frame as PNG into this directory")
		dumpEvery   = flag.Uint64("dump-every", 60, "Headless: frame interval for -dump")
		scale       = flag.Int("scale", 0, "Window scale 1-4 (overrides config)")
		backend     = flag.String("backend", "", "Graphics backend: ebitengine, terminal, headless (overrides config)")
		recordPath  = flag.String("record", "", "Record audio to this WAV file")
		trace       = flag.Bool("trace", false, "Log every executed CPU instruction")
		tracePath   = flag.String("trace-file", "", "Write the CPU trace to this file instead of stderr")
		debugMode   = flag.Bool("debug", false, "Enable debug logging and FPS reporting")
		statsAddr   = flag.String("statsview", "", "Serve runtime statistics on this address (e.g. localhost:12600)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		version.PrintBuildInfo(os.Stdout)
		return
	}
	if *romFile == "" && flag.NArg() > 0 {
		*romFile = flag.Arg(0)
	}
	if *romFile == "" {
		printUsage()
		os.Exit(2)
	}

	config := app.NewConfig()
	if err := config.LoadFromFile(*configFile); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command-line flags override the file
	if *scale != 0 {
		config.Window.Scale = *scale
	}
	if *backend != "" {
		config.Video.Backend = *backend
	}
	if *recordPath != "" {
		config.Audio.RecordPath = *recordPath
	}
	if *trace {
		config.Debug.CPUTracing = true
	}
	if *tracePath != "" {
		config.Debug.TracePath = *tracePath
	}
	if *debugMode {
		config.Debug.EnableLogging = true
		config.Debug.ShowFPS = true
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *statsAddr != "" {
		launchStatsView(*statsAddr)
	}

	if *headless {
		opts := app.HeadlessOptions{
			Frames:       *frames,
			PNGPath:      *pngPath,
			RecordPath:   config.Audio.RecordPath,
			DumpDir:      *dumpDir,
			DumpInterval: *dumpEvery,
		}
		if *expectCRC != "" {
			crc, err := strconv.ParseUint(*expectCRC, 16, 32)
			if err != nil {
				log.Fatalf("Invalid -crc value %q: %v", *expectCRC, err)
			}
			opts.ExpectedCRC = uint32(crc)
			opts.CheckCRC = true
		}
		if err := runHeadless(*romFile, config, opts); err != nil {
			log.Fatalf("Headless run failed: %v", err)
		}
		return
	}

	if err := runGUI(*romFile, config); err != nil {
		log.Fatalf("Emulator failed: %v", err)
	}
}

// runGUI runs the emulator in a window until it is closed or interrupted
func runGUI(romFile string, config *app.Config) error {
	if err := config.CreateDirectories(); err != nil {
		return err
	}

	application, err := app.NewApplication(config)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			log.Printf("[APP] cleanup error: %v", err)
		}
	}()

	if err := application.LoadROM(romFile); err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		if _, ok := <-signals; ok {
			log.Printf("[APP] interrupt received, shutting down")
			application.Stop()
		}
	}()

	if err := application.Run(); err != nil {
		return err
	}

	log.Printf("[APP] %d frames in %v", application.GetFrameCount(), application.GetUptime().Round(time.Millisecond))
	return nil
}

// runHeadless runs a fixed number of frames and prints the last frame's CRC
func runHeadless(romFile string, config *app.Config, opts app.HeadlessOptions) error {
	cart, err := cartridge.LoadFromFile(romFile)
	if err != nil {
		return err
	}

	b := bus.New()
	b.LoadCartridge(cart)
	emulator := app.NewEmulator(b, config)
	if config.Debug.CPUTracing {
		t := newTracer(config)
		if t.closer != nil {
			defer t.closer.Close()
		}
		b.SetTracer(t.Tracer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := app.RunHeadless(ctx, emulator, opts)
	if err != nil {
		return err
	}
	fmt.Printf("frames=%d presented=%d dropped=%d samples=%d crc=%08X\n",
		result.Frames, result.Presented, result.DroppedFrames, result.Samples, result.CRC)
	return nil
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "%s\n\n", version.GetBuildInfo())
	fmt.Fprintln(out, "USAGE:")
	fmt.Fprintln(out, "  nesemu [options] -rom <file>")
	fmt.Fprintln(out, "  nesemu -headless -frames 600 -png last.png -rom <file>")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "OPTIONS:")
	flag.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "CONTROLS (default):")
	fmt.Fprintln(out, "  Player 1: arrows, J = A, K = B, Enter = Start, Space = Select")
	fmt.Fprintln(out, "  Player 2: 1-4 = Up/Down/Left/Right, 5 = A, 6 = B, 7 = Start, 8 = Select")
	fmt.Fprintln(out, "  F1-F4 save slot, Shift+F1-F4 load slot, S/L quick save/load")
	fmt.Fprintln(out, "  P pause, R reset, M mute, T CPU trace, F12 screenshot, Esc quit")
}
