// Package app ties the emulated machine to a window, audio output, save
// slots and the keyboard.
package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"nesemu/internal/audio"
	"nesemu/internal/bus"
	"nesemu/internal/cartridge"
	"nesemu/internal/debug"
	"nesemu/internal/graphics"
)

// Application represents the main NES emulator application
type Application struct {
	// Core emulation components
	bus      *bus.Bus
	emulator *Emulator
	states   *StateManager
	config   *Config

	// Presentation
	graphicsBackend graphics.Backend
	window          graphics.Window
	videoProcessor  *graphics.VideoProcessor
	display         graphics.Frame

	// Audio output; stream exists even when no device could be opened
	audioStream *audio.Stream
	audioOutput *audio.Output

	// Input
	bindings map[graphics.Key]Binding

	// Tracing
	tracer    *debug.Tracer
	traceFile io.Closer

	// Control flags
	running     atomic.Bool
	paused      bool
	status      string
	initialized bool

	// Performance tracking
	frameCount     uint64
	startTime      time.Time
	lastFPSTime    time.Time
	framesAtLastFP uint64
	currentFPS     float64

	// ROM management
	romPath   string
	cartridge *cartridge.Cartridge
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates the application from a validated configuration
func NewApplication(config *Config) (*Application, error) {
	bindings, err := config.KeyBindings()
	if err != nil {
		return nil, &ApplicationError{Component: "input", Operation: "key mapping", Err: err}
	}

	app := &Application{
		config:    config,
		bindings:  bindings,
		bus:       bus.New(),
		startTime: time.Now(),
	}
	app.emulator = NewEmulator(app.bus, config)
	app.states = NewStateManager(config.Paths.SaveStates, config.Emulation.SaveStateSlots)
	app.bus.EnableInputDebug(config.Debug.InputLogging)

	if err := app.initializeGraphicsBackend(); err != nil {
		return nil, &ApplicationError{Component: "graphics", Operation: "initialization", Err: err}
	}
	app.initializeAudio()

	app.initialized = true
	return app, nil
}

// initializeGraphicsBackend creates the window, falling back to headless
// when no display is available
func (app *Application) initializeGraphicsBackend() error {
	backendType := graphics.BackendType(app.config.Video.Backend)
	backend, err := graphics.CreateBackend(backendType)
	if err != nil {
		return err
	}

	width, height := app.config.GetWindowResolution()
	graphicsConfig := graphics.Config{
		WindowTitle:  "nesemu",
		WindowWidth:  width,
		WindowHeight: height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		Filter:       app.config.Video.Filter,
		FrameRate:    app.config.Emulation.FrameRate,
		Headless:     backendType == graphics.BackendHeadless,
		Debug:        app.config.Debug.EnableLogging,
	}

	if err := backend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return err
		}
		log.Printf("[APP] %s backend failed (%v), falling back to headless", backend.GetName(), err)
		backend = graphics.NewHeadlessBackend()
		graphicsConfig.Headless = true
		if err := backend.Initialize(graphicsConfig); err != nil {
			return err
		}
	}
	app.graphicsBackend = backend

	app.window, err = backend.CreateWindow(graphicsConfig.WindowTitle, width, height)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}

	app.videoProcessor = graphics.NewVideoProcessor(
		app.config.Video.Brightness,
		app.config.Video.Contrast,
		app.config.Video.Saturation,
	)
	return nil
}

// initializeAudio opens the audio device. Failure only disables sound.
func (app *Application) initializeAudio() {
	app.audioStream = audio.NewStream(app.emulator.Samples())
	app.audioStream.SetVolume(app.config.Audio.Volume)
	app.audioStream.SetMuted(app.config.Audio.Muted)

	if !app.config.Audio.Enabled || app.graphicsBackend.IsHeadless() {
		app.emulator.SetAudioEnabled(false)
		return
	}

	bufferSize := time.Duration(app.config.Audio.BufferMS) * time.Millisecond
	output, err := audio.NewOutput(app.config.Audio.SampleRate, app.audioStream, bufferSize)
	if err != nil {
		log.Printf("[AUDIO] no audio output: %v", err)
		app.emulator.SetAudioEnabled(false)
		return
	}
	app.audioOutput = output
}

// LoadROM loads a ROM file into the emulator
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}

	app.cartridge = cart
	app.romPath = romPath
	app.bus.LoadCartridge(cart)
	app.emulator.Reset()
	log.Printf("[APP] loaded %s: %s", filepath.Base(romPath), cart)

	if app.window != nil {
		app.window.SetTitle(fmt.Sprintf("nesemu - %s", filepath.Base(romPath)))
	}

	if app.config.Audio.RecordPath != "" {
		recorder, err := audio.NewRecorder(app.config.Audio.RecordPath, app.config.Audio.SampleRate)
		if err != nil {
			return &ApplicationError{Component: "audio", Operation: "start recording", Err: err}
		}
		app.emulator.SetRecorder(recorder)
		app.emulator.SetAudioEnabled(true)
	}
	if app.config.Debug.CPUTracing {
		if err := app.SetTracing(true); err != nil {
			return err
		}
	}

	app.paused = app.config.Emulation.PauseOnStart
	app.emulator.Start()
	return nil
}

// Run starts the main application loop and blocks until the window closes
func (app *Application) Run() error {
	if !app.initialized {
		return errors.New("application not initialized")
	}
	if app.cartridge == nil {
		return &ApplicationError{Component: "emulator", Operation: "run", Err: bus.ErrNoCartridge}
	}

	app.running.Store(true)
	app.startTime = time.Now()
	app.lastFPSTime = app.startTime

	if app.config.Debug.EnableLogging {
		log.Printf("[APP] starting with %s backend", app.graphicsBackend.GetName())
	}
	err := app.window.Run(app.update)
	app.running.Store(false)
	if app.config.Debug.EnableLogging {
		log.Printf("[APP] main loop ended after %d frames", app.frameCount)
	}
	return err
}

// update is called once per display tick
func (app *Application) update() error {
	if !app.running.Load() {
		return graphics.ErrWindowClosed
	}

	app.processInput()
	if !app.running.Load() {
		return graphics.ErrWindowClosed
	}

	if !app.paused {
		if err := app.emulator.Update(); err != nil {
			return &ApplicationError{Component: "emulator", Operation: "frame", Err: err}
		}
		app.frameCount++
	}

	if err := app.render(); err != nil {
		return err
	}
	app.updatePerformanceMetrics(time.Now())
	return nil
}

// processInput routes window events to the controllers and hotkeys
func (app *Application) processInput() {
	for _, event := range app.window.PollEvents() {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			app.Stop()
		case graphics.InputEventTypeKey:
			if binding, ok := app.bindings[event.Key]; ok {
				app.bus.SetControllerButton(binding.Port, binding.Button, event.Pressed)
				continue
			}
			if event.Pressed {
				app.handleHotkey(event)
			}
		}
	}
}

// handleHotkey runs the emulator command bound to a key that no controller
// button uses
func (app *Application) handleHotkey(event graphics.InputEvent) {
	switch event.Key {
	case graphics.KeyEscape:
		app.Stop()
	case graphics.KeyF1, graphics.KeyF2, graphics.KeyF3, graphics.KeyF4:
		slot := int(event.Key-graphics.KeyF1) + 1
		if event.Modifiers&graphics.ModifierShift != 0 {
			app.report(fmt.Sprintf("Loaded state %d", slot), app.LoadState(slot))
		} else {
			app.report(fmt.Sprintf("Saved state %d", slot), app.SaveState(slot))
		}
	case graphics.KeyS:
		app.report("Saved state", app.QuickSave())
	case graphics.KeyL:
		app.report("Loaded state", app.QuickLoad())
	case graphics.KeyM:
		app.ToggleMute()
	case graphics.KeyT:
		enable := app.tracer == nil || !app.tracer.Enabled()
		message := "Tracing off"
		if enable {
			message = "Tracing on"
		}
		app.report(message, app.SetTracing(enable))
	case graphics.KeyP:
		app.TogglePause()
	case graphics.KeyR:
		app.Reset()
	case graphics.KeyF12:
		path, err := app.Screenshot()
		app.report("Screenshot "+path, err)
	}
}

// report logs the outcome of a hotkey command and keeps it as the status
// line; failures replace the message with the error
func (app *Application) report(message string, err error) {
	if err != nil {
		message = fmt.Sprintf("%s failed: %v", message, err)
	}
	app.status = message
	log.Printf("[APP] %s", message)
}

// render presents the last completed frame
func (app *Application) render() error {
	if app.cartridge == nil {
		return nil
	}
	app.videoProcessor.ProcessFrame(&app.display, app.bus.FrameBuffer())
	if err := app.window.RenderFrame(&app.display); err != nil {
		return &ApplicationError{Component: "graphics", Operation: "render", Err: err}
	}
	return nil
}

// updatePerformanceMetrics refreshes the FPS estimate once per second
func (app *Application) updatePerformanceMetrics(now time.Time) {
	elapsed := now.Sub(app.lastFPSTime)
	if elapsed < time.Second {
		return
	}
	app.currentFPS = float64(app.frameCount-app.framesAtLastFP) / elapsed.Seconds()
	app.framesAtLastFP = app.frameCount
	app.lastFPSTime = now

	if app.config.Debug.ShowFPS {
		log.Printf("[FPS] %.1f FPS | frame %d | emulation %.2fms (%.1fx real time) | audio dropped %d",
			app.currentFPS, app.frameCount,
			float64(app.emulator.GetAverageFrameTime().Microseconds())/1000,
			app.emulator.GetEmulationSpeed(), app.emulator.Samples().Dropped())
	}
}

// Stop ends the main loop; safe to call from any goroutine
func (app *Application) Stop() {
	app.running.Store(false)
}

// Pause pauses the emulator
func (app *Application) Pause() {
	app.paused = true
}

// Resume resumes the emulator
func (app *Application) Resume() {
	app.paused = false
}

// TogglePause toggles pause state
func (app *Application) TogglePause() {
	app.paused = !app.paused
	log.Printf("[APP] paused: %t", app.paused)
}

// ToggleMute toggles the audio output
func (app *Application) ToggleMute() {
	muted := !app.audioStream.Muted()
	app.audioStream.SetMuted(muted)
	log.Printf("[AUDIO] muted: %t", muted)
}

// SetTracing turns the CPU trace on or off. The trace goes to the
// configured file, or stderr.
func (app *Application) SetTracing(enabled bool) error {
	if enabled && app.tracer == nil {
		var w io.Writer = os.Stderr
		if path := app.config.Debug.TracePath; path != "" {
			file, err := os.Create(path)
			if err != nil {
				return &ApplicationError{Component: "debug", Operation: "open trace", Err: err}
			}
			w = file
			app.traceFile = file
		}
		app.tracer = debug.NewTracer(w)
		app.tracer.SetLimit(app.config.Debug.TraceLimit)
	}
	if app.tracer == nil {
		return nil
	}

	app.tracer.SetEnabled(enabled)
	if enabled {
		app.bus.SetTracer(app.tracer)
	} else {
		app.bus.SetTracer(nil)
	}
	log.Printf("[APP] CPU trace: %t", enabled)
	return nil
}

// SaveState saves the machine into a numbered slot
func (app *Application) SaveState(slot int) error {
	if app.cartridge == nil {
		return bus.ErrNoCartridge
	}
	return app.states.SaveState(app.bus, slot, app.romPath)
}

// LoadState restores the machine from a numbered slot
func (app *Application) LoadState(slot int) error {
	if app.cartridge == nil {
		return bus.ErrNoCartridge
	}
	if err := app.states.LoadState(app.bus, slot, app.romPath); err != nil {
		return err
	}
	app.emulator.Samples().Clear()
	return nil
}

// QuickSave writes the quick-save file
func (app *Application) QuickSave() error {
	if app.cartridge == nil {
		return bus.ErrNoCartridge
	}
	return app.states.QuickSave(app.bus, app.romPath)
}

// QuickLoad restores the quick-save file
func (app *Application) QuickLoad() error {
	if app.cartridge == nil {
		return bus.ErrNoCartridge
	}
	if err := app.states.QuickLoad(app.bus, app.romPath); err != nil {
		return err
	}
	app.emulator.Samples().Clear()
	return nil
}

// Screenshot writes the current frame to the screenshots directory
func (app *Application) Screenshot() (string, error) {
	if app.cartridge == nil {
		return "", bus.ErrNoCartridge
	}
	if err := os.MkdirAll(app.config.Paths.Screenshots, 0755); err != nil {
		return "", err
	}
	base := filepath.Base(app.romPath)
	name := fmt.Sprintf("%s_%06d.png", base[:len(base)-len(filepath.Ext(base))], app.bus.FrameCount())
	path := filepath.Join(app.config.Paths.Screenshots, name)
	if err := debug.SavePNG(path, app.bus.FrameBuffer()); err != nil {
		return "", err
	}
	log.Printf("[APP] screenshot saved to %s", path)
	return path, nil
}

// Reset presses the console reset button
func (app *Application) Reset() {
	app.emulator.Reset()
	log.Printf("[APP] reset")
}

// IsRunning reports whether the main loop is active
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// IsPaused reports whether emulation is paused
func (app *Application) IsPaused() bool {
	return app.paused
}

// Status returns the outcome of the last hotkey command
func (app *Application) Status() string {
	return app.status
}

// GetFPS returns the last measured frame rate
func (app *Application) GetFPS() float64 {
	return app.currentFPS
}

// GetFrameCount returns the number of emulated frames
func (app *Application) GetFrameCount() uint64 {
	return app.frameCount
}

// GetUptime returns the time since Run started
func (app *Application) GetUptime() time.Duration {
	return time.Since(app.startTime)
}

// GetBus returns the bus for direct access (useful for testing and advanced control)
func (app *Application) GetBus() *bus.Bus {
	return app.bus
}

// GetEmulator returns the frame driver
func (app *Application) GetEmulator() *Emulator {
	return app.emulator
}

// GetWindow returns the presentation window
func (app *Application) GetWindow() graphics.Window {
	return app.window
}

// GetConfig returns the active configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// Cleanup releases all resources
func (app *Application) Cleanup() error {
	var errs []error
	if app.audioOutput != nil {
		errs = append(errs, app.audioOutput.Close())
	}
	errs = append(errs, app.emulator.Cleanup())
	if app.traceFile != nil {
		errs = append(errs, app.traceFile.Close())
	}
	if app.window != nil {
		errs = append(errs, app.window.Cleanup())
	}
	if app.graphicsBackend != nil {
		errs = append(errs, app.graphicsBackend.Cleanup())
	}
	return errors.Join(errs...)
}
