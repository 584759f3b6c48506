package graphics

import (
	"errors"
	"fmt"
	"log"

	"nesemu/internal/debug"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow implements the Window interface for headless operation.
// It keeps the last presented frame and can hand frames to a dumper.
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	running    bool
	frameCount uint64
	lastFrame  Frame
	dumper     *debug.FrameDumper
	events     []InputEvent
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates a headless "window" (no actual window)
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	return &HeadlessWindow{
		title:   title,
		width:   width,
		height:  height,
		running: true,
	}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// Title returns the current title
func (w *HeadlessWindow) Title() string {
	return w.title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns events queued with Inject
func (w *HeadlessWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// Inject queues an input event, as if a user had produced it
func (w *HeadlessWindow) Inject(event InputEvent) {
	w.events = append(w.events, event)
}

// SetFrameDumper makes every presented frame go through the dumper
func (w *HeadlessWindow) SetFrameDumper(dumper *debug.FrameDumper) {
	w.dumper = dumper
}

// RenderFrame keeps a copy of the frame and passes it to the dumper
func (w *HeadlessWindow) RenderFrame(frame *Frame) error {
	w.lastFrame = *frame
	w.frameCount++

	if w.dumper != nil {
		path, err := w.dumper.DumpFrame(frame, w.frameCount)
		if err != nil {
			return fmt.Errorf("dump frame %d: %w", w.frameCount, err)
		}
		if path != "" {
			log.Printf("[Headless] frame %d written to %s", w.frameCount, path)
		}
	}
	return nil
}

// LastFrame returns the most recently presented frame
func (w *HeadlessWindow) LastFrame() *Frame {
	return &w.lastFrame
}

// FrameCount returns the number of presented frames
func (w *HeadlessWindow) FrameCount() uint64 {
	return w.frameCount
}

// Run calls update back to back until it fails or the window is closed
func (w *HeadlessWindow) Run(update func() error) error {
	for w.running {
		if err := update(); err != nil {
			if errors.Is(err, ErrWindowClosed) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}
