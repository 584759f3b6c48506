package graphics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Terminal picture: every character cell shows two vertically stacked
// samples using the upper half block with separate fore and background
// colors.
const (
	terminalStepX = 4
	terminalStepY = 4
	terminalCols  = ScreenWidth / terminalStepX
	terminalRows  = ScreenHeight / (2 * terminalStepY)
)

// TerminalBackend implements the Backend interface for terminal-based rendering
type TerminalBackend struct {
	initialized bool
	config      Config
	output      io.Writer
}

// TerminalWindow implements the Window interface for terminal rendering
type TerminalWindow struct {
	title     string
	width     int
	height    int
	running   bool
	frameRate float64
	out       *bufio.Writer
}

// NewTerminalBackend creates a new terminal graphics backend writing to stdout
func NewTerminalBackend() Backend {
	return &TerminalBackend{output: os.Stdout}
}

// SetOutput redirects windows created afterwards to w
func (b *TerminalBackend) SetOutput(w io.Writer) {
	b.output = w
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("terminal backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates a terminal "window"
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	rate := b.config.FrameRate
	if rate <= 0 {
		rate = 60
	}
	return &TerminalWindow{
		title:     title,
		width:     width,
		height:    height,
		running:   true,
		frameRate: rate,
		out:       bufio.NewWriterSize(b.output, 64*1024),
	}, nil
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

// SetTitle sets the terminal title
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	fmt.Fprintf(w.out, "\033]0;%s\007", title)
	w.out.Flush()
}

// GetSize returns window dimensions
func (w *TerminalWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *TerminalWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns no events; the terminal is output only
func (w *TerminalWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame draws a downscaled frame with 24-bit ANSI colors
func (w *TerminalWindow) RenderFrame(frame *Frame) error {
	w.out.WriteString("\033[H")
	for row := 0; row < terminalRows; row++ {
		top := row * 2 * terminalStepY
		bottom := top + terminalStepY
		for col := 0; col < terminalCols; col++ {
			x := col * terminalStepX
			fg := frame[top*ScreenWidth+x]
			bg := frame[bottom*ScreenWidth+x]
			fmt.Fprintf(w.out, "\033[38;2;%d;%d;%dm\033[48;2;%d;%d;%dm▀",
				uint8(fg>>16), uint8(fg>>8), uint8(fg),
				uint8(bg>>16), uint8(bg>>8), uint8(bg))
		}
		w.out.WriteString("\033[0m\n")
	}
	return w.out.Flush()
}

// Run calls update at the configured frame rate until it fails or the
// window is closed
func (w *TerminalWindow) Run(update func() error) error {
	w.out.WriteString("\033[2J\033[?25l")
	defer func() {
		w.out.WriteString("\033[0m\033[?25h\n")
		w.out.Flush()
	}()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / w.frameRate))
	defer ticker.Stop()

	for w.running {
		if err := update(); err != nil {
			if errors.Is(err, ErrWindowClosed) {
				return nil
			}
			return err
		}
		<-ticker.C
	}
	return nil
}

// Cleanup releases window resources
func (w *TerminalWindow) Cleanup() error {
	w.running = false
	return w.out.Flush()
}
