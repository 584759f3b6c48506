// Package graphics provides an abstraction layer for different rendering backends
package graphics

import (
	"errors"
	"fmt"
	"strings"
)

// NES picture dimensions
const (
	ScreenWidth  = 256
	ScreenHeight = 240
)

// Frame is a completed picture as 0xRRGGBB pixels
type Frame = [ScreenWidth * ScreenHeight]uint32

// ErrWindowClosed is returned by an update function to end Window.Run
var ErrWindowClosed = errors.New("window closed")

// Backend represents a graphics rendering backend (Ebitengine, terminal, headless)
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if running without a display
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering window
type Window interface {
	// SetTitle sets the window title
	SetTitle(title string)

	// GetSize returns window dimensions
	GetSize() (width, height int)

	// ShouldClose returns true if window should close
	ShouldClose() bool

	// PollEvents returns the input events gathered since the last call
	PollEvents() []InputEvent

	// RenderFrame presents a NES frame
	RenderFrame(frame *Frame) error

	// Run calls update once per tick until it returns an error or the
	// window closes. ErrWindowClosed ends the loop without error.
	Run(update func() error) error

	// Cleanup releases window resources
	Cleanup() error
}

// Config contains configuration for graphics backends
type Config struct {
	// Window configuration
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool

	// Rendering configuration
	Filter    string  // "nearest", "linear"
	FrameRate float64 // ticks per second for backends without their own loop

	// Backend-specific options
	Headless bool
	Debug    bool
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type      InputEventType
	Key       Key
	Pressed   bool
	Modifiers ModifierKey
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeKey InputEventType = iota
	InputEventTypeQuit
)

// Key represents keyboard keys
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeySpace
	KeyTab
	KeyBackspace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyA
	KeyD
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyP
	KeyR
	KeyS
	KeyT
	KeyW
	KeyX
	KeyZ
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	keyCount
)

var keyNames = [keyCount]string{
	"Unknown", "Escape", "Enter", "Space", "Tab", "Backspace",
	"Up", "Down", "Left", "Right",
	"A", "D", "J", "K", "L", "M", "P", "R", "S", "T", "W", "X", "Z",
	"1", "2", "3", "4", "5", "6", "7", "8",
	"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12",
}

// String returns the key name used in configuration files
func (k Key) String() string {
	if k < 0 || k >= keyCount {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return keyNames[k]
}

// ParseKey maps a configuration name to a key, case-insensitively
func ParseKey(name string) (Key, error) {
	for k, n := range keyNames {
		if k != int(KeyUnknown) && strings.EqualFold(n, name) {
			return Key(k), nil
		}
	}
	return KeyUnknown, fmt.Errorf("unknown key %q", name)
}

// ModifierKey represents modifier keys
type ModifierKey int

const (
	ModifierNone  ModifierKey = 0
	ModifierShift ModifierKey = 1 << iota
	ModifierCtrl
	ModifierAlt
)

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine, "":
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	}
	return nil, fmt.Errorf("unknown graphics backend %q", backendType)
}
