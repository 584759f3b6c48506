// Package input implements controller handling for the NES.
package input

import "log"

// Button represents NES controller buttons, in shift-out order
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

var buttonNames = [8]string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}

// String returns the button name
func (b Button) String() string {
	for i, name := range buttonNames {
		if b == 1<<i {
			return name
		}
	}
	return "Unknown"
}

// ParseButton maps a button name back to its bit
func ParseButton(name string) (Button, bool) {
	for i, n := range buttonNames {
		if n == name {
			return Button(1 << i), true
		}
	}
	return 0, false
}

// Controller represents a standard NES controller
type Controller struct {
	buttons uint8

	// Shift register for serial reading; official pads shift in 1s
	shiftRegister uint8
	strobe        bool

	debugEnabled bool
}

// New creates a new Controller instance
func New() *Controller {
	return &Controller{}
}

// SetButton sets the state of a single button
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons replaces the whole button mask
func (c *Controller) SetButtons(mask uint8) {
	if c.debugEnabled && mask != c.buttons {
		log.Printf("[BUTTON_DEBUG] buttons 0x%02X -> 0x%02X", c.buttons, mask)
	}
	c.buttons = mask
}

// Buttons returns the current button mask
func (c *Controller) Buttons() uint8 {
	return c.buttons
}

// IsPressed returns true if the button is currently pressed
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// Write handles the strobe bit written to $4016
func (c *Controller) Write(value uint8) {
	c.strobe = value&1 != 0
	if c.strobe {
		c.shiftRegister = c.buttons
	}
}

// Read returns the next button in bit 0. While strobe is high it keeps
// returning A; after eight reads it returns 1.
func (c *Controller) Read() uint8 {
	if c.strobe {
		return c.buttons & 1
	}
	bit := c.shiftRegister & 1
	c.shiftRegister = c.shiftRegister>>1 | 0x80
	return bit
}

// Reset releases every button and clears the latch
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
}

// EnableDebug enables debug logging for this controller
func (c *Controller) EnableDebug(enable bool) {
	c.debugEnabled = enable
}

// InputState represents both controller ports
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates a new input state with two controllers
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset resets all input devices
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// EnableDebug enables debug logging for all controllers
func (is *InputState) EnableDebug(enable bool) {
	is.Controller1.EnableDebug(enable)
	is.Controller2.EnableDebug(enable)
}

// Controller returns the pad on port 1 or 2, nil otherwise
func (is *InputState) Controller(port int) *Controller {
	switch port {
	case 1:
		return is.Controller1
	case 2:
		return is.Controller2
	}
	return nil
}

// Read reads the serial bit of the addressed port ($4016/$4017)
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read()
	}
	return 0
}

// Write strobes both controllers; only $4016 is wired to the latch
func (is *InputState) Write(address uint16, value uint8) {
	if address != 0x4016 {
		return
	}
	if is.Controller1.debugEnabled {
		log.Printf("[INPUT_TRACE] $4016 write: value=0x%02X", value)
	}
	is.Controller1.Write(value)
	is.Controller2.Write(value)
}

// ControllerState is the snapshot record of one controller's latch
type ControllerState struct {
	Buttons       uint8
	ShiftRegister uint8
	Strobe        bool
}

// State is the snapshot record of both ports
type State struct {
	Port1, Port2 ControllerState
}

func (c *Controller) saveState() ControllerState {
	return ControllerState{Buttons: c.buttons, ShiftRegister: c.shiftRegister, Strobe: c.strobe}
}

func (c *Controller) loadState(s ControllerState) {
	c.buttons, c.shiftRegister, c.strobe = s.Buttons, s.ShiftRegister, s.Strobe
}

// SaveState captures both controller latches
func (is *InputState) SaveState() State {
	return State{Port1: is.Controller1.saveState(), Port2: is.Controller2.saveState()}
}

// LoadState restores both controller latches
func (is *InputState) LoadState(s State) {
	is.Controller1.loadState(s.Port1)
	is.Controller2.loadState(s.Port2)
}
