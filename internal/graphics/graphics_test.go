package graphics

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseKey_ShouldIgnoreCase(t *testing.T) {
	tests := []struct {
		name string
		want Key
	}{
		{"Enter", KeyEnter},
		{"enter", KeyEnter},
		{"F12", KeyF12},
		{"f1", KeyF1},
		{"up", KeyUp},
		{"7", Key7},
	}
	for _, tt := range tests {
		got, err := ParseKey(tt.name)
		if err != nil {
			t.Errorf("ParseKey(%q) failed: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKey(%q): expected %v, got %v", tt.name, tt.want, got)
		}
	}

	for _, bad := range []string{"", "Unknown", "Hyper", "F13"} {
		if _, err := ParseKey(bad); err == nil {
			t.Errorf("ParseKey(%q) should fail", bad)
		}
	}
}

func TestKeyString_ShouldRoundTrip(t *testing.T) {
	for k := KeyEscape; k < keyCount; k++ {
		parsed, err := ParseKey(k.String())
		if err != nil || parsed != k {
			t.Errorf("Key %d: %q parsed to %v, %v", int(k), k.String(), parsed, err)
		}
	}
}

func TestCreateBackend_UnknownType_ShouldFail(t *testing.T) {
	if _, err := CreateBackend("opengl"); err == nil {
		t.Error("Expected an error for an unknown backend")
	}
	b, err := CreateBackend(BackendHeadless)
	if err != nil || !b.IsHeadless() {
		t.Errorf("Expected a headless backend, got %v, %v", b, err)
	}
}

func newHeadlessWindow(t *testing.T) *HeadlessWindow {
	t.Helper()
	backend := NewHeadlessBackend()
	if _, err := backend.CreateWindow("x", 1, 1); err == nil {
		t.Fatal("CreateWindow before Initialize should fail")
	}
	if err := backend.Initialize(Config{Headless: true}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	window, err := backend.CreateWindow("nesemu", ScreenWidth, ScreenHeight)
	if err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}
	return window.(*HeadlessWindow)
}

func TestHeadlessWindow_ShouldKeepLastFrame(t *testing.T) {
	w := newHeadlessWindow(t)

	var frame Frame
	frame[0] = 0x112233
	if err := w.RenderFrame(&frame); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	frame[0] = 0x445566 // the window keeps its own copy
	if err := w.RenderFrame(&frame); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}

	if w.FrameCount() != 2 {
		t.Errorf("Expected 2 frames, got %d", w.FrameCount())
	}
	if got := w.LastFrame()[0]; got != 0x445566 {
		t.Errorf("Expected last pixel 0x445566, got 0x%06X", got)
	}
	frame[0] = 0
	if got := w.LastFrame()[0]; got != 0x445566 {
		t.Error("LastFrame should not alias the caller's buffer")
	}
}

func TestHeadlessWindow_Run_ShouldStopOnWindowClosed(t *testing.T) {
	w := newHeadlessWindow(t)

	calls := 0
	err := w.Run(func() error {
		calls++
		if calls == 5 {
			return ErrWindowClosed
		}
		return nil
	})
	if err != nil {
		t.Errorf("ErrWindowClosed should end Run cleanly, got %v", err)
	}
	if calls != 5 {
		t.Errorf("Expected 5 updates, got %d", calls)
	}

	boom := errors.New("boom")
	if err := w.Run(func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Expected update error, got %v", err)
	}
}

func TestHeadlessWindow_Events_ShouldDrainOnce(t *testing.T) {
	w := newHeadlessWindow(t)
	w.Inject(InputEvent{Type: InputEventTypeKey, Key: KeyA, Pressed: true})

	if events := w.PollEvents(); len(events) != 1 || events[0].Key != KeyA {
		t.Fatalf("Expected the injected event, got %+v", events)
	}
	if events := w.PollEvents(); len(events) != 0 {
		t.Errorf("Events should be drained, got %+v", events)
	}
}

func TestTerminalWindow_ShouldDrawHalfBlocks(t *testing.T) {
	var out bytes.Buffer
	backend := NewTerminalBackend().(*TerminalBackend)
	backend.SetOutput(&out)
	if err := backend.Initialize(Config{}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	window, err := backend.CreateWindow("nesemu", ScreenWidth, ScreenHeight)
	if err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}

	var frame Frame
	frame[0] = 0xFF0000
	frame[terminalStepY*ScreenWidth] = 0x0000FF
	if err := window.RenderFrame(&frame); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}

	text := out.String()
	if got := strings.Count(text, "▀"); got != terminalCols*terminalRows {
		t.Errorf("Expected %d cells, got %d", terminalCols*terminalRows, got)
	}
	if !strings.Contains(text, "\033[38;2;255;0;0m\033[48;2;0;0;255m▀") {
		t.Error("First cell should be red over blue")
	}
	if got := strings.Count(text, "\n"); got != terminalRows {
		t.Errorf("Expected %d lines, got %d", terminalRows, got)
	}
}

func TestVideoProcessor_Identity_ShouldCopy(t *testing.T) {
	vp := NewVideoProcessor(1, 1, 1)
	var src, dst Frame
	for i := range src {
		src[i] = uint32(i) * 2654435761 & 0xFFFFFF
	}
	vp.ProcessFrame(&dst, &src)
	if dst != src {
		t.Error("Neutral settings should copy the frame unchanged")
	}
}

func TestVideoProcessor_Adjustments(t *testing.T) {
	tests := []struct {
		name              string
		bright, cont, sat float32
		in, want          uint32
	}{
		{"brightness doubles", 2, 1, 1, 0x204060, 0x4080C0},
		{"brightness clamps", 2, 1, 1, 0xC0C0C0, 0xFFFFFF},
		{"zero contrast is mid grey", 1, 0, 1, 0x00FF40, 0x808080},
		{"zero saturation is grey", 1, 1, 0, 0xFF0000, 0x4C4C4C},
		{"grey ignores saturation", 1, 1, 3, 0x808080, 0x808080},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := NewVideoProcessor(tt.bright, tt.cont, tt.sat)
			var frame Frame
			frame[0] = tt.in
			vp.ProcessFrame(&frame, &frame)
			if frame[0] != tt.want {
				t.Errorf("Expected 0x%06X, got 0x%06X", tt.want, frame[0])
			}
		})
	}
}

func TestVideoProcessor_Setters_ShouldRebuildTable(t *testing.T) {
	vp := NewVideoProcessor(1, 1, 1)
	vp.SetBrightness(0)
	var frame Frame
	frame[0] = 0xFFFFFF
	vp.ProcessFrame(&frame, &frame)
	if frame[0] != 0 {
		t.Errorf("Zero brightness should give black, got 0x%06X", frame[0])
	}
	if b, c, s := vp.Settings(); b != 0 || c != 1 || s != 1 {
		t.Errorf("Unexpected settings %v %v %v", b, c, s)
	}
}
