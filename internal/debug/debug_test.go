package debug

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nesemu/internal/cpu"
	"nesemu/internal/memory"
)

func peekBytes(base uint16, data ...uint8) PeekFunc {
	return func(address uint16) uint8 {
		offset := int(address) - int(base)
		if offset < 0 || offset >= len(data) {
			return 0
		}
		return data[offset]
	}
}

func TestDisassemble(t *testing.T) {
	tests := []struct {
		bytes []uint8
		want  string
		size  uint8
	}{
		{[]uint8{0xA9, 0x42}, "LDA #$42", 2},
		{[]uint8{0x8D, 0x00, 0x02}, "STA $0200", 3},
		{[]uint8{0x4C, 0xF5, 0xC5}, "JMP $C5F5", 3},
		{[]uint8{0x6C, 0xFF, 0x02}, "JMP ($02FF)", 3},
		{[]uint8{0x0A}, "ASL A", 1},
		{[]uint8{0xEA}, "NOP", 1},
		{[]uint8{0xB5, 0x10}, "LDA $10,X", 2},
		{[]uint8{0xB6, 0x10}, "LDX $10,Y", 2},
		{[]uint8{0x7D, 0x34, 0x12}, "ADC $1234,X", 3},
		{[]uint8{0xB9, 0x34, 0x12}, "LDA $1234,Y", 3},
		{[]uint8{0xA1, 0x80}, "LDA ($80,X)", 2},
		{[]uint8{0xB1, 0x80}, "LDA ($80),Y", 2},
		{[]uint8{0xD0, 0xFE}, "BNE $8000", 2},
		{[]uint8{0xF0, 0x10}, "BEQ $8012", 2},
		{[]uint8{0xA7, 0x10}, "*LAX $10", 2},
	}

	for _, tt := range tests {
		got, size := Disassemble(peekBytes(0x8000, tt.bytes...), 0x8000)
		if got != tt.want || size != tt.size {
			t.Errorf("% X: expected %q (%d bytes), got %q (%d bytes)", tt.bytes, tt.want, tt.size, got, size)
		}
	}
}

func TestDisassembleRange(t *testing.T) {
	peek := peekBytes(0xC000, 0xA9, 0x01, 0x8D, 0x00, 0x20, 0xEA)
	lines := DisassembleRange(peek, 0xC000, 3)

	want := []string{
		"C000  A9 01     LDA #$01",
		"C002  8D 00 20  STA $2000",
		"C005  EA        NOP",
	}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestTracer(t *testing.T) {
	mem := memory.New(nil, nil, nil)
	mem.Write(0x0300, 0xA9)
	mem.Write(0x0301, 0x42)
	c := cpu.New(mem)
	c.PC = 0x0300
	c.SetStatusByte(0x24)

	var out bytes.Buffer
	tracer := NewTracer(&out)
	tracer.Trace(c, mem)
	if out.Len() != 0 {
		t.Fatal("A disabled tracer should not write")
	}

	tracer.SetEnabled(true)
	tracer.SetLimit(2)
	for i := 0; i < 3; i++ {
		tracer.Trace(c, mem)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || tracer.Count() != 2 {
		t.Fatalf("Expected 2 lines under the limit, got %d", len(lines))
	}
	want := "[CPU_TRACE] 0300  A9 42     LDA #$42         A:00 X:00 Y:00 P:24 SP:FD CYC:0"
	if lines[0] != want {
		t.Errorf("Expected\n%q\ngot\n%q", want, lines[0])
	}
}

func testFrame() *Frame {
	var frame Frame
	for i := range frame {
		frame[i] = uint32(i) * 0x010203 & 0xFFFFFF
	}
	return &frame
}

func TestWritePNG_ShouldPreservePixels(t *testing.T) {
	frame := testFrame()
	var buf bytes.Buffer
	if err := WritePNG(&buf, frame); err != nil {
		t.Fatalf("WritePNG failed: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for _, p := range [][2]int{{0, 0}, {17, 3}, {255, 239}} {
		r, g, b, _ := img.At(p[0], p[1]).RGBA()
		got := (r>>8)<<16 | (g>>8)<<8 | b>>8
		if want := frame[p[1]*256+p[0]]; got != want {
			t.Errorf("Pixel %v: expected %06X, got %06X", p, want, got)
		}
	}
}

func TestFrameChecksum(t *testing.T) {
	a := testFrame()
	b := *a
	if FrameChecksum(a) != FrameChecksum(&b) {
		t.Error("Equal frames should have equal checksums")
	}
	b[100] ^= 1
	if FrameChecksum(a) == FrameChecksum(&b) {
		t.Error("A changed pixel should change the checksum")
	}
}

func TestFrameDumper(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	fd := NewFrameDumper(dir)
	frame := testFrame()

	if path, err := fd.DumpFrame(frame, 0); path != "" || err != nil {
		t.Fatalf("A disabled dumper should skip, got %q %v", path, err)
	}

	if err := fd.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	fd.SetDumpInterval(2)
	fd.SetMaxDumps(2)

	var written []string
	for n := uint64(0); n < 10; n++ {
		path, err := fd.DumpFrame(frame, n)
		if err != nil {
			t.Fatalf("DumpFrame failed: %v", err)
		}
		if path != "" {
			written = append(written, filepath.Base(path))
		}
	}

	want := []string{"frame_000000.png", "frame_000002.png"}
	if len(written) != len(want) || written[0] != want[0] || written[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, written)
	}
	if _, err := os.Stat(filepath.Join(dir, want[1])); err != nil {
		t.Errorf("Dump file missing: %v", err)
	}
}
