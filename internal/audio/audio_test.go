package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestResampler_OutputCountFollowsRatio(t *testing.T) {
	tests := []struct {
		name    string
		in, out float64
	}{
		{"downsample", 44744, 44100},
		{"upsample", 44744, 48000},
		{"identity", 44100, 44100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResampler(tt.in, tt.out)
			input := make([]int16, int(tt.in))
			total := 0
			// Feed one second in uneven blocks
			for start := 0; start < len(input); start += 1000 {
				end := start + 1000
				if end > len(input) {
					end = len(input)
				}
				total += len(r.Process(input[start:end]))
			}
			if diff := total - int(tt.out); diff < -1 || diff > 1 {
				t.Errorf("Expected about %d samples, got %d", int(tt.out), total)
			}
		})
	}
}

func TestResampler_Interpolates(t *testing.T) {
	r := NewResampler(1, 2)
	got := r.Process([]int16{100, 200})
	want := []int16{0, 50, 100, 150}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestRingBuffer_DropsOldestWhenFull(t *testing.T) {
	b := NewRingBuffer(4)
	b.Write([]int16{1, 2, 3})
	b.Write([]int16{4, 5, 6})

	if b.Len() != 4 || b.Dropped() != 2 {
		t.Fatalf("Expected 4 buffered and 2 dropped, got %d and %d", b.Len(), b.Dropped())
	}
	out := make([]int16, 8)
	n := b.Read(out)
	want := []int16{3, 4, 5, 6}
	if n != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), n)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, want[i], out[i])
		}
	}
	if b.Len() != 0 {
		t.Error("Buffer should be empty after reading everything")
	}
}

func TestStream_ProducesStereoFramesAndPadsWithSilence(t *testing.T) {
	b := NewRingBuffer(16)
	b.Write([]int16{1000, -1000})
	s := NewStream(b)

	p := make([]byte, 4*bytesPerFrame)
	n, err := s.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("Expected a full read, got %d, %v", n, err)
	}

	want := []int16{1000, 1000, -1000, -1000, 0, 0, 0, 0}
	for i, w := range want {
		if got := int16(binary.LittleEndian.Uint16(p[i*2:])); got != w {
			t.Errorf("Channel sample %d: expected %d, got %d", i, w, got)
		}
	}
	if s.Underruns() != 1 {
		t.Errorf("Expected one underrun, got %d", s.Underruns())
	}
}

func TestStream_VolumeAndMute(t *testing.T) {
	b := NewRingBuffer(16)
	s := NewStream(b)
	s.SetVolume(0.5)
	b.Write([]int16{2000})

	p := make([]byte, bytesPerFrame)
	s.Read(p)
	if got := int16(binary.LittleEndian.Uint16(p)); got != 1000 {
		t.Errorf("Half volume: expected 1000, got %d", got)
	}

	s.SetMuted(true)
	b.Write([]int16{2000})
	s.Read(p)
	if got := int16(binary.LittleEndian.Uint16(p)); got != 0 {
		t.Errorf("Muted stream should be silent, got %d", got)
	}

	s.SetVolume(3)
	if s.Volume() != 1 {
		t.Errorf("Volume should clamp to 1, got %f", s.Volume())
	}
}

func TestRecorder_WritesReadableWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	r, err := NewRecorder(path, 44100)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	samples := []int16{0, 1200, -1200, 32767, -32768}
	if err := r.Write(samples); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := r.Write(samples); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("Recorder produced an invalid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer failed: %v", err)
	}
	if dec.SampleRate != 44100 || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Errorf("Unexpected format: %d Hz, %d channels, %d bits", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if len(buf.Data) != 2*len(samples) {
		t.Fatalf("Expected %d samples, got %d", 2*len(samples), len(buf.Data))
	}
	for i, s := range samples {
		if buf.Data[i] != int(s) {
			t.Errorf("Sample %d: expected %d, got %d", i, s, buf.Data[i])
		}
	}
}
