package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

const bytesPerFrame = 4 // 16-bit little-endian stereo

// Stream is an io.Reader producing 16-bit stereo PCM from a ring buffer.
// Missing samples are filled with silence so the device never stalls.
type Stream struct {
	source *RingBuffer
	volume atomic.Uint32 // float32 bits
	muted  atomic.Bool

	scratch   []int16
	underruns atomic.Uint64
}

// NewStream creates a stream reading from source at full volume
func NewStream(source *RingBuffer) *Stream {
	s := &Stream{source: source}
	s.SetVolume(1)
	return s
}

// SetVolume sets the gain, clamped to [0, 1]
func (s *Stream) SetVolume(v float32) {
	v = float32(math.Max(0, math.Min(1, float64(v))))
	s.volume.Store(math.Float32bits(v))
}

// Volume returns the gain
func (s *Stream) Volume() float32 {
	return math.Float32frombits(s.volume.Load())
}

// SetMuted silences the output without stopping the player
func (s *Stream) SetMuted(muted bool) {
	s.muted.Store(muted)
}

// Muted reports whether output is silenced
func (s *Stream) Muted() bool {
	return s.muted.Load()
}

// Underruns returns how many reads had to be padded with silence
func (s *Stream) Underruns() uint64 {
	return s.underruns.Load()
}

// Read fills p with whole stereo frames
func (s *Stream) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		clear(p)
		return len(p), nil
	}
	if cap(s.scratch) < frames {
		s.scratch = make([]int16, frames)
	}
	samples := s.scratch[:frames]

	n := s.source.Read(samples)
	if n < frames {
		s.underruns.Add(1)
		clear(samples[n:])
	}

	gain := s.Volume()
	if s.Muted() {
		gain = 0
	}
	for i, sample := range samples {
		v := uint16(int16(float32(sample) * gain))
		binary.LittleEndian.PutUint16(p[i*bytesPerFrame:], v)
		binary.LittleEndian.PutUint16(p[i*bytesPerFrame+2:], v)
	}
	return frames * bytesPerFrame, nil
}
