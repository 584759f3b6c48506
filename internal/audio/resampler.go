// Package audio moves APU samples to the sound device and to WAV files.
//
// The APU produces mono int16 samples at its native rate. Everything here
// runs outside the emulation core: a linear resampler converts to the
// device rate, a bounded ring buffer hands samples to the playback
// goroutine, and the recorder writes them to disk.
package audio

// Resampler converts a mono stream between two sample rates by linear
// interpolation. It keeps the fractional position and the last input
// sample between calls so consecutive blocks join without clicks.
type Resampler struct {
	step float64 // input samples per output sample
	pos  float64 // position relative to prev, in [0, 1)
	prev int16
	out  []int16
}

// NewResampler creates a resampler from inRate to outRate
func NewResampler(inRate, outRate float64) *Resampler {
	return &Resampler{step: inRate / outRate}
}

// Ratio returns the number of input samples consumed per output sample
func (r *Resampler) Ratio() float64 {
	return r.step
}

// Process converts a block. The returned slice is reused by the next call.
func (r *Resampler) Process(in []int16) []int16 {
	r.out = r.out[:0]
	for _, next := range in {
		for r.pos < 1 {
			v := float64(r.prev) + (float64(next)-float64(r.prev))*r.pos
			r.out = append(r.out, int16(v))
			r.pos += r.step
		}
		r.pos--
		r.prev = next
	}
	return r.out
}

// Reset forgets the stream history
func (r *Resampler) Reset() {
	r.pos = 0
	r.prev = 0
	r.out = r.out[:0]
}
