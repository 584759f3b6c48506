package audio

import "sync"

// RingBuffer is a bounded FIFO of samples shared between the emulation
// goroutine and the playback goroutine. When full the oldest samples are
// overwritten so the writer never blocks.
type RingBuffer struct {
	mu      sync.Mutex
	data    []int16
	head    int
	count   int
	dropped uint64
}

// NewRingBuffer creates a buffer holding up to capacity samples
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{data: make([]int16, capacity)}
}

// Write appends samples, dropping the oldest ones on overflow
func (b *RingBuffer) Write(samples []int16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range samples {
		tail := (b.head + b.count) % len(b.data)
		b.data[tail] = s
		if b.count == len(b.data) {
			b.head = (b.head + 1) % len(b.data)
			b.dropped++
		} else {
			b.count++
		}
	}
}

// Read copies up to len(p) samples into p and returns how many were copied
func (b *RingBuffer) Read(p []int16) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if n > b.count {
		n = b.count
	}
	for i := 0; i < n; i++ {
		p[i] = b.data[(b.head+i)%len(b.data)]
	}
	b.head = (b.head + n) % len(b.data)
	b.count -= n
	return n
}

// Len returns the number of buffered samples
func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Dropped returns how many samples were overwritten before being read
func (b *RingBuffer) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Clear discards buffered samples
func (b *RingBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head, b.count = 0, 0
}
