//go:build headless
// +build headless

package audio

import (
	"errors"
	"time"
)

// ErrNoDevice is returned by headless builds, which carry no sound backend
var ErrNoDevice = errors.New("audio output not available in headless build")

// Output stub for headless builds
type Output struct{}

// NewOutput always fails in headless builds
func NewOutput(sampleRate int, stream *Stream, bufferSize time.Duration) (*Output, error) {
	return nil, ErrNoDevice
}

func (o *Output) Stream() *Stream { return nil }

func (o *Output) Close() error { return nil }
