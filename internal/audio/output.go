//go:build !headless
// +build !headless

package audio

import (
	"fmt"
	"log"
	"time"

	ebitenaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// Output plays a Stream on the default sound device through Ebitengine
type Output struct {
	player *ebitenaudio.Player
	stream *Stream
}

// NewOutput starts playback of stream at sampleRate. bufferSize trades
// latency against underruns.
func NewOutput(sampleRate int, stream *Stream, bufferSize time.Duration) (*Output, error) {
	ctx := ebitenaudio.CurrentContext()
	if ctx == nil {
		ctx = ebitenaudio.NewContext(sampleRate)
	} else if ctx.SampleRate() != sampleRate {
		return nil, fmt.Errorf("audio context already running at %d Hz", ctx.SampleRate())
	}

	player, err := ctx.NewPlayer(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player: %w", err)
	}
	if bufferSize > 0 {
		player.SetBufferSize(bufferSize)
	}
	player.Play()
	log.Printf("[AUDIO] playing at %d Hz, buffer %v", sampleRate, bufferSize)

	return &Output{player: player, stream: stream}, nil
}

// Stream returns the source being played
func (o *Output) Stream() *Stream {
	return o.stream
}

// Close stops playback
func (o *Output) Close() error {
	return o.player.Close()
}
