package audio

import (
	"fmt"
	"log"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth  = 16
	wavChannels  = 1
	wavFormatPCM = 1
)

// Recorder writes mono 16-bit samples to a WAV file
type Recorder struct {
	file    *os.File
	encoder *wav.Encoder
	buf     *goaudio.IntBuffer
	path    string
	written int
}

// NewRecorder creates the file and writes the WAV header
func NewRecorder(path string, sampleRate int) (*Recorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording %s: %w", path, err)
	}

	log.Printf("[AUDIO] recording to %s at %d Hz", path, sampleRate)
	return &Recorder{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, wavBitDepth, wavChannels, wavFormatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: wavChannels, SampleRate: sampleRate},
			SourceBitDepth: wavBitDepth,
		},
		path: path,
	}, nil
}

// Write appends samples to the recording
func (r *Recorder) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	r.buf.Data = r.buf.Data[:0]
	for _, s := range samples {
		r.buf.Data = append(r.buf.Data, int(s))
	}
	if err := r.encoder.Write(r.buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.path, err)
	}
	r.written += len(samples)
	return nil
}

// Samples returns the number of samples written so far
func (r *Recorder) Samples() int {
	return r.written
}

// Close finalizes the header sizes and closes the file
func (r *Recorder) Close() error {
	if err := r.encoder.Close(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to finalize %s: %w", r.path, err)
	}
	log.Printf("[AUDIO] recorded %d samples to %s", r.written, r.path)
	return r.file.Close()
}
