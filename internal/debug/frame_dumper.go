package debug

import (
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

const (
	frameWidth  = 256
	frameHeight = 240
)

// Frame is a completed picture as 0xRRGGBB pixels
type Frame = [frameWidth * frameHeight]uint32

// FrameDumper writes selected frames to PNG files
type FrameDumper struct {
	outputDir    string
	dumpEnabled  bool
	dumped       int
	maxDumps     int // 0 means unlimited
	dumpInterval uint64
}

// NewFrameDumper creates a disabled frame dumper
func NewFrameDumper(outputDir string) *FrameDumper {
	return &FrameDumper{
		outputDir:    outputDir,
		maxDumps:     10,
		dumpInterval: 1,
	}
}

// Enable activates frame dumping and creates the output directory
func (fd *FrameDumper) Enable() error {
	if err := os.MkdirAll(fd.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create frame dump directory: %w", err)
	}
	fd.dumpEnabled = true
	return nil
}

// Disable deactivates frame dumping
func (fd *FrameDumper) Disable() {
	fd.dumpEnabled = false
}

// SetMaxDumps sets the maximum number of frames to dump
func (fd *FrameDumper) SetMaxDumps(max int) {
	fd.maxDumps = max
}

// SetDumpInterval sets the interval between frame dumps
func (fd *FrameDumper) SetDumpInterval(interval uint64) {
	if interval == 0 {
		interval = 1
	}
	fd.dumpInterval = interval
}

// DumpFrame writes the frame if it is selected by the interval and the
// dump limit. It returns the written path, or "" when the frame was skipped.
func (fd *FrameDumper) DumpFrame(frame *Frame, frameNum uint64) (string, error) {
	if !fd.dumpEnabled || frameNum%fd.dumpInterval != 0 {
		return "", nil
	}
	if fd.maxDumps > 0 && fd.dumped >= fd.maxDumps {
		return "", nil
	}

	path := filepath.Join(fd.outputDir, fmt.Sprintf("frame_%06d.png", frameNum))
	if err := SavePNG(path, frame); err != nil {
		return "", err
	}
	fd.dumped++
	return path, nil
}

// FrameImage converts a frame to an image
func FrameImage(frame *Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frameWidth, frameHeight))
	for i, pixel := range frame {
		img.SetRGBA(i%frameWidth, i/frameWidth, color.RGBA{
			R: uint8(pixel >> 16),
			G: uint8(pixel >> 8),
			B: uint8(pixel),
			A: 0xFF,
		})
	}
	return img
}

// WritePNG encodes a frame as PNG
func WritePNG(w io.Writer, frame *Frame) error {
	return png.Encode(w, FrameImage(frame))
}

// SavePNG writes a frame to a PNG file
func SavePNG(path string, frame *Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WritePNG(file, frame); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}

// FrameChecksum returns the CRC-32 of the frame's pixels in RGB byte order
func FrameChecksum(frame *Frame) uint32 {
	buf := make([]byte, 0, len(frame)*3)
	for _, pixel := range frame {
		buf = append(buf, uint8(pixel>>16), uint8(pixel>>8), uint8(pixel))
	}
	return crc32.ChecksumIEEE(buf)
}
