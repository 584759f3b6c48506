package graphics

// VideoProcessor applies brightness, contrast and saturation to frames.
// Brightness and contrast are folded into a per-channel lookup table
// rebuilt whenever a setting changes.
type VideoProcessor struct {
	brightness float32
	contrast   float32
	saturation float32
	lut        [256]uint8
}

// NewVideoProcessor creates a new video processor
func NewVideoProcessor(brightness, contrast, saturation float32) *VideoProcessor {
	vp := &VideoProcessor{
		brightness: brightness,
		contrast:   contrast,
		saturation: saturation,
	}
	vp.rebuild()
	return vp
}

// Identity reports whether processing would leave frames unchanged
func (vp *VideoProcessor) Identity() bool {
	return vp.brightness == 1 && vp.contrast == 1 && vp.saturation == 1
}

// ProcessFrame writes the adjusted src into dst. dst and src may be the
// same frame.
func (vp *VideoProcessor) ProcessFrame(dst, src *Frame) {
	if vp.Identity() {
		if dst != src {
			*dst = *src
		}
		return
	}

	for i, pixel := range src {
		r := float32(vp.lut[uint8(pixel>>16)])
		g := float32(vp.lut[uint8(pixel>>8)])
		b := float32(vp.lut[uint8(pixel)])

		if vp.saturation != 1 {
			// Rec. 601 luma
			luma := 0.299*r + 0.587*g + 0.114*b
			r = luma + (r-luma)*vp.saturation
			g = luma + (g-luma)*vp.saturation
			b = luma + (b-luma)*vp.saturation
		}

		dst[i] = uint32(clampChannel(r))<<16 | uint32(clampChannel(g))<<8 | uint32(clampChannel(b))
	}
}

func (vp *VideoProcessor) rebuild() {
	for i := range vp.lut {
		v := float32(i) * vp.brightness
		v = (v/255-0.5)*vp.contrast + 0.5
		vp.lut[i] = clampChannel(v * 255)
	}
}

func clampChannel(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// SetBrightness updates the brightness value
func (vp *VideoProcessor) SetBrightness(brightness float32) {
	vp.brightness = brightness
	vp.rebuild()
}

// SetContrast updates the contrast value
func (vp *VideoProcessor) SetContrast(contrast float32) {
	vp.contrast = contrast
	vp.rebuild()
}

// SetSaturation updates the saturation value
func (vp *VideoProcessor) SetSaturation(saturation float32) {
	vp.saturation = saturation
}

// Settings returns brightness, contrast and saturation
func (vp *VideoProcessor) Settings() (brightness, contrast, saturation float32) {
	return vp.brightness, vp.contrast, vp.saturation
}
