package scanning

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultContrastFactor is the contrast multiplier applied before OCR
const DefaultContrastFactor = 2.0

// Preprocessor prepares receipt photos for OCR: grayscale, then a contrast
// boost around the mean luminance.
type Preprocessor struct {
	ContrastFactor float64
}

// NewPreprocessor creates a Preprocessor. A non-positive factor uses DefaultContrastFactor.
func NewPreprocessor(contrastFactor float64) Preprocessor {
	if contrastFactor <= 0 {
		contrastFactor = DefaultContrastFactor
	}
	return Preprocessor{ContrastFactor: contrastFactor}
}

// Apply returns a new single-channel image; img is left untouched
func (p Preprocessor) Apply(img image.Image) *image.Gray {
	factor := p.ContrastFactor
	if factor <= 0 {
		factor = DefaultContrastFactor
	}

	gray := imaging.Grayscale(img)
	mean := meanLuminance(gray)

	enhanced := imaging.AdjustFunc(gray, func(c color.NRGBA) color.NRGBA {
		v := clampUint8(mean + factor*(float64(c.R)-mean))
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})

	bounds := enhanced.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		src := enhanced.Pix[y*enhanced.Stride : y*enhanced.Stride+bounds.Dx()*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+bounds.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return out
}

// meanLuminance averages the R channel of an already gray image, rounded
func meanLuminance(gray *image.NRGBA) float64 {
	bounds := gray.Bounds()
	n := bounds.Dx() * bounds.Dy()
	if n == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < bounds.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			sum += uint64(row[x])
		}
	}
	return math.Floor(float64(sum)/float64(n) + 0.5)
}

func clampUint8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
