package imaging

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// DarkThreshold is the mean lightness below which an image is treated as
// light text on a dark background.
const DarkThreshold = 0.45

// PreprocessOptions controls Preprocess.
type PreprocessOptions struct {
	// MinWidth upscales narrower images to this width. 0 disables upscaling.
	MinWidth int
	// Contrast is passed to bild's adjust.Contrast, in the range -1 to 1.
	Contrast float64
	// Invert forces inversion on (true) or lets brightness decide (nil).
	Invert *bool
}

// DefaultPreprocessOptions suits phone photos of street signs.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		MinWidth: 1200,
		Contrast: 0.3,
	}
}

// Preprocess returns a grayscale, contrast-enhanced copy of img with dark
// text on a light background.
func Preprocess(img image.Image, opts PreprocessOptions) image.Image {
	out := image.Image(img)

	if opts.MinWidth > 0 && img.Bounds().Dx() < opts.MinWidth {
		out = imaging.Resize(out, opts.MinWidth, 0, imaging.Lanczos)
	}

	invert := MeanLightness(img) < DarkThreshold
	if opts.Invert != nil {
		invert = *opts.Invert
	}

	gray := effect.Grayscale(out)
	out = gray
	if opts.Contrast != 0 {
		out = adjust.Contrast(gray, opts.Contrast)
	}
	if invert {
		out = effect.Invert(out)
	}
	return out
}

// MeanLightness returns the average CIE L* of img, from 0 (black) to 1
// (white). Large images are sampled on a grid of about 200x200 points.
func MeanLightness(img image.Image) float64 {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0
	}

	stepX := maxInt(1, bounds.Dx()/200)
	stepY := maxInt(1, bounds.Dy()/200)

	var sum float64
	var n int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				// Fully transparent pixel.
				continue
			}
			l, _, _ := c.Lab()
			sum += l
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// WriteTempPNG encodes img to a new temporary PNG file and returns its path.
// The caller removes the file.
func WriteTempPNG(img image.Image, pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to encode temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}
	return f.Name(), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
