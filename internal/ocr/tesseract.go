package ocr

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/porto-guide/internal/imaging"
	"github.com/ironsheep/porto-guide/internal/layout"
)

// Recognizer extracts text fragments from an image file.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) ([]layout.Fragment, error)
}

// Options configures a Tesseract recognizer.
type Options struct {
	// Language is a Tesseract language code or several joined with "+",
	// e.g. "por" or "por+eng".
	Language string

	// TessdataPrefix overrides the tessdata directory. Empty uses the
	// system default.
	TessdataPrefix string

	// MinConfidence drops words scored below it (0.0 to 1.0).
	MinConfidence float64

	// Preprocess enables imaging.Preprocess before recognition.
	Preprocess bool
}

// Tesseract recognizes words with the Tesseract engine. A new gosseract
// client is created for every call, so a Tesseract value is safe for
// concurrent use.
type Tesseract struct {
	opts Options
}

// NewTesseract creates a recognizer. An empty language defaults to "por".
func NewTesseract(opts Options) *Tesseract {
	if opts.Language == "" {
		opts.Language = "por"
	}
	return &Tesseract{opts: opts}
}

// Recognize reads the image at imagePath and returns one fragment per word.
func (t *Tesseract) Recognize(ctx context.Context, imagePath string) ([]layout.Fragment, error) {
	if !t.opts.Preprocess {
		return t.recognizeFile(ctx, imagePath)
	}

	img, err := imaging.LoadFile(imagePath)
	if err != nil {
		return nil, err
	}
	return t.RecognizeImage(ctx, img)
}

// RecognizeImage recognizes an in-memory image. Fragment coordinates refer to
// img, even when preprocessing rescaled it.
func (t *Tesseract) RecognizeImage(ctx context.Context, img image.Image) ([]layout.Fragment, error) {
	src := img
	scale := 1.0
	if t.opts.Preprocess {
		src = imaging.Preprocess(img, imaging.DefaultPreprocessOptions())
		if w := img.Bounds().Dx(); w > 0 {
			scale = float64(src.Bounds().Dx()) / float64(w)
		}
	}

	tmpPath, err := imaging.WriteTempPNG(src, "ocr-*.png")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpPath)

	fragments, err := t.recognizeFile(ctx, tmpPath)
	if err != nil {
		return nil, err
	}

	origin := img.Bounds().Min
	for i := range fragments {
		for j := range fragments[i].Region {
			p := &fragments[i].Region[j]
			p.X = p.X/scale + float64(origin.X)
			p.Y = p.Y/scale + float64(origin.Y)
		}
	}
	return fragments, nil
}

// RecognizeRegion recognizes only the rectangle r of img. Returned
// coordinates are relative to img, not to the crop.
func (t *Tesseract) RecognizeRegion(ctx context.Context, img image.Image, r image.Rectangle) ([]layout.Fragment, error) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("region %v does not overlap image bounds %v", r, img.Bounds())
	}

	cropped, err := imaging.CropImage(img, r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, 1)
	if err != nil {
		return nil, err
	}

	fragments, err := t.RecognizeImage(ctx, cropped)
	if err != nil {
		return nil, err
	}
	for i := range fragments {
		for j := range fragments[i].Region {
			fragments[i].Region[j].X += float64(r.Min.X)
			fragments[i].Region[j].Y += float64(r.Min.Y)
		}
	}
	return fragments, nil
}

func (t *Tesseract) recognizeFile(ctx context.Context, imagePath string) ([]layout.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.opts.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if err := client.SetLanguage(strings.Split(t.opts.Language, "+")...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	return fragmentsFromBoxes(boxes, t.opts.MinConfidence), nil
}

// fragmentsFromBoxes converts Tesseract word boxes, skipping blank words and
// words below minConfidence.
func fragmentsFromBoxes(boxes []gosseract.BoundingBox, minConfidence float64) []layout.Fragment {
	fragments := make([]layout.Fragment, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		confidence := float64(box.Confidence) / 100.0
		if confidence < minConfidence {
			continue
		}
		fragments = append(fragments, layout.FromBox(
			float64(box.Box.Min.X), float64(box.Box.Min.Y),
			float64(box.Box.Max.X), float64(box.Box.Max.Y),
			word, confidence,
		))
	}
	return fragments
}

// OCRInfo describes the OCR subsystem.
type OCRInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Language  string `json:"language"`
	Backend   string `json:"backend"`
}

// Info reports the Tesseract version in use.
func (t *Tesseract) Info() OCRInfo {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	return OCRInfo{
		Available: version != "",
		Version:   version,
		Language:  t.opts.Language,
		Backend:   "gosseract",
	}
}

var _ Recognizer = (*Tesseract)(nil)
