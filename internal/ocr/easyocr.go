package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/porto-guide/internal/layout"
)

// ParseEasyOCR decodes the result list printed by EasyOCR's readtext:
//
//	[[[[x,y],[x,y],[x,y],[x,y]], "text", confidence], ...]
//
// The confidence element is optional.
func ParseEasyOCR(r io.Reader) ([]layout.Fragment, error) {
	var raw [][]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode detections: %w", err)
	}

	fragments := make([]layout.Fragment, 0, len(raw))
	for i, item := range raw {
		if len(item) < 2 {
			return nil, fmt.Errorf("detection %d: expected [region, text, confidence], got %d elements", i, len(item))
		}

		var quad [][]float64
		if err := json.Unmarshal(item[0], &quad); err != nil {
			return nil, fmt.Errorf("detection %d: invalid region: %w", i, err)
		}
		if len(quad) != 4 {
			return nil, fmt.Errorf("detection %d: region has %d points, want 4", i, len(quad))
		}

		var f layout.Fragment
		for j, p := range quad {
			if len(p) != 2 {
				return nil, fmt.Errorf("detection %d: point %d has %d coordinates", i, j, len(p))
			}
			f.Region[j] = layout.Point{X: p[0], Y: p[1]}
		}
		if err := json.Unmarshal(item[1], &f.Text); err != nil {
			return nil, fmt.Errorf("detection %d: invalid text: %w", i, err)
		}
		if len(item) > 2 {
			if err := json.Unmarshal(item[2], &f.Confidence); err != nil {
				return nil, fmt.Errorf("detection %d: invalid confidence: %w", i, err)
			}
		}
		fragments = append(fragments, f)
	}
	return fragments, nil
}

// File is a Recognizer that reads precomputed detections instead of running
// an engine. Recognize's argument is the path of an EasyOCR JSON dump, or
// of a JSON array of layout.Fragment objects.
type File struct{}

// Recognize loads detections from path.
func (File) Recognize(ctx context.Context, path string) ([]layout.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open detections: %w", err)
	}
	defer f.Close()

	return ReadFragments(f)
}

// ReadFragments accepts either an EasyOCR result list or a JSON array of
// layout.Fragment objects.
func ReadFragments(r io.Reader) ([]layout.Fragment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read detections: %w", err)
	}

	var fragments []layout.Fragment
	if err := json.Unmarshal(data, &fragments); err == nil {
		return fragments, nil
	}
	return ParseEasyOCR(bytes.NewReader(data))
}

var _ Recognizer = File{}
