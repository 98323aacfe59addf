// Package guide runs the tourist pipeline: recognize a photo, rebuild the
// text in reading order, translate it and, for street addresses, recommend
// nearby landmarks.
//
// # Failure Semantics
//
//   - Recognition failure: returned, wrapped in ErrRecognition.
//   - No text after reconstruction: ErrNoText.
//   - Language detection failure: logged, the scan continues.
//   - Translation failure: returned, wrapped in ErrTranslation. No partial
//     translation is reported.
//   - Geocoding failure or no match: the scan continues from PortoCenter
//     with Scan.Fallback set.
//   - No landmark data: Scan.Warning is set and no recommendations are made.
package guide

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ironsheep/porto-guide/internal/address"
	"github.com/ironsheep/porto-guide/internal/geo"
	"github.com/ironsheep/porto-guide/internal/language"
	"github.com/ironsheep/porto-guide/internal/layout"
	"github.com/ironsheep/porto-guide/internal/ocr"
	"github.com/ironsheep/porto-guide/internal/translate"
)

var (
	// ErrRecognition wraps recognizer failures.
	ErrRecognition = errors.New("text recognition failed")
	// ErrNoText is returned when the image contains no readable text.
	ErrNoText = errors.New("no text found in image")
	// ErrTranslation wraps translator failures.
	ErrTranslation = errors.New("translation failed")
)

// Guide wires the collaborators together. Fields left nil disable the
// corresponding step: no Translator skips translation, no Geocoder always
// falls back to PortoCenter.
type Guide struct {
	Recognizer ocr.Recognizer
	Translator translate.Translator
	Geocoder   geo.Geocoder
	Landmarks  []geo.Landmark
	Logger     *log.Logger

	// YThreshold is the line grouping distance. 0 uses layout.DefaultYThreshold.
	YThreshold float64
	// Top is the number of recommendations. 0 means 3.
	Top int
	// Source is the translation source language. Empty means "auto".
	Source string
}

// Options adjust a single scan.
type Options struct {
	// Target is the translation language code, e.g. "en".
	Target string
	// YThreshold overrides Guide.YThreshold when positive.
	YThreshold float64
	// SkipTranslation leaves Scan.Translation empty.
	SkipTranslation bool
}

// Language is the detection outcome reported with a scan.
type Language struct {
	language.Result
	Status string `json:"status"`
}

// Scan is the result of one pipeline run.
type Scan struct {
	ID    string   `json:"id"`
	Text  string   `json:"text"`
	Lines []string `json:"lines"`

	Language *Language `json:"language,omitempty"`

	Target      string   `json:"target,omitempty"`
	Translation []string `json:"translation,omitempty"`

	IsAddress       bool                 `json:"is_address"`
	Keyword         string               `json:"keyword,omitempty"`
	Location        *geo.Coordinate      `json:"location,omitempty"`
	Fallback        bool                 `json:"fallback,omitempty"`
	Recommendations []geo.Recommendation `json:"recommendations,omitempty"`

	// Warning describes the soft failures of the scan, if any.
	Warning string        `json:"warning,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Scan recognizes the image at imagePath and runs the pipeline.
func (g *Guide) Scan(ctx context.Context, imagePath string, opts Options) (*Scan, error) {
	if g.Recognizer == nil {
		return nil, fmt.Errorf("%w: no recognizer configured", ErrRecognition)
	}

	start := time.Now()
	fragments, err := g.Recognizer.Recognize(ctx, imagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognition, err)
	}
	g.logger().Debug("recognized image", "path", imagePath, "fragments", len(fragments), "took", time.Since(start).Round(time.Millisecond))

	return g.ScanFragments(ctx, fragments, opts)
}

// ScanFragments runs the pipeline on fragments recognized elsewhere.
func (g *Guide) ScanFragments(ctx context.Context, fragments []layout.Fragment, opts Options) (*Scan, error) {
	start := time.Now()
	logger := g.logger()

	threshold := g.YThreshold
	if opts.YThreshold > 0 {
		threshold = opts.YThreshold
	}
	if threshold == 0 {
		threshold = layout.DefaultYThreshold
	}

	text := strings.TrimSpace(layout.Reconstruct(fragments, threshold))
	if text == "" {
		return nil, ErrNoText
	}

	scan := &Scan{
		ID:    uuid.NewString(),
		Text:  text,
		Lines: layout.SplitLines(text),
	}
	logger = logger.With("scan", scan.ID)
	logger.Debug("reconstructed text", "lines", len(scan.Lines))

	if res, err := language.Detect(text); err != nil {
		logger.Warn("language detection failed", "err", err)
		scan.warn("language could not be detected")
	} else {
		scan.Language = &Language{Result: res, Status: res.Status()}
	}

	if !opts.SkipTranslation && g.Translator != nil {
		target := opts.Target
		if target == "" {
			target = translate.Targets[0].Code
		}
		translated, err := translate.Lines(ctx, g.Translator, text, g.source(), target)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTranslation, err)
		}
		scan.Target = target
		scan.Translation = translated
	}

	match := address.Detect(text)
	scan.IsAddress, scan.Keyword = match.IsAddress, match.Keyword
	switch {
	case !scan.IsAddress:
		logger.Debug("no address keyword")
	case len(g.Landmarks) == 0:
		scan.warn("landmark data not available")
	default:
		origin := g.locate(ctx, logger, text, scan)
		scan.Recommendations = geo.Nearest(origin, g.Landmarks, g.top())
	}

	scan.Elapsed = time.Since(start)
	logger.Info("scan complete",
		"lines", len(scan.Lines),
		"address", scan.IsAddress,
		"recommendations", len(scan.Recommendations),
		"took", scan.Elapsed.Round(time.Millisecond))
	return scan, nil
}

// locate geocodes text, falling back to PortoCenter on any failure.
func (g *Guide) locate(ctx context.Context, logger *log.Logger, text string, scan *Scan) geo.Coordinate {
	if g.Geocoder != nil {
		c, found, err := g.Geocoder.Geocode(ctx, text)
		switch {
		case err != nil:
			logger.Warn("geocoding failed, using city centre", "err", err)
		case !found:
			logger.Info("address not found, using city centre")
		default:
			scan.Location = &c
			return c
		}
	}

	scan.Fallback = true
	scan.warn("address not located, showing attractions near the city centre")
	center := geo.PortoCenter
	scan.Location = &center
	return center
}

func (s *Scan) warn(msg string) {
	if s.Warning != "" {
		s.Warning += "; "
	}
	s.Warning += msg
}

func (g *Guide) source() string {
	if g.Source != "" {
		return g.Source
	}
	return "auto"
}

func (g *Guide) top() int {
	if g.Top > 0 {
		return g.Top
	}
	return 3
}

func (g *Guide) logger() *log.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return log.Default()
}
