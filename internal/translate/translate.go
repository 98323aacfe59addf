// Package translate translates recognized sign text line by line.
//
// Lines are translated independently because reconstructed OCR text is a
// stack of short sign lines rather than running prose; translating the block
// as a whole lets the service merge or reorder lines.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ironsheep/porto-guide/internal/cache"
)

// Translator translates a single piece of text.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Target is a supported output language.
type Target struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Targets lists the languages offered to tourists.
var Targets = []Target{
	{Name: "English", Code: "en"},
	{Name: "French", Code: "fr"},
	{Name: "Deutsch", Code: "de"},
	{Name: "Italian", Code: "it"},
}

// ErrUnsupportedTarget is returned by ParseTarget for unknown languages.
var ErrUnsupportedTarget = errors.New("unsupported target language")

// ParseTarget accepts a language name ("French", "deutsch") or code ("fr").
func ParseTarget(s string) (Target, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range Targets {
		if s == t.Code || s == strings.ToLower(t.Name) {
			return t, nil
		}
	}
	// German is offered as "Deutsch" but accept the English name too.
	if s == "german" {
		return Targets[2], nil
	}
	return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedTarget, s)
}

// LineError reports which line failed to translate.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line+1, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Lines splits text on "\n" and translates each line in order. Blank lines
// are passed through. The first failure aborts and is returned as a
// *LineError.
func Lines(ctx context.Context, t Translator, text, source, target string) ([]string, error) {
	lines := strings.Split(text, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			out[i] = line
			continue
		}
		translated, err := t.Translate(ctx, line, source, target)
		if err != nil {
			return nil, &LineError{Line: i, Err: err}
		}
		out[i] = translated
	}
	return out, nil
}

// Cached stores translations in a cache.Cache.
type Cached struct {
	next  Translator
	cache cache.Cache
	ttl   time.Duration
}

// NewCached wraps next with a cache.
func NewCached(next Translator, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl}
}

// Translate returns a cached translation or asks the wrapped translator.
func (c *Cached) Translate(ctx context.Context, text, source, target string) (string, error) {
	key := cache.Key("translate", source, target, text)

	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		return string(data), nil
	}

	out, err := c.next.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}
	// A failed cache write only costs a repeated request.
	_ = c.cache.Set(ctx, key, []byte(out), c.ttl)
	return out, nil
}

var _ Translator = (*Cached)(nil)
