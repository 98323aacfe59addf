// Package language identifies the language of recognized sign text.
package language

import (
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Portuguese is the ISO 639-1 code of the language the recognizer expects.
const Portuguese = "pt"

// ErrUndetermined is returned when the text is empty or no language can be
// identified.
var ErrUndetermined = errors.New("language could not be determined")

// Result is a detected language.
type Result struct {
	// Code is the ISO 639-1 code, e.g. "pt".
	Code string `json:"code"`
	// Name is the English language name, e.g. "Portuguese".
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Reliable   bool    `json:"reliable"`
	// IsPortuguese is true when Code is "pt".
	IsPortuguese bool `json:"is_portuguese"`
}

// Detect identifies the language of text.
func Detect(text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrUndetermined
	}

	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return Result{}, ErrUndetermined
	}

	return Result{
		Code:         code,
		Name:         info.Lang.String(),
		Confidence:   info.Confidence,
		Reliable:     info.IsReliable(),
		IsPortuguese: code == Portuguese,
	}, nil
}

// Status is a one-line summary for display, e.g. "Confirmed: Portuguese" or
// "Detected: ES (expected PT)".
func (r Result) Status() string {
	if r.IsPortuguese {
		return "Confirmed: Portuguese"
	}
	return "Detected: " + strings.ToUpper(r.Code) + " (expected PT)"
}
