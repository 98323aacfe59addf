package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/porto-guide/internal/cache"
)

// dictionary is a Translator backed by a map.
type dictionary struct {
	words map[string]string
	calls int
}

func (d *dictionary) Translate(_ context.Context, text, _, _ string) (string, error) {
	d.calls++
	out, ok := d.words[text]
	if !ok {
		return "", fmt.Errorf("no translation for %q", text)
	}
	return out, nil
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"English", "en"},
		{"fr", "fr"},
		{" Deutsch ", "de"},
		{"german", "de"},
		{"ITALIAN", "it"},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.Code, tt.in)
	}

	_, err := ParseTarget("klingon")
	assert.True(t, errors.Is(err, ErrUnsupportedTarget))
}

func TestLines(t *testing.T) {
	d := &dictionary{words: map[string]string{
		"Rua Central": "Central Street",
		"41":          "41",
	}}

	out, err := Lines(context.Background(), d, "Rua Central\n\n41", "pt", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"Central Street", "", "41"}, out)
	assert.Equal(t, 2, d.calls, "blank lines are not sent")
}

func TestLines_AbortsOnFailure(t *testing.T) {
	d := &dictionary{words: map[string]string{"Saída": "Exit"}}

	_, err := Lines(context.Background(), d, "Saída\nProibido fumar\nEntrada", "pt", "en")
	require.Error(t, err)

	var lerr *LineError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, 1, lerr.Line)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 2, d.calls, "translation stops at the failing line")
}

func TestCached(t *testing.T) {
	d := &dictionary{words: map[string]string{"Bom dia": "Good morning"}}
	c := NewCached(d, cache.NewMemory(time.Minute), 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out, err := c.Translate(ctx, "Bom dia", "pt", "en")
		require.NoError(t, err)
		assert.Equal(t, "Good morning", out)
	}
	assert.Equal(t, 1, d.calls)

	_, err := c.Translate(ctx, "Boa noite", "pt", "en")
	assert.Error(t, err)
}

func TestGoogle_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/m", r.URL.Path)
		assert.Equal(t, "auto", r.URL.Query().Get("sl"))
		assert.Equal(t, "en", r.URL.Query().Get("tl"))
		assert.Equal(t, "Praça da Liberdade", r.URL.Query().Get("q"))
		w.Write([]byte(`<html><body>
			<div class="header">Google Translate</div>
			<div class="result-container">Liberty <b>Square</b></div>
		</body></html>`))
	}))
	defer srv.Close()

	out, err := NewGoogle(srv.URL, time.Second).Translate(context.Background(), " Praça da Liberdade ", "", "en")
	require.NoError(t, err)
	assert.Equal(t, "Liberty Square", out)
}

func TestGoogle_Shortcuts(t *testing.T) {
	g := NewGoogle("http://127.0.0.1:0", time.Second)

	out, err := g.Translate(context.Background(), "   ", "pt", "en")
	require.NoError(t, err)
	assert.Equal(t, "", out)

	out, err = g.Translate(context.Background(), "Olá", "pt", "pt")
	require.NoError(t, err)
	assert.Equal(t, "Olá", out)

	_, err = g.Translate(context.Background(), strings.Repeat("a", maxChars+1), "pt", "en")
	assert.Error(t, err)
}

func TestGoogle_NoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="error">captcha</div></body></html>`))
	}))
	defer srv.Close()

	_, err := NewGoogle(srv.URL, time.Second).Translate(context.Background(), "Olá", "pt", "en")
	assert.True(t, errors.Is(err, ErrNoResult))
}

func TestGoogle_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewGoogle(srv.URL, time.Second).Translate(context.Background(), "Olá", "pt", "en")
	assert.Error(t, err)
}

func TestParseResult_MultipleClasses(t *testing.T) {
	out, err := parseResult([]byte(`<div class="t0 result-container x">Exit</div>`))
	require.NoError(t, err)
	assert.Equal(t, "Exit", out)
}
