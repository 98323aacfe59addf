package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/porto-guide/internal/geo"
	"github.com/ironsheep/porto-guide/internal/guide"
	"github.com/ironsheep/porto-guide/internal/imaging"
	"github.com/ironsheep/porto-guide/internal/layout"
	"github.com/ironsheep/porto-guide/internal/logging"
)

type stubRecognizer struct {
	fragments []layout.Fragment
	region    image.Rectangle
}

func (r *stubRecognizer) Recognize(context.Context, string) ([]layout.Fragment, error) {
	return r.fragments, nil
}

func (r *stubRecognizer) RecognizeRegion(_ context.Context, _ image.Image, rect image.Rectangle) ([]layout.Fragment, error) {
	r.region = rect
	return r.fragments, nil
}

type prefixTranslator struct{ err error }

func (p prefixTranslator) Translate(_ context.Context, text, _, target string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return target + ":" + text, nil
}

type stubGeocoder struct {
	coord geo.Coordinate
	found bool
	err   error
}

func (g stubGeocoder) Geocode(context.Context, string) (geo.Coordinate, bool, error) {
	return g.coord, g.found, g.err
}

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "sign.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func signFragments() []layout.Fragment {
	return []layout.Fragment{
		layout.FromBox(70, 12, 150, 40, "Flores", 0.9),
		layout.FromBox(0, 10, 60, 40, "Rua", 0.9),
		layout.FromBox(0, 70, 40, 100, "das", 0.9),
	}
}

func newTestServer() (*Server, *stubRecognizer) {
	rec := &stubRecognizer{fragments: signFragments()}
	g := &guide.Guide{
		Recognizer: rec,
		Translator: prefixTranslator{},
		Geocoder:   stubGeocoder{coord: geo.Coordinate{Lat: 41.1455, Lon: -8.6107}, found: true},
		Landmarks:  geo.PortoLandmarks(),
		Logger:     logging.Discard(),
	}
	return New(g), rec
}

func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	require.NoError(t, err)

	resp := s.handleToolsCall(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	require.NotNil(t, resp)
	return resp
}

// decodeResult unmarshals the text content of a successful tool response.
func decodeResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0]["type"])
	require.NoError(t, json.Unmarshal([]byte(content[0]["text"].(string)), v))
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s, _ := newTestServer()
	resp := s.handleToolsCall(context.Background(), &MCPRequest{ID: 1, Params: json.RawMessage(`[`)})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s, _ := newTestServer()
	resp := callTool(t, s, "image_detect_circles", map[string]interface{}{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestHandleImageLoad(t *testing.T) {
	s, _ := newTestServer()
	path := createTestImageFile(t, 100, 80, color.RGBA{20, 20, 60, 255})

	var info struct {
		Width          int  `json:"width"`
		Height         int  `json:"height"`
		DarkBackground bool `json:"dark_background"`
	}
	decodeResult(t, callTool(t, s, "image_load", map[string]interface{}{"path": path}), &info)
	assert.Equal(t, 100, info.Width)
	assert.Equal(t, 80, info.Height)
	assert.True(t, info.DarkBackground)
}

func TestHandleImageLoad_Errors(t *testing.T) {
	s, _ := newTestServer()

	resp := callTool(t, s, "image_load", map[string]interface{}{"path": "/nonexistent/image.png"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)

	resp = callTool(t, s, "image_load", map[string]interface{}{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestHandleImageCrop(t *testing.T) {
	s, _ := newTestServer()
	path := createTestImageFile(t, 100, 80, color.White)

	var res struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Image  string `json:"image_base64"`
	}
	decodeResult(t, callTool(t, s, "image_crop", map[string]interface{}{
		"path": path, "x1": 10, "y1": 10, "x2": 30, "y2": 20, "scale": 2,
	}), &res)
	assert.Equal(t, 40, res.Width)
	assert.Equal(t, 20, res.Height)
}

func TestHandleTextOCRFragments(t *testing.T) {
	s, rec := newTestServer()
	path := createTestImageFile(t, 200, 120, color.White)

	var res fragmentsResult
	decodeResult(t, callTool(t, s, "text_ocr_fragments", map[string]interface{}{"path": path}), &res)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, signFragments(), res.Fragments)

	decodeResult(t, callTool(t, s, "text_ocr_fragments", map[string]interface{}{
		"path":   path,
		"region": map[string]int{"x1": 5, "y1": 6, "x2": 50, "y2": 60},
	}), &res)
	assert.Equal(t, image.Rect(5, 6, 50, 60), rec.region)
	assert.Equal(t, 0, s.cache.Len(), "region OCR must not keep images resident")
}

func TestHandleImageCrop_CacheBounded(t *testing.T) {
	s, _ := newTestServer()

	for i := 0; i < imaging.DefaultCacheSize+4; i++ {
		path := createTestImageFile(t, 20, 20, color.White)
		resp := callTool(t, s, "image_crop", map[string]interface{}{
			"path": path, "x1": 0, "y1": 0, "x2": 10, "y2": 10,
		})
		require.Nil(t, resp.Error)
	}
	assert.Equal(t, imaging.DefaultCacheSize, s.cache.Len())
}

func TestHandleTextReconstruct(t *testing.T) {
	s, _ := newTestServer()

	var res reconstructResult
	decodeResult(t, callTool(t, s, "text_reconstruct", map[string]interface{}{
		"fragments": signFragments(),
	}), &res)
	assert.Equal(t, "Rua Flores\ndas", res.Text)
	assert.Equal(t, []string{"Rua Flores", "das"}, res.Lines)

	decodeResult(t, callTool(t, s, "text_reconstruct", map[string]interface{}{
		"fragments":   signFragments(),
		"y_threshold": 0,
	}), &res)
	assert.Equal(t, []string{"Rua", "Flores", "das"}, res.Lines)

	decodeResult(t, callTool(t, s, "text_reconstruct", map[string]interface{}{"fragments": []layout.Fragment{}}), &res)
	assert.Equal(t, "", res.Text)
	assert.Empty(t, res.Lines)
}

func TestHandleTextReconstruct_NegativeThreshold(t *testing.T) {
	s, _ := newTestServer()
	resp := callTool(t, s, "text_reconstruct", map[string]interface{}{
		"fragments":   signFragments(),
		"y_threshold": -1,
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestHandleTextDetectLanguage(t *testing.T) {
	s, _ := newTestServer()

	var res languageResult
	decodeResult(t, callTool(t, s, "text_detect_language", map[string]interface{}{
		"text": "Bem-vindo ao Porto. A estação de comboios fica na próxima rua à esquerda, perto da igreja.",
	}), &res)
	assert.Equal(t, "pt", res.Code)
	assert.Equal(t, "Confirmed: Portuguese", res.Status)

	resp := callTool(t, s, "text_detect_language", map[string]interface{}{"text": "  "})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)
}

func TestHandleTextTranslate(t *testing.T) {
	s, _ := newTestServer()

	var res translateResult
	decodeResult(t, callTool(t, s, "text_translate", map[string]interface{}{
		"text":   "Saída\n\nEntrada",
		"target": "French",
	}), &res)
	assert.Equal(t, "fr", res.Target)
	assert.Equal(t, "auto", res.Source)
	assert.Equal(t, []string{"fr:Saída", "", "fr:Entrada"}, res.Lines)
	assert.Equal(t, "fr:Saída\n\nfr:Entrada", res.Text)
}

func TestHandleTextTranslate_Errors(t *testing.T) {
	s, _ := newTestServer()

	resp := callTool(t, s, "text_translate", map[string]interface{}{"text": "Saída", "target": "klingon"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)

	s.guide.Translator = prefixTranslator{err: errors.New("503")}
	resp = callTool(t, s, "text_translate", map[string]interface{}{"text": "Saída"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)
}

func TestHandleAddressDetect(t *testing.T) {
	s, _ := newTestServer()

	var res struct {
		IsAddress bool   `json:"is_address"`
		Keyword   string `json:"keyword"`
	}
	decodeResult(t, callTool(t, s, "address_detect", map[string]interface{}{"text": "Praça da Liberdade"}), &res)
	assert.True(t, res.IsAddress)
	assert.Equal(t, "praça", res.Keyword)

	decodeResult(t, callTool(t, s, "address_detect", map[string]interface{}{"text": "Pastelaria"}), &res)
	assert.False(t, res.IsAddress)
}

func TestHandleAddressGeocode(t *testing.T) {
	s, _ := newTestServer()

	var res geocodeResult
	decodeResult(t, callTool(t, s, "address_geocode", map[string]interface{}{"query": "Rua das Flores"}), &res)
	assert.True(t, res.Found)
	assert.False(t, res.Fallback)
	assert.InDelta(t, 41.1455, res.Location.Lat, 1e-9)
	assert.True(t, strings.HasPrefix(res.MapURL, "https://"))

	s.guide.Geocoder = stubGeocoder{err: errors.New("timeout")}
	decodeResult(t, callTool(t, s, "address_geocode", map[string]interface{}{"query": "Rua das Flores"}), &res)
	assert.False(t, res.Found)
	assert.True(t, res.Fallback)
	assert.Equal(t, geo.PortoCenter, res.Location)
}

func TestHandleLandmarksNearby(t *testing.T) {
	s, _ := newTestServer()

	var res nearbyResult
	decodeResult(t, callTool(t, s, "landmarks_nearby", map[string]interface{}{
		"lat": 41.14571, "lon": -8.61457,
	}), &res)
	require.Len(t, res.Recommendations, 3)
	assert.Equal(t, "Torre dos Clérigos", res.Recommendations[0].Name)
	assert.InDelta(t, 0, res.Recommendations[0].DistanceKm, 1e-6)

	decodeResult(t, callTool(t, s, "landmarks_nearby", map[string]interface{}{
		"lat": 41.14571, "lon": -8.61457, "count": 5,
	}), &res)
	assert.Len(t, res.Recommendations, 5)

	resp := callTool(t, s, "landmarks_nearby", map[string]interface{}{"lat": 41.1})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestHandleGuideScan(t *testing.T) {
	s, _ := newTestServer()

	var scan guide.Scan
	decodeResult(t, callTool(t, s, "guide_scan", map[string]interface{}{
		"path":   "sign.jpg",
		"target": "de",
	}), &scan)
	assert.NotEmpty(t, scan.ID)
	assert.Equal(t, "Rua Flores\ndas", scan.Text)
	assert.Equal(t, []string{"de:Rua Flores", "de:das"}, scan.Translation)
	assert.True(t, scan.IsAddress)
	assert.Len(t, scan.Recommendations, 3)
}

func TestHandleGuideScan_NoText(t *testing.T) {
	s, rec := newTestServer()
	rec.fragments = nil

	resp := callTool(t, s, "guide_scan", map[string]interface{}{"path": "blank.jpg"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)
	assert.Contains(t, resp.Error.Data, "no text")
}
