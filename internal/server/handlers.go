package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/porto-guide/internal/address"
	"github.com/ironsheep/porto-guide/internal/geo"
	"github.com/ironsheep/porto-guide/internal/guide"
	"github.com/ironsheep/porto-guide/internal/imaging"
	"github.com/ironsheep/porto-guide/internal/language"
	"github.com/ironsheep/porto-guide/internal/layout"
	"github.com/ironsheep/porto-guide/internal/translate"
)

// errInvalidArgs marks argument errors, reported as -32602.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "text_reconstruct", "guide_scan").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument errors return -32602, tool execution errors -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "err", err)
		if errors.Is(err, errInvalidArgs) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image
	case "image_load":
		return s.handleImageLoad(args)
	case "image_crop":
		return s.handleImageCrop(args)

	// Text
	case "text_ocr_fragments":
		return s.handleTextOCRFragments(ctx, args)
	case "text_reconstruct":
		return s.handleTextReconstruct(args)
	case "text_detect_language":
		return s.handleTextDetectLanguage(args)
	case "text_translate":
		return s.handleTextTranslate(ctx, args)

	// Location
	case "address_detect":
		return s.handleAddressDetect(args)
	case "address_geocode":
		return s.handleAddressGeocode(ctx, args)
	case "landmarks_nearby":
		return s.handleLandmarksNearby(args)

	// Pipeline
	case "guide_scan":
		return s.handleGuideScan(ctx, args)

	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArgs, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
		},
	}
	if data != "" {
		resp.Error.Data = data
	}
	return resp
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, tagging failures as invalid.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

func requireString(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s is required", errInvalidArgs, name)
	}
	return nil
}

// === Image Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireString("path", a.Path); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type imageCropArgs struct {
	Path  string  `json:"path"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, a.X1, a.Y1, a.X2, a.Y2, a.Scale)
}

// === Text Handlers ===

// regionRecognizer is implemented by recognizers that can work on part of an
// image.
type regionRecognizer interface {
	RecognizeRegion(ctx context.Context, img image.Image, r image.Rectangle) ([]layout.Fragment, error)
}

type textOCRFragmentsArgs struct {
	Path   string `json:"path"`
	Region *struct {
		X1 int `json:"x1"`
		Y1 int `json:"y1"`
		X2 int `json:"x2"`
		Y2 int `json:"y2"`
	} `json:"region,omitempty"`
}

type fragmentsResult struct {
	Fragments []layout.Fragment `json:"fragments"`
	Count     int               `json:"count"`
}

func (s *Server) handleTextOCRFragments(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a textOCRFragmentsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireString("path", a.Path); err != nil {
		return nil, err
	}

	rec := s.guide.Recognizer
	if rec == nil {
		return nil, errors.New("no OCR engine configured")
	}

	var (
		fragments []layout.Fragment
		err       error
	)
	if a.Region == nil {
		fragments, err = rec.Recognize(ctx, a.Path)
	} else {
		rr, ok := rec.(regionRecognizer)
		if !ok {
			return nil, errors.New("the configured OCR engine does not support regions")
		}
		img, loadErr := imaging.LoadFile(a.Path)
		if loadErr != nil {
			return nil, loadErr
		}
		fragments, err = rr.RecognizeRegion(ctx, img, image.Rect(a.Region.X1, a.Region.Y1, a.Region.X2, a.Region.Y2))
	}
	if err != nil {
		return nil, err
	}
	if fragments == nil {
		fragments = []layout.Fragment{}
	}
	return &fragmentsResult{Fragments: fragments, Count: len(fragments)}, nil
}

type textReconstructArgs struct {
	Fragments  []layout.Fragment `json:"fragments"`
	YThreshold *float64          `json:"y_threshold,omitempty"`
}

type reconstructResult struct {
	Text  string   `json:"text"`
	Lines []string `json:"lines"`
}

func (s *Server) handleTextReconstruct(args json.RawMessage) (interface{}, error) {
	var a textReconstructArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	threshold := layout.DefaultYThreshold
	if a.YThreshold != nil {
		if *a.YThreshold < 0 {
			return nil, fmt.Errorf("%w: y_threshold must not be negative", errInvalidArgs)
		}
		threshold = *a.YThreshold
	}

	text := layout.Reconstruct(a.Fragments, threshold)
	lines := layout.SplitLines(text)
	if lines == nil {
		lines = []string{}
	}
	return &reconstructResult{Text: text, Lines: lines}, nil
}

type textArgs struct {
	Text string `json:"text"`
}

type languageResult struct {
	language.Result
	Status string `json:"status"`
}

func (s *Server) handleTextDetectLanguage(args json.RawMessage) (interface{}, error) {
	var a textArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res, err := language.Detect(a.Text)
	if err != nil {
		return nil, err
	}
	return &languageResult{Result: res, Status: res.Status()}, nil
}

type textTranslateArgs struct {
	Text   string `json:"text"`
	Target string `json:"target"`
	Source string `json:"source"`
}

type translateResult struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Lines  []string `json:"lines"`
	Text   string   `json:"text"`
}

func (s *Server) handleTextTranslate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a textTranslateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireString("text", a.Text); err != nil {
		return nil, err
	}
	target, err := targetCode(a.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	if a.Source == "" {
		a.Source = "auto"
	}
	if s.guide.Translator == nil {
		return nil, errors.New("no translator configured")
	}

	lines, err := translate.Lines(ctx, s.guide.Translator, a.Text, a.Source, target)
	if err != nil {
		return nil, err
	}
	return &translateResult{
		Source: a.Source,
		Target: target,
		Lines:  lines,
		Text:   strings.Join(lines, "\n"),
	}, nil
}

// === Location Handlers ===

func (s *Server) handleAddressDetect(args json.RawMessage) (interface{}, error) {
	var a textArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	m := address.Detect(a.Text)
	return &m, nil
}

type addressGeocodeArgs struct {
	Query string `json:"query"`
}

type geocodeResult struct {
	Query    string         `json:"query"`
	Found    bool           `json:"found"`
	Location geo.Coordinate `json:"location"`
	Fallback bool           `json:"fallback"`
	MapURL   string         `json:"map_url"`
}

func (s *Server) handleAddressGeocode(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a addressGeocodeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireString("query", a.Query); err != nil {
		return nil, err
	}

	res := &geocodeResult{Query: a.Query, Location: geo.PortoCenter, Fallback: true}
	if s.guide.Geocoder != nil {
		c, found, err := s.guide.Geocoder.Geocode(ctx, a.Query)
		if err != nil {
			s.logger.Warn("geocoding failed, using city centre", "query", a.Query, "err", err)
		} else if found {
			res.Found, res.Location, res.Fallback = true, c, false
		}
	}
	res.MapURL = geo.MapURL(res.Location)
	return res, nil
}

type landmarksNearbyArgs struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Count int      `json:"count"`
}

type nearbyResult struct {
	Origin          geo.Coordinate       `json:"origin"`
	Recommendations []geo.Recommendation `json:"recommendations"`
}

func (s *Server) handleLandmarksNearby(args json.RawMessage) (interface{}, error) {
	var a landmarksNearbyArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Lat == nil || a.Lon == nil {
		return nil, fmt.Errorf("%w: lat and lon are required", errInvalidArgs)
	}
	if a.Count <= 0 {
		a.Count = 3
	}
	if len(s.guide.Landmarks) == 0 {
		return nil, errors.New("landmark data not available")
	}

	origin := geo.Coordinate{Lat: *a.Lat, Lon: *a.Lon}
	return &nearbyResult{
		Origin:          origin,
		Recommendations: geo.Nearest(origin, s.guide.Landmarks, a.Count),
	}, nil
}

// === Pipeline Handlers ===

type guideScanArgs struct {
	Path            string  `json:"path"`
	Target          string  `json:"target"`
	YThreshold      float64 `json:"y_threshold"`
	SkipTranslation bool    `json:"skip_translation"`
}

func (s *Server) handleGuideScan(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a guideScanArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireString("path", a.Path); err != nil {
		return nil, err
	}
	if a.YThreshold < 0 {
		return nil, fmt.Errorf("%w: y_threshold must not be negative", errInvalidArgs)
	}
	target, err := targetCode(a.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}

	return s.guide.Scan(ctx, a.Path, guide.Options{
		Target:          target,
		YThreshold:      a.YThreshold,
		SkipTranslation: a.SkipTranslation,
	})
}
