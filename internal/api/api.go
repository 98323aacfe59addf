// Package api serves the guide over HTTP.
//
// Routes:
//
//	GET  /healthz          liveness and version
//	GET  /v1/landmarks     the landmark dataset
//	POST /v1/reconstruct   fragments in, reading-order text out
//	POST /v1/translate     line by line translation
//	POST /v1/nearby        nearest landmarks to a coordinate or address
//	POST /v1/scan          multipart photo upload (field "image"), full pipeline
//
// Errors are JSON objects of the form {"error": "..."}.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ironsheep/porto-guide/internal/geo"
	"github.com/ironsheep/porto-guide/internal/guide"
	"github.com/ironsheep/porto-guide/internal/imaging"
	"github.com/ironsheep/porto-guide/internal/layout"
	"github.com/ironsheep/porto-guide/internal/logging"
	"github.com/ironsheep/porto-guide/internal/translate"
)

// DefaultMaxUpload caps photo uploads.
const DefaultMaxUpload = 10 << 20

// Options configures a Server.
type Options struct {
	Logger    *log.Logger
	Version   string
	MaxUpload int64
}

// Server is the HTTP front end of a guide.Guide.
type Server struct {
	guide     *guide.Guide
	logger    *log.Logger
	version   string
	maxUpload int64
	images    *imaging.ImageCache
	router    chi.Router
}

// New builds the router for g.
func New(g *guide.Guide, opts Options) *Server {
	s := &Server{
		guide:     g,
		logger:    opts.Logger,
		version:   opts.Version,
		maxUpload: opts.MaxUpload,
		images:    imaging.NewImageCache(),
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.version == "" {
		s.version = "dev"
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUpload
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/landmarks", s.handleLandmarks)
		r.Post("/reconstruct", s.handleReconstruct)
		r.Post("/translate", s.handleTranslate)
		r.Post("/nearby", s.handleNearby)
		r.Post("/scan", s.handleScan)
	})
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, guide.ErrNoText), errors.Is(err, guide.ErrRecognition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, guide.ErrTranslation):
		return http.StatusBadGateway
	case errors.Is(err, translate.ErrUnsupportedTarget), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 4<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"version":   s.version,
		"landmarks": len(s.guide.Landmarks),
	})
}

func (s *Server) handleLandmarks(w http.ResponseWriter, r *http.Request) {
	landmarks := s.guide.Landmarks
	if landmarks == nil {
		landmarks = []geo.Landmark{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"landmarks": landmarks})
}

type reconstructRequest struct {
	Fragments  []layout.Fragment `json:"fragments"`
	YThreshold *float64          `json:"y_threshold,omitempty"`
}

type reconstructResponse struct {
	Text  string   `json:"text"`
	Lines []string `json:"lines"`
}

func (s *Server) handleReconstruct(w http.ResponseWriter, r *http.Request) {
	var req reconstructRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	threshold := layout.DefaultYThreshold
	if req.YThreshold != nil {
		if *req.YThreshold < 0 {
			writeError(w, http.StatusBadRequest, errors.New("y_threshold must not be negative"))
			return
		}
		threshold = *req.YThreshold
	}

	text := layout.Reconstruct(req.Fragments, threshold)
	lines := layout.SplitLines(text)
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, reconstructResponse{Text: text, Lines: lines})
}

type translateRequest struct {
	Text   string `json:"text"`
	Target string `json:"target"`
	Source string `json:"source"`
}

type translateResponse struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Lines  []string `json:"lines"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, errors.New("text is required"))
		return
	}
	target, err := parseTarget(req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Source == "" {
		req.Source = "auto"
	}
	if s.guide.Translator == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no translator configured"))
		return
	}

	lines, err := translate.Lines(r.Context(), s.guide.Translator, req.Text, req.Source, target)
	if err != nil {
		logging.FromContext(r.Context()).Warn("translation failed", "err", err)
		writeError(w, http.StatusBadGateway, fmt.Errorf("%w: %v", guide.ErrTranslation, err))
		return
	}
	writeJSON(w, http.StatusOK, translateResponse{Source: req.Source, Target: target, Lines: lines})
}

type nearbyRequest struct {
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
	Address string   `json:"address,omitempty"`
	Count   int      `json:"count,omitempty"`
}

type nearbyResponse struct {
	Origin          geo.Coordinate       `json:"origin"`
	Fallback        bool                 `json:"fallback"`
	Recommendations []geo.Recommendation `json:"recommendations"`
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	var req nearbyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Count <= 0 {
		req.Count = 3
	}
	if len(s.guide.Landmarks) == 0 {
		writeError(w, http.StatusServiceUnavailable, errors.New("landmark data not available"))
		return
	}

	resp := nearbyResponse{}
	switch {
	case req.Lat != nil && req.Lon != nil:
		resp.Origin = geo.Coordinate{Lat: *req.Lat, Lon: *req.Lon}
	case strings.TrimSpace(req.Address) != "":
		resp.Origin, resp.Fallback = s.geocode(r.Context(), req.Address)
	default:
		writeError(w, http.StatusBadRequest, errors.New("either lat and lon or address is required"))
		return
	}

	resp.Recommendations = geo.Nearest(resp.Origin, s.guide.Landmarks, req.Count)
	writeJSON(w, http.StatusOK, resp)
}

// geocode resolves address, falling back to PortoCenter.
func (s *Server) geocode(ctx context.Context, address string) (geo.Coordinate, bool) {
	if s.guide.Geocoder == nil {
		return geo.PortoCenter, true
	}
	c, found, err := s.guide.Geocoder.Geocode(ctx, address)
	if err != nil {
		logging.FromContext(ctx).Warn("geocoding failed, using city centre", "err", err)
		return geo.PortoCenter, true
	}
	if !found {
		return geo.PortoCenter, true
	}
	return c, false
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("image upload required: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	// Reject non-images before running OCR.
	key := middleware.GetReqID(ctx)
	if _, _, err := s.images.Decode(key, data); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.images.Evict(key)

	opts, err := scanOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	path, err := saveUpload(data, filepath.Ext(header.Filename))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.Remove(path)

	scan, err := s.guide.Scan(ctx, path, opts)
	if err != nil {
		logging.FromContext(ctx).Warn("scan failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

// scanOptions reads target, y_threshold and skip_translation from the form.
func scanOptions(r *http.Request) (guide.Options, error) {
	var opts guide.Options

	target, err := parseTarget(r.FormValue("target"))
	if err != nil {
		return opts, err
	}
	opts.Target = target

	if v := r.FormValue("y_threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return opts, fmt.Errorf("invalid y_threshold %q", v)
		}
		opts.YThreshold = f
	}
	if v := r.FormValue("skip_translation"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid skip_translation %q", v)
		}
		opts.SkipTranslation = b
	}
	return opts, nil
}

func parseTarget(s string) (string, error) {
	if s == "" {
		return translate.Targets[0].Code, nil
	}
	t, err := translate.ParseTarget(s)
	if err != nil {
		return "", err
	}
	return t.Code, nil
}

func saveUpload(data []byte, ext string) (string, error) {
	if ext == "" {
		ext = ".img"
	}
	f, err := os.CreateTemp("", "porto-guide-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return f.Name(), nil
}
