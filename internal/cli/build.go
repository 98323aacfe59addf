package cli

import (
	"context"
	"strings"

	"github.com/ironsheep/porto-guide/internal/cache"
	"github.com/ironsheep/porto-guide/internal/geo"
	"github.com/ironsheep/porto-guide/internal/guide"
	"github.com/ironsheep/porto-guide/internal/ocr"
	"github.com/ironsheep/porto-guide/internal/translate"
)

// newCache opens the configured cache backend. Redis connection failures
// fall back to the in-memory cache.
func (c *CLI) newCache(ctx context.Context) cache.Cache {
	cc := c.cfg.Cache
	switch strings.ToLower(cc.Backend) {
	case "none":
		return cache.NewNull()
	case "redis":
		r, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cc.RedisAddr,
			Password: cc.Password,
			DB:       cc.RedisDB,
			Prefix:   appName + ":",
			TTL:      cc.TTL.Duration,
		})
		if err == nil {
			c.Logger.Debug("using redis cache", "addr", cc.RedisAddr)
			return r
		}
		c.Logger.Warn("redis unavailable, using memory cache", "err", err)
	}
	return cache.NewMemory(cc.TTL.Duration)
}

// loadLandmarks returns the configured dataset, or the embedded one. A
// missing or malformed file is logged and yields no landmarks, so scans
// still run but make no recommendations.
func (c *CLI) loadLandmarks() []geo.Landmark {
	if c.cfg.Landmarks.Path == "" {
		return geo.PortoLandmarks()
	}
	landmarks, err := geo.LoadLandmarksFile(c.cfg.Landmarks.Path)
	if err != nil {
		c.Logger.Warn("landmark data not available", "path", c.cfg.Landmarks.Path, "err", err)
		return nil
	}
	return landmarks
}

// newGuide builds the pipeline from the configuration. The returned cache
// must be closed by the caller.
func (c *CLI) newGuide(ctx context.Context) (*guide.Guide, cache.Cache) {
	cfg := c.cfg
	store := c.newCache(ctx)

	g := &guide.Guide{
		Recognizer: ocr.NewTesseract(ocr.Options{
			Language:       cfg.OCR.Language,
			TessdataPrefix: cfg.OCR.TessdataPrefix,
			MinConfidence:  cfg.OCR.MinConfidence,
			Preprocess:     cfg.OCR.Preprocess,
		}),
		Translator: translate.NewCached(
			translate.NewGoogle(cfg.Translate.BaseURL, cfg.Translate.Timeout.Duration),
			store, cfg.Cache.TTL.Duration,
		),
		Geocoder: geo.NewNominatim(geo.NominatimConfig{
			BaseURL:    cfg.Geocode.BaseURL,
			UserAgent:  cfg.Geocode.UserAgent,
			CitySuffix: cfg.Geocode.CitySuffix,
			Timeout:    cfg.Geocode.Timeout.Duration,
			Cache:      store,
			CacheTTL:   cfg.Cache.TTL.Duration,
		}),
		Landmarks:  c.loadLandmarks(),
		Logger:     c.Logger,
		YThreshold: cfg.YThreshold,
		Top:        cfg.Landmarks.Top,
		Source:     cfg.Translate.Source,
	}
	return g, store
}
