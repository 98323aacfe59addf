// Package config loads porto-guide settings from a TOML file and the
// environment.
//
// Precedence, lowest to highest: built-in defaults, the TOML file, then
// PORTO_GUIDE_* environment variables. Command-line flags are applied by the
// cli package on top of the result.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PORTO_GUIDE_"

// Duration is a time.Duration decoded from strings such as "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the complete application configuration.
type Config struct {
	LogLevel string `toml:"log_level"`

	// YThreshold is the line grouping distance in pixels.
	YThreshold float64 `toml:"y_threshold"`

	OCR       OCRConfig       `toml:"ocr"`
	Translate TranslateConfig `toml:"translate"`
	Geocode   GeocodeConfig   `toml:"geocode"`
	Landmarks LandmarksConfig `toml:"landmarks"`
	Cache     CacheConfig     `toml:"cache"`
	HTTP      HTTPConfig      `toml:"http"`
}

// OCRConfig configures the Tesseract recognizer.
type OCRConfig struct {
	Language       string  `toml:"language"`
	TessdataPrefix string  `toml:"tessdata_prefix"`
	MinConfidence  float64 `toml:"min_confidence"`
	Preprocess     bool    `toml:"preprocess"`
}

// TranslateConfig configures the translator.
type TranslateConfig struct {
	Source  string   `toml:"source"`
	Target  string   `toml:"target"`
	BaseURL string   `toml:"base_url"`
	Timeout Duration `toml:"timeout"`
}

// GeocodeConfig configures the Nominatim geocoder.
type GeocodeConfig struct {
	BaseURL    string   `toml:"base_url"`
	UserAgent  string   `toml:"user_agent"`
	CitySuffix string   `toml:"city_suffix"`
	Timeout    Duration `toml:"timeout"`
}

// LandmarksConfig locates the landmark dataset. An empty Path uses the
// embedded Porto dataset.
type LandmarksConfig struct {
	Path string `toml:"path"`
	Top  int    `toml:"top"`
}

// CacheConfig selects the result cache backend.
type CacheConfig struct {
	// Backend is "memory", "redis" or "none".
	Backend   string   `toml:"backend"`
	TTL       Duration `toml:"ttl"`
	RedisAddr string   `toml:"redis_addr"`
	RedisDB   int      `toml:"redis_db"`
	Password  string   `toml:"redis_password"`
}

// HTTPConfig configures the HTTP API server.
type HTTPConfig struct {
	Addr         string `toml:"addr"`
	MaxUploadMiB int64  `toml:"max_upload_mib"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		LogLevel:   "info",
		YThreshold: 20,
		OCR: OCRConfig{
			Language:   "por",
			Preprocess: true,
		},
		Translate: TranslateConfig{
			Source:  "auto",
			Target:  "en",
			BaseURL: "https://translate.google.com",
			Timeout: Duration{15 * time.Second},
		},
		Geocode: GeocodeConfig{
			BaseURL:    "https://nominatim.openstreetmap.org",
			UserAgent:  "porto_translator",
			CitySuffix: ", Porto, Portugal",
			Timeout:    Duration{10 * time.Second},
		},
		Landmarks: LandmarksConfig{
			Top: 3,
		},
		Cache: CacheConfig{
			Backend:   "memory",
			TTL:       Duration{24 * time.Hour},
			RedisAddr: "localhost:6379",
		},
		HTTP: HTTPConfig{
			Addr:         ":8080",
			MaxUploadMiB: 10,
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from PORTO_GUIDE_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("LOG_LEVEL", &c.LogLevel)
	str("OCR_LANGUAGE", &c.OCR.Language)
	str("TESSDATA_PREFIX", &c.OCR.TessdataPrefix)
	str("TRANSLATE_TARGET", &c.Translate.Target)
	str("TRANSLATE_URL", &c.Translate.BaseURL)
	str("GEOCODE_URL", &c.Geocode.BaseURL)
	str("GEOCODE_USER_AGENT", &c.Geocode.UserAgent)
	str("LANDMARKS", &c.Landmarks.Path)
	str("CACHE", &c.Cache.Backend)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("HTTP_ADDR", &c.HTTP.Addr)

	if v, ok := lookup(EnvPrefix + "Y_THRESHOLD"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sY_THRESHOLD %q: %w", EnvPrefix, v, err)
		}
		c.YThreshold = f
	}
	if v, ok := lookup(EnvPrefix + "CACHE_TTL"); ok && v != "" {
		if err := c.Cache.TTL.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid %sCACHE_TTL: %w", EnvPrefix, err)
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.YThreshold < 0 {
		return fmt.Errorf("y_threshold must not be negative, got %v", c.YThreshold)
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 1 {
		return fmt.Errorf("ocr.min_confidence must be within 0-1, got %v", c.OCR.MinConfidence)
	}
	if c.Landmarks.Top < 1 {
		return fmt.Errorf("landmarks.top must be at least 1, got %d", c.Landmarks.Top)
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}
