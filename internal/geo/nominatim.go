package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/porto-guide/internal/cache"
	"github.com/ironsheep/porto-guide/internal/httputil"
	"github.com/ironsheep/porto-guide/internal/logging"
)

// Geocoder resolves free-form address text to a coordinate. found is false
// when the service has no match.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (c Coordinate, found bool, err error)
}

// NominatimConfig configures a Nominatim client.
type NominatimConfig struct {
	// BaseURL defaults to https://nominatim.openstreetmap.org.
	BaseURL string
	// UserAgent is required by the Nominatim usage policy.
	UserAgent string
	// CitySuffix is appended to every query, e.g. ", Porto, Portugal".
	CitySuffix string
	Timeout    time.Duration
	// Cache stores results, including misses. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration
}

// Nominatim queries the OpenStreetMap search API.
type Nominatim struct {
	cfg    NominatimConfig
	client *http.Client
}

// NewNominatim creates a geocoder.
func NewNominatim(cfg NominatimConfig) *Nominatim {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "porto_translator"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNull()
	}
	return &Nominatim{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type cachedGeocode struct {
	Found bool       `json:"found"`
	Coord Coordinate `json:"coord"`
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode looks up query followed by the configured city suffix. Multi-line
// OCR text is joined into a single line first.
func (n *Nominatim) Geocode(ctx context.Context, query string) (Coordinate, bool, error) {
	q := strings.Join(strings.Fields(query), " ") + n.cfg.CitySuffix
	key := cache.Key("geocode", q)

	var hit cachedGeocode
	if err := cache.GetJSON(ctx, n.cfg.Cache, key, &hit); err == nil {
		return hit.Coord, hit.Found, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		// An unreadable cache must not hide the service.
		logging.FromContext(ctx).Warn("geocode cache read failed, querying service", "err", err)
	}

	var places []nominatimPlace
	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
		var err error
		places, err = n.search(ctx, q)
		return err
	})
	if err != nil {
		return Coordinate{}, false, fmt.Errorf("geocode %q: %w", q, err)
	}

	result := cachedGeocode{}
	if len(places) > 0 {
		lat, err := strconv.ParseFloat(places[0].Lat, 64)
		if err != nil {
			return Coordinate{}, false, fmt.Errorf("invalid latitude %q: %w", places[0].Lat, err)
		}
		lon, err := strconv.ParseFloat(places[0].Lon, 64)
		if err != nil {
			return Coordinate{}, false, fmt.Errorf("invalid longitude %q: %w", places[0].Lon, err)
		}
		result = cachedGeocode{Found: true, Coord: Coordinate{Lat: lat, Lon: lon}}
	}

	// A failed cache write only costs a repeated lookup.
	_ = cache.SetJSON(ctx, n.cfg.Cache, key, result, n.cfg.CacheTTL)
	return result.Coord, result.Found, nil
}

func (n *Nominatim) search(ctx context.Context, q string) ([]nominatimPlace, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(n.cfg.BaseURL, "/")+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	body, err := httputil.Do(n.client, req)
	if err != nil {
		return nil, err
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	return places, nil
}

var _ Geocoder = (*Nominatim)(nil)
