package geo

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

//go:embed data/porto_landmarks.csv
var portoLandmarks string

// ErrMissingColumns is returned when a landmark CSV lacks a required column.
var ErrMissingColumns = errors.New("landmark CSV missing required columns")

// RequiredColumns must appear in a landmark CSV header, in any order.
var RequiredColumns = []string{"name", "latitude", "longitude", "description"}

// Landmark is a point of interest.
type Landmark struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description"`
}

// Coordinate returns the landmark position.
func (l Landmark) Coordinate() Coordinate {
	return Coordinate{Lat: l.Latitude, Lon: l.Longitude}
}

// Recommendation is a landmark with its distance from the origin.
type Recommendation struct {
	Landmark
	DistanceKm float64 `json:"distance_km"`
	MapURL     string  `json:"map_url"`
}

// LoadLandmarks parses a CSV with a header row naming at least
// RequiredColumns. Extra columns are ignored.
func LoadLandmarks(r io.Reader) ([]Landmark, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read landmark header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var landmarks []Landmark
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read landmark row %d: %w", line, err)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[index["latitude"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(rec[index["longitude"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid longitude: %w", line, err)
		}

		landmarks = append(landmarks, Landmark{
			Name:        rec[index["name"]],
			Latitude:    lat,
			Longitude:   lon,
			Description: rec[index["description"]],
		})
	}
	return landmarks, nil
}

// LoadLandmarksFile reads a landmark CSV from path.
func LoadLandmarksFile(path string) ([]Landmark, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("landmarks file not found: %w", err)
	}
	defer f.Close()
	return LoadLandmarks(f)
}

// PortoLandmarks returns the built-in Porto dataset.
func PortoLandmarks() []Landmark {
	landmarks, err := LoadLandmarks(strings.NewReader(portoLandmarks))
	if err != nil {
		panic("geo: embedded landmark data is invalid: " + err.Error())
	}
	return landmarks
}

// Nearest returns up to n landmarks ordered by distance from origin. Ties keep
// dataset order. The input slice is not modified.
func Nearest(origin Coordinate, landmarks []Landmark, n int) []Recommendation {
	recs := make([]Recommendation, len(landmarks))
	for i, l := range landmarks {
		recs[i] = Recommendation{
			Landmark:   l,
			DistanceKm: Distance(origin, l.Coordinate()),
			MapURL:     MapURL(l.Coordinate()),
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].DistanceKm < recs[j].DistanceKm
	})

	if n < 0 {
		n = 0
	}
	if n < len(recs) {
		recs = recs[:n]
	}
	return recs
}
