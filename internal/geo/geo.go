// Package geo locates addresses and ranks nearby landmarks.
//
// Geocoding is delegated to OpenStreetMap Nominatim. Distances are
// great-circle distances in kilometres on a spherical Earth.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Coordinate is a WGS 84 position.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PortoCenter is the fallback origin when an address cannot be located.
var PortoCenter = Coordinate{Lat: 41.1579, Lon: -8.6291}

// String formats c with four decimals, e.g. "41.1579, -8.6291".
func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lon)
}

// Distance returns the haversine distance between a and b in kilometres.
func Distance(a, b Coordinate) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// MapURL links to c on openstreetmap.org at street zoom.
func MapURL(c Coordinate) string {
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.6f&mlon=%.6f#map=17/%.6f/%.6f",
		c.Lat, c.Lon, c.Lat, c.Lon)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
