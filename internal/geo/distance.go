// Package geo provides the similarity kernel used for venue matching:
// geodesic distance, coordinate quantization and name similarity.
package geo

import (
	"math"

	"github.com/sells-group/venue-cli/internal/model"
)

// earthRadiusM is the IUGG mean Earth radius in meters.
const earthRadiusM = 6_371_008.8

// DistanceM returns the great-circle distance between a and b in meters
// using the haversine formula.
func DistanceM(a, b model.Coordinate) float64 {
	if a == b {
		return 0
	}
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := lat2 - lat1
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	if h > 1 {
		h = 1
	}
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// DistanceKM is DistanceM in kilometers.
func DistanceKM(a, b model.Coordinate) float64 {
	return DistanceM(a, b) / 1000
}

// Centroid returns the arithmetic mean of the given coordinates. Adequate for
// the sub-kilometer clusters produced by venue deduplication.
func Centroid(points []model.Coordinate) model.Coordinate {
	if len(points) == 0 {
		return model.Coordinate{}
	}
	var lat, lng float64
	for _, p := range points {
		lat += p.Lat
		lng += p.Lng
	}
	n := float64(len(points))
	return model.Coordinate{Lat: lat / n, Lng: lng / n}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
