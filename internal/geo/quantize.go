package geo

import (
	"math"
	"strconv"

	"github.com/sells-group/venue-cli/internal/model"
)

// DefaultPrecision is the number of decimal places coordinates are rounded
// to for cache keys. 0.001 degrees of latitude is roughly 111 m.
const DefaultPrecision = 3

// Quantize rounds v to the given number of decimal places.
func Quantize(v float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	p := math.Pow(10, float64(precision))
	q := math.Round(v*p) / p
	if q == 0 {
		return 0 // normalize -0
	}
	return q
}

// FormatQuantized renders a quantized coordinate as "lat:lng" with a fixed
// number of decimals, so equal cells always produce identical strings.
func FormatQuantized(c model.Coordinate, precision int) string {
	if precision < 0 {
		precision = 0
	}
	lat := strconv.FormatFloat(Quantize(c.Lat, precision), 'f', precision, 64)
	lng := strconv.FormatFloat(Quantize(c.Lng, precision), 'f', precision, 64)
	return lat + ":" + lng
}
