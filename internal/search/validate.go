package search

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/resilience"
)

// MaxRadiusM is the largest accepted search radius.
const MaxRadiusM = 50_000

// ValidateQuery checks coordinate and radius bounds. Failures are
// *resilience.ValidationError so they classify as client errors.
func ValidateQuery(q model.SearchQuery) error {
	var errs []string
	if q.Origin.Lat < -90 || q.Origin.Lat > 90 {
		errs = append(errs, fmt.Sprintf("lat %.6f out of range [-90, 90]", q.Origin.Lat))
	}
	if q.Origin.Lng < -180 || q.Origin.Lng > 180 {
		errs = append(errs, fmt.Sprintf("lng %.6f out of range [-180, 180]", q.Origin.Lng))
	}
	if q.RadiusM <= 0 || q.RadiusM > MaxRadiusM {
		errs = append(errs, fmt.Sprintf("radius_m %d out of range (0, %d]", q.RadiusM, MaxRadiusM))
	}
	for _, p := range q.Filters.PriceTiers {
		if len(p) != 1 || p[0] < '1' || p[0] > '4' {
			errs = append(errs, fmt.Sprintf("price tier %q must be 1-4", p))
		}
	}
	if len(errs) > 0 {
		return &resilience.ValidationError{Err: eris.Errorf("search: invalid query: %s", strings.Join(errs, "; "))}
	}
	return nil
}
