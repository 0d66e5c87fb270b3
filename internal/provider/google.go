package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/resilience"
	"github.com/sells-group/venue-cli/pkg/google"
)

// googleMaxResults is the searchNearby page size limit.
const googleMaxResults = 20

// genericPlaceTypes carry no cuisine or vibe signal.
var genericPlaceTypes = map[string]bool{
	"point_of_interest": true,
	"establishment":     true,
	"food":              true,
	"store":             true,
}

// Google searches the Places API (New) searchNearby endpoint.
type Google struct {
	client google.Client
}

// NewGoogle creates the Google provider.
func NewGoogle(client google.Client) *Google {
	return &Google{client: client}
}

// Name implements Provider.
func (g *Google) Name() string { return "google" }

// Search implements Provider. Cuisine filters become includedTypes; price
// and vibe filters are applied to the normalized results.
func (g *Google) Search(ctx context.Context, q model.SearchQuery, limit int) ([]model.ProviderVenue, error) {
	if limit <= 0 || limit > googleMaxResults {
		limit = googleMaxResults
	}
	types := []string{"restaurant", "cafe", "bar"}
	if len(q.Filters.Cuisines) > 0 {
		types = make([]string, 0, len(q.Filters.Cuisines))
		for _, c := range q.Filters.Cuisines {
			types = append(types, c+"_restaurant")
		}
	}

	resp, err := g.client.SearchNearby(ctx, google.SearchNearbyRequest{
		IncludedTypes:  types,
		MaxResultCount: limit,
		LocationRestriction: google.LocationRestriction{Circle: google.Circle{
			Center: google.LatLng{Latitude: q.Origin.Lat, Longitude: q.Origin.Lng},
			Radius: float64(q.RadiusM),
		}},
	})
	if err != nil {
		return nil, translateGoogleError(err)
	}

	filters := model.Filters{Vibes: q.Filters.Vibes, PriceTiers: q.Filters.PriceTiers}
	out := make([]model.ProviderVenue, 0, len(resp.Places))
	for _, p := range resp.Places {
		v := googleVenue(p)
		if MatchesFilters(v, filters) {
			out = append(out, v)
		}
	}
	return out, nil
}

func googleVenue(p google.Place) model.ProviderVenue {
	v := model.ProviderVenue{
		ID:          p.ID,
		Provider:    "google",
		Name:        strings.TrimSpace(p.DisplayName.Text),
		Location:    model.Coordinate{Lat: p.Location.Latitude, Lng: p.Location.Longitude},
		Address:     p.FormattedAddress,
		PriceTier:   p.PriceTier(),
		Rating:      p.Rating,
		ReviewCount: p.UserRatingCount,
	}
	for _, t := range p.Types {
		switch {
		case genericPlaceTypes[t]:
		case strings.HasSuffix(t, "_restaurant"):
			v.Cuisines = append(v.Cuisines, strings.TrimSuffix(t, "_restaurant"))
		default:
			v.Tags = append(v.Tags, t)
		}
	}
	v.Cuisines = model.NormalizeSet(v.Cuisines)
	v.Tags = model.NormalizeSet(v.Tags)
	for _, ph := range p.Photos {
		v.Photos = append(v.Photos, ph.Name)
	}
	if p.CurrentOpeningHours != nil {
		open := p.CurrentOpeningHours.OpenNow
		v.OpenNow = &open
	}
	return v
}

func translateGoogleError(err error) error {
	var apiErr *google.APIError
	if errors.As(err, &apiErr) {
		return &resilience.StatusError{Service: "google", StatusCode: apiErr.StatusCode, Body: apiErr.Body}
	}
	return err
}
