package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/resilience"
	"github.com/sells-group/venue-cli/pkg/yelp"
)

// Yelp searches the Yelp Fusion business search endpoint.
type Yelp struct {
	client yelp.Client
}

// NewYelp creates the Yelp provider.
func NewYelp(client yelp.Client) *Yelp {
	return &Yelp{client: client}
}

// Name implements Provider.
func (y *Yelp) Name() string { return "yelp" }

// Search implements Provider. Cuisine and price filters are passed to Yelp;
// vibe filters are matched against categories and the search term.
func (y *Yelp) Search(ctx context.Context, q model.SearchQuery, limit int) ([]model.ProviderVenue, error) {
	req := yelp.SearchRequest{
		Latitude:   q.Origin.Lat,
		Longitude:  q.Origin.Lng,
		RadiusM:    q.RadiusM,
		Limit:      limit,
		Categories: q.Filters.Cuisines,
		Price:      PriceTiers(q.Filters),
	}
	if len(q.Filters.Vibes) > 0 {
		req.Term = strings.Join(q.Filters.Vibes, " ")
	}
	if len(req.Categories) == 0 {
		req.Categories = []string{"restaurants", "bars", "cafes"}
	}

	resp, err := y.client.SearchBusinesses(ctx, req)
	if err != nil {
		var apiErr *yelp.APIError
		if errors.As(err, &apiErr) {
			return nil, &resilience.StatusError{Service: "yelp", StatusCode: apiErr.StatusCode, Body: apiErr.Body}
		}
		return nil, err
	}

	out := make([]model.ProviderVenue, 0, len(resp.Businesses))
	for _, b := range resp.Businesses {
		if b.IsClosed {
			continue
		}
		out = append(out, yelpVenue(b))
	}
	return out, nil
}

func yelpVenue(b yelp.Business) model.ProviderVenue {
	v := model.ProviderVenue{
		ID:          b.ID,
		Provider:    "yelp",
		Name:        strings.TrimSpace(b.Name),
		Location:    model.Coordinate{Lat: b.Coordinates.Latitude, Lng: b.Coordinates.Longitude},
		Address:     strings.Join(b.Location.DisplayAddress, ", "),
		PriceTier:   b.PriceTier(),
		Rating:      b.Rating,
		ReviewCount: b.ReviewCount,
	}
	for _, c := range b.Categories {
		v.Cuisines = append(v.Cuisines, c.Alias)
		v.Tags = append(v.Tags, c.Title)
	}
	v.Cuisines = model.NormalizeSet(v.Cuisines)
	v.Tags = model.NormalizeSet(v.Tags)
	if b.ImageURL != "" {
		v.Photos = []string{b.ImageURL}
	}
	return v
}
