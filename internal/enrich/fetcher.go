package enrich

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-cli/internal/geo"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/resilience"
	"github.com/sells-group/venue-cli/pkg/google"
)

// DefaultSpeedKMH is the average travel speed of the estimate fetcher.
const DefaultSpeedKMH = 25.0

// EstimateFetcher derives travel time from great-circle distance at a
// fixed average speed. It never calls out.
type EstimateFetcher struct {
	SpeedKMH float64
	Mode     string
	nowFunc  func() time.Time
}

// NewEstimateFetcher creates an EstimateFetcher. A non-positive speed uses
// DefaultSpeedKMH.
func NewEstimateFetcher(speedKMH float64) *EstimateFetcher {
	if speedKMH <= 0 {
		speedKMH = DefaultSpeedKMH
	}
	return &EstimateFetcher{SpeedKMH: speedKMH, Mode: "estimate", nowFunc: time.Now}
}

func (f *EstimateFetcher) Name() string { return "estimate" }

func (f *EstimateFetcher) Fetch(_ context.Context, origin model.Coordinate, v model.MergedVenue) (*model.EnrichmentResult, error) {
	km := geo.DistanceKM(origin, v.Location)
	return &model.EnrichmentResult{
		VenueID:     v.ID,
		DistanceM:   km * 1000,
		TravelTime:  time.Duration(km / f.SpeedKMH * float64(time.Hour)).Round(time.Second),
		Mode:        f.Mode,
		Source:      f.Name(),
		RetrievedAt: f.nowFunc(),
	}, nil
}

// RoutesFetcher asks the Google Routes API for a route per venue.
type RoutesFetcher struct {
	client  google.Client
	mode    string
	nowFunc func() time.Time
}

// NewRoutesFetcher creates a RoutesFetcher. Mode is a Routes travel mode
// (DRIVE, WALK, BICYCLE, TRANSIT); empty means DRIVE.
func NewRoutesFetcher(client google.Client, mode string) *RoutesFetcher {
	mode = strings.ToUpper(mode)
	if mode == "" {
		mode = "DRIVE"
	}
	return &RoutesFetcher{client: client, mode: mode, nowFunc: time.Now}
}

func (f *RoutesFetcher) Name() string { return "google_routes" }

func (f *RoutesFetcher) Fetch(ctx context.Context, origin model.Coordinate, v model.MergedVenue) (*model.EnrichmentResult, error) {
	resp, err := f.client.ComputeRoutes(ctx, google.RouteRequest{
		Origin:      google.LatLng{Latitude: origin.Lat, Longitude: origin.Lng},
		Destination: google.LatLng{Latitude: v.Location.Lat, Longitude: v.Location.Lng},
		TravelMode:  f.mode,
	})
	if err != nil {
		var apiErr *google.APIError
		if errors.As(err, &apiErr) {
			return nil, &resilience.StatusError{Service: f.Name(), StatusCode: apiErr.StatusCode, Body: apiErr.Body}
		}
		return nil, eris.Wrapf(err, "enrich: route to %s", v.ID)
	}
	return &model.EnrichmentResult{
		VenueID:     v.ID,
		DistanceM:   float64(resp.DistanceMeters),
		TravelTime:  resp.Duration,
		Mode:        strings.ToLower(f.mode),
		Source:      f.Name(),
		RetrievedAt: f.nowFunc(),
	}, nil
}
