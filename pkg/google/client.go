// Package google is a minimal client for the Google Places (New) and Routes APIs.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL       = "https://places.googleapis.com/v1"
	defaultRoutesBaseURL = "https://routes.googleapis.com"

	nearbyFieldMask = "places.id,places.displayName,places.location,places.formattedAddress," +
		"places.rating,places.userRatingCount,places.priceLevel,places.types,places.primaryType," +
		"places.currentOpeningHours.openNow,places.photos.name"
	routesFieldMask = "routes.duration,routes.distanceMeters"
)

// Client performs Google Places and Routes API operations.
type Client interface {
	SearchNearby(ctx context.Context, req SearchNearbyRequest) (*SearchNearbyResponse, error)
	ComputeRoutes(ctx context.Context, req RouteRequest) (*RouteResponse, error)
}

// APIError is a non-200 response from Google.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google: unexpected status %d: %s", e.StatusCode, e.Body)
}

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchNearbyRequest is the body of places:searchNearby.
type SearchNearbyRequest struct {
	IncludedTypes       []string            `json:"includedTypes,omitempty"`
	MaxResultCount      int                 `json:"maxResultCount,omitempty"`
	LocationRestriction LocationRestriction `json:"locationRestriction"`
}

// LocationRestriction bounds a nearby search to a circle.
type LocationRestriction struct {
	Circle Circle `json:"circle"`
}

// Circle is a center and radius in meters.
type Circle struct {
	Center LatLng  `json:"center"`
	Radius float64 `json:"radius"`
}

// SearchNearbyResponse is the response from places:searchNearby.
type SearchNearbyResponse struct {
	Places []Place `json:"places"`
}

// Place represents a place returned by the API.
type Place struct {
	ID                  string        `json:"id"`
	DisplayName         DisplayName   `json:"displayName"`
	Location            LatLng        `json:"location"`
	FormattedAddress    string        `json:"formattedAddress"`
	Rating              float64       `json:"rating"`
	UserRatingCount     int           `json:"userRatingCount"`
	PriceLevel          string        `json:"priceLevel"`
	Types               []string      `json:"types"`
	PrimaryType         string        `json:"primaryType"`
	CurrentOpeningHours *OpeningHours `json:"currentOpeningHours,omitempty"`
	Photos              []PhotoRef    `json:"photos"`
}

// DisplayName holds the place's display name.
type DisplayName struct {
	Text string `json:"text"`
}

// OpeningHours holds the current open state.
type OpeningHours struct {
	OpenNow bool `json:"openNow"`
}

// PhotoRef is a photo resource name.
type PhotoRef struct {
	Name string `json:"name"`
}

// PriceTier maps the PRICE_LEVEL_* enum to 1-4, or 0 when unknown or free.
func (p Place) PriceTier() int {
	switch p.PriceLevel {
	case "PRICE_LEVEL_INEXPENSIVE":
		return 1
	case "PRICE_LEVEL_MODERATE":
		return 2
	case "PRICE_LEVEL_EXPENSIVE":
		return 3
	case "PRICE_LEVEL_VERY_EXPENSIVE":
		return 4
	default:
		return 0
	}
}

// RouteRequest asks for a single route between two points.
type RouteRequest struct {
	Origin      LatLng
	Destination LatLng
	// TravelMode is DRIVE, WALK, BICYCLE or TRANSIT. Default DRIVE.
	TravelMode string
}

// RouteResponse is the first route returned by computeRoutes.
type RouteResponse struct {
	DistanceMeters int
	Duration       time.Duration
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default Places API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithRoutesBaseURL overrides the default Routes API base URL.
func WithRoutesBaseURL(url string) Option {
	return func(c *httpClient) {
		c.routesBaseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey        string
	baseURL       string
	routesBaseURL string
	http          *http.Client
}

// NewClient creates a Google Places and Routes client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:        apiKey,
		baseURL:       defaultBaseURL,
		routesBaseURL: defaultRoutesBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchNearby(ctx context.Context, req SearchNearbyRequest) (*SearchNearbyResponse, error) {
	var result SearchNearbyResponse
	if err := c.post(ctx, c.baseURL+"/places:searchNearby", nearbyFieldMask, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type routeWaypoint struct {
	Location struct {
		LatLng LatLng `json:"latLng"`
	} `json:"location"`
}

type computeRoutesRequest struct {
	Origin      routeWaypoint `json:"origin"`
	Destination routeWaypoint `json:"destination"`
	TravelMode  string        `json:"travelMode"`
}

type computeRoutesResponse struct {
	Routes []struct {
		DistanceMeters int    `json:"distanceMeters"`
		Duration       string `json:"duration"`
	} `json:"routes"`
}

func (c *httpClient) ComputeRoutes(ctx context.Context, req RouteRequest) (*RouteResponse, error) {
	body := computeRoutesRequest{TravelMode: req.TravelMode}
	if body.TravelMode == "" {
		body.TravelMode = "DRIVE"
	}
	body.Origin.Location.LatLng = req.Origin
	body.Destination.Location.LatLng = req.Destination

	var result computeRoutesResponse
	if err := c.post(ctx, c.routesBaseURL+"/directions/v2:computeRoutes", routesFieldMask, body, &result); err != nil {
		return nil, err
	}
	if len(result.Routes) == 0 {
		return nil, eris.New("google: no route found")
	}

	route := result.Routes[0]
	dur, err := parseDuration(route.Duration)
	if err != nil {
		return nil, eris.Wrapf(err, "google: parse duration %q", route.Duration)
	}
	return &RouteResponse{DistanceMeters: route.DistanceMeters, Duration: dur}, nil
}

func (c *httpClient) post(ctx context.Context, url, fieldMask string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return eris.Wrap(err, "google: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "google: create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "google: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "google: unmarshal response")
	}
	return nil
}

// parseDuration parses protobuf duration strings like "165s" or "1.5s".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	secs, err := strconv.ParseFloat(strings.TrimSuffix(s, "s"), 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}
