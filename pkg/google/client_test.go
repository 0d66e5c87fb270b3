package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchNearby_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchNearby", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.location")

		var body SearchNearbyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"restaurant"}, body.IncludedTypes)
		assert.Equal(t, 20, body.MaxResultCount)
		assert.InDelta(t, 52.52, body.LocationRestriction.Circle.Center.Latitude, 0.0001)
		assert.InDelta(t, 1500, body.LocationRestriction.Circle.Radius, 0.1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"places":[{
			"id":"ChIJ-bella",
			"displayName":{"text":"Bella Notte"},
			"location":{"latitude":52.5201,"longitude":13.4049},
			"formattedAddress":"Torstr. 1, Berlin",
			"rating":4.6,
			"userRatingCount":312,
			"priceLevel":"PRICE_LEVEL_MODERATE",
			"types":["italian_restaurant","restaurant"],
			"currentOpeningHours":{"openNow":true},
			"photos":[{"name":"places/ChIJ-bella/photos/abc"}]
		}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.SearchNearby(context.Background(), SearchNearbyRequest{
		IncludedTypes:  []string{"restaurant"},
		MaxResultCount: 20,
		LocationRestriction: LocationRestriction{Circle: Circle{
			Center: LatLng{Latitude: 52.52, Longitude: 13.405},
			Radius: 1500,
		}},
	})

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	p := resp.Places[0]
	assert.Equal(t, "Bella Notte", p.DisplayName.Text)
	assert.Equal(t, 312, p.UserRatingCount)
	assert.Equal(t, 2, p.PriceTier())
	require.NotNil(t, p.CurrentOpeningHours)
	assert.True(t, p.CurrentOpeningHours.OpenNow)
	assert.Equal(t, "places/ChIJ-bella/photos/abc", p.Photos[0].Name)
}

func TestSearchNearby_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "quota"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.SearchNearby(context.Background(), SearchNearbyRequest{})

	assert.Nil(t, resp)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "429")
}

func TestSearchNearby_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.SearchNearby(ctx, SearchNearbyRequest{})

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestComputeRoutes_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/directions/v2:computeRoutes", r.URL.Path)
		assert.Equal(t, routesFieldMask, r.Header.Get("X-Goog-FieldMask"))

		var body computeRoutesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "WALK", body.TravelMode)
		assert.InDelta(t, 52.53, body.Destination.Location.LatLng.Latitude, 0.0001)

		_, _ = w.Write([]byte(`{"routes":[{"distanceMeters":1240,"duration":"905s"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithRoutesBaseURL(srv.URL))
	resp, err := client.ComputeRoutes(context.Background(), RouteRequest{
		Origin:      LatLng{Latitude: 52.52, Longitude: 13.405},
		Destination: LatLng{Latitude: 52.53, Longitude: 13.41},
		TravelMode:  "WALK",
	})

	require.NoError(t, err)
	assert.Equal(t, 1240, resp.DistanceMeters)
	assert.Equal(t, 905*time.Second, resp.Duration)
}

func TestComputeRoutes_NoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithRoutesBaseURL(srv.URL))
	resp, err := client.ComputeRoutes(context.Background(), RouteRequest{})

	assert.Nil(t, resp)
	assert.ErrorContains(t, err, "no route")
}

func TestPlace_PriceTier(t *testing.T) {
	assert.Equal(t, 1, Place{PriceLevel: "PRICE_LEVEL_INEXPENSIVE"}.PriceTier())
	assert.Equal(t, 4, Place{PriceLevel: "PRICE_LEVEL_VERY_EXPENSIVE"}.PriceTier())
	assert.Equal(t, 0, Place{PriceLevel: "PRICE_LEVEL_FREE"}.PriceTier())
	assert.Equal(t, 0, Place{}.PriceTier())
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("1.5s")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	_, err = parseDuration("abc")
	assert.Error(t, err)
}
