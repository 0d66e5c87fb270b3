package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/resilience"
	"github.com/sells-group/venue-cli/pkg/google"
	googlemocks "github.com/sells-group/venue-cli/pkg/google/mocks"
	"github.com/sells-group/venue-cli/pkg/yelp"
	yelpmocks "github.com/sells-group/venue-cli/pkg/yelp/mocks"
)

var berlin = model.Coordinate{Lat: 52.52, Lng: 13.405}

func TestGoogle_Search(t *testing.T) {
	client := googlemocks.NewMockClient(t)
	client.On("SearchNearby", mock.Anything, mock.MatchedBy(func(r google.SearchNearbyRequest) bool {
		return assert.ObjectsAreEqual([]string{"italian_restaurant"}, r.IncludedTypes) &&
			r.MaxResultCount == 20 &&
			r.LocationRestriction.Circle.Radius == 800
	})).Return(&google.SearchNearbyResponse{Places: []google.Place{
		{
			ID:                  "g1",
			DisplayName:         google.DisplayName{Text: " Bella Notte "},
			Location:            google.LatLng{Latitude: 52.5201, Longitude: 13.4049},
			Rating:              4.5,
			UserRatingCount:     120,
			PriceLevel:          "PRICE_LEVEL_MODERATE",
			Types:               []string{"italian_restaurant", "restaurant", "point_of_interest", "food"},
			CurrentOpeningHours: &google.OpeningHours{OpenNow: true},
			Photos:              []google.PhotoRef{{Name: "places/g1/photos/p1"}},
		},
		{
			ID:          "g2",
			DisplayName: google.DisplayName{Text: "Pricey Place"},
			PriceLevel:  "PRICE_LEVEL_VERY_EXPENSIVE",
			Types:       []string{"italian_restaurant"},
		},
	}}, nil)

	q := model.NewSearchQuery(berlin, 800, model.Filters{Cuisines: []string{"italian"}, PriceTiers: []string{"2"}})
	venues, err := NewGoogle(client).Search(context.Background(), q, 50)
	require.NoError(t, err)
	require.Len(t, venues, 1)

	v := venues[0]
	assert.Equal(t, "g1", v.ID)
	assert.Equal(t, "google", v.Provider)
	assert.Equal(t, "Bella Notte", v.Name)
	assert.Equal(t, 2, v.PriceTier)
	assert.Equal(t, 120, v.ReviewCount)
	assert.Equal(t, []string{"italian"}, v.Cuisines)
	assert.Equal(t, []string{"restaurant"}, v.Tags)
	assert.Equal(t, []string{"places/g1/photos/p1"}, v.Photos)
	require.NotNil(t, v.OpenNow)
	assert.True(t, *v.OpenNow)
}

func TestGoogle_SearchAPIError(t *testing.T) {
	client := googlemocks.NewMockClient(t)
	client.On("SearchNearby", mock.Anything, mock.Anything).
		Return(nil, &google.APIError{StatusCode: 429, Body: "quota"})

	_, err := NewGoogle(client).Search(context.Background(), model.NewSearchQuery(berlin, 500, model.Filters{}), 10)
	require.Error(t, err)
	assert.Equal(t, resilience.ClassRateLimit, resilience.Classify(err))
}

func TestYelp_Search(t *testing.T) {
	client := yelpmocks.NewMockClient(t)
	client.On("SearchBusinesses", mock.Anything, mock.MatchedBy(func(r yelp.SearchRequest) bool {
		return r.Term == "cozy" &&
			assert.ObjectsAreEqual([]string{"restaurants", "bars", "cafes"}, r.Categories) &&
			assert.ObjectsAreEqual([]int{1, 2}, r.Price)
	})).Return(&yelp.SearchResponse{Businesses: []yelp.Business{
		{
			ID:          "y1",
			Name:        "Bella Notte Ristorante",
			Coordinates: yelp.Coordinates{Latitude: 52.5202, Longitude: 13.4051},
			Location:    yelp.Location{DisplayAddress: []string{"Hauptstr. 1", "10115 Berlin"}},
			Price:       "$$",
			Rating:      4.0,
			ReviewCount: 300,
			Categories:  []yelp.Category{{Alias: "italian", Title: "Italian"}},
			ImageURL:    "https://img.example/y1.jpg",
		},
		{ID: "y2", Name: "Gone", IsClosed: true},
	}}, nil)

	q := model.NewSearchQuery(berlin, 1000, model.Filters{Vibes: []string{"cozy"}, PriceTiers: []string{"1", "2"}})
	venues, err := NewYelp(client).Search(context.Background(), q, 20)
	require.NoError(t, err)
	require.Len(t, venues, 1)

	v := venues[0]
	assert.Equal(t, "yelp", v.Provider)
	assert.Equal(t, "Hauptstr. 1, 10115 Berlin", v.Address)
	assert.Equal(t, 2, v.PriceTier)
	assert.Equal(t, []string{"italian"}, v.Cuisines)
	assert.Equal(t, []string{"italian"}, v.Tags)
	assert.Equal(t, []string{"https://img.example/y1.jpg"}, v.Photos)
	assert.Nil(t, v.OpenNow)
}

func TestYelp_SearchErrors(t *testing.T) {
	client := yelpmocks.NewMockClient(t)
	client.On("SearchBusinesses", mock.Anything, mock.Anything).
		Return(nil, &yelp.APIError{StatusCode: 503, Body: "down"}).Once()
	client.On("SearchBusinesses", mock.Anything, mock.Anything).
		Return(nil, errors.New("read tcp: connection reset by peer")).Once()

	p := NewYelp(client)
	q := model.NewSearchQuery(berlin, 1000, model.Filters{})

	_, err := p.Search(context.Background(), q, 20)
	assert.Equal(t, resilience.ClassServer, resilience.Classify(err))

	_, err = p.Search(context.Background(), q, 20)
	assert.Equal(t, resilience.ClassNetwork, resilience.Classify(err))
}
