// Package yelp is a minimal client for the Yelp Fusion business search API.
package yelp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://api.yelp.com/v3"
	maxRadiusM     = 40000
	maxLimit       = 50
)

// Client performs Yelp Fusion API operations.
type Client interface {
	SearchBusinesses(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// APIError is a non-200 response from Yelp.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yelp: unexpected status %d: %s", e.StatusCode, e.Body)
}

// SearchRequest holds the supported business search parameters.
type SearchRequest struct {
	Latitude   float64
	Longitude  float64
	RadiusM    int
	Limit      int
	Categories []string // category aliases, e.g. "italian"
	Price      []int    // 1-4
	Term       string
}

// SearchResponse is the response from /businesses/search.
type SearchResponse struct {
	Businesses []Business `json:"businesses"`
	Total      int        `json:"total"`
}

// Business represents a Yelp business.
type Business struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	Location    Location    `json:"location"`
	Price       string      `json:"price"`
	Rating      float64     `json:"rating"`
	ReviewCount int         `json:"review_count"`
	Categories  []Category  `json:"categories"`
	ImageURL    string      `json:"image_url"`
	IsClosed    bool        `json:"is_closed"`
}

// Coordinates holds a business location.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location holds a business address.
type Location struct {
	DisplayAddress []string `json:"display_address"`
}

// Category is a Yelp category.
type Category struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

// PriceTier returns the number of "$" signs, or 0 when unknown.
func (b Business) PriceTier() int {
	n := strings.Count(b.Price, "$")
	if n > 4 {
		return 4
	}
	return n
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Yelp Fusion client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchBusinesses(ctx context.Context, sr SearchRequest) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(sr.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(sr.Longitude, 'f', -1, 64))
	if sr.RadiusM > 0 {
		q.Set("radius", strconv.Itoa(min(sr.RadiusM, maxRadiusM)))
	}
	if sr.Limit > 0 {
		q.Set("limit", strconv.Itoa(min(sr.Limit, maxLimit)))
	}
	if len(sr.Categories) > 0 {
		q.Set("categories", strings.Join(sr.Categories, ","))
	}
	if len(sr.Price) > 0 {
		prices := make([]string, 0, len(sr.Price))
		for _, p := range sr.Price {
			prices = append(prices, strconv.Itoa(p))
		}
		q.Set("price", strings.Join(prices, ","))
	}
	if sr.Term != "" {
		q.Set("term", sr.Term)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/businesses/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "yelp: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "yelp: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "yelp: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "yelp: unmarshal response")
	}
	return &result, nil
}
