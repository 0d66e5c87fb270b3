package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/provider"
	"github.com/sells-group/venue-cli/internal/resilience"
	"github.com/sells-group/venue-cli/internal/search"
	"github.com/sells-group/venue-cli/internal/store"
)

func serveRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h := buildRouter(newTestEnv(t))

	rec := serveRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Status   string            `json:"status"`
		Breakers map[string]string `json:"breakers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"static": "closed"}, body.Breakers)
}

func TestRouter_Metrics(t *testing.T) {
	h := buildRouter(newTestEnv(t))

	serveRequest(t, h, http.MethodPost, "/v1/search", `{"lat":52.52,"lng":13.405,"radius_m":1000}`)
	rec := serveRequest(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "venue_search")
}

func TestRouter_Search(t *testing.T) {
	h := buildRouter(newTestEnv(t))
	body := `{"lat":52.52,"lng":13.405,"radius_m":1000,"cuisines":["Italian"]}`

	rec := serveRequest(t, h, http.MethodPost, "/v1/search", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res search.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Venues, 1)
	assert.Equal(t, "Bella Notte", res.Venues[0].Name)
	assert.True(t, res.Insufficient)
	assert.True(t, res.Degraded)
	assert.False(t, res.FromCache)

	rec = serveRequest(t, h, http.MethodPost, "/v1/search", body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.FromCache)

	rec = serveRequest(t, h, http.MethodGet, "/v1/cache/stats", "")
	assert.JSONEq(t, `{"hits":1,"misses":1,"evictions":0,"size":1}`, rec.Body.String())
}

func TestRouter_SearchErrors(t *testing.T) {
	h := buildRouter(newTestEnv(t))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad body", `{`, http.StatusBadRequest},
		{"zero radius", `{"lat":52.52,"lng":13.405,"radius_m":0}`, http.StatusBadRequest},
		{"bad latitude", `{"lat":91,"lng":13.405,"radius_m":100}`, http.StatusBadRequest},
		{"unknown provider", `{"lat":52.52,"lng":13.405,"radius_m":100,"providers":["nope"]}`, http.StatusBadRequest},
		{"unknown user", `{"lat":52.52,"lng":13.405,"radius_m":100,"user_id":"ghost"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveRequest(t, h, http.MethodPost, "/v1/search", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestRouter_Compatibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.Store.PutProfile(ctx, model.PreferenceProfile{
		UserID: "alice", Cuisines: []string{"italian", "thai"}, Vibes: []string{"quiet"},
	}))
	require.NoError(t, env.Store.PutProfile(ctx, model.PreferenceProfile{
		UserID: "bob", Cuisines: []string{"italian"}, Vibes: []string{"quiet"},
	}))
	require.NoError(t, env.Store.PutProfile(ctx, model.PreferenceProfile{UserID: "blank"}))
	require.NoError(t, env.Store.PutProfile(ctx, model.PreferenceProfile{UserID: "empty"}))
	h := buildRouter(env)

	rec := serveRequest(t, h, http.MethodGet, "/v1/compatibility?a=alice&b=bob", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var score model.CompatibilityScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Equal(t, model.ScoreSourceRuleBased, score.Source)
	assert.InDelta(t, 0.5, score.Cuisine, 1e-9)
	assert.Equal(t, []string{"italian"}, score.Factors.SharedCuisines)

	rec = serveRequest(t, h, http.MethodGet, "/v1/compatibility?a=alice", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serveRequest(t, h, http.MethodGet, "/v1/compatibility?a=alice&b=ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serveRequest(t, h, http.MethodGet, "/v1/compatibility?a=blank&b=empty", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRouter_InvalidateCache(t *testing.T) {
	h := buildRouter(newTestEnv(t))

	doSearch := func() {
		rec := serveRequest(t, h, http.MethodPost, "/v1/search", `{"lat":52.52,"lng":13.405,"radius_m":1000}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	doSearch()
	rec := serveRequest(t, h, http.MethodPost, "/v1/cache/invalidate",
		`{"bounds":{"min_lat":52.0,"min_lng":13.0,"max_lat":53.0,"max_lng":14.0}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":1}`, rec.Body.String())

	doSearch()
	rec = serveRequest(t, h, http.MethodPost, "/v1/cache/invalidate", `{"prefix":"52.520:13.405"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":1}`, rec.Body.String())

	rec = serveRequest(t, h, http.MethodPost, "/v1/cache/invalidate", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serveRequest(t, h, http.MethodPost, "/v1/cache/invalidate",
		`{"bounds":{"min_lat":53.0,"min_lng":13.0,"max_lat":52.0,"max_lng":14.0}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &resilience.ValidationError{Err: errors.New("bad radius")}, http.StatusBadRequest},
		{"unknown provider", eris.Wrap(provider.ErrUnknownProvider, "x"), http.StatusBadRequest},
		{"not found", eris.Wrap(store.ErrNotFound, "user x"), http.StatusNotFound},
		{"unavailable", eris.Wrap(search.ErrAllProvidersUnavailable, "search"), http.StatusServiceUnavailable},
		{"cancelled", eris.Wrap(search.ErrCancelled, "search"), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, searchStatus(tt.err))
		})
	}
}
