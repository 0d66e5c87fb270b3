// Package provider defines the venue search capability and its concrete
// variants (Google Places, Yelp Fusion, static fixtures).
package provider

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-cli/internal/model"
)

// ErrProviderTimeout is returned when a provider exceeds its call timeout.
var ErrProviderTimeout = eris.New("provider timed out")

// ErrUnknownProvider is returned by Registry.Select for unregistered names.
var ErrUnknownProvider = eris.New("provider: unknown provider")

// ProviderError records one provider's failure during a search. It is
// non-fatal to the search as a whole.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Provider searches one external place source. Implementations normalize
// their own response shapes into ProviderVenue.
type Provider interface {
	// Name returns the provider identifier (matches the config key).
	Name() string
	// Search returns venues near the query origin. limit is a hint; callers
	// cap results themselves.
	Search(ctx context.Context, q model.SearchQuery, limit int) ([]model.ProviderVenue, error)
}

// Registry manages the configured providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry, replacing any with the same name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the named providers in the given order. An empty names
// list selects every registered provider. Unknown names are an error.
func (r *Registry) Select(names []string) ([]Provider, error) {
	if len(names) == 0 {
		names = r.List()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(names))
	for _, n := range names {
		p, ok := r.providers[n]
		if !ok {
			return nil, eris.Wrapf(ErrUnknownProvider, "%q", n)
		}
		out = append(out, p)
	}
	return out, nil
}

// MatchesFilters reports whether a venue satisfies the query filters.
// Empty filter sets match everything and an unknown price tier never
// excludes a venue.
func MatchesFilters(v model.ProviderVenue, f model.Filters) bool {
	if len(f.Cuisines) > 0 && !overlaps(v.Cuisines, f.Cuisines) {
		return false
	}
	if len(f.Vibes) > 0 && !overlaps(v.Tags, f.Vibes) {
		return false
	}
	if len(f.PriceTiers) > 0 && v.PriceTier > 0 {
		if !overlaps([]string{strconv.Itoa(v.PriceTier)}, f.PriceTiers) {
			return false
		}
	}
	return true
}

func overlaps(have, want []string) bool {
	for _, h := range have {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

// PriceTiers parses filter price tier strings ("1".."4") into ints,
// skipping anything else.
func PriceTiers(f model.Filters) []int {
	var out []int
	for _, s := range f.PriceTiers {
		n, err := strconv.Atoi(s)
		if err == nil && n >= 1 && n <= 4 {
			out = append(out, n)
		}
	}
	return out
}
