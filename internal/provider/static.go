package provider

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/venue-cli/internal/geo"
	"github.com/sells-group/venue-cli/internal/model"
)

// Static serves venues from an in-memory fixture, typically loaded from a
// YAML file. Useful for offline runs and demos.
type Static struct {
	name   string
	venues []model.ProviderVenue
}

type staticFile struct {
	Provider string                `yaml:"provider"`
	Venues   []model.ProviderVenue `yaml:"venues"`
}

// NewStatic creates a static provider over venues.
func NewStatic(name string, venues []model.ProviderVenue) *Static {
	if name == "" {
		name = "static"
	}
	out := make([]model.ProviderVenue, len(venues))
	for i, v := range venues {
		v.Provider = name
		out[i] = v
	}
	return &Static{name: name, venues: out}
}

// LoadStatic reads a YAML fixture of the form:
//
//	provider: static
//	venues:
//	  - id: v1
//	    name: Bella Notte
//	    location: {lat: 52.52, lng: 13.405}
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: read static fixture %s", path)
	}
	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "provider: parse static fixture %s", path)
	}
	for i, v := range f.Venues {
		if v.ID == "" || v.Name == "" {
			return nil, eris.Errorf("provider: static fixture %s: venue %d missing id or name", path, i)
		}
	}
	return NewStatic(f.Provider, f.Venues), nil
}

// Name implements Provider.
func (s *Static) Name() string { return s.name }

// Search implements Provider: venues within the radius that match the filters.
func (s *Static) Search(ctx context.Context, q model.SearchQuery, limit int) ([]model.ProviderVenue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.ProviderVenue
	for _, v := range s.venues {
		if q.RadiusM > 0 && geo.DistanceM(q.Origin, v.Location) > float64(q.RadiusM) {
			continue
		}
		if !MatchesFilters(v, q.Filters) {
			continue
		}
		out = append(out, v)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
