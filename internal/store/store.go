// Package store persists user preference profiles.
package store

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/venue-cli/internal/model"
)

// ErrNotFound is returned when no profile exists for a user id.
var ErrNotFound = eris.New("store: profile not found")

// PreferenceStore is the read/write source of preference profiles.
type PreferenceStore interface {
	GetProfile(ctx context.Context, userID string) (*model.PreferenceProfile, error)
	PutProfile(ctx context.Context, p model.PreferenceProfile) error
	ListProfiles(ctx context.Context) ([]model.PreferenceProfile, error)
	DeleteProfile(ctx context.Context, userID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store for driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string) (PreferenceStore, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// ProfileFile is the YAML import format.
type ProfileFile struct {
	Profiles []model.PreferenceProfile `yaml:"profiles"`
}

// ImportYAML reads a ProfileFile from r and upserts every profile into s.
func ImportYAML(ctx context.Context, s PreferenceStore, r io.Reader) (int, error) {
	var f ProfileFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return 0, eris.Wrap(err, "store: decode profiles")
	}
	for i, p := range f.Profiles {
		if p.UserID == "" {
			return i, eris.Errorf("store: profile %d has no user_id", i)
		}
		if err := s.PutProfile(ctx, normalizeProfile(p)); err != nil {
			return i, err
		}
	}
	return len(f.Profiles), nil
}

func normalizeProfile(p model.PreferenceProfile) model.PreferenceProfile {
	p.Cuisines = model.NormalizeSet(p.Cuisines)
	p.Vibes = model.NormalizeSet(p.Vibes)
	p.PriceTiers = model.NormalizeSet(p.PriceTiers)
	p.PreferredTimes = model.NormalizeSet(p.PreferredTimes)
	p.Activities = model.NormalizeSet(p.Activities)
	p.DietaryRestrictions = model.NormalizeSet(p.DietaryRestrictions)
	return p
}
