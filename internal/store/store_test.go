package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profilesYAML = `
profiles:
  - user_id: alice
    cuisines: [Italian, japanese, italian]
    vibes: [cozy]
    price_tiers: ["2"]
    max_travel_distance_km: 5
  - user_id: bob
    cuisines: [mexican]
    dietary_restrictions: [vegetarian]
`

func TestImportYAML(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	n, err := ImportYAML(ctx, s, strings.NewReader(profilesYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	alice, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"italian", "japanese"}, alice.Cuisines)
	assert.InDelta(t, 5.0, alice.MaxTravelDistanceKM, 1e-9)

	bob, err := s.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"vegetarian"}, bob.DietaryRestrictions)
}

func TestImportYAML_MissingUserID(t *testing.T) {
	s := newTestSQLite(t)

	n, err := ImportYAML(context.Background(), s, strings.NewReader("profiles:\n  - cuisines: [thai]\n"))
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, err.Error(), "no user_id")
}

func TestImportYAML_BadYAML(t *testing.T) {
	_, err := ImportYAML(context.Background(), newTestSQLite(t), strings.NewReader("profiles: [::"))
	assert.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.ErrorContains(t, err, "unknown driver")
}
