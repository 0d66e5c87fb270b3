// Package resolve merges near-duplicate venues reported by different
// providers into canonical MergedVenues.
package resolve

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/geo"
	"github.com/sells-group/venue-cli/internal/model"
)

// Defaults for Options.
const (
	DefaultDedupThresholdM         = 50.0
	DefaultNameSimilarityThreshold = 0.8
)

// mergedNamespace seeds the deterministic MergedVenue ids.
var mergedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/sells-group/venue-cli/merged-venue"))

// Options tunes duplicate detection.
type Options struct {
	// DedupThresholdM is the maximum distance in meters between duplicates.
	DedupThresholdM float64
	// NameSimilarityThreshold is the minimum normalized name similarity.
	NameSimilarityThreshold float64
	// MaxClusterDiameterM caps the largest pairwise distance inside one
	// cluster. Zero disables the cap (plain single-linkage).
	MaxClusterDiameterM float64
	// MergeVenueData enables clustering. When false every provider venue
	// becomes its own MergedVenue.
	MergeVenueData bool
}

// DefaultOptions returns the standard dedup settings.
func DefaultOptions() Options {
	return Options{
		DedupThresholdM:         DefaultDedupThresholdM,
		NameSimilarityThreshold: DefaultNameSimilarityThreshold,
		MergeVenueData:          true,
	}
}

// Cluster is one merge group with the venue built from it.
type Cluster struct {
	Venue   model.MergedVenue
	Members []model.ProviderVenue
	// Bounds is the XY (lng, lat) bounding box of the members.
	Bounds *geom.Bounds
	// DiameterM is the largest pairwise member distance.
	DiameterM float64
}

// Resolver clusters provider venues.
type Resolver struct {
	opts Options
	log  *zap.Logger
}

// New creates a Resolver. Zero thresholds fall back to the defaults.
func New(opts Options) *Resolver {
	if opts.DedupThresholdM <= 0 {
		opts.DedupThresholdM = DefaultDedupThresholdM
	}
	if opts.NameSimilarityThreshold <= 0 {
		opts.NameSimilarityThreshold = DefaultNameSimilarityThreshold
	}
	return &Resolver{opts: opts, log: zap.L().With(zap.String("component", "resolve"))}
}

// Resolve merges the per-provider result sets into canonical venues.
// Output order follows the first appearance of each cluster; ranking
// decides the final order.
func (r *Resolver) Resolve(results map[string][]model.ProviderVenue) []model.MergedVenue {
	clusters := r.ResolveClusters(results)
	out := make([]model.MergedVenue, len(clusters))
	for i, c := range clusters {
		out[i] = c.Venue
	}
	return out
}

// ResolveClusters is Resolve with the membership and geometry of each
// cluster exposed.
func (r *Resolver) ResolveClusters(results map[string][]model.ProviderVenue) []Cluster {
	venues := flatten(results)
	if len(venues) == 0 {
		return nil
	}

	groups := make([][]int, len(venues))
	if r.opts.MergeVenueData {
		groups = r.cluster(venues)
	} else {
		for i := range venues {
			groups[i] = []int{i}
		}
	}

	out := make([]Cluster, 0, len(groups))
	for _, g := range groups {
		members := make([]model.ProviderVenue, len(g))
		for i, idx := range g {
			members[i] = venues[idx]
		}
		out = append(out, buildCluster(members))
	}

	r.log.Debug("resolved venues",
		zap.Int("input", len(venues)),
		zap.Int("merged", len(out)),
	)
	return out
}

// IsDuplicate reports whether a and b meet the duplicate criterion.
func (r *Resolver) IsDuplicate(a, b model.ProviderVenue) bool {
	if geo.DistanceM(a.Location, b.Location) > r.opts.DedupThresholdM {
		return false
	}
	return NameSimilarity(a.Name, b.Name) >= r.opts.NameSimilarityThreshold
}

// NameSimilarity compares two venue names after normalization. An empty
// raw name only matches another empty raw name, and names that normalize
// to nothing ("***") are compared as written.
func NameSimilarity(a, b string) float64 {
	ra, rb := strings.TrimSpace(a), strings.TrimSpace(b)
	if (ra == "") != (rb == "") {
		return 0
	}
	na, nb := geo.NormalizeVenueName(ra), geo.NormalizeVenueName(rb)
	if na == "" && nb == "" {
		return geo.NameSimilarity(ra, rb)
	}
	return geo.NameSimilarity(na, nb)
}

// cluster builds the duplicate graph over every pair and returns its
// connected components, each sorted by input index, ordered by their
// smallest member.
func (r *Resolver) cluster(venues []model.ProviderVenue) [][]int {
	uf := newUnionFind(len(venues))
	for i := 0; i < len(venues); i++ {
		for j := i + 1; j < len(venues); j++ {
			if uf.find(i) == uf.find(j) || !r.IsDuplicate(venues[i], venues[j]) {
				continue
			}
			if r.opts.MaxClusterDiameterM > 0 && !r.withinDiameter(venues, uf.memberOf(i), uf.memberOf(j)) {
				r.log.Debug("cluster diameter cap blocked merge",
					zap.String("a", venues[i].Name),
					zap.String("b", venues[j].Name),
				)
				continue
			}
			uf.union(i, j)
		}
	}
	return uf.groups()
}

func (r *Resolver) withinDiameter(venues []model.ProviderVenue, a, b []int) bool {
	for _, i := range a {
		for _, j := range b {
			if geo.DistanceM(venues[i].Location, venues[j].Location) > r.opts.MaxClusterDiameterM {
				return false
			}
		}
	}
	return true
}

// flatten orders venues by provider name, then provider order, so
// clustering is deterministic regardless of map iteration.
func flatten(results map[string][]model.ProviderVenue) []model.ProviderVenue {
	providers := make([]string, 0, len(results))
	for p := range results {
		providers = append(providers, p)
	}
	sort.Strings(providers)

	var out []model.ProviderVenue
	for _, p := range providers {
		for _, v := range results[p] {
			if v.Provider == "" {
				v.Provider = p
			}
			out = append(out, v)
		}
	}
	return out
}

func buildCluster(members []model.ProviderVenue) Cluster {
	bounds := geom.NewBounds(geom.XY)
	var diameter float64
	for i, m := range members {
		bounds.Extend(geom.NewPointFlat(geom.XY, []float64{m.Location.Lng, m.Location.Lat}))
		for _, o := range members[i+1:] {
			diameter = max(diameter, geo.DistanceM(m.Location, o.Location))
		}
	}
	return Cluster{
		Venue:     Merge(members),
		Members:   members,
		Bounds:    bounds,
		DiameterM: diameter,
	}
}

// MergedID derives a stable id from the sorted "provider:id" references.
func MergedID(members []model.ProviderVenue) string {
	refs := make([]string, len(members))
	for i, m := range members {
		refs[i] = m.Provider + ":" + m.ID
	}
	sort.Strings(refs)
	return uuid.NewSHA1(mergedNamespace, []byte(strings.Join(refs, "\n"))).String()
}
