package resolve

import (
	"sort"

	"github.com/sells-group/venue-cli/internal/geo"
	"github.com/sells-group/venue-cli/internal/model"
)

// Merge builds one MergedVenue from a duplicate group:
//   - name: longest non-empty name
//   - rating: from the member with the most reviews, else the highest
//   - tags, cuisines: set union
//   - photos: union, attributed to their provider
//   - price tier: mode of known tiers, ties to the lower tier
//   - location: centroid; address: longest
func Merge(members []model.ProviderVenue) model.MergedVenue {
	mv := model.MergedVenue{
		ID:      MergedID(members),
		Sources: make(map[string][]string),
	}
	if len(members) == 0 {
		return mv
	}

	var (
		points   []model.Coordinate
		cuisines []string
		tags     []string
		seen     = make(map[model.Photo]bool)
		tiers    = make(map[int]int)
		openNow  *bool
	)
	for _, m := range members {
		if len(m.Name) > len(mv.Name) || (len(m.Name) == len(mv.Name) && m.Name < mv.Name) {
			mv.Name = m.Name
		}
		if len(m.Address) > len(mv.Address) {
			mv.Address = m.Address
		}
		points = append(points, m.Location)
		cuisines = append(cuisines, m.Cuisines...)
		tags = append(tags, m.Tags...)
		for _, ref := range m.Photos {
			p := model.Photo{Provider: m.Provider, Ref: ref}
			if !seen[p] {
				seen[p] = true
				mv.Photos = append(mv.Photos, p)
			}
		}
		if m.PriceTier > 0 {
			tiers[m.PriceTier]++
		}
		if m.OpenNow != nil && (openNow == nil || *m.OpenNow) {
			v := *m.OpenNow
			openNow = &v
		}
		mv.Sources[m.Provider] = append(mv.Sources[m.Provider], m.ID)
	}

	mv.Location = geo.Centroid(points)
	mv.Cuisines = model.NormalizeSet(cuisines)
	mv.Tags = model.NormalizeSet(tags)
	mv.PriceTier = modeTier(tiers)
	mv.Rating, mv.ReviewCount = bestRating(members)
	mv.OpenNow = openNow
	for p := range mv.Sources {
		sort.Strings(mv.Sources[p])
	}
	sort.SliceStable(mv.Photos, func(i, j int) bool {
		return mv.Photos[i].Provider < mv.Photos[j].Provider
	})
	return mv
}

// bestRating prefers the rating backed by the most reviews. When no member
// reports a review count, the highest rating wins.
func bestRating(members []model.ProviderVenue) (float64, int) {
	var (
		rating  float64
		reviews int
	)
	for _, m := range members {
		if m.ReviewCount > reviews || (m.ReviewCount == reviews && reviews > 0 && m.Rating > rating) {
			rating, reviews = m.Rating, m.ReviewCount
		}
	}
	if reviews > 0 {
		return rating, reviews
	}
	for _, m := range members {
		rating = max(rating, m.Rating)
	}
	return rating, 0
}

func modeTier(counts map[int]int) int {
	best, bestN := 0, 0
	for tier, n := range counts {
		if n > bestN || (n == bestN && tier < best) {
			best, bestN = tier, n
		}
	}
	return best
}
