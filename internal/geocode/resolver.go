package geocode

import (
	"context"
	"log"
	"strings"

	"github.com/i474232898/air-quality-insight/internal/common"
	"github.com/i474232898/air-quality-insight/internal/intent"
)

// ResolvedLocation is a named coordinate ready to be fetched.
type ResolvedLocation struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// SubAreaSource expands a broad area into sub-area names. *intent.Decomposer implements it.
type SubAreaSource interface {
	Decompose(ctx context.Context, query, parentArea string, level *intent.Level) []string
}

// Resolver turns an area term and its intent into coordinates.
type Resolver struct {
	geocoder   Geocoder
	decomposer SubAreaSource
}

func NewResolver(geocoder Geocoder, decomposer SubAreaSource) *Resolver {
	return &Resolver{geocoder: geocoder, decomposer: decomposer}
}

// Resolve returns the locations for areaName in sub-area order. Lookup failures
// skip the affected name; an empty result means nothing could be geocoded.
func (r *Resolver) Resolve(ctx context.Context, query, areaName string, li intent.LocationIntent) []ResolvedLocation {
	areaName = strings.TrimSpace(areaName)
	single := r.direct(ctx, areaName)

	var subAreas []string
	switch li.Intent {
	case intent.Single:
		return single
	case intent.Multi:
		subAreas = li.Areas
	case intent.SubAreas:
		if r.decomposer != nil {
			subAreas = r.decomposer.Decompose(ctx, query, areaName, li.Level)
		}
	}

	if len(subAreas) == 0 {
		return single
	}

	resolved := make([]ResolvedLocation, 0, len(subAreas))
	seen := make(map[string]struct{}, len(subAreas))
	for _, name := range subAreas {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup || name == "" {
			continue
		}
		seen[key] = struct{}{}

		place, ok := r.lookupSubArea(ctx, name, areaName)
		if !ok {
			log.Printf("INFO: resolver: skipping %q, no geocoding match", name)
			continue
		}
		resolved = append(resolved, ResolvedLocation{
			DisplayName: common.TitleWords(name),
			Latitude:    place.Latitude,
			Longitude:   place.Longitude,
		})
	}

	if len(resolved) == 0 {
		log.Printf("INFO: resolver: no sub-area of %q resolved; using the area itself", areaName)
		return single
	}
	return resolved
}

// direct geocodes the area term itself. The result has zero or one element.
func (r *Resolver) direct(ctx context.Context, areaName string) []ResolvedLocation {
	if areaName == "" {
		return nil
	}
	place, err := r.geocoder.Geocode(ctx, areaName)
	if err != nil {
		log.Printf("INFO: resolver: direct geocode of %q failed: %v", areaName, err)
		return nil
	}

	name := common.FirstSegment(place.Address)
	if name == "" {
		name = common.TitleWords(areaName)
	}
	return []ResolvedLocation{{
		DisplayName: name,
		Latitude:    place.Latitude,
		Longitude:   place.Longitude,
	}}
}

// lookupSubArea tries "name, area" first and the bare name second.
func (r *Resolver) lookupSubArea(ctx context.Context, name, areaName string) (Place, bool) {
	if areaName != "" && !strings.EqualFold(name, areaName) {
		if place, err := r.geocoder.Geocode(ctx, name+", "+areaName); err == nil {
			return place, true
		}
	}
	place, err := r.geocoder.Geocode(ctx, name)
	if err != nil {
		return Place{}, false
	}
	return place, true
}
