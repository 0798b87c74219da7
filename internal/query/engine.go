// Package query implements the filter/sort/paginate contract shared by the
// in-memory directory path and the persisted-record path. Both sides must
// agree exactly: the web handlers mirror these semantics in their WHERE
// chains and reuse the geo filter and pagination here verbatim.
package query

import (
	"math"
	"sort"
	"strings"

	"github.com/communitycompass/compass/internal/opendata"
	"github.com/communitycompass/compass/pkg/geo"
)

const (
	DefaultRadiusMiles = 10.0
	DefaultPage        = 1
	DefaultLimit       = 50
)

// Params are the caller-supplied filter parameters. Zero values mean
// "no restriction" except Radius/Page/Limit, which fall back to defaults.
type Params struct {
	Category    string
	Subcategory string
	Search      string
	Origin      *geo.Point
	RadiusMiles float64
	Page        int
	Limit       int
}

// Normalized returns a copy with defaults applied.
func (p Params) Normalized() Params {
	if p.RadiusMiles <= 0 {
		p.RadiusMiles = DefaultRadiusMiles
	}
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

// Pagination is the page metadata returned alongside every list result.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// Locatable is anything with an optional coordinate pair. Records without
// coordinates are retained by the geo filter (distance undefined) and sort
// after every located record.
type Locatable interface {
	Location() (geo.Point, bool)
}

// Run filters, sorts and paginates a canonical service collection. It is a
// pure function: identical inputs always produce identical output.
func Run(services []opendata.Service, p Params) ([]opendata.Service, Pagination) {
	p = p.Normalized()

	filtered := Filter(services, p)
	if p.Origin != nil {
		filtered = GeoFilterSort(filtered, *p.Origin, p.RadiusMiles)
	}
	return Paginate(filtered, p.Page, p.Limit)
}

// Filter applies the category/subcategory/search predicate. "all" and the
// empty string both mean no category restriction.
func Filter(services []opendata.Service, p Params) []opendata.Service {
	out := make([]opendata.Service, 0, len(services))
	for _, s := range services {
		if !matchTag(p.Category, s.Category) {
			continue
		}
		if !matchTag(p.Subcategory, s.Subcategory) {
			continue
		}
		if !MatchSearch(p.Search, s.Name, s.Description, s.Address) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func matchTag(want, have string) bool {
	return want == "" || want == "all" || want == have
}

// MatchSearch reports whether any candidate field contains the search term,
// case-insensitively. An empty term matches everything.
func MatchSearch(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// GeoFilterSort drops every record whose computed distance from origin
// exceeds radiusMiles and sorts the survivors by distance ascending.
// Records without coordinates are never dropped for that reason alone; they
// sort last, keeping their relative order.
func GeoFilterSort[T Locatable](items []T, origin geo.Point, radiusMiles float64) []T {
	type withDistance struct {
		item     T
		distance float64
	}
	kept := make([]withDistance, 0, len(items))
	for _, item := range items {
		point, ok := item.Location()
		if !ok {
			kept = append(kept, withDistance{item: item, distance: math.Inf(1)})
			continue
		}
		d := geo.DistanceBetween(origin, point)
		if d > radiusMiles {
			continue
		}
		kept = append(kept, withDistance{item: item, distance: d})
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].distance < kept[j].distance
	})
	out := make([]T, len(kept))
	for i, k := range kept {
		out[i] = k.item
	}
	return out
}

// Paginate cuts one page out of the already filtered and sorted collection.
// Pagination always happens after filtering and any geospatial sort.
func Paginate[T any](items []T, page, limit int) ([]T, Pagination) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	total := int64(len(items))
	meta := Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}
	skip := (page - 1) * limit
	if skip >= len(items) {
		return []T{}, meta
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end], meta
}
