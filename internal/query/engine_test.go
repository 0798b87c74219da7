package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communitycompass/compass/internal/opendata"
	"github.com/communitycompass/compass/pkg/geo"
)

// loop is the Chicago Loop, the origin used throughout these tests.
var loop = geo.Point{Latitude: 41.8781, Longitude: -87.6298}

func svcAt(id string, lat, lng float64) opendata.Service {
	return opendata.Service{
		ID:          id,
		Name:        id,
		Category:    "healthcare",
		Subcategory: "clinics",
		Coordinates: [2]float64{lng, lat},
	}
}

func TestRunRadiusFilterAndSort(t *testing.T) {
	services := []opendata.Service{
		svcAt("far", 41.9742, -87.9073),  // O'Hare, ~15.5 mi out
		svcAt("near", 41.8827, -87.6233), // Millennium Park, well under a mile
		svcAt("mid", 41.9484, -87.6553),  // Lincoln Park, ~5 mi
	}

	got, meta := Run(services, Params{Origin: &loop, RadiusMiles: 8})
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.EqualValues(t, 2, meta.Total)

	got, _ = Run(services, Params{Origin: &loop, RadiusMiles: 2})
	require.Len(t, got, 1)
	assert.Equal(t, "near", got[0].ID)
}

func TestRunDefaultRadius(t *testing.T) {
	services := []opendata.Service{
		svcAt("far", 41.9742, -87.9073), // outside the 10 mile default
		svcAt("near", 41.8827, -87.6233),
	}
	got, _ := Run(services, Params{Origin: &loop})
	require.Len(t, got, 1)
	assert.Equal(t, "near", got[0].ID)
}

func TestRunCategoryAndSearchFilters(t *testing.T) {
	a := svcAt("a", 41.88, -87.63)
	a.Category = "food"
	a.Name = "Corner Grocer"
	b := svcAt("b", 41.88, -87.63)
	b.Category = "healthcare"
	b.Description = "Dental and primary care"
	services := []opendata.Service{a, b}

	got, _ := Run(services, Params{Category: "food"})
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	// "all" and empty both mean no restriction.
	got, _ = Run(services, Params{Category: "all"})
	assert.Len(t, got, 2)
	got, _ = Run(services, Params{})
	assert.Len(t, got, 2)

	got, _ = Run(services, Params{Search: "DENTAL"})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	got, _ = Run(services, Params{Search: "nowhere"})
	assert.Empty(t, got)
}

func TestRunIsPure(t *testing.T) {
	services := []opendata.Service{
		svcAt("a", 41.8827, -87.6233),
		svcAt("b", 41.9484, -87.6553),
	}
	p := Params{Origin: &loop, RadiusMiles: 8}

	first, firstMeta := Run(services, p)
	second, secondMeta := Run(services, p)
	assert.Equal(t, first, second)
	assert.Equal(t, firstMeta, secondMeta)
}

func TestPaginateMetadata(t *testing.T) {
	items := make([]int, 23)
	_, meta := Paginate(items, 1, 10)
	assert.EqualValues(t, 23, meta.Total)
	assert.EqualValues(t, 3, meta.TotalPages)

	// An exact multiple has no trailing partial page.
	_, meta = Paginate(make([]int, 20), 1, 10)
	assert.EqualValues(t, 2, meta.TotalPages)

	_, meta = Paginate([]int{}, 1, 10)
	assert.EqualValues(t, 0, meta.Total)
	assert.EqualValues(t, 0, meta.TotalPages)
}

func TestPaginatePagesConcatenateToWhole(t *testing.T) {
	items := make([]string, 27)
	for i := range items {
		items[i] = fmt.Sprintf("item-%02d", i)
	}

	var joined []string
	for page := 1; ; page++ {
		chunk, meta := Paginate(items, page, 10)
		joined = append(joined, chunk...)
		if int64(page) >= meta.TotalPages {
			break
		}
	}
	assert.Equal(t, items, joined)
}

func TestPaginatePastEnd(t *testing.T) {
	chunk, meta := Paginate([]int{1, 2, 3}, 9, 10)
	assert.Empty(t, chunk)
	assert.EqualValues(t, 3, meta.Total)
}

// located wraps a point for exercising the generic geo filter with records
// that may lack coordinates.
type located struct {
	id    string
	point *geo.Point
}

func (l located) Location() (geo.Point, bool) {
	if l.point == nil {
		return geo.Point{}, false
	}
	return *l.point, true
}

func TestGeoFilterSortKeepsUnlocatedLast(t *testing.T) {
	near := geo.Point{Latitude: 41.8827, Longitude: -87.6233}
	mid := geo.Point{Latitude: 41.9484, Longitude: -87.6553}
	items := []located{
		{id: "no-coords-1"},
		{id: "mid", point: &mid},
		{id: "no-coords-2"},
		{id: "near", point: &near},
	}

	got := GeoFilterSort(items, loop, 8)
	require.Len(t, got, 4)
	assert.Equal(t, "near", got[0].id)
	assert.Equal(t, "mid", got[1].id)
	// Unlocated records survive the radius cut and keep their order.
	assert.Equal(t, "no-coords-1", got[2].id)
	assert.Equal(t, "no-coords-2", got[3].id)
}

func TestParamsNormalized(t *testing.T) {
	p := Params{}.Normalized()
	assert.Equal(t, DefaultRadiusMiles, p.RadiusMiles)
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)

	p = Params{RadiusMiles: 3, Page: 2, Limit: 5}.Normalized()
	assert.Equal(t, 3.0, p.RadiusMiles)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 5, p.Limit)
}
