package opendata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adapterByKey(t *testing.T, key string) *Adapter {
	t.Helper()
	for _, a := range Endpoints() {
		if a.Key == key {
			return a
		}
	}
	t.Fatalf("adapter %s not registered", key)
	return nil
}

func TestTransformHappyPath(t *testing.T) {
	a := adapterByKey(t, "workforce_centers")
	svc, rej := a.Transform(RawRecord{
		"site_name": "Main Center",
		"address":   "1 Main St",
		"city":      "Chicago",
		"state":     "IL",
		"location":  map[string]interface{}{"latitude": "41.88", "longitude": "-87.63"},
	})
	require.Nil(t, rej)
	require.NotNil(t, svc)

	assert.Equal(t, "workforce_centers/Main Center", svc.ID)
	assert.Equal(t, "Main Center", svc.Name)
	assert.Equal(t, "Workforce Center", svc.Description)
	assert.Equal(t, "employment", svc.Category)
	assert.Equal(t, "workforce", svc.Subcategory)
	assert.Equal(t, [2]float64{-87.63, 41.88}, svc.Coordinates)
	assert.Equal(t, "1 Main St, Chicago, IL", svc.Address)
	assert.Equal(t, HoursNotAvailable, svc.Hours)
	assert.Equal(t, PhoneNotAvailable, svc.Phone)
	assert.Nil(t, svc.Website)
}

func TestTransformMissingRequiredFields(t *testing.T) {
	a := adapterByKey(t, "workforce_centers")
	svc, rej := a.Transform(RawRecord{
		"site_name": "No Location Site",
	})
	assert.Nil(t, svc)
	require.NotNil(t, rej)
	assert.Equal(t, "workforce_centers", rej.Adapter)
	assert.Equal(t, "No Location Site", rej.ID)
	assert.Equal(t, "missing required fields: address, location", rej.Reason)
}

func TestTransformRejectsBadCoordinates(t *testing.T) {
	a := adapterByKey(t, "workforce_centers")
	cases := []map[string]interface{}{
		{"latitude": "0", "longitude": "0"},
		{"latitude": "95.0", "longitude": "-87.63"},
		{"latitude": "41.88", "longitude": "-200"},
		{"latitude": "not-a-number", "longitude": "-87.63"},
	}
	for _, loc := range cases {
		svc, rej := a.Transform(RawRecord{
			"site_name": "Bad Coords",
			"address":   "1 Main St",
			"location":  loc,
		})
		assert.Nil(t, svc)
		require.NotNil(t, rej)
		assert.Contains(t, rej.Reason, "invalid coordinates")
	}
}

func TestTransformGeoJSONPairOrder(t *testing.T) {
	a := adapterByKey(t, "warming_centers")
	svc, rej := a.Transform(RawRecord{
		"site_name": "Garfield Center",
		"site_type": "Community Service Center",
		"address":   "10 S Kedzie Ave",
		"location": map[string]interface{}{
			"coordinates": []interface{}{-87.7057, 41.8805},
		},
	})
	require.Nil(t, rej)
	// The pair arrives [longitude, latitude] and must stay that way.
	assert.Equal(t, [2]float64{-87.7057, 41.8805}, svc.Coordinates)
	assert.InDelta(t, 41.8805, svc.Point().Latitude, 1e-9)
	assert.Equal(t, "Community Service Center Warming Center", svc.Description)
}

func TestTransformFluShotMappings(t *testing.T) {
	a := adapterByKey(t, "flu_shots")
	svc, rej := a.Transform(RawRecord{
		"facility_name": "Northside Pharmacy",
		"street1":       "4801 N Broadway",
		"city":          "Chicago",
		"state":         "IL",
		"postal_code":   "60640",
		"begin_time":    "9:00 AM",
		"end_time":      "5:00 PM",
		"notes":         "Register at https://example.org/flu",
		"location": map[string]interface{}{
			"coordinates": []interface{}{-87.6598, 41.9691},
		},
	})
	require.Nil(t, rej)
	assert.Equal(t, "4801 N Broadway, Chicago, IL, 60640", svc.Address)
	assert.Equal(t, "9:00 AM - 5:00 PM", svc.Hours)
	require.NotNil(t, svc.Website)
	assert.Contains(t, *svc.Website, "https://example.org/flu")
}

func TestTransformGroceryFixedCityState(t *testing.T) {
	a := adapterByKey(t, "grocery_stores")
	svc, rej := a.Transform(RawRecord{
		"store_name": "Corner Grocer",
		"address":    "200 W Division St",
		"zip":        "60610",
		"phone":      "312-555-0100",
		"location": map[string]interface{}{
			"coordinates": []interface{}{-87.6351, 41.9033},
		},
	})
	require.Nil(t, rej)
	assert.Equal(t, "200 W Division St, Chicago, IL, 60610", svc.Address)
	// The feed never carries phone numbers even when a field sneaks in.
	assert.Equal(t, PhoneNotAvailable, svc.Phone)
	assert.Nil(t, svc.Website)
}

func TestTransformWebsiteURLObject(t *testing.T) {
	a := adapterByKey(t, "health_centers")
	svc, rej := a.Transform(RawRecord{
		"site_name": "Uptown Clinic",
		"address":   "845 W Wilson Ave",
		"services":  "Primary care, dental",
		"website":   map[string]interface{}{"url": "https://chicago.gov/clinic"},
		"location":  map[string]interface{}{"latitude": 41.9655, "longitude": -87.6533},
	})
	require.Nil(t, rej)
	assert.Equal(t, "Primary care, dental", svc.Description)
	require.NotNil(t, svc.Website)
	assert.Equal(t, "https://chicago.gov/clinic", *svc.Website)
}

func TestTransformDescriptionFallback(t *testing.T) {
	a := adapterByKey(t, "senior_centers")
	svc, rej := a.Transform(RawRecord{
		"site_name": "Levy Center",
		"address":   "2019 W Lawrence Ave",
		"location":  map[string]interface{}{"latitude": "41.9686", "longitude": "-87.6794"},
	})
	require.Nil(t, rej)
	assert.Equal(t, "Senior Center", svc.Description)
}
