package opendata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFetcher points every adapter URL at the test server, keeping only the
// resource path so the handler can route per feed.
func testFetcher(reg *Registry, ts *httptest.Server) *Fetcher {
	f := NewFetcher(reg, time.Second)
	f.baseOverride = func(url string) string {
		return ts.URL + url[strings.LastIndex(url, "/"):]
	}
	return f
}

func TestFetchByCategoryPartialFailure(t *testing.T) {
	good := &Adapter{
		Key:              "good_feed",
		URL:              BaseURL + "/good.json",
		Category:         "healthcare",
		Subcategory:      "clinics",
		Required:         []string{"site_name", "address", "location"},
		NameField:        "site_name",
		DescriptionLabel: "Clinic",
		Location:         LocationObject,
	}
	bad := &Adapter{
		Key:              "bad_feed",
		URL:              BaseURL + "/bad.json",
		Category:         "healthcare",
		Subcategory:      "clinics",
		Required:         []string{"site_name", "address", "location"},
		NameField:        "site_name",
		DescriptionLabel: "Clinic",
		Location:         LocationObject,
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good.json":
			w.Write([]byte(`[
				{"site_name":"Clinic A","address":"1 Main St","location":{"latitude":"41.88","longitude":"-87.63"}},
				{"site_name":"Clinic B","address":"2 Main St","location":{"latitude":"0","longitude":"0"}}
			]`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer ts.Close()

	f := testFetcher(NewRegistry(good, bad), ts)
	result, err := f.FetchByCategory(context.Background(), "healthcare", "")
	require.NoError(t, err)

	// The healthy feed's survivors arrive even though the sibling failed.
	require.Len(t, result.Services, 1)
	assert.Equal(t, "good_feed/Clinic A", result.Services[0].ID)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "error fetching bad_feed: HTTP error! status: 500", result.Errors[0])

	require.Len(t, result.Rejections, 1)
	assert.Equal(t, "Clinic B", result.Rejections[0].ID)
}

func TestFetchByCategoryTimeout(t *testing.T) {
	fast := &Adapter{
		Key:              "fast_feed",
		URL:              BaseURL + "/fast.json",
		Category:         "food",
		Subcategory:      "grocery",
		Required:         []string{"store_name", "address", "location"},
		NameField:        "store_name",
		DescriptionLabel: "Grocery Store",
		Location:         LocationObject,
	}
	slow := &Adapter{
		Key:              "slow_feed",
		URL:              BaseURL + "/slow.json",
		Category:         "food",
		Subcategory:      "grocery",
		Required:         []string{"store_name", "address", "location"},
		NameField:        "store_name",
		DescriptionLabel: "Grocery Store",
		Location:         LocationObject,
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow.json" {
			time.Sleep(2 * time.Second)
		}
		w.Write([]byte(`[{"store_name":"Store A","address":"1 Main St","location":{"latitude":"41.88","longitude":"-87.63"}}]`))
	}))
	defer ts.Close()

	f := NewFetcher(NewRegistry(fast, slow), 200*time.Millisecond)
	f.baseOverride = func(url string) string {
		return ts.URL + url[strings.LastIndex(url, "/"):]
	}

	result, err := f.FetchByCategory(context.Background(), "food", "")
	require.NoError(t, err)

	require.Len(t, result.Services, 1)
	assert.Equal(t, "fast_feed/Store A", result.Services[0].ID)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "error fetching slow_feed")
}

func TestFetchByCategoryNoMatch(t *testing.T) {
	f := NewFetcher(NewRegistry(), time.Second)
	result, err := f.FetchByCategory(context.Background(), "transport", "")
	require.NoError(t, err)

	assert.Empty(t, result.Services)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "no data available for transport services", result.Errors[0])
}

func TestFetchByCategoryNoMatchWithSubcategory(t *testing.T) {
	f := NewFetcher(NewRegistry(), time.Second)
	result, err := f.FetchByCategory(context.Background(), "healthcare", "dental")
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "no data available for healthcare - dental services", result.Errors[0])
}

func TestFetchAllMalformedPayload(t *testing.T) {
	feed := &Adapter{
		Key:              "broken_json",
		URL:              BaseURL + "/broken.json",
		Category:         "food",
		Subcategory:      "grocery",
		Required:         []string{"store_name", "address", "location"},
		NameField:        "store_name",
		DescriptionLabel: "Grocery Store",
		Location:         LocationPair,
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer ts.Close()

	f := testFetcher(NewRegistry(feed), ts)
	result, err := f.FetchAll(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Services)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "error fetching broken_json")
}
