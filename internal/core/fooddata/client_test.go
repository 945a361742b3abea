package fooddata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"nutribot/internal/core/cache"
	"nutribot/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{
  "totalHits": 2,
  "foods": [
    {"fdcId": 171077, "description": "Chicken soup", "foodNutrients": [
      {"nutrientId": 1008, "nutrientName": "Energy", "unitName": "KCAL", "value": 62},
      {"nutrientId": 1003, "nutrientName": "Protein", "unitName": "G", "value": 3.5},
      {"nutrientId": 1004, "nutrientName": "Total lipid (fat)", "unitName": "G"}
    ]},
    {"fdcId": 171078, "description": "Chicken noodle soup", "foodNutrients": []}
  ]
}`

const detailBody = `{
  "fdcId": 171077,
  "description": "Chicken soup",
  "dataType": "SR Legacy",
  "foodNutrients": [
    {"nutrient": {"id": 1008, "name": "Energy", "unitName": "kcal"}, "amount": 62},
    {"nutrient": {"id": 1089, "name": "Iron, Fe", "unitName": "mg"}, "amount": 0.4}
  ]
}`

type recordingObserver struct {
	calls atomic.Int32
}

func (o *recordingObserver) ObserveUpstream(string, string, time.Duration, error) {
	o.calls.Add(1)
}

func testConfig(url string) config.FDCConfig {
	return config.FDCConfig{
		APIKey:          "test-key",
		BaseURL:         url,
		Timeout:         2 * time.Second,
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/foods/search", r.URL.Path)
		assert.Equal(t, "chicken soup", r.URL.Query().Get("query"))
		assert.Equal(t, "2", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewClient(testConfig(srv.URL), obs)

	foods, err := client.Search(context.Background(), "chicken soup", 2)
	require.NoError(t, err)
	require.Len(t, foods, 2)

	assert.Equal(t, "Chicken soup", foods[0].DisplayName)
	assert.Equal(t, "171077", foods[0].ExternalID())
	assert.Equal(t, map[string]string{"Energy": "62 KCAL", "Protein": "3.5 G"}, foods[0].Nutrients)
	assert.False(t, foods[0].IsError())
	assert.Empty(t, foods[1].Nutrients)
	assert.Equal(t, int32(1), obs.calls.Load())
}

func TestDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/food/171077":
			_, _ = w.Write([]byte(detailBody))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)

	d, err := client.Details(context.Background(), 171077)
	require.NoError(t, err)
	assert.Equal(t, "Chicken soup", d.Description)
	assert.Equal(t, "SR Legacy", d.DataType)
	assert.Equal(t, 62.0, d.Nutrients["Energy"].Amount)
	assert.Equal(t, "mg", d.Nutrients["Iron, Fe"].Unit)

	_, err = client.Details(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.Details(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)

	for i := 0; i < 2; i++ {
		_, err := client.Search(context.Background(), "soup", 1)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}

	_, err := client.Search(context.Background(), "soup", 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), hits.Load())
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	for i := 0; i < 5; i++ {
		_, err := client.Details(context.Background(), 42)
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestSentinel(t *testing.T) {
	assert.True(t, SentinelFood().IsError())
	assert.True(t, RawFood{}.IsError())
	assert.False(t, RawFood{DisplayName: "Apple"}.IsError())
	assert.Equal(t, "", RawFood{DisplayName: "Apple"}.ExternalID())
}

func TestLookupCachesDetails(t *testing.T) {
	var detailHits, searchHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/food/171077":
			detailHits.Add(1)
			_, _ = w.Write([]byte(detailBody))
		case "/foods/search":
			searchHits.Add(1)
			_, _ = w.Write([]byte(searchBody))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := cache.NewManager[*FoodDetails]("fooddata", config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Hour})
	defer c.Close()
	lookup := NewLookup(NewClient(testConfig(srv.URL), nil), c)

	for i := 0; i < 3; i++ {
		n, err := lookup.Nutrients(context.Background(), "171077", "Chicken soup")
		require.NoError(t, err)
		assert.Equal(t, 62.0, n["Energy"].Amount)
	}
	assert.Equal(t, int32(1), detailHits.Load())

	for i := 0; i < 2; i++ {
		n, err := lookup.Nutrients(context.Background(), "", "Chicken soup")
		require.NoError(t, err)
		assert.Equal(t, 3.5, n["Protein"].Amount)
	}
	assert.Equal(t, int32(1), searchHits.Load())

	_, err := lookup.Nutrients(context.Background(), "", "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}
