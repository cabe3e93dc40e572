package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalogConfig(url string) config.Catalog {
	conf := config.DefaultConfig().Catalog
	conf.URL = url
	conf.SignURL = url
	conf.Timeout = config.Duration(5 * time.Second)
	conf.MaxRetries = 3
	return conf
}

func fastRetries(d *doer) {
	d.retrier.InitialInterval = time.Millisecond
	d.retrier.MaxInterval = time.Millisecond * 5
}

func testItem(id string) map[string]interface{} {
	return map[string]interface{}{
		"type":       "Feature",
		"id":         id,
		"collection": Sentinel2L2A,
		"geometry": map[string]interface{}{
			"type":        "Polygon",
			"coordinates": [][][]float64{{{4, 51}, {5, 51}, {5, 52}, {4, 52}, {4, 51}}},
		},
		"properties": map[string]interface{}{
			"datetime":       "2023-05-04T10:56:21.024000Z",
			"eo:cloud_cover": 3.5,
		},
		"assets": map[string]interface{}{
			"B04": map[string]string{"href": "https://acct.blob.core.windows.net/c/" + id + "/B04.tif"},
			"B08": map[string]string{"href": "https://acct.blob.core.windows.net/c/" + id + "/B08.tif"},
		},
	}
}

func TestSearchPagination(t *testing.T) {
	var mtx sync.Mutex
	var bodies []map[string]interface{}

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mtx.Lock()
		bodies = append(bodies, body)
		mtx.Unlock()

		w.Header().Set("Content-Type", "application/geo+json")
		if body["token"] == nil {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"type":     "FeatureCollection",
				"features": []interface{}{testItem("S2A_1"), testItem("S2A_2")},
				"links": []interface{}{map[string]interface{}{
					"rel":    "next",
					"href":   srv.URL + "/search",
					"method": "POST",
					"body":   map[string]interface{}{"token": "page2"},
					"merge":  true,
				}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"type":     "FeatureCollection",
			"features": []interface{}{testItem("S2A_3")},
		})
	}))
	defer srv.Close()

	f, err := NewFilter(search("", "2023-05-01", "2023-06-01", "10"), testNow)
	require.NoError(t, err)

	c := NewClient(testCatalogConfig(srv.URL), logger.NewLogger("test", logger.DefaultConfig()))
	scenes, err := c.Search(context.Background(), f)
	require.NoError(t, err)

	require.Len(t, scenes, 3)
	assert.Equal(t, "S2A_1", scenes[0].ID)
	assert.Equal(t, "S2A_3", scenes[2].ID)
	assert.Equal(t, 3.5, scenes[0].CloudCover)
	assert.Equal(t, 2023, scenes[0].Datetime.Year())
	assert.Equal(t, "Polygon", scenes[0].Geometry.GeoJSONType())

	href, err := scenes[1].Asset("B08")
	require.NoError(t, err)
	assert.Equal(t, "https://acct.blob.core.windows.net/c/S2A_2/B08.tif", href)

	mtx.Lock()
	defer mtx.Unlock()
	require.Len(t, bodies, 2)
	first := bodies[0]
	assert.Equal(t, []interface{}{Sentinel2L2A}, first["collections"])
	assert.Equal(t, "2023-05-01T00:00:00Z/2023-06-01T23:59:59Z", first["datetime"])
	assert.Equal(t, map[string]interface{}{"eo:cloud_cover": map[string]interface{}{"lt": 10.0}}, first["query"])
	assert.Equal(t, 100.0, first["limit"])
	assert.Equal(t, "Polygon", first["intersects"].(map[string]interface{})["type"])

	// merged next body keeps the original query
	assert.Equal(t, "page2", bodies[1]["token"])
	assert.Equal(t, first["datetime"], bodies[1]["datetime"])
}

func TestSearchGetNextLink(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"features": []interface{}{testItem("a")},
				"links": []interface{}{
					map[string]interface{}{"rel": "self", "href": srv.URL + "/search"},
					map[string]interface{}{"rel": "next", "href": srv.URL + "/search?token=next"},
				},
			})
			return
		}
		assert.Equal(t, "next", r.URL.Query().Get("token"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"features": []interface{}{testItem("b")},
		})
	}))
	defer srv.Close()

	f, _ := NewFilter(search("", "", "", "10"), testNow)
	c := NewClient(testCatalogConfig(srv.URL), logger.NewLogger("test", logger.DefaultConfig()))
	scenes, err := c.Search(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, scenes, 2)
	assert.Equal(t, "b", scenes[1].ID)
}

func TestSearchRetriesTemporaryErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"features": []interface{}{testItem("a")}})
	}))
	defer srv.Close()

	f, _ := NewFilter(search("", "", "", "10"), testNow)
	c := NewClient(testCatalogConfig(srv.URL), logger.NewLogger("test", logger.DefaultConfig()))
	fastRetries(c.http)

	scenes, err := c.Search(context.Background(), f)
	require.NoError(t, err)
	assert.Len(t, scenes, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearchDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"detail":"bad query"}`)
	}))
	defer srv.Close()

	f, _ := NewFilter(search("", "", "", "10"), testNow)
	c := NewClient(testCatalogConfig(srv.URL), logger.NewLogger("test", logger.DefaultConfig()))
	fastRetries(c.http)

	_, err := c.Search(context.Background(), f)
	require.Error(t, err)

	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusBadRequest, herr.StatusCode)
	assert.Contains(t, herr.Body, "bad query")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
