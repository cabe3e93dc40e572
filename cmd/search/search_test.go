package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stacServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"type": "FeatureCollection",
			"features": []interface{}{map[string]interface{}{
				"type": "Feature",
				"id":   "S2B_MSIL2A_1",
				"properties": map[string]interface{}{
					"datetime":       "2023-05-04T10:56:21Z",
					"eo:cloud_cover": 4.25,
				},
				"assets": map[string]interface{}{
					"B04": map[string]string{"href": "https://a/B04.tif"},
					"B08": map[string]string{"href": "https://a/B08.tif"},
					"B02": map[string]string{"href": "https://a/B02.tif"},
				},
			}},
		})
	}))
}

func TestRunText(t *testing.T) {
	srv := stacServer()
	defer srv.Close()

	conf := config.DefaultConfig()
	conf.Catalog.URL = srv.URL
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), conf, &out, false, logger.NewLogger("test", logger.DefaultConfig())))
	assert.Equal(t, "S2B_MSIL2A_1\t2023-05-04T10:56:21Z\t4.25\n", out.String())
}

func TestRunJSON(t *testing.T) {
	srv := stacServer()
	defer srv.Close()

	conf := config.DefaultConfig()
	conf.Catalog.URL = srv.URL
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), conf, &out, true, logger.NewLogger("test", logger.DefaultConfig())))

	var s sceneSummary
	require.NoError(t, json.NewDecoder(strings.NewReader(out.String())).Decode(&s))
	assert.Equal(t, "S2B_MSIL2A_1", s.ID)
	assert.Equal(t, map[string]string{"B04": "https://a/B04.tif", "B08": "https://a/B08.tif"}, s.Assets)
}
