package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/portwatch-cli/internal/arcgis"
)

const portsPage = `{"features":[
	{"type":"Feature",
	 "properties":{"ObjectId":1,"portname":"Oranjestad","ISO3":"ABW"},
	 "geometry":{"type":"Point","coordinates":[-70.03,12.52]}},
	{"type":"Feature",
	 "properties":{"ObjectId":2,"portname":"Rotterdam","ISO3":"NLD"},
	 "geometry":{"type":"Point","coordinates":[4.47,51.92]}}
]}`

func TestPortsRun(t *testing.T) {
	srv := serviceServer(map[string]http.HandlerFunc{
		arcgis.PortsService: func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "geojson", r.URL.Query().Get("f"))
			io.WriteString(w, portsPage)
		},
	})
	defer srv.Close()

	env, catalog := newTestEnv(t, srv.URL)
	result, err := (&Ports{}).Run(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowsFetched)
	assert.Equal(t, 1, result.Published)

	require.Len(t, catalog.published, 1)
	ds := catalog.published[0]
	assert.Equal(t, "ports", ds.Name)
	assert.Equal(t, "Ports", ds.Title)
	assert.Equal(t, []string{"ports", "trade"}, ds.Tags)
	assert.Equal(t, []string{"world"}, ds.Groups)
	assert.True(t, strings.HasPrefix(ds.DatasetDate, "[2023-08-29T04:08:45 TO "), ds.DatasetDate)

	require.Len(t, ds.Resources, 2)
	assert.Equal(t, "ports.csv", ds.Resources[0].Name)
	assert.Equal(t, "csv", ds.Resources[0].Format)
	assert.Equal(t, "ports.geojson", ds.Resources[1].Name)
	assert.Equal(t, "geojson", ds.Resources[1].Format)

	// CSV keeps source key order, minus the row identifier.
	data, err := os.ReadFile(ds.Resources[0].FilePath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "portname,ISO3", lines[0])
	assert.Equal(t, "Oranjestad,ABW", lines[1])

	// GeoJSON carries the stripped properties and the geometries.
	geoData, err := os.ReadFile(ds.Resources[1].FilePath)
	require.NoError(t, err)
	var coll struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
			Geometry   map[string]any `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(geoData, &coll))
	assert.Equal(t, "FeatureCollection", coll.Type)
	require.Len(t, coll.Features, 2)
	assert.NotContains(t, coll.Features[0].Properties, "ObjectId")
	assert.Equal(t, "Point", coll.Features[0].Geometry["type"])
}

func TestPortsRunNoData(t *testing.T) {
	srv := serviceServer(map[string]http.HandlerFunc{
		arcgis.PortsService: func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"features":[]}`)
		},
	})
	defer srv.Close()

	env, catalog := newTestEnv(t, srv.URL)
	result, err := (&Ports{}).Run(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, catalog.published)
}

func TestChokepointsRun(t *testing.T) {
	srv := serviceServer(map[string]http.HandlerFunc{
		arcgis.ChokepointsService: func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"features":[
				{"type":"Feature",
				 "properties":{"ObjectId":1,"portname":"Suez Canal"},
				 "geometry":{"type":"Point","coordinates":[32.34,30.42]}}
			]}`)
		},
	})
	defer srv.Close()

	env, catalog := newTestEnv(t, srv.URL)
	result, err := (&Chokepoints{}).Run(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Published)
	require.Len(t, catalog.published, 1)
	ds := catalog.published[0]
	assert.Equal(t, "chokepoints", ds.Name)
	assert.True(t, strings.HasPrefix(ds.DatasetDate, "[2023-09-08T06:00:02 TO "), ds.DatasetDate)
	require.Len(t, ds.Resources, 2)
}

func TestPortsRunPublishFailure(t *testing.T) {
	srv := serviceServer(map[string]http.HandlerFunc{
		arcgis.PortsService: func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, portsPage)
		},
	})
	defer srv.Close()

	env, catalog := newTestEnv(t, srv.URL)
	catalog.err = assert.AnError

	_, err := (&Ports{}).Run(context.Background(), env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ports: publish")
}
