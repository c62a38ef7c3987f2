package feature

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureAttrsPrefersProperties(t *testing.T) {
	props := NewRow()
	props.Set("a", "1")
	attrs := NewRow()
	attrs.Set("b", "2")

	f := &Feature{Properties: props, Attributes: attrs}
	assert.Same(t, props, f.Attrs())

	f = &Feature{Attributes: attrs}
	assert.Same(t, attrs, f.Attrs())

	f = &Feature{}
	assert.Nil(t, f.Attrs())
}

func TestFeatureUnmarshalGeoJSON(t *testing.T) {
	raw := `{
		"type": "Feature",
		"properties": {"portname": "Oranjestad", "ISO3": "ABW"},
		"geometry": {"type": "Point", "coordinates": [-70.03, 12.52]}
	}`

	var f Feature
	require.NoError(t, json.Unmarshal([]byte(raw), &f))

	assert.Equal(t, "Feature", f.Type)
	assert.Equal(t, "Oranjestad", f.Properties.String("portname"))
	require.NotNil(t, f.Geometry)
	assert.Equal(t, "Point", f.Geometry.Type)
}

func TestCollectionMarshalKeepsOrder(t *testing.T) {
	f := geoFeature(t, `{"portname":"Apra","ISO3":"GUM"}`)
	_, coll := Normalize([]*Feature{f})

	out, err := json.Marshal(coll)
	require.NoError(t, err)

	assert.Contains(t, string(out), `"type":"FeatureCollection"`)
	assert.Contains(t, string(out), `"portname":"Apra","ISO3":"GUM"`)
	assert.Contains(t, string(out), `"coordinates":[-69.98,12.51]`)
}

func TestBoundsPointFeatures(t *testing.T) {
	features := []*Feature{
		geoFeature(t, `{"portname":"a"}`), // -69.98, 12.51
	}
	var west Feature
	require.NoError(t, json.Unmarshal([]byte(
		`{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[-80.0,25.0]}}`,
	), &west))
	features = append(features, &west)

	bounds, err := Bounds(NewCollection(features))
	require.NoError(t, err)
	require.NotNil(t, bounds)

	assert.InDelta(t, -80.0, bounds.Min(0), 0.001)
	assert.InDelta(t, -69.98, bounds.Max(0), 0.001)
	assert.InDelta(t, 12.51, bounds.Min(1), 0.001)
	assert.InDelta(t, 25.0, bounds.Max(1), 0.001)
}

func TestBoundsSkipsMissingGeometry(t *testing.T) {
	features := []*Feature{
		{Type: "Feature", Properties: NewRow()},
		geoFeature(t, `{"portname":"a"}`),
	}

	bounds, err := Bounds(NewCollection(features))
	require.NoError(t, err)
	require.NotNil(t, bounds)
	assert.InDelta(t, -69.98, bounds.Min(0), 0.001)
}

func TestBoundsNoGeometries(t *testing.T) {
	bounds, err := Bounds(NewCollection([]*Feature{{Type: "Feature"}}))
	require.NoError(t, err)
	assert.Nil(t, bounds)
}
