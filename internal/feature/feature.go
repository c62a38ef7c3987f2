package feature

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Feature is a single record from a feature-service query. GeoJSON responses
// carry Properties and usually a Geometry; plain JSON responses carry
// Attributes instead. The geometry payload is kept verbatim.
type Feature struct {
	Type       string            `json:"type,omitempty"`
	Properties *Row              `json:"properties,omitempty"`
	Attributes *Row              `json:"attributes,omitempty"`
	Geometry   *geojson.Geometry `json:"geometry,omitempty"`
}

// Attrs returns the attribute map of the feature, whichever of
// properties/attributes the response format populated.
func (f *Feature) Attrs() *Row {
	if f.Properties != nil {
		return f.Properties
	}
	return f.Attributes
}

// Collection is an ordered GeoJSON FeatureCollection.
type Collection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// NewCollection bundles features as a FeatureCollection.
func NewCollection(features []*Feature) *Collection {
	return &Collection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// Bounds computes the WGS84 extent of the collection's geometries. Features
// without a geometry are skipped; a collection with no geometries at all
// returns nil.
func Bounds(c *Collection) (*geom.Bounds, error) {
	var bounds *geom.Bounds
	for i, f := range c.Features {
		if f.Geometry == nil {
			continue
		}
		g, err := f.Geometry.Decode()
		if err != nil {
			return nil, eris.Wrapf(err, "feature: decode geometry %d", i)
		}
		if bounds == nil {
			bounds = geom.NewBounds(g.Layout())
		}
		bounds = bounds.Extend(g)
	}
	return bounds, nil
}
