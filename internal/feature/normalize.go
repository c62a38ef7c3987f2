package feature

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// RowIDField is the service-internal row identifier present on every record.
// It is meaningless downstream and stripped during normalization.
const RowIDField = "ObjectId"

// Normalize splits geospatial features into attribute rows and a
// FeatureCollection for GeoJSON export. Rows and features are produced
// pairwise in source order and share the same stripped attribute maps, so
// the feature count always equals the row count.
func Normalize(features []*Feature) ([]*Row, *Collection) {
	rows := make([]*Row, 0, len(features))
	out := make([]*Feature, 0, len(features))

	for _, f := range features {
		props := f.Attrs()
		if props == nil {
			props = NewRow()
		}
		props.Delete(RowIDField)

		rows = append(rows, props)
		out = append(out, &Feature{
			Type:       "Feature",
			Properties: props,
			Geometry:   f.Geometry,
		})
	}

	return rows, NewCollection(out)
}

// Tabulate extracts attribute rows from plain (non-geospatial) features,
// stripping the row identifier.
func Tabulate(features []*Feature) []*Row {
	rows := make([]*Row, 0, len(features))
	for _, f := range features {
		attrs := f.Attrs()
		if attrs == nil {
			attrs = NewRow()
		}
		attrs.Delete(RowIDField)
		rows = append(rows, attrs)
	}
	return rows
}

// ConvertDates converts each row's epoch-millisecond "date" field to a UTC
// time. It must be applied exactly once per fetch: a second pass would find
// time values where it expects epoch numbers and fail.
func ConvertDates(rows []*Row) error {
	for i, row := range rows {
		ms, err := epochMillis(row.Value("date"))
		if err != nil {
			return eris.Wrapf(err, "convert dates: row %d", i)
		}
		row.Set("date", time.UnixMilli(ms).UTC())
	}
	return nil
}

// ConvertIntervalDates converts each row's "fromdate" and "todate" fields to
// UTC times. A null or absent todate marks a point-in-time event and defaults
// to the converted fromdate.
func ConvertIntervalDates(rows []*Row) error {
	for i, row := range rows {
		ms, err := epochMillis(row.Value("fromdate"))
		if err != nil {
			return eris.Wrapf(err, "convert interval dates: row %d fromdate", i)
		}
		from := time.UnixMilli(ms).UTC()
		row.Set("fromdate", from)

		if row.Value("todate") == nil {
			row.Set("todate", from)
			continue
		}
		ms, err = epochMillis(row.Value("todate"))
		if err != nil {
			return eris.Wrapf(err, "convert interval dates: row %d todate", i)
		}
		row.Set("todate", time.UnixMilli(ms).UTC())
	}
	return nil
}

// epochMillis coerces a raw attribute value to epoch milliseconds.
func epochMillis(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, eris.Wrapf(err, "parse epoch value %q", n.String())
		}
		return int64(f), nil
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case nil:
		return 0, eris.New("epoch value is null")
	default:
		return 0, eris.Errorf("epoch value has unexpected type %T", v)
	}
}
