// Package feature models attribute rows and GeoJSON features returned by the
// PortWatch feature service, and the transforms applied to them before
// publishing: row-id stripping, epoch date conversion, sorting, grouping,
// and date-range reduction.
package feature

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// Row is an insertion-ordered attribute map. The feature service returns
// arbitrary attribute keys discovered at runtime; key order of the first row
// becomes the CSV header order, so it must survive the JSON round trip.
// Values are string, json.Number, bool, nil, or time.Time after date
// conversion.
type Row struct {
	keys []string
	vals map[string]any
}

// NewRow creates an empty row.
func NewRow() *Row {
	return &Row{vals: make(map[string]any)}
}

// Len returns the number of attributes.
func (r *Row) Len() int {
	return len(r.keys)
}

// Keys returns the attribute names in insertion order.
func (r *Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Has reports whether the key is present, regardless of value nullity.
func (r *Row) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Get returns the value for key and whether it is present.
func (r *Row) Get(key string) (any, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Value returns the value for key, or nil if absent.
func (r *Row) Value(key string) any {
	return r.vals[key]
}

// Set stores a value, appending the key if it is new. Updating an existing
// key keeps its position.
func (r *Row) Set(key string, v any) {
	if r.vals == nil {
		r.vals = make(map[string]any)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

// Delete removes a key if present.
func (r *Row) Delete(key string) {
	if _, ok := r.vals[key]; !ok {
		return
	}
	delete(r.vals, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Time returns the value for key as a time.Time. It reports false when the
// key is absent, null, or not yet date-converted.
func (r *Row) Time(key string) (time.Time, bool) {
	t, ok := r.vals[key].(time.Time)
	return t, ok
}

// String returns the value for key as a string, or "" when absent or not a
// string.
func (r *Row) String(key string) string {
	s, _ := r.vals[key].(string)
	return s
}

// UnmarshalJSON decodes a JSON object preserving key order. Numbers are kept
// as json.Number so integer attributes survive unmangled into CSV output.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return eris.Wrap(err, "row: read opening token")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return eris.Errorf("row: expected '{', got %v", tok)
	}

	r.keys = nil
	r.vals = make(map[string]any)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "row: read key")
		}
		key, ok := keyTok.(string)
		if !ok {
			return eris.Errorf("row: expected string key, got %v", keyTok)
		}

		var val any
		if err := dec.Decode(&val); err != nil {
			return eris.Wrapf(err, "row: decode value for %q", key)
		}
		r.Set(key, val)
	}

	if _, err := dec.Token(); err != nil {
		return eris.Wrap(err, "row: read closing token")
	}
	return nil
}

// MarshalJSON encodes the row as a JSON object in insertion order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, eris.Wrapf(err, "row: marshal key %q", key)
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(r.vals[key])
		if err != nil {
			return nil, eris.Wrapf(err, "row: marshal value for %q", key)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
