package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/portwatch-cli/internal/feature"
)

// writeCSV stages rows as a CSV file in dir. The header derives from the
// first row's key order.
func writeCSV(rows []*feature.Row, dir, filename string) (string, error) {
	if len(rows) == 0 {
		return "", eris.New("export: no rows to write")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", eris.Wrapf(err, "export: create dir %s", dir)
	}

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	headers := rows[0].Keys()
	if err := w.Write(headers); err != nil {
		return "", eris.Wrap(err, "export: write header")
	}

	record := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			record[i] = cell(row.Value(h))
		}
		if err := w.Write(record); err != nil {
			return "", eris.Wrap(err, "export: write record")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", eris.Wrap(err, "export: flush")
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrapf(err, "export: close %s", path)
	}
	return path, nil
}

// cell renders a row value for CSV output. Numbers keep the service's
// original text form; timestamps render as RFC 3339 UTC.
func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// writeGeoJSON stages a feature collection as a GeoJSON file in dir.
func writeGeoJSON(coll *feature.Collection, dir, filename string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", eris.Wrapf(err, "export: create dir %s", dir)
	}

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := json.NewEncoder(f).Encode(coll); err != nil {
		return "", eris.Wrapf(err, "export: encode %s", path)
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrapf(err, "export: close %s", path)
	}
	return path, nil
}
