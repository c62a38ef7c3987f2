package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/portwatch-cli/internal/arcgis"
	"github.com/sells-group/portwatch-cli/internal/feature"
	"github.com/sells-group/portwatch-cli/pkg/hdx"
)

const (
	disruptionsCSVAbout     = "[here](https://portwatch.imf.org/datasets/d9b37bf4b2104c85aebdcc0c1d8a2ab7_0/about)"
	disruptionsGeoJSONAbout = "[here](https://portwatch.imf.org/datasets/acc668d199d1472abaaf2467133d4ca4/about)"
)

// Disruptions publishes active and historical port and chokepoint
// disruptions as CSV and GeoJSON.
type Disruptions struct{}

// Name implements Dataset.
func (d *Disruptions) Name() string { return "disruptions" }

// Run fetches the disruptions feature service and publishes the dataset.
// The GeoJSON resource is staged before date conversion, so its properties
// keep the service's epoch-millisecond timestamps.
func (d *Disruptions) Run(ctx context.Context, env *Env) (*Result, error) {
	log := zap.L().With(zap.String("dataset", d.Name()))

	features, err := env.Arc.FetchAll(ctx, arcgis.DisruptionsService, arcgis.Query{Format: arcgis.FormatGeoJSON})
	if err != nil {
		return nil, eris.Wrap(err, "disruptions: fetch")
	}

	rows, coll := feature.Normalize(features)
	if len(rows) == 0 {
		log.Warn("no data, skipping dataset")
		return &Result{Skipped: 1}, nil
	}
	logExtent(log, coll)

	ds := hdx.NewDataset("Disruptions")
	ds.OwnerOrg = env.Cfg.HDX.OwnerOrg
	ds.Maintainer = env.Cfg.HDX.Maintainer
	ds.AddTags(env.Cfg.DisruptionsTags)
	ds.AddOtherLocation("world")

	geoPath, err := writeGeoJSON(coll, env.TempDir, ds.Name+".geojson")
	if err != nil {
		return nil, eris.Wrap(err, "disruptions: stage geojson")
	}

	if err := feature.ConvertIntervalDates(rows); err != nil {
		return nil, eris.Wrap(err, "disruptions")
	}
	if minDate, maxDate, ok := feature.DateRange(rows); ok {
		ds.SetTimePeriod(minDate, maxDate)
	}

	csvPath, err := writeCSV(rows, env.TempDir, ds.Name+".csv")
	if err != nil {
		return nil, eris.Wrap(err, "disruptions: stage csv")
	}
	ds.AddResource(&hdx.Resource{
		Name: ds.Name + ".csv",
		Description: "Dataset identifying ports and chokepoints at risk by intersecting " +
			"GDACS data. See variable descriptions " + disruptionsCSVAbout,
		Format:   "csv",
		FilePath: csvPath,
	})
	ds.AddResource(&hdx.Resource{
		Name: ds.Name + ".geojson",
		Description: "Dataset in GeoJSON format identifying ports and chokepoints at risk " +
			"by intersecting GDACS data. See variable descriptions " + disruptionsGeoJSONAbout,
		Format:   "geojson",
		FilePath: geoPath,
	})

	if err := env.HDX.CreateOrUpdate(ctx, ds); err != nil {
		return nil, eris.Wrap(err, "disruptions: publish")
	}

	return &Result{RowsFetched: len(rows), Published: 1}, nil
}
