package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/portwatch-cli/internal/arcgis"
	"github.com/sells-group/portwatch-cli/internal/feature"
	"github.com/sells-group/portwatch-cli/pkg/hdx"
)

// chokepointsStart is the earliest record in the chokepoints database per
// the service metadata.
var chokepointsStart = time.Date(2023, 9, 8, 6, 0, 2, 0, time.UTC)

const chokepointsAbout = "[here](https://portwatch.imf.org/datasets/fa9a5800b0ee4855af8b2944ab1e07af/about)"

// Chokepoints publishes the global chokepoints database as CSV and GeoJSON.
type Chokepoints struct{}

// Name implements Dataset.
func (c *Chokepoints) Name() string { return "chokepoints" }

// Run fetches the chokepoints feature service and publishes the dataset.
func (c *Chokepoints) Run(ctx context.Context, env *Env) (*Result, error) {
	log := zap.L().With(zap.String("dataset", c.Name()))

	features, err := env.Arc.FetchAll(ctx, arcgis.ChokepointsService, arcgis.Query{Format: arcgis.FormatGeoJSON})
	if err != nil {
		return nil, eris.Wrap(err, "chokepoints: fetch")
	}

	rows, coll := feature.Normalize(features)
	if len(rows) == 0 {
		log.Warn("no data, skipping dataset")
		return &Result{Skipped: 1}, nil
	}
	logExtent(log, coll)

	ds := hdx.NewDataset("Chokepoints")
	ds.OwnerOrg = env.Cfg.HDX.OwnerOrg
	ds.Maintainer = env.Cfg.HDX.Maintainer
	ds.AddTags(env.Cfg.Tags)
	ds.AddOtherLocation("world")
	ds.SetTimePeriod(chokepointsStart, time.Now().UTC())

	csvPath, err := writeCSV(rows, env.TempDir, ds.Name+".csv")
	if err != nil {
		return nil, eris.Wrap(err, "chokepoints: stage csv")
	}
	ds.AddResource(&hdx.Resource{
		Name:        ds.Name + ".csv",
		Description: "Global chokepoints in CSV format. See variable descriptions " + chokepointsAbout,
		Format:      "csv",
		FilePath:    csvPath,
	})

	geoPath, err := writeGeoJSON(coll, env.TempDir, ds.Name+".geojson")
	if err != nil {
		return nil, eris.Wrap(err, "chokepoints: stage geojson")
	}
	ds.AddResource(&hdx.Resource{
		Name:        ds.Name + ".geojson",
		Description: "Global chokepoints in GeoJSON format. See variable descriptions " + chokepointsAbout,
		Format:      "geojson",
		FilePath:    geoPath,
	})

	if err := env.HDX.CreateOrUpdate(ctx, ds); err != nil {
		return nil, eris.Wrap(err, "chokepoints: publish")
	}

	return &Result{RowsFetched: len(rows), Published: 1}, nil
}
