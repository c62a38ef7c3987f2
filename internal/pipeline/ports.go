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

// portsStart is the earliest record in the ports database per the service
// metadata; the service itself carries no usable date attribute.
var portsStart = time.Date(2023, 8, 29, 4, 8, 45, 0, time.UTC)

const portsAbout = "[here](https://portwatch.imf.org/datasets/acc668d199d1472abaaf2467133d4ca4/about)"

// Ports publishes the global ports database as CSV and GeoJSON.
type Ports struct{}

// Name implements Dataset.
func (p *Ports) Name() string { return "ports" }

// Run fetches the ports feature service and publishes the dataset.
func (p *Ports) Run(ctx context.Context, env *Env) (*Result, error) {
	log := zap.L().With(zap.String("dataset", p.Name()))

	features, err := env.Arc.FetchAll(ctx, arcgis.PortsService, arcgis.Query{Format: arcgis.FormatGeoJSON})
	if err != nil {
		return nil, eris.Wrap(err, "ports: fetch")
	}

	rows, coll := feature.Normalize(features)
	if len(rows) == 0 {
		log.Warn("no data, skipping dataset")
		return &Result{Skipped: 1}, nil
	}
	logExtent(log, coll)

	ds := hdx.NewDataset("Ports")
	ds.OwnerOrg = env.Cfg.HDX.OwnerOrg
	ds.Maintainer = env.Cfg.HDX.Maintainer
	ds.AddTags(env.Cfg.Tags)
	ds.AddOtherLocation("world")
	ds.SetTimePeriod(portsStart, time.Now().UTC())

	csvPath, err := writeCSV(rows, env.TempDir, ds.Name+".csv")
	if err != nil {
		return nil, eris.Wrap(err, "ports: stage csv")
	}
	ds.AddResource(&hdx.Resource{
		Name:        ds.Name + ".csv",
		Description: "Global ports in CSV format. See variable descriptions " + portsAbout,
		Format:      "csv",
		FilePath:    csvPath,
	})

	geoPath, err := writeGeoJSON(coll, env.TempDir, ds.Name+".geojson")
	if err != nil {
		return nil, eris.Wrap(err, "ports: stage geojson")
	}
	ds.AddResource(&hdx.Resource{
		Name:        ds.Name + ".geojson",
		Description: "Global ports in GeoJSON format. See variable descriptions " + portsAbout,
		Format:      "geojson",
		FilePath:    geoPath,
	})

	if err := env.HDX.CreateOrUpdate(ctx, ds); err != nil {
		return nil, eris.Wrap(err, "ports: publish")
	}

	return &Result{RowsFetched: len(rows), Published: 1}, nil
}
