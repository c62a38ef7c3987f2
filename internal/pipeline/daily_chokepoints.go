package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/portwatch-cli/internal/arcgis"
	"github.com/sells-group/portwatch-cli/internal/feature"
	"github.com/sells-group/portwatch-cli/pkg/hdx"
)

const dailyChokepointsAbout = "[here](https://portwatch.imf.org/datasets/42132aa4e2fc4d41bdaf9a445f688931/about)"

// DailyChokepoints publishes daily transit calls and shipment volume
// estimates for the monitored chokepoints.
type DailyChokepoints struct{}

// Name implements Dataset.
func (d *DailyChokepoints) Name() string { return "daily-chokepoints" }

// Run fetches the daily chokepoint series and publishes it, either as a
// single CSV or one resource per year.
func (d *DailyChokepoints) Run(ctx context.Context, env *Env) (*Result, error) {
	log := zap.L().With(zap.String("dataset", d.Name()))

	features, err := env.Arc.FetchAll(ctx, arcgis.DailyChokepointsService, arcgis.Query{})
	if err != nil {
		return nil, eris.Wrap(err, "daily chokepoints: fetch")
	}

	rows := feature.Tabulate(features)
	if len(rows) == 0 {
		log.Warn("no data, skipping dataset")
		return &Result{Skipped: 1}, nil
	}

	if err := feature.ConvertDates(rows); err != nil {
		return nil, eris.Wrap(err, "daily chokepoints")
	}
	feature.SortByDateDesc(rows)

	ds := hdx.NewDataset("Daily Chokepoint Transit Calls and Shipment Volume Estimates")
	ds.OwnerOrg = env.Cfg.HDX.OwnerOrg
	ds.Maintainer = env.Cfg.HDX.Maintainer
	ds.AddTags(env.Cfg.Tags)
	ds.AddOtherLocation("world")
	if minDate, maxDate, ok := feature.DateRange(rows); ok {
		ds.SetTimePeriod(minDate, maxDate)
	}

	description := "Daily chokepoint transit calls and preliminary transit shipment volume " +
		"estimates for 28 major chokepoints worldwide. See variable descriptions " + dailyChokepointsAbout

	if env.ByYear {
		for _, group := range feature.GroupByYear(rows) {
			filename := fmt.Sprintf("%s_%d.csv", ds.Name, group.Year)
			path, err := writeCSV(group.Rows, env.TempDir, filename)
			if err != nil {
				return nil, eris.Wrapf(err, "daily chokepoints: stage csv for %d", group.Year)
			}
			ds.AddResource(&hdx.Resource{
				Name:        filename,
				Description: fmt.Sprintf("%s Data for %d.", description, group.Year),
				Format:      "csv",
				FilePath:    path,
			})
		}
	} else {
		path, err := writeCSV(rows, env.TempDir, ds.Name+".csv")
		if err != nil {
			return nil, eris.Wrap(err, "daily chokepoints: stage csv")
		}
		ds.AddResource(&hdx.Resource{
			Name:        ds.Name + ".csv",
			Description: description,
			Format:      "csv",
			FilePath:    path,
		})
	}

	if err := env.HDX.CreateOrUpdate(ctx, ds); err != nil {
		return nil, eris.Wrap(err, "daily chokepoints: publish")
	}

	return &Result{RowsFetched: len(rows), Published: 1}, nil
}
