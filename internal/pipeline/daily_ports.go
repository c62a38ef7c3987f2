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

const dailyPortsAbout = "[here](https://portwatch.imf.org/datasets/959214444157458aad969389b3ebe1a0_0/about)"

// DailyPorts publishes one dataset per country with daily port activity and
// shipment volume estimates. The country list derives from the ports
// database; a country that cannot be published is skipped without aborting
// the rest.
type DailyPorts struct{}

// Name implements Dataset.
func (d *DailyPorts) Name() string { return "daily-ports" }

// Run fans out over the port countries and publishes each country's series.
func (d *DailyPorts) Run(ctx context.Context, env *Env) (*Result, error) {
	log := zap.L().With(zap.String("dataset", d.Name()))

	portFeatures, err := env.Arc.FetchAll(ctx, arcgis.PortsService, arcgis.Query{})
	if err != nil {
		return nil, eris.Wrap(err, "daily ports: fetch port countries")
	}

	countries := feature.Countries(portFeatures)
	if len(countries) == 0 {
		log.Warn("no port countries found, skipping dataset")
		return &Result{Skipped: 1}, nil
	}
	log.Info("fanning out over port countries", zap.Int("countries", len(countries)))

	result := &Result{}
	for _, iso3 := range countries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rows, err := d.runCountry(ctx, env, iso3)
		if err != nil {
			return nil, eris.Wrapf(err, "daily ports: country %s", iso3)
		}
		if rows == 0 {
			result.Skipped++
			continue
		}
		result.RowsFetched += rows
		result.Published++
	}

	log.Info("country fan-out complete",
		zap.Int("published", result.Published),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// runCountry fetches and publishes a single country's series. It returns the
// row count, zero meaning the country was skipped.
func (d *DailyPorts) runCountry(ctx context.Context, env *Env, iso3 string) (int, error) {
	log := zap.L().With(zap.String("dataset", d.Name()), zap.String("iso3", iso3))

	features, err := env.Arc.FetchAll(ctx, arcgis.DailyTradeService, arcgis.Query{
		Where:           fmt.Sprintf("ISO3='%s'", iso3),
		DiagnosticRetry: true,
	})
	if err != nil {
		return 0, eris.Wrap(err, "fetch")
	}

	rows := feature.Tabulate(features)
	if len(rows) == 0 {
		log.Warn("no daily port data for country, skipping")
		return 0, nil
	}

	if err := feature.ConvertDates(rows); err != nil {
		return 0, err
	}
	feature.SortByDateDesc(rows)

	countryName, err := hdx.CountryName(iso3)
	if err != nil {
		log.Error("could not resolve country, skipping", zap.Error(err))
		return 0, nil
	}

	ds := hdx.NewDataset(fmt.Sprintf("%s: Daily Port Activity Data and Shipment Estimates", countryName))
	ds.OwnerOrg = env.Cfg.HDX.OwnerOrg
	ds.Maintainer = env.Cfg.HDX.Maintainer
	ds.AddTags(env.Cfg.Tags)
	if err := ds.AddCountryLocation(iso3); err != nil {
		log.Error("could not add country location, skipping", zap.Error(err))
		return 0, nil
	}
	if minDate, maxDate, ok := feature.DateRange(rows); ok {
		ds.SetTimePeriod(minDate, maxDate)
	}

	path, err := writeCSV(rows, env.TempDir, ds.Name+".csv")
	if err != nil {
		return 0, eris.Wrap(err, "stage csv")
	}
	ds.AddResource(&hdx.Resource{
		Name: ds.Name + ".csv",
		Description: fmt.Sprintf(
			"Daily port activity and preliminary shipment volume estimates for %s. See variable descriptions %s",
			countryName, dailyPortsAbout,
		),
		Format:   "csv",
		FilePath: path,
	})

	if err := env.HDX.CreateOrUpdate(ctx, ds); err != nil {
		return 0, eris.Wrap(err, "publish")
	}

	return len(rows), nil
}
