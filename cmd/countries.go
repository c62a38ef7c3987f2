package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/portwatch-cli/internal/arcgis"
	"github.com/sells-group/portwatch-cli/internal/feature"
	"github.com/sells-group/portwatch-cli/internal/fetcher"
	"github.com/sells-group/portwatch-cli/pkg/hdx"
)

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the countries present in the ports database",
	Long: `Fetch the ports database and print the distinct ISO3 country codes.

These are the countries the daily-ports dataset fans out over, one
published dataset each.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "countries"))

		if err := cfg.Validate("countries"); err != nil {
			return err
		}

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:    cfg.Run.UserAgent,
			MaxRetries:   3,
			RateLimiters: fetcher.DefaultRateLimiters(),
		})
		arc := arcgis.NewClient(f, cfg.BaseURL, cfg.Run.PageSize)

		features, err := arc.FetchAll(ctx, arcgis.PortsService, arcgis.Query{})
		if err != nil {
			return eris.Wrap(err, "countries: fetch ports")
		}

		countries := feature.Countries(features)
		log.Info("fetched port countries", zap.Int("count", len(countries)))

		for _, iso3 := range countries {
			name, err := hdx.CountryName(iso3)
			if err != nil {
				fmt.Printf("%s\t(unrecognized)\n", iso3)
				continue
			}
			fmt.Printf("%s\t%s\n", iso3, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
}
