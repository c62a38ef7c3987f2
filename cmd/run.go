package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/portwatch-cli/internal/arcgis"
	"github.com/sells-group/portwatch-cli/internal/fetcher"
	"github.com/sells-group/portwatch-cli/internal/pipeline"
	"github.com/sells-group/portwatch-cli/pkg/hdx"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch and publish the PortWatch datasets",
	Long: `Fetch the PortWatch feature services and publish the datasets to the catalog.

By default, runs all five datasets: ports, chokepoints, daily-chokepoints,
daily-ports, disruptions.
Use --datasets to restrict to specific datasets.
Use --dry-run to fetch and stage files without publishing.
Use --by-year to split daily chokepoint data into one resource per year.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "run"))

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		datasets := parseDatasetsFlag(cmd)
		if tempDir, _ := cmd.Flags().GetString("tempdir"); tempDir != "" {
			cfg.Run.TempDir = tempDir
		}
		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			cfg.Run.DryRun = true
		}
		byYear, _ := cmd.Flags().GetBool("by-year")

		if err := os.MkdirAll(cfg.Run.TempDir, 0o755); err != nil {
			return eris.Wrapf(err, "run: create temp dir %s", cfg.Run.TempDir)
		}

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:    cfg.Run.UserAgent,
			MaxRetries:   3,
			RateLimiters: fetcher.DefaultRateLimiters(),
		})

		var catalog hdx.Client
		if cfg.Run.DryRun {
			catalog = hdx.NewDryRun()
		} else {
			catalog = hdx.NewClient(cfg.HDX.Site, cfg.HDX.APIKey)
		}

		env := &pipeline.Env{
			Arc:     arcgis.NewClient(f, cfg.BaseURL, cfg.Run.PageSize),
			HDX:     catalog,
			Cfg:     cfg,
			TempDir: cfg.Run.TempDir,
			ByYear:  byYear,
		}
		engine := pipeline.NewEngine(pipeline.NewRegistry(), env)

		log.Info("starting batch",
			zap.Strings("datasets", datasets),
			zap.Bool("dry_run", cfg.Run.DryRun),
			zap.Bool("by_year", byYear),
		)

		if err := engine.Run(ctx, datasets); err != nil {
			return eris.Wrap(err, "run")
		}

		fmt.Println("Run complete")
		return nil
	},
}

func init() {
	runCmd.Flags().String("datasets", "", "comma-separated dataset names (e.g., ports,disruptions)")
	runCmd.Flags().String("tempdir", "", "override the staging directory")
	runCmd.Flags().Bool("dry-run", false, "fetch and stage without publishing")
	runCmd.Flags().Bool("by-year", false, "split daily chokepoint data into one resource per year")
	rootCmd.AddCommand(runCmd)
}

// parseDatasetsFlag splits the --datasets flag into trimmed names.
func parseDatasetsFlag(cmd *cobra.Command) []string {
	datasetsStr, _ := cmd.Flags().GetString("datasets")
	if datasetsStr == "" {
		return nil
	}
	names := strings.Split(datasetsStr, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names
}
