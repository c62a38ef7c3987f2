// Package pipeline orchestrates the PortWatch dataset runs: fetch the
// feature services, reshape the rows, stage files, publish to the catalog.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/portwatch-cli/internal/arcgis"
	"github.com/sells-group/portwatch-cli/internal/config"
	"github.com/sells-group/portwatch-cli/internal/feature"
	"github.com/sells-group/portwatch-cli/pkg/hdx"
)

// Env carries the collaborators a dataset run needs.
type Env struct {
	Arc     *arcgis.Client
	HDX     hdx.Client
	Cfg     *config.Config
	TempDir string
	// ByYear publishes daily chokepoint data as one resource per year,
	// most recent year first, instead of a single CSV.
	ByYear bool
}

// Result summarizes one dataset run.
type Result struct {
	RowsFetched int
	Published   int
	Skipped     int
}

// Dataset is one publishable PortWatch dataset.
type Dataset interface {
	Name() string
	Run(ctx context.Context, env *Env) (*Result, error)
}

// logExtent logs the WGS84 extent of a staged feature collection.
func logExtent(log *zap.Logger, coll *feature.Collection) {
	bounds, err := feature.Bounds(coll)
	if err != nil {
		log.Warn("could not compute spatial extent", zap.Error(err))
		return
	}
	if bounds == nil {
		return
	}
	log.Info("spatial extent",
		zap.Float64("west", bounds.Min(0)),
		zap.Float64("south", bounds.Min(1)),
		zap.Float64("east", bounds.Max(0)),
		zap.Float64("north", bounds.Max(1)),
	)
}
