package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Engine orchestrates dataset runs.
type Engine struct {
	reg *Registry
	env *Env
}

// NewEngine creates a new batch engine.
func NewEngine(reg *Registry, env *Env) *Engine {
	return &Engine{reg: reg, env: env}
}

// Run iterates over the selected datasets and runs each one. A failing
// dataset is logged and counted; the remaining datasets still run.
func (e *Engine) Run(ctx context.Context, names []string) error {
	log := zap.L().With(zap.String("component", "pipeline.engine"))

	datasets, err := e.reg.Select(names)
	if err != nil {
		return err
	}

	if len(datasets) == 0 {
		log.Info("no datasets selected")
		return nil
	}

	log.Info("selected datasets", zap.Int("count", len(datasets)))

	var synced, failed int

	for _, ds := range datasets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dsLog := log.With(zap.String("dataset", ds.Name()))
		dsLog.Info("starting run")

		start := time.Now()
		result, err := ds.Run(ctx, e.env)
		elapsed := time.Since(start)

		if err != nil {
			dsLog.Error("run failed", zap.Error(err), zap.Duration("elapsed", elapsed))
			failed++
			continue
		}

		dsLog.Info("run complete",
			zap.Int("rows", result.RowsFetched),
			zap.Int("published", result.Published),
			zap.Int("skipped", result.Skipped),
			zap.Duration("elapsed", elapsed),
		)
		synced++
	}

	log.Info("engine run complete",
		zap.Int("synced", synced),
		zap.Int("failed", failed),
	)

	if failed > 0 {
		return eris.Errorf("pipeline: %d of %d datasets failed", failed, len(datasets))
	}
	return nil
}
