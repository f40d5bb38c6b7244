package cron

import (
	"context"
	"fmt"

	"github.com/grupo95/mecanica-backend/pkg/logger"
)

const criticalStockJobName = "critical-stock"

// stockSweeper queues alerts for items at or below their minimum.
type stockSweeper interface {
	Sweep(ctx context.Context) error
}

// CriticalStockJobParams configure the periodic stock check.
type CriticalStockJobParams struct {
	Logger  *logger.Logger
	Sweeper stockSweeper
}

// NewCriticalStockJob builds the job that re-checks stock levels on a
// schedule, catching items that went critical without a failed
// reservation ever firing the asynchronous trigger.
func NewCriticalStockJob(params CriticalStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("stock sweeper required")
	}
	return &criticalStockJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
	}, nil
}

type criticalStockJob struct {
	logg    *logger.Logger
	sweeper stockSweeper
}

func (j *criticalStockJob) Name() string {
	return criticalStockJobName
}

func (j *criticalStockJob) Run(ctx context.Context) error {
	if err := j.sweeper.Sweep(ctx); err != nil {
		return fmt.Errorf("critical stock sweep: %w", err)
	}
	j.logg.Info(ctx, "critical stock sweep finished")
	return nil
}
