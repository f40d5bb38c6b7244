package cron

import (
	"context"
	"fmt"

	"github.com/grupo95/mecanica-backend/pkg/logger"
)

const budgetExpirationJobName = "budget-expiration"

// budgetSweeper walks awaiting-approval orders and expires stale budgets.
type budgetSweeper interface {
	ExpireStaleBudgets(ctx context.Context) (int, error)
}

// BudgetExpirationJobParams configure the expiration sweep.
type BudgetExpirationJobParams struct {
	Logger  *logger.Logger
	Sweeper budgetSweeper
}

// NewBudgetExpirationJob builds the job that expires budgets past their
// validity window so abandoned orders do not sit in awaiting approval
// forever.
func NewBudgetExpirationJob(params BudgetExpirationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("budget sweeper required")
	}
	return &budgetExpirationJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
	}, nil
}

type budgetExpirationJob struct {
	logg    *logger.Logger
	sweeper budgetSweeper
}

func (j *budgetExpirationJob) Name() string {
	return budgetExpirationJobName
}

func (j *budgetExpirationJob) Run(ctx context.Context) error {
	expired, err := j.sweeper.ExpireStaleBudgets(ctx)
	if err != nil {
		return fmt.Errorf("expire stale budgets: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "expired", expired)
	j.logg.Info(logCtx, "budget expiration sweep finished")
	return nil
}
