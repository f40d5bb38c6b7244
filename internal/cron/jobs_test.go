package cron

import (
	"context"
	"errors"
	"testing"
)

type stubBudgetSweeper struct {
	expired int
	err     error
	calls   int
}

func (s *stubBudgetSweeper) ExpireStaleBudgets(ctx context.Context) (int, error) {
	s.calls++
	return s.expired, s.err
}

type stubStockSweeper struct {
	err   error
	calls int
}

func (s *stubStockSweeper) Sweep(ctx context.Context) error {
	s.calls++
	return s.err
}

func TestBudgetExpirationJob(t *testing.T) {
	t.Parallel()

	sweeper := &stubBudgetSweeper{expired: 3}
	job, err := NewBudgetExpirationJob(BudgetExpirationJobParams{
		Logger:  newTestLogger(),
		Sweeper: sweeper,
	})
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	if job.Name() != "budget-expiration" {
		t.Fatalf("unexpected name %q", job.Name())
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sweeper.calls != 1 {
		t.Fatalf("expected 1 sweep, got %d", sweeper.calls)
	}
}

func TestBudgetExpirationJobPropagatesError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("db down")
	job, err := NewBudgetExpirationJob(BudgetExpirationJobParams{
		Logger:  newTestLogger(),
		Sweeper: &stubBudgetSweeper{err: wantErr},
	})
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	if err := job.Run(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped sweep error, got %v", err)
	}
}

func TestCriticalStockJob(t *testing.T) {
	t.Parallel()

	sweeper := &stubStockSweeper{}
	job, err := NewCriticalStockJob(CriticalStockJobParams{
		Logger:  newTestLogger(),
		Sweeper: sweeper,
	})
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	if job.Name() != "critical-stock" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sweeper.calls != 1 {
		t.Fatalf("expected 1 sweep, got %d", sweeper.calls)
	}

	wantErr := errors.New("redis down")
	failing, err := NewCriticalStockJob(CriticalStockJobParams{
		Logger:  newTestLogger(),
		Sweeper: &stubStockSweeper{err: wantErr},
	})
	if err != nil {
		t.Fatalf("build failing job: %v", err)
	}
	if err := failing.Run(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped sweep error, got %v", err)
	}
}

func TestJobConstructorsRequireDeps(t *testing.T) {
	t.Parallel()

	if _, err := NewBudgetExpirationJob(BudgetExpirationJobParams{Logger: newTestLogger()}); err == nil {
		t.Fatal("expected error without sweeper")
	}
	if _, err := NewBudgetExpirationJob(BudgetExpirationJobParams{Sweeper: &stubBudgetSweeper{}}); err == nil {
		t.Fatal("expected error without logger")
	}
	if _, err := NewCriticalStockJob(CriticalStockJobParams{Logger: newTestLogger()}); err == nil {
		t.Fatal("expected error without sweeper")
	}
}
