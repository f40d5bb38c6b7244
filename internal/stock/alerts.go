package stock

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/grupo95/mecanica-backend/pkg/enums"
	"github.com/grupo95/mecanica-backend/pkg/logger"
	"github.com/grupo95/mecanica-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// AlertTrigger is kicked after a failed reservation. Notify never blocks
// the caller on errors; Sweep is the synchronous form used by the cron
// worker.
type AlertTrigger interface {
	Notify(ctx context.Context)
	Sweep(ctx context.Context) error
}

// CriticalStockEvent is the payload queued per critical item.
type CriticalStockEvent struct {
	StockItemID       string    `json:"stockItemId"`
	Name              string    `json:"name"`
	QuantityAvailable int       `json:"quantityAvailable"`
	QuantityMinimum   int       `json:"quantityMinimum"`
	CheckedAt         time.Time `json:"checkedAt"`
}

type alertTrigger struct {
	logg   *logger.Logger
	db     txRunner
	repo   Repository
	outbox outboxEmitter
	now    func() time.Time
}

// NewAlertTrigger builds the asynchronous critical-stock notifier.
func NewAlertTrigger(logg *logger.Logger, db txRunner, repo Repository, emitter outboxEmitter) (AlertTrigger, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if db == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &alertTrigger{
		logg:   logg,
		db:     db,
		repo:   repo,
		outbox: emitter,
		now:    time.Now,
	}, nil
}

// Notify sweeps critical items and queues one alert event per item. It is
// safe to call from a goroutine; all failures are logged and swallowed.
func (t *alertTrigger) Notify(ctx context.Context) {
	// Detach from the caller's lifetime: the triggering request may have
	// finished long before the sweep completes.
	ctx = context.WithoutCancel(ctx)

	if err := t.Sweep(ctx); err != nil {
		t.logg.Error(ctx, "critical stock sweep failed", err)
	}
}

// Sweep queues one alert event per item currently at or below minimum.
func (t *alertTrigger) Sweep(ctx context.Context) error {
	items, err := t.repo.ListCritical(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	return t.db.WithTx(ctx, func(tx *gorm.DB) error {
		for _, item := range items {
			event := outbox.DomainEvent{
				EventType:     enums.EventStockCritical,
				AggregateType: enums.AggregateStockItem,
				AggregateID:   item.ID,
				Version:       1,
				OccurredAt:    t.now().UTC(),
				Data: CriticalStockEvent{
					StockItemID:       item.ID.String(),
					Name:              item.Name,
					QuantityAvailable: item.QuantityAvailable,
					QuantityMinimum:   item.QuantityMinimum,
					CheckedAt:         t.now().UTC(),
				},
			}
			if err := t.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
				return err
			}
		}
		logCtx := t.logg.WithField(ctx, "count", len(items))
		t.logg.Info(logCtx, "critical stock alerts queued")
		return nil
	})
}
