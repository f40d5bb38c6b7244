package stock

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grupo95/mecanica-backend/pkg/db/models"
	"github.com/grupo95/mecanica-backend/pkg/enums"
	pkgerrors "github.com/grupo95/mecanica-backend/pkg/errors"
	"github.com/grupo95/mecanica-backend/pkg/logger"
	"github.com/grupo95/mecanica-backend/pkg/outbox"
)

func TestServiceCreateAndGet(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)

	created, err := svc.CreateItem(context.Background(), CreateItemInput{
		Name:              "  timing belt ",
		Description:       "reinforced",
		UnitPrice:         decimal.NewFromFloat(89.90),
		QuantityAvailable: 12,
		QuantityMinimum:   4,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "timing belt" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}

	loaded, err := svc.GetItem(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.QuantityAvailable != 12 || loaded.QuantityMinimum != 4 {
		t.Fatalf("unexpected quantities: %+v", loaded)
	}
}

func TestServiceCreateValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)

	cases := []struct {
		name  string
		input CreateItemInput
	}{
		{"empty name", CreateItemInput{Name: "  ", UnitPrice: decimal.NewFromInt(1)}},
		{"negative price", CreateItemInput{Name: "bolt", UnitPrice: decimal.NewFromInt(-1)}},
		{"negative quantity", CreateItemInput{Name: "bolt", UnitPrice: decimal.NewFromInt(1), QuantityAvailable: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateItem(context.Background(), tc.input)
			if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestServiceUpdatePartial(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)
	item := seedItem(t, db, "radiator cap", 5, 2)

	minimum := 3
	updated, err := svc.UpdateItem(context.Background(), item.ID, UpdateItemInput{
		QuantityMinimum: &minimum,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.QuantityMinimum != 3 {
		t.Fatalf("expected minimum 3, got %d", updated.QuantityMinimum)
	}
	if updated.QuantityAvailable != 5 || updated.Name != "radiator cap" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}

	_, err = svc.UpdateItem(context.Background(), item.ID, UpdateItemInput{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty update, got %v", err)
	}

	_, err = svc.UpdateItem(context.Background(), uuid.New(), UpdateItemInput{QuantityMinimum: &minimum})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceListCritical(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)
	seedItem(t, db, "healthy", 10, 2)
	critical := seedItem(t, db, "low", 2, 2)
	empty := seedItem(t, db, "out", 0, 1)

	items, err := svc.ListCriticalItems(context.Background())
	if err != nil {
		t.Fatalf("list critical: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 critical items, got %d", len(items))
	}
	found := map[uuid.UUID]bool{}
	for _, item := range items {
		found[item.ID] = true
		if !item.IsCritical() {
			t.Fatalf("non-critical item returned: %+v", item)
		}
	}
	if !found[critical.ID] || !found[empty.ID] {
		t.Fatalf("missing critical items: %v", found)
	}
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{ServiceName: "stock-test", Output: io.Discard})
}

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func TestAlertTriggerQueuesOnePerItem(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	emitter := outbox.NewService(outbox.NewRepository(db), nil)
	critical := seedItem(t, db, "low stock", 1, 2)
	seedItem(t, db, "fine", 10, 2)

	trigger, err := NewAlertTrigger(newTestLogger(t), testTxRunner{db}, repo, emitter)
	if err != nil {
		t.Fatalf("build trigger: %v", err)
	}

	trigger.Notify(context.Background())
	// Notify again: the dedupe keeps the queue at one event per item.
	trigger.Notify(context.Background())

	var events []models.OutboxEvent
	err = db.Where("event_type = ?", enums.EventStockCritical).Find(&events).Error
	if err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 alert event, got %d", len(events))
	}
	if events[0].AggregateID != critical.ID {
		t.Fatalf("alert for wrong item: %s", events[0].AggregateID)
	}
	if events[0].AggregateType != enums.AggregateStockItem {
		t.Fatalf("unexpected aggregate type: %s", events[0].AggregateType)
	}
}

func TestAlertTriggerNoCriticalItems(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	emitter := outbox.NewService(outbox.NewRepository(db), nil)
	seedItem(t, db, "plenty", 50, 5)

	trigger, err := NewAlertTrigger(newTestLogger(t), testTxRunner{db}, repo, emitter)
	if err != nil {
		t.Fatalf("build trigger: %v", err)
	}
	trigger.Notify(context.Background())

	var count int64
	if err := db.Model(&models.OutboxEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no events, got %d", count)
	}
}
