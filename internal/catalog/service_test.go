package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grupo95/mecanica-backend/pkg/db/models"
	pkgerrors "github.com/grupo95/mecanica-backend/pkg/errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.CatalogService{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db, nil)
}

func TestCatalogLifecycle(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateServiceInput{
		Name:      "brake inspection",
		BasePrice: decimal.NewFromInt(80),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Available {
		t.Fatal("services default to available")
	}

	unavailable := false
	updated, err := svc.Update(ctx, created.ID, UpdateServiceInput{Available: &unavailable})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Available {
		t.Fatal("expected service unavailable after update")
	}

	all, err := svc.List(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 service, got %d", len(all))
	}
	quotable, err := svc.List(ctx, true)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(quotable) != 0 {
		t.Fatalf("expected no quotable services, got %d", len(quotable))
	}
}

func TestCatalogValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateServiceInput{Name: " ", BasePrice: decimal.NewFromInt(10)})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.Create(ctx, CreateServiceInput{Name: "alignment", BasePrice: decimal.NewFromInt(-10)})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
	_, err = svc.Get(ctx, uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
