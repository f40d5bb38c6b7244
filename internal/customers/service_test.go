package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grupo95/mecanica-backend/pkg/db/models"
	pkgerrors "github.com/grupo95/mecanica-backend/pkg/errors"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := "file:customers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Customer{}, &models.Vehicle{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(NewRepository(db), nil), db
}

func TestCreateCustomerAndVehicle(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	customer, err := svc.Create(ctx, CreateCustomerInput{
		Name:     "Carla Mendes",
		Document: "11122233344",
		Email:    "carla@example.com",
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}

	vehicle, err := svc.AddVehicle(ctx, customer.ID, CreateVehicleInput{
		Plate: "abc1d23",
		Make:  "VW",
		Model: "Gol",
		Year:  2020,
	})
	if err != nil {
		t.Fatalf("add vehicle: %v", err)
	}
	if vehicle.Plate != "ABC1D23" {
		t.Fatalf("expected uppercased plate, got %q", vehicle.Plate)
	}

	loaded, err := svc.Get(ctx, customer.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(loaded.Vehicles) != 1 {
		t.Fatalf("expected 1 vehicle preloaded, got %d", len(loaded.Vehicles))
	}
}

func TestCreateCustomerDuplicateDocument(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	input := CreateCustomerInput{Name: "Diego Rocha", Document: "55566677788"}
	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, input)
	if !pkgerrors.HasCode(err, pkgerrors.CodeAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestAddVehicleUnknownCustomer(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.AddVehicle(context.Background(), uuid.New(), CreateVehicleInput{Plate: "XYZ9A88"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateCustomer(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	customer, err := svc.Create(ctx, CreateCustomerInput{Name: "Elisa Prado", Document: "99988877766"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	phone := "+55 11 90000-0000"
	updated, err := svc.Update(ctx, customer.ID, UpdateCustomerInput{Phone: &phone})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Phone != phone || updated.Name != "Elisa Prado" {
		t.Fatalf("unexpected customer: %+v", updated)
	}

	_, err = svc.Update(ctx, customer.ID, UpdateCustomerInput{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
