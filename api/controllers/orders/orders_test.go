package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grupo95/mecanica-backend/internal/workflow"
	"github.com/grupo95/mecanica-backend/pkg/db/models"
	"github.com/grupo95/mecanica-backend/pkg/logger"
	"github.com/grupo95/mecanica-backend/pkg/outbox"
	"github.com/grupo95/mecanica-backend/pkg/types"
)

type testEnv struct {
	router   http.Handler
	db       *gorm.DB
	customer models.Customer
	vehicle  models.Vehicle
	service  models.CatalogService
	item     models.StockItem
}

type txRunner struct {
	db *gorm.DB
}

func (r txRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:orders_api_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Customer{},
		&models.Vehicle{},
		&models.CatalogService{},
		&models.StockItem{},
		&models.ServiceOrder{},
		&models.OrderMaterial{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	customer := models.Customer{ID: uuid.New(), Name: "Joana Reis", Document: "32165498700"}
	vehicle := models.Vehicle{ID: uuid.New(), CustomerID: customer.ID, Plate: "QWE4R56"}
	service := models.CatalogService{ID: uuid.New(), Name: "suspension check", BasePrice: decimal.NewFromInt(200), Available: true}
	item := models.StockItem{ID: uuid.New(), Name: "shock absorber", UnitPrice: decimal.NewFromInt(50), QuantityAvailable: 6, QuantityMinimum: 2}
	for _, seed := range []any{&customer, &vehicle, &service, &item} {
		if err := db.Create(seed).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	logg := logger.New(logger.Options{ServiceName: "orders-api-test", Output: io.Discard})
	svc, err := workflow.NewService(workflow.Options{
		Logger:         logg,
		DB:             txRunner{db},
		Repository:     workflow.NewRepository(db),
		Customers:      workflow.NewCustomerGateway(db),
		Catalog:        workflow.NewCatalogGateway(db),
		Events:         outbox.NewService(outbox.NewRepository(db), nil),
		BudgetValidity: 72 * time.Hour,
	})
	if err != nil {
		t.Fatalf("build workflow service: %v", err)
	}

	r := chi.NewRouter()
	r.Post("/orders", Create(svc, nil))
	r.Get("/orders/{orderID}", Detail(svc, nil))
	r.Post("/orders/{orderID}/materials", AttachMaterials(svc, nil))
	r.Post("/orders/{orderID}/budget", SendBudget(svc, nil))
	r.Post("/orders/{orderID}/budget/accept", AcceptBudget(svc, nil))

	return &testEnv{router: r, db: db, customer: customer, vehicle: vehicle, service: service, item: item}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope types.SuccessEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	order, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload: %#v", envelope.Data)
	}
	return order
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/orders", map[string]any{
		"customerId":  env.customer.ID.String(),
		"vehicleId":   env.vehicle.ID.String(),
		"serviceId":   env.service.ID.String(),
		"description": "front end noise",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	orderID := decodeOrder(t, rec)["ID"]
	if orderID == nil {
		t.Fatalf("missing order id in %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/orders/%v/materials", orderID), map[string]any{
		"materials": []map[string]any{
			{"stockItemId": env.item.ID.String(), "quantity": 2},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("attach: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/orders/%v/budget", orderID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("budget: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/orders/%v/budget/accept", orderID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/orders/%v", orderID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("detail: expected 200, got %d", rec.Code)
	}
	order := decodeOrder(t, rec)
	if order["Status"] != "in_execution" {
		t.Fatalf("expected in_execution, got %v", order["Status"])
	}
}

func TestAttachInsufficientStockOverHTTP(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/orders", map[string]any{
		"customerId":  env.customer.ID.String(),
		"vehicleId":   env.vehicle.ID.String(),
		"serviceId":   env.service.ID.String(),
		"description": "rattling noise",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	orderID := decodeOrder(t, rec)["ID"]

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/orders/%v/materials", orderID), map[string]any{
		"materials": []map[string]any{
			{"stockItemId": env.item.ID.String(), "quantity": 99},
		},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if envelope.Error.Code != "INSUFFICIENT_STOCK" {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %s", envelope.Error.Code)
	}
	if envelope.Error.Details == nil {
		t.Fatal("expected shortage details")
	}

	var reloaded models.StockItem
	if err := env.db.First(&reloaded, "id = ?", env.item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if reloaded.QuantityAvailable != 6 {
		t.Fatalf("stock must be untouched, got %d", reloaded.QuantityAvailable)
	}
}

func TestCreateOrderValidationOverHTTP(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/orders", map[string]any{
		"vehicleId":   env.vehicle.ID.String(),
		"serviceId":   env.service.ID.String(),
		"description": "no customer",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
