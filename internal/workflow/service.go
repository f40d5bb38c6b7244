package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/grupo95/mecanica-backend/internal/stock"
	"github.com/grupo95/mecanica-backend/pkg/db/models"
	"github.com/grupo95/mecanica-backend/pkg/enums"
	pkgerrors "github.com/grupo95/mecanica-backend/pkg/errors"
	"github.com/grupo95/mecanica-backend/pkg/logger"
	"github.com/grupo95/mecanica-backend/pkg/outbox"
)

// TxRunner opens the unit-of-work boundary every mutation runs inside.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// EventPublisher queues lifecycle events inside the mutation's transaction.
type EventPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service drives a repair order from intake to completion.
type Service struct {
	logg           *logger.Logger
	db             TxRunner
	repo           Repository
	customers      CustomerGateway
	catalog        CatalogGateway
	events         EventPublisher
	alerts         stock.AlertTrigger
	budgetValidity time.Duration

	// now is swapped in tests to drive the expiration window.
	now func() time.Time
}

// Options wires the workflow service.
type Options struct {
	Logger         *logger.Logger
	DB             TxRunner
	Repository     Repository
	Customers      CustomerGateway
	Catalog        CatalogGateway
	Events         EventPublisher
	Alerts         stock.AlertTrigger
	BudgetValidity time.Duration
	Now            func() time.Time
}

func NewService(opts Options) (*Service, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if opts.Repository == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if opts.Customers == nil {
		return nil, fmt.Errorf("customer gateway required")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog gateway required")
	}
	if opts.Events == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	if opts.BudgetValidity <= 0 {
		opts.BudgetValidity = DefaultBudgetValidity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		logg:           opts.Logger,
		db:             opts.DB,
		repo:           opts.Repository,
		customers:      opts.Customers,
		catalog:        opts.Catalog,
		events:         opts.Events,
		alerts:         opts.Alerts,
		budgetValidity: opts.BudgetValidity,
		now:            opts.Now,
	}, nil
}

// Create opens a new order in the received status after checking that the
// customer owns the vehicle and the quoted service is offered.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (*models.ServiceOrder, error) {
	if input.CustomerID == uuid.Nil || input.VehicleID == uuid.Nil || input.ServiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer, vehicle and service ids required")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description required")
	}

	if err := s.customers.CustomerOwnsVehicle(ctx, input.CustomerID, input.VehicleID); err != nil {
		return nil, err
	}
	service, err := s.catalog.FindService(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}
	if !service.Available {
		return nil, pkgerrors.New(pkgerrors.CodeServiceUnavailable, "catalog service is not available")
	}

	order := &models.ServiceOrder{
		ID:          uuid.New(),
		CustomerID:  input.CustomerID,
		VehicleID:   input.VehicleID,
		ServiceID:   input.ServiceID,
		Description: description,
		Status:      enums.OrderStatusReceived,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, s.lifecycleEvent(enums.EventOrderCreated, order))
	})
	if err != nil {
		return nil, err
	}

	s.logOrder(ctx, order, "service order created")
	return order, nil
}

// AttachMaterials reserves the requested stock against the order, all or
// nothing, and moves a freshly received order into diagnosis. A failed
// reservation leaves both the order and every stock row untouched and kicks
// the critical-stock check in the background.
func (s *Service) AttachMaterials(ctx context.Context, orderID uuid.UUID, requests []MaterialRequest) (*models.ServiceOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	reservations := make([]stock.ReservationRequest, len(requests))
	for i, req := range requests {
		reservations[i] = stock.ReservationRequest{StockItemID: req.StockItemID, Quantity: req.Quantity}
	}

	var order *models.ServiceOrder
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		loaded, err := txRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !loaded.Status.AllowsMaterialAttach() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("materials cannot be attached in status %s", loaded.Status))
		}

		materials, err := stock.Reserve(ctx, tx, loaded.ID, reservations)
		if err != nil {
			return err
		}

		if loaded.Status == enums.OrderStatusReceived {
			loaded.Status = enums.OrderStatusInDiagnosis
		}
		if err := txRepo.Save(ctx, loaded); err != nil {
			return err
		}
		if err := s.events.EmitIfNotExists(ctx, tx, s.lifecycleEvent(enums.EventOrderInDiagnosis, loaded)); err != nil {
			return err
		}

		loaded.Materials = append(loaded.Materials, materials...)
		order = loaded
		return nil
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) && s.alerts != nil {
			// Fire and forget: the caller's error never depends on the
			// alert sweep finishing or failing.
			go s.alerts.Notify(ctx)
		}
		return nil, err
	}

	s.logOrder(ctx, order, "materials attached")
	return order, nil
}

// SendBudget totals the quoted service plus reserved materials, stamps the
// send time and moves the order to awaiting approval.
func (s *Service) SendBudget(ctx context.Context, orderID uuid.UUID) (*models.ServiceOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var order *models.ServiceOrder
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		loaded, err := txRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if loaded.Status != enums.OrderStatusInDiagnosis {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("budget cannot be sent in status %s", loaded.Status))
		}

		service, err := s.catalog.FindService(ctx, loaded.ServiceID)
		if err != nil {
			return err
		}

		total := service.BasePrice
		for _, material := range loaded.Materials {
			if material.Returned {
				continue
			}
			total = total.Add(material.UnitPrice.Mul(decimal.NewFromInt(int64(material.Quantity))))
		}

		sentAt := s.now().UTC()
		loaded.Budget = &total
		loaded.BudgetSentAt = &sentAt
		loaded.Status = enums.OrderStatusAwaitingApproval
		if err := txRepo.Save(ctx, loaded); err != nil {
			return err
		}
		if err := s.events.Emit(ctx, tx, s.lifecycleEvent(enums.EventOrderInBudget, loaded)); err != nil {
			return err
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logOrder(ctx, order, "budget sent")
	return order, nil
}

// AcceptBudget moves an awaiting order into execution. A stale budget is
// expired and persisted first, then the caller gets the expiration error:
// the recorded expiration survives even though the accept fails.
func (s *Service) AcceptBudget(ctx context.Context, orderID uuid.UUID) (*models.ServiceOrder, error) {
	return s.resolveBudget(ctx, orderID, true)
}

// RejectBudget cancels an awaiting order. Stale budgets expire the same
// way they do on accept.
func (s *Service) RejectBudget(ctx context.Context, orderID uuid.UUID) (*models.ServiceOrder, error) {
	return s.resolveBudget(ctx, orderID, false)
}

func (s *Service) resolveBudget(ctx context.Context, orderID uuid.UUID, accept bool) (*models.ServiceOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch EvaluateBudget(order.Status, order.BudgetSentAt, s.now(), s.budgetValidity) {
	case BudgetAlreadyExpired:
		return nil, pkgerrors.New(pkgerrors.CodeBudgetExpired, "budget already expired")
	case BudgetShouldExpire:
		if err := s.expireBudget(ctx, order); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeBudgetExpired, "budget validity window has passed")
	}

	// Re-accepting an order already in execution is a no-op success.
	if accept && order.Status == enums.OrderStatusInExecution {
		return order, nil
	}
	if order.Status != enums.OrderStatusAwaitingApproval {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("budget cannot be resolved in status %s", order.Status))
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if accept {
			order.Status = enums.OrderStatusInExecution
			return txRepo.Save(ctx, order)
		}
		order.Status = enums.OrderStatusCancelled
		if err := txRepo.Save(ctx, order); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, s.lifecycleEvent(enums.EventOrderCancelled, order))
	})
	if err != nil {
		return nil, err
	}

	if accept {
		s.logOrder(ctx, order, "budget accepted")
	} else {
		s.logOrder(ctx, order, "budget rejected")
	}
	return order, nil
}

// expireBudget records the expiration in its own transaction so the
// transition is durable before the caller sees the error.
func (s *Service) expireBudget(ctx context.Context, order *models.ServiceOrder) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order.Status = enums.OrderStatusBudgetExpired
		if err := txRepo.Save(ctx, order); err != nil {
			return err
		}
		return s.events.EmitIfNotExists(ctx, tx, s.lifecycleEvent(enums.EventOrderBudgetExpired, order))
	})
	if err != nil {
		return err
	}
	s.logOrder(ctx, order, "budget expired")
	return nil
}

// ExpireStaleBudgets sweeps awaiting-approval orders whose window has
// passed and expires each one. Returns how many orders were expired.
func (s *Service) ExpireStaleBudgets(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.budgetValidity)
	orders, err := s.repo.ListExpirable(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	var errs []error
	for i := range orders {
		if err := s.expireBudget(ctx, &orders[i]); err != nil {
			// A conflict means someone resolved the order mid-sweep;
			// skip it and keep walking.
			if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
				continue
			}
			errs = append(errs, fmt.Errorf("order %s: %w", orders[i].ID, err))
			continue
		}
		expired++
	}
	return expired, multierr.Combine(errs...)
}

// Update applies the administrative partial update. Terminal orders are
// immutable and awaiting approval is only reachable through SendBudget.
func (s *Service) Update(ctx context.Context, orderID uuid.UUID, input UpdateOrderInput) (*models.ServiceOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var newStatus *enums.OrderStatus
	if input.Status != nil {
		parsed, err := enums.ParseOrderStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		if parsed == enums.OrderStatusAwaitingApproval {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "awaiting approval is set by sending a budget")
		}
		newStatus = &parsed
	}

	var order *models.ServiceOrder
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		loaded, err := txRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if loaded.Status.IsTerminal() && newStatus != nil && *newStatus != loaded.Status {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in terminal status %s cannot change status", loaded.Status))
		}

		if input.CustomerID != nil || input.VehicleID != nil {
			customerID := loaded.CustomerID
			vehicleID := loaded.VehicleID
			if input.CustomerID != nil {
				customerID = *input.CustomerID
			}
			if input.VehicleID != nil {
				vehicleID = *input.VehicleID
			}
			if err := s.customers.CustomerOwnsVehicle(ctx, customerID, vehicleID); err != nil {
				return err
			}
			loaded.CustomerID = customerID
			loaded.VehicleID = vehicleID
		}
		if input.ServiceID != nil {
			service, err := s.catalog.FindService(ctx, *input.ServiceID)
			if err != nil {
				return err
			}
			if !service.Available {
				return pkgerrors.New(pkgerrors.CodeServiceUnavailable, "catalog service is not available")
			}
			loaded.ServiceID = *input.ServiceID
		}
		if input.Description != nil {
			description := strings.TrimSpace(*input.Description)
			if description == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "description must not be empty")
			}
			loaded.Description = description
		}
		if newStatus != nil {
			loaded.Status = *newStatus
		}

		if err := txRepo.Save(ctx, loaded); err != nil {
			return err
		}
		if event, ok := updateEvent(loaded.Status); ok {
			if err := s.events.EmitIfNotExists(ctx, tx, s.lifecycleEvent(event, loaded)); err != nil {
				return err
			}
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logOrder(ctx, order, "service order updated")
	return order, nil
}

// ReturnMaterialsToStock credits every reserved material of a cancelled or
// expired order back to stock. Running it twice credits nothing extra.
func (s *Service) ReturnMaterialsToStock(ctx context.Context, orderID uuid.UUID) (*models.ServiceOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var order *models.ServiceOrder
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		loaded, err := txRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if loaded.Status != enums.OrderStatusCancelled && loaded.Status != enums.OrderStatusBudgetExpired {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("materials can only be returned for cancelled orders, status is %s", loaded.Status))
		}

		released, err := stock.Release(ctx, tx, loaded.Materials)
		if err != nil {
			return err
		}
		for i := range loaded.Materials {
			loaded.Materials[i].Returned = true
		}
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_id": loaded.ID.String(),
				"released": released,
			})
			s.logg.Info(logCtx, "materials returned to stock")
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Get loads one order with its materials.
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*models.ServiceOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.repo.FindByID(ctx, orderID)
}

// List returns orders matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.ServiceOrder, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) lifecycleEvent(eventType enums.OutboxEventType, order *models.ServiceOrder) outbox.DomainEvent {
	at := s.now().UTC()
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateServiceOrder,
		AggregateID:   order.ID,
		Version:       1,
		OccurredAt:    at,
		Data:          eventPayload(order, at),
	}
}

func updateEvent(status enums.OrderStatus) (enums.OutboxEventType, bool) {
	switch status {
	case enums.OrderStatusInDiagnosis:
		return enums.EventOrderInDiagnosis, true
	case enums.OrderStatusCancelled:
		return enums.EventOrderCancelled, true
	case enums.OrderStatusFinalized:
		return enums.EventOrderFinalized, true
	default:
		return "", false
	}
}

func (s *Service) logOrder(ctx context.Context, order *models.ServiceOrder, msg string) {
	if s.logg == nil || order == nil {
		return
	}
	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	logCtx = s.logg.WithField(logCtx, "status", order.Status.String())
	s.logg.Info(logCtx, msg)
}
