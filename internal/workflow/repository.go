package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupo95/mecanica-backend/pkg/db/models"
	"github.com/grupo95/mecanica-backend/pkg/enums"
	pkgerrors "github.com/grupo95/mecanica-backend/pkg/errors"
)

// Repository defines persistence for service orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error)
	Create(ctx context.Context, order *models.ServiceOrder) (*models.ServiceOrder, error)
	Save(ctx context.Context, order *models.ServiceOrder) error
	List(ctx context.Context, filter ListFilter) ([]models.ServiceOrder, error)
	ListExpirable(ctx context.Context, cutoff time.Time) ([]models.ServiceOrder, error)
}

// ListFilter narrows order listings.
type ListFilter struct {
	CustomerID *uuid.UUID
	Status     *enums.OrderStatus
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error) {
	var order models.ServiceOrder
	err := r.db.WithContext(ctx).
		Preload("Materials").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service order")
	}
	return &order, nil
}

func (r *repository) Create(ctx context.Context, order *models.ServiceOrder) (*models.ServiceOrder, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.RowVersion == 0 {
		order.RowVersion = 1
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create service order")
	}
	return order, nil
}

// Save writes the order's mutable fields guarded by the row version the
// caller loaded. A stale version updates zero rows and maps to a conflict,
// so two racing writers cannot silently overwrite each other.
func (r *repository) Save(ctx context.Context, order *models.ServiceOrder) error {
	loadedVersion := order.RowVersion
	res := r.db.WithContext(ctx).
		Model(&models.ServiceOrder{}).
		Where("id = ? AND row_version = ?", order.ID, loadedVersion).
		Updates(map[string]any{
			"customer_id":    order.CustomerID,
			"vehicle_id":     order.VehicleID,
			"service_id":     order.ServiceID,
			"description":    order.Description,
			"status":         order.Status,
			"budget":         order.Budget,
			"budget_sent_at": order.BudgetSentAt,
			"row_version":    loadedVersion + 1,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "save service order")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "service order modified concurrently")
	}
	order.RowVersion = loadedVersion + 1
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.ServiceOrder, error) {
	query := r.db.WithContext(ctx).Preload("Materials").Order("created_at DESC")
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	var orders []models.ServiceOrder
	if err := query.Find(&orders).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list service orders")
	}
	return orders, nil
}

// ListExpirable returns awaiting-approval orders whose budget was sent at
// or before the cutoff. Used by the expiration sweep.
func (r *repository) ListExpirable(ctx context.Context, cutoff time.Time) ([]models.ServiceOrder, error) {
	var orders []models.ServiceOrder
	err := r.db.WithContext(ctx).
		Where("status = ? AND budget_sent_at IS NOT NULL AND budget_sent_at <= ?", enums.OrderStatusAwaitingApproval, cutoff).
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expirable orders")
	}
	return orders, nil
}
