package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grupo95/mecanica-backend/pkg/db/models"
)

// CreateOrderInput opens a new service order.
type CreateOrderInput struct {
	CustomerID  uuid.UUID `json:"customerId" validate:"required"`
	VehicleID   uuid.UUID `json:"vehicleId" validate:"required"`
	ServiceID   uuid.UUID `json:"serviceId" validate:"required"`
	Description string    `json:"description" validate:"required,min=3,max=1000"`
}

// MaterialRequest is one (stock item, quantity) pair to attach.
type MaterialRequest struct {
	StockItemID uuid.UUID `json:"stockItemId" validate:"required"`
	Quantity    int       `json:"quantity" validate:"required,gt=0"`
}

// UpdateOrderInput carries the administrative partial update; nil fields
// are left untouched.
type UpdateOrderInput struct {
	CustomerID  *uuid.UUID `json:"customerId"`
	VehicleID   *uuid.UUID `json:"vehicleId"`
	ServiceID   *uuid.UUID `json:"serviceId"`
	Description *string    `json:"description" validate:"omitempty,min=3,max=1000"`
	Status      *string    `json:"status"`
}

// OrderEventPayload is the data section of every order lifecycle event.
type OrderEventPayload struct {
	OrderID    string           `json:"orderId"`
	CustomerID string           `json:"customerId"`
	Status     string           `json:"status"`
	Budget     *decimal.Decimal `json:"budget,omitempty"`
	OccurredAt time.Time        `json:"occurredAt"`
}

func eventPayload(order *models.ServiceOrder, at time.Time) OrderEventPayload {
	return OrderEventPayload{
		OrderID:    order.ID.String(),
		CustomerID: order.CustomerID.String(),
		Status:     order.Status.String(),
		Budget:     order.Budget,
		OccurredAt: at.UTC(),
	}
}
