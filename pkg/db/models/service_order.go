package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grupo95/mecanica-backend/pkg/enums"
)

// ServiceOrder is the workflow aggregate for one repair job.
//
// RowVersion guards concurrent saves: writers assert the version they
// loaded and bump it, so a stale writer loses instead of overwriting.
type ServiceOrder struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID   uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	VehicleID    uuid.UUID         `gorm:"column:vehicle_id;type:uuid;not null"`
	ServiceID    uuid.UUID         `gorm:"column:service_id;type:uuid;not null"`
	Description  string            `gorm:"column:description;not null"`
	Status       enums.OrderStatus `gorm:"column:status;not null;default:'received';index"`
	Budget       *decimal.Decimal  `gorm:"column:budget;type:numeric(12,2)"`
	BudgetSentAt *time.Time        `gorm:"column:budget_sent_at"`
	RowVersion   int64             `gorm:"column:row_version;not null;default:1"`
	Materials    []OrderMaterial   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (ServiceOrder) TableName() string {
	return "service_orders"
}
