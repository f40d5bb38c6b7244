package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderMaterial is one stock item reserved against a service order.
// UnitPrice snapshots the stock item price at reservation time so later
// price changes do not move an already-sent budget.
type OrderMaterial struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_materials_order_item"`
	StockItemID uuid.UUID       `gorm:"column:stock_item_id;type:uuid;not null;uniqueIndex:ux_order_materials_order_item"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Returned    bool            `gorm:"column:returned;not null;default:false"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (OrderMaterial) TableName() string {
	return "order_materials"
}
