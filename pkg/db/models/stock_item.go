package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockItem tracks the available/minimum quantities per part.
type StockItem struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name              string          `gorm:"column:name;not null"`
	Description       string          `gorm:"column:description"`
	UnitPrice         decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	QuantityAvailable int             `gorm:"column:quantity_available;not null;default:0"`
	QuantityMinimum   int             `gorm:"column:quantity_minimum;not null;default:0"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (StockItem) TableName() string {
	return "stock_items"
}

// IsCritical reports whether available stock sits at or below the minimum.
func (s StockItem) IsCritical() bool {
	return s.QuantityAvailable <= s.QuantityMinimum
}
