package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer owns vehicles and requests service orders.
type Customer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Document  string    `gorm:"column:document;not null;uniqueIndex"`
	Email     string    `gorm:"column:email"`
	Phone     string    `gorm:"column:phone"`
	Vehicles  []Vehicle `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Customer) TableName() string {
	return "customers"
}
