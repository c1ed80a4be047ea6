package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category groups menu products.
type Category struct {
	BaseModel
	Name     string    `json:"name"`
	Products []Product `json:"products,omitempty"`
}

// Product is a purchasable menu item. Orders never reference its live price.
type Product struct {
	BaseModel
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Image       *string         `json:"image"`
	IsActive    bool            `gorm:"not null;index" json:"isActive"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index" json:"categoryId"`
	Category    *Category       `json:"category,omitempty"`
}
