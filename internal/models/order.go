package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus tracks an order through the kitchen and delivery.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodOnline PaymentMethod = "ONLINE"
)

// PaymentStatus is driven by a payment gateway; orders only ever create PENDING.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

type Order struct {
	BaseModel
	UserID          uuid.UUID       `gorm:"type:uuid;index;not null" json:"userId"`
	User            *User           `json:"user,omitempty"`
	CustomerName    string          `gorm:"size:100" json:"customerName"`
	CustomerPhone   string          `gorm:"size:20;index" json:"customerPhone"`
	CustomerEmail   *string         `gorm:"size:255" json:"customerEmail"`
	DeliveryAddress string          `json:"deliveryAddress"`
	PaymentMethod   PaymentMethod   `gorm:"size:16" json:"paymentMethod"`
	Status          OrderStatus     `gorm:"size:16;index;default:PENDING" json:"status"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Items           []OrderItem     `json:"items,omitempty"`
	Payment         *Payment        `json:"payment,omitempty"`
}

type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"orderId"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null" json:"productId"`
	Product   *Product        `json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

type Payment struct {
	BaseModel
	OrderID uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"orderId"`
	Amount  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method  PaymentMethod   `gorm:"size:16" json:"method"`
	Status  PaymentStatus   `gorm:"size:16;default:PENDING" json:"status"`
}
