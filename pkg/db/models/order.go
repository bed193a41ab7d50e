package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karibu-app/karibu-backend/pkg/enums"
)

// Order is a submitted cart snapshot relayed to the restaurant.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number          string               `gorm:"column:number;not null"`
	RestaurantID    uuid.UUID            `gorm:"column:restaurant_id;type:uuid;not null;index"`
	CustomerID      *uuid.UUID           `gorm:"column:customer_id;type:uuid;index"`
	GuestName       string               `gorm:"column:guest_name"`
	GuestPhone      string               `gorm:"column:guest_phone"`
	DeliveryOption  enums.DeliveryOption `gorm:"column:delivery_option;not null"`
	DeliveryAddress string               `gorm:"column:delivery_address"`
	Note            string               `gorm:"column:note"`
	Subtotal        decimal.Decimal      `gorm:"column:subtotal;type:numeric(10,2);not null"`
	DeliveryFee     decimal.Decimal      `gorm:"column:delivery_fee;type:numeric(10,2);not null"`
	DiscountCode    string               `gorm:"column:discount_code"`
	DiscountAmount  decimal.Decimal      `gorm:"column:discount_amount;type:numeric(10,2);not null"`
	Total           decimal.Decimal      `gorm:"column:total;type:numeric(10,2);not null"`
	Status          enums.OrderStatus    `gorm:"column:status;not null;default:'pending'"`
	Items           []OrderLineItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
