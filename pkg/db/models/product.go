package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a menu entry owned by a restaurant.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID uuid.UUID       `gorm:"column:restaurant_id;type:uuid;not null;index"`
	Name         string          `gorm:"column:name;not null"`
	Description  string          `gorm:"column:description"`
	Category     string          `gorm:"column:category;not null"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	ImageURL     string          `gorm:"column:image_url"`
	Available    bool            `gorm:"column:available;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
