package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karibu-app/karibu-backend/pkg/enums"
)

// PromoCode is a restaurant-scoped discount code. UsageLimit of zero means
// unlimited redemptions.
type PromoCode struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID uuid.UUID       `gorm:"column:restaurant_id;type:uuid;not null;uniqueIndex:idx_promo_restaurant_code"`
	Code         string          `gorm:"column:code;not null;uniqueIndex:idx_promo_restaurant_code"`
	Kind         enums.PromoKind `gorm:"column:kind;not null"`
	Value        decimal.Decimal `gorm:"column:value;type:numeric(10,2);not null"`
	MinSubtotal  decimal.Decimal `gorm:"column:min_subtotal;type:numeric(10,2);not null;default:0"`
	UsageLimit   int             `gorm:"column:usage_limit;not null;default:0"`
	UsedCount    int             `gorm:"column:used_count;not null;default:0"`
	ExpiresAt    *time.Time      `gorm:"column:expires_at"`
	Active       bool            `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
