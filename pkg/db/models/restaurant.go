package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/karibu-app/karibu-backend/pkg/types"
)

// Restaurant is a partner establishment reachable over WhatsApp.
type Restaurant struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug          string              `gorm:"column:slug;not null;uniqueIndex"`
	Name          string              `gorm:"column:name;not null"`
	OwnerName     string              `gorm:"column:owner_name;not null"`
	WhatsappPhone string              `gorm:"column:whatsapp_phone;not null"`
	Active        bool                `gorm:"column:active;not null;default:true"`
	ImageURL      string              `gorm:"column:image_url"`
	DeliveryZones types.DeliveryZones `gorm:"column:delivery_zones;type:jsonb"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
