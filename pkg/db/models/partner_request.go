package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/karibu-app/karibu-backend/pkg/enums"
)

// PartnerRequest is an application from a restaurant owner who wants to
// join the platform. Approval provisions the restaurant and its owner
// account.
type PartnerRequest struct {
	ID             uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerName      string                     `gorm:"column:owner_name;not null"`
	Email          string                     `gorm:"column:email;not null"`
	RestaurantName string                     `gorm:"column:restaurant_name;not null"`
	Phone          string                     `gorm:"column:phone;not null"`
	Description    string                     `gorm:"column:description"`
	Address        string                     `gorm:"column:address"`
	Status         enums.PartnerRequestStatus `gorm:"column:status;not null;default:'PENDING'"`
	RestaurantID   *uuid.UUID                 `gorm:"column:restaurant_id;type:uuid"`
	CreatedAt      time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
