package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/karibu-app/karibu-backend/pkg/enums"
)

// User is a platform account: diner, restaurant owner, or super-admin.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"column:role;not null;default:'client'"`
	RestaurantID *uuid.UUID     `gorm:"column:restaurant_id;type:uuid"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
